package workflow

// wait blocks until background analysis goroutines have returned.
func (w *Workflow) wait() {
	w.wg.Wait()
}
