package imaging

// Len reports how many thumbnails are cached.
func (t *Thumbnailer) Len() int {
	return t.cache.Len()
}
