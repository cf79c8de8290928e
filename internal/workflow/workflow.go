// Package workflow drives one photo submission from file selection through
// analysis, manual review and a simulated upload, then hands the finished
// record to a RecordSink.
//
// Every asynchronous step carries the generation it was started in. Reset,
// Retake and Close bump the generation and cancel scheduled tasks, so results
// and timer callbacks from a superseded attempt are dropped.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/clandphoto/internal/domain"
	"github.com/vbonduro/clandphoto/internal/metrics"
	"github.com/vbonduro/clandphoto/internal/vision"
)

type State string

const (
	StateIdle      State = "idle"
	StateAnalyzing State = "analyzing"
	StateReviewing State = "reviewing"
	StateSaving    State = "saving"
	StateSuccess   State = "success"
)

type Field string

const (
	FieldLicensePlate Field = "licensePlate"
	FieldVehicleModel Field = "vehicleModel"
	FieldDescription  Field = "description"
	// FieldTags takes a comma-separated list.
	FieldTags Field = "tags"
)

const (
	TickInterval   = 150 * time.Millisecond
	ProgressStep   = 10
	SettleDelay    = 500 * time.Millisecond
	HandoffDelay   = 1500 * time.Millisecond
	DefaultTimeout = 60 * time.Second
)

var (
	ErrNotImage                  = errors.New("the selected file is not a valid image")
	ErrTooLarge                  = errors.New("the image is too large")
	ErrUnreadable                = errors.New("failed to read the file, try again")
	ErrPlateConfirmationRequired = errors.New("licence plate is empty, confirm to save without it")
	ErrInvalidTransition         = errors.New("operation not allowed in the current state")
	ErrBusy                      = errors.New("analysis in progress")
	ErrClosed                    = errors.New("workflow closed")
	ErrUnknownField              = errors.New("unknown field")
)

// Advisory messages shown while reviewing. They never block the user.
const (
	AdvisoryUnidentified = "The AI could not identify the vehicle automatically. Please fill in the details manually."
	AdvisoryUnavailable  = "Could not reach the analysis service. Please fill in the details manually."
	AdvisorySaveFailed   = "The record could not be saved. Please try again."
)

// RecordSink receives each finalized record exactly once.
type RecordSink interface {
	Append(ctx context.Context, p domain.PhotoEntry) error
}

// Fields are the editable values of the review stage.
type Fields struct {
	LicensePlate string   `json:"licensePlate"`
	VehicleModel string   `json:"vehicleModel"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
}

func (f Fields) clone() Fields {
	f.Tags = slices.Clone(f.Tags)
	return f
}

// Snapshot is a consistent copy of the workflow's observable state. Version
// increases with every change.
type Snapshot struct {
	Version    uint64             `json:"version"`
	State      State              `json:"state"`
	Progress   int                `json:"progress"`
	Error      string             `json:"error,omitempty"`
	Outcome    string             `json:"outcome,omitempty"`
	HasPreview bool               `json:"hasPreview"`
	Preview    string             `json:"-"`
	FileName   string             `json:"fileName,omitempty"`
	Fields     Fields             `json:"fields"`
	Record     *domain.PhotoEntry `json:"-"`
}

type Options struct {
	Analyzer vision.Analyzer
	// Sink is required.
	Sink RecordSink
	// UserID resolves the user stamped on a record when it is finalized.
	UserID         func() string
	Scheduler      Scheduler
	Logger         *slog.Logger
	MaxBytes       int64
	AnalyzeTimeout time.Duration
	Now            func() time.Time
	NewID          func() string
	// OnChange is called after every state change, outside the lock.
	OnChange func(Snapshot)
	// OnCommitted is called after the sink accepted a record.
	OnCommitted func(domain.PhotoEntry)
}

type Workflow struct {
	analyzer    vision.Analyzer
	sink        RecordSink
	userID      func() string
	sched       Scheduler
	logger      *slog.Logger
	maxBytes    int64
	timeout     time.Duration
	now         func() time.Time
	newID       func() string
	onChange    func(Snapshot)
	onCommitted func(domain.PhotoEntry)

	baseCtx    context.Context
	cancelBase context.CancelFunc
	wg         sync.WaitGroup

	mu            sync.Mutex
	closed        bool
	gen           uint64
	version       uint64
	state         State
	progress      int
	errMsg        string
	outcome       vision.Kind
	hasOutcome    bool
	fileName      string
	mimeType      string
	preview       string
	fields        Fields
	frozen        Fields
	record        *domain.PhotoEntry
	cancelAttempt context.CancelFunc
	tasks         tasks
	ticker        int
}

func New(opts Options) *Workflow {
	w := &Workflow{
		analyzer:    opts.Analyzer,
		sink:        opts.Sink,
		userID:      opts.UserID,
		sched:       opts.Scheduler,
		logger:      opts.Logger,
		maxBytes:    opts.MaxBytes,
		timeout:     opts.AnalyzeTimeout,
		now:         opts.Now,
		newID:       opts.NewID,
		onChange:    opts.OnChange,
		onCommitted: opts.OnCommitted,
		state:       StateIdle,
	}
	if w.sched == nil {
		w.sched = SystemScheduler{}
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	w.logger = w.logger.With("component", "workflow")
	if w.maxBytes <= 0 {
		w.maxBytes = DefaultMaxBytes
	}
	if w.timeout <= 0 {
		w.timeout = DefaultTimeout
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.newID == nil {
		w.newID = uuid.NewString
	}
	if w.userID == nil {
		w.userID = func() string { return "" }
	}
	w.baseCtx, w.cancelBase = context.WithCancel(context.Background())
	return w
}

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Workflow) snapshotLocked() Snapshot {
	s := Snapshot{
		Version:    w.version,
		State:      w.state,
		Progress:   w.progress,
		Error:      w.errMsg,
		HasPreview: w.preview != "",
		Preview:    w.preview,
		FileName:   w.fileName,
		Fields:     w.fields.clone(),
	}
	if w.hasOutcome {
		s.Outcome = w.outcome.String()
	}
	if w.record != nil {
		rec := w.record.Clone()
		s.Record = &rec
	}
	return s
}

// SelectFile validates f and, when it passes, starts reading and analysing it
// in the background. A rejected file leaves the workflow idle with the error
// set and is never opened.
func (w *Workflow) SelectFile(f File) error {
	w.mu.Lock()
	if err := w.usableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	switch w.state {
	case StateIdle:
	case StateAnalyzing:
		w.mu.Unlock()
		return ErrBusy
	default:
		w.mu.Unlock()
		return ErrInvalidTransition
	}

	if err := validate(f, w.maxBytes); err != nil {
		metrics.InputRejected(rejectionReason(err))
		w.logger.Info("photo rejected", "file", f.Name, "mime_type", f.MIMEType, "size", f.Size, "error", err)
		w.errMsg = err.Error()
		w.unlockAndNotify()
		return err
	}

	w.errMsg = ""
	w.fileName = f.Name
	w.mimeType = f.MIMEType
	w.setStateLocked(StateAnalyzing)

	ctx, cancel := context.WithCancel(w.baseCtx)
	w.cancelAttempt = cancel
	gen := w.gen
	w.wg.Add(1)
	w.unlockAndNotify()

	go func() {
		defer w.wg.Done()
		defer cancel()
		w.analyze(ctx, gen, f)
	}()
	return nil
}

func (w *Workflow) analyze(ctx context.Context, gen uint64, f File) {
	data, err := readFile(f, w.maxBytes)
	if err != nil {
		w.logger.Warn("failed to read photo", "file", f.Name, "error", err)
		w.apply(gen, func() {
			if errors.Is(err, ErrTooLarge) {
				metrics.InputRejected("too_large")
				w.errMsg = err.Error()
			} else {
				metrics.InputRejected("unreadable")
				w.errMsg = ErrUnreadable.Error()
			}
			w.clearAttemptLocked()
			w.setStateLocked(StateIdle)
		})
		return
	}

	if !w.apply(gen, func() { w.preview = DataURL(f.MIMEType, data) }) {
		return
	}

	actx, cancel := context.WithTimeout(ctx, w.timeout)
	out := vision.Evaluate(actx, w.analyzer, data, f.MIMEType)
	cancel()

	switch out.Kind {
	case vision.KindHardFailure:
		w.logger.Warn("photo analysis failed", "file", f.Name, "duration", out.Duration, "error", out.Err)
	case vision.KindSoftFailure:
		w.logger.Info("vehicle not identified", "file", f.Name, "duration", out.Duration)
	default:
		w.logger.Info("photo analysed", "file", f.Name, "duration", out.Duration,
			"vehicle_model", out.Result.VehicleModel, "license_plate", out.Result.LicensePlate)
	}

	w.apply(gen, func() {
		w.outcome = out.Kind
		w.hasOutcome = true
		switch out.Kind {
		case vision.KindSuccess:
			w.fields = fieldsFrom(out.Result)
			w.errMsg = ""
		case vision.KindSoftFailure:
			w.fields = fieldsFrom(out.Result)
			w.errMsg = AdvisoryUnidentified
		default:
			w.fields = Fields{}
			w.errMsg = AdvisoryUnavailable
		}
		w.setStateLocked(StateReviewing)
	})
}

// apply runs fn under the lock if gen is still current and notifies
// observers. It reports whether fn ran.
func (w *Workflow) apply(gen uint64, fn func()) bool {
	w.mu.Lock()
	if w.closed || gen != w.gen {
		w.mu.Unlock()
		return false
	}
	fn()
	w.unlockAndNotify()
	return true
}

// UpdateField edits one review value in place. No validation is applied.
func (w *Workflow) UpdateField(field Field, value string) error {
	w.mu.Lock()
	if err := w.reviewingLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	switch field {
	case FieldLicensePlate:
		w.fields.LicensePlate = value
	case FieldVehicleModel:
		w.fields.VehicleModel = value
	case FieldDescription:
		w.fields.Description = value
	case FieldTags:
		w.fields.Tags = ParseTags(value)
	default:
		w.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	w.unlockAndNotify()
	return nil
}

// SetTags replaces the tag list.
func (w *Workflow) SetTags(tags []string) error {
	w.mu.Lock()
	if err := w.reviewingLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	w.fields.Tags = slices.Clone(tags)
	w.unlockAndNotify()
	return nil
}

// ConfirmSave freezes the review fields and starts the simulated upload. An
// empty plate is refused with ErrPlateConfirmationRequired unless
// allowEmptyPlate is set.
func (w *Workflow) ConfirmSave(allowEmptyPlate bool) error {
	w.mu.Lock()
	if err := w.reviewingLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.preview == "" {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	if w.fields.LicensePlate == "" && !allowEmptyPlate {
		w.mu.Unlock()
		return ErrPlateConfirmationRequired
	}

	w.frozen = w.fields.clone()
	w.errMsg = ""
	w.progress = 0
	w.setStateLocked(StateSaving)

	gen := w.gen
	w.ticker = w.tasks.add(w.sched.Every(TickInterval, func() { w.tick(gen) }))
	w.unlockAndNotify()
	return nil
}

func (w *Workflow) tick(gen uint64) {
	w.apply(gen, func() {
		if w.state != StateSaving || w.progress >= 100 {
			return
		}
		w.progress = min(w.progress+ProgressStep, 100)
		if w.progress < 100 {
			return
		}
		w.tasks.cancel(w.ticker)
		w.tasks.add(w.sched.After(SettleDelay, func() { w.finalize(gen) }))
	})
}

func (w *Workflow) finalize(gen uint64) {
	userID := w.userID()
	w.apply(gen, func() {
		if w.state != StateSaving {
			return
		}
		rec := domain.PhotoEntry{
			ID:           w.newID(),
			ImageURL:     w.preview,
			Timestamp:    w.now(),
			UserID:       userID,
			Description:  w.frozen.Description,
			Tags:         slices.Clone(w.frozen.Tags),
			VehicleModel: w.frozen.VehicleModel,
			LicensePlate: w.frozen.LicensePlate,
		}
		w.record = &rec
		w.setStateLocked(StateSuccess)
		w.tasks.add(w.sched.After(HandoffDelay, func() { w.handoff(gen) }))
	})
}

func (w *Workflow) handoff(gen uint64) {
	w.mu.Lock()
	if w.closed || gen != w.gen || w.state != StateSuccess || w.record == nil {
		w.mu.Unlock()
		return
	}
	rec := w.record.Clone()
	// Clearing the record makes a second handoff for this generation a no-op.
	w.record = nil
	ctx := w.baseCtx
	w.mu.Unlock()

	if err := w.sink.Append(ctx, rec); err != nil {
		w.logger.Error("failed to append record", "record_id", rec.ID, "error", err)
		w.apply(gen, func() {
			w.errMsg = AdvisorySaveFailed
			w.progress = 0
			w.setStateLocked(StateReviewing)
		})
		return
	}

	metrics.RecordCommitted()
	w.logger.Info("record committed", "record_id", rec.ID, "user_id", rec.UserID, "license_plate", rec.LicensePlate)
	if w.onCommitted != nil {
		w.onCommitted(rec.Clone())
	}
}

// Retake discards the current attempt and returns to idle. It is accepted
// while analysing or reviewing, and is a no-op reset when idle.
func (w *Workflow) Retake() error {
	w.mu.Lock()
	if err := w.usableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	switch w.state {
	case StateIdle, StateAnalyzing, StateReviewing:
	default:
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	w.resetLocked()
	w.unlockAndNotify()
	return nil
}

// Reset returns to idle from any state, cancelling pending work. A record
// not yet handed off is dropped.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	if err := w.usableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	w.resetLocked()
	w.unlockAndNotify()
	return nil
}

// DismissError clears the error banner without changing state.
func (w *Workflow) DismissError() error {
	w.mu.Lock()
	if err := w.usableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.errMsg == "" {
		w.mu.Unlock()
		return nil
	}
	w.errMsg = ""
	w.unlockAndNotify()
	return nil
}

// Close cancels all pending work and waits for background analysis to
// return. Further calls return ErrClosed.
func (w *Workflow) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.gen++
	w.tasks.cancelAll()
	w.mu.Unlock()

	w.cancelBase()
	w.wg.Wait()
	return nil
}

func (w *Workflow) resetLocked() {
	w.gen++
	w.tasks.cancelAll()
	if w.cancelAttempt != nil {
		w.cancelAttempt()
		w.cancelAttempt = nil
	}
	w.errMsg = ""
	w.progress = 0
	w.record = nil
	w.frozen = Fields{}
	w.clearAttemptLocked()
	w.setStateLocked(StateIdle)
}

func (w *Workflow) clearAttemptLocked() {
	w.preview = ""
	w.fileName = ""
	w.mimeType = ""
	w.fields = Fields{}
	w.hasOutcome = false
}

func (w *Workflow) usableLocked() error {
	if w.closed {
		return ErrClosed
	}
	return nil
}

func (w *Workflow) reviewingLocked() error {
	if w.closed {
		return ErrClosed
	}
	switch w.state {
	case StateReviewing:
		return nil
	case StateAnalyzing:
		return ErrBusy
	default:
		return ErrInvalidTransition
	}
}

func (w *Workflow) setStateLocked(to State) {
	if w.state == to {
		return
	}
	metrics.Transition(string(w.state), string(to))
	w.state = to
}

// unlockAndNotify bumps the version, releases the lock and reports the new
// snapshot.
func (w *Workflow) unlockAndNotify() {
	w.version++
	var snap Snapshot
	notify := w.onChange != nil
	if notify {
		snap = w.snapshotLocked()
	}
	w.mu.Unlock()
	if notify {
		w.onChange(snap)
	}
}

func fieldsFrom(r *vision.AnalysisResult) Fields {
	return Fields{
		LicensePlate: r.LicensePlate,
		VehicleModel: r.VehicleModel,
		Description:  r.Description,
		Tags:         slices.Clone(r.Tags),
	}
}

// ParseTags splits a comma-separated list, trimming blanks.
func ParseTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrTooLarge):
		return "too_large"
	case errors.Is(err, ErrNotImage):
		return "not_image"
	default:
		return "unreadable"
	}
}
