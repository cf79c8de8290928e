package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vbonduro/clandphoto/internal/metrics"
)

type Kind int

const (
	// KindSuccess: the analyzer identified the vehicle.
	KindSuccess Kind = iota
	// KindSoftFailure: the analyzer answered but could read neither model nor plate.
	KindSoftFailure
	// KindHardFailure: the call failed; there is no usable result.
	KindHardFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindSoftFailure:
		return "soft_failure"
	case KindHardFailure:
		return "hard_failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var ErrNoAnalyzer = errors.New("no analyzer configured")

// Outcome is the tagged result of one analysis attempt. Result is set for
// KindSuccess and KindSoftFailure; Err is set for KindHardFailure.
type Outcome struct {
	Kind     Kind
	Result   *AnalysisResult
	Err      error
	Duration time.Duration
}

// Evaluate runs a single analysis and classifies it. It never returns an
// error: transport failures, timeouts and panics inside the adapter all
// become KindHardFailure.
func Evaluate(ctx context.Context, a Analyzer, image []byte, mimeType string) (out Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Kind: KindHardFailure, Err: fmt.Errorf("analyzer panicked: %v", r)}
		}
		out.Duration = time.Since(start)
		metrics.ObserveAnalysis(out.Kind.String(), out.Duration)
	}()

	if a == nil {
		return Outcome{Kind: KindHardFailure, Err: ErrNoAnalyzer}
	}

	result, err := a.Analyze(ctx, bytes.NewReader(image), mimeType)
	if err != nil {
		return Outcome{Kind: KindHardFailure, Err: err}
	}
	if result == nil {
		return Outcome{Kind: KindHardFailure, Err: errors.New("analyzer returned no result")}
	}
	if result.Unidentified() {
		return Outcome{Kind: KindSoftFailure, Result: result}
	}
	return Outcome{Kind: KindSuccess, Result: result}
}
