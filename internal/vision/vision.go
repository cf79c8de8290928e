package vision

import (
	"context"
	"io"
	"slices"
)

// AnalysisPrompt is the shared prompt used by all vision adapters.
const AnalysisPrompt = `Act as an expert technical vehicle inspector. Analyse this image with close
attention to detail, even when the photo quality is poor.

1. Identification: identify the make/model and the licence plate. If the image is
   blurred, pixelated or dark, give your best estimate from the visible shapes. If it
   is completely impossible, answer "Not identified" for the model and "Not visible"
   for the plate. Prefix uncertain models with "Probable: ".
2. Condition (critical): describe the vehicle's condition in detail, looking for
   damage (dents, scratches, burnt paint), tyre and wheel state, glass and headlight
   integrity, cleanliness and general condition.
3. Low quality: if lighting or focus is poor, say so in the description but still
   analyse whatever is visible.

Respond with JSON only, in exactly this shape:
{"vehicleModel": "...", "licensePlate": "ABC-1234", "description": "...", "tags": ["..."]}`

// Sentinel values an analyzer places in a result when it could not read the
// vehicle. They are display text, not control flow: callers branch on
// Outcome.Kind.
const (
	ModelNotIdentified = "Not identified"
	PlateNotVisible    = "Not visible"
	PlateIllegible     = "ILLEGIBLE"
	FailureMarker      = "Error"

	DefaultDescription = "Analysis unavailable due to image quality."
	DefaultTag         = "General"
	FailureDescription = "The image could not be analysed automatically. Check the connection or the file quality."
)

// FailureTags tag a result produced when the model reply could not be used.
var FailureTags = []string{"AI error", "Manual"}

type Analyzer interface {
	Analyze(ctx context.Context, r io.Reader, mimeType string) (*AnalysisResult, error)
}

// Summarizer writes free text for a prompt. Used for report summaries.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

type AnalysisResult struct {
	VehicleModel string
	LicensePlate string
	Description  string
	Tags         []string
	RawResponse  string
}

// Unidentified reports whether the analyzer could read neither the model nor
// the plate.
func (r *AnalysisResult) Unidentified() bool {
	return isModelSentinel(r.VehicleModel) && isPlateSentinel(r.LicensePlate)
}

// FailedResult is the result adapters return when the model answered but the
// answer could not be interpreted.
func FailedResult(raw string) *AnalysisResult {
	return &AnalysisResult{
		VehicleModel: FailureMarker,
		LicensePlate: FailureMarker,
		Description:  FailureDescription,
		Tags:         slices.Clone(FailureTags),
		RawResponse:  raw,
	}
}

func isModelSentinel(s string) bool {
	return s == "" || s == FailureMarker || s == ModelNotIdentified
}

func isPlateSentinel(s string) bool {
	return s == "" || s == FailureMarker || s == PlateNotVisible || s == PlateIllegible
}
