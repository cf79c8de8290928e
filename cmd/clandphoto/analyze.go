package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vbonduro/clandphoto/internal/config"
	"github.com/vbonduro/clandphoto/internal/logging"
	"github.com/vbonduro/clandphoto/internal/vision"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <photo>",
	Short: "Run one photo through the configured vision backend",
	Long: `Sends a single photo to the backend selected by VISION_BACKEND and
prints the classified outcome (success, soft_failure or hard_failure) as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

// analyzeReport is the JSON printed by the analyze command.
type analyzeReport struct {
	File       string                 `json:"file"`
	MIMEType   string                 `json:"mimeType"`
	Outcome    string                 `json:"outcome"`
	DurationMS int64                  `json:"durationMs"`
	Result     *vision.AnalysisResult `json:"result,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := logging.Discard()
	if cfg.LogLevel == "debug" {
		l, cleanup, err := logging.New(cfg.LogLevel, "text", "")
		if err != nil {
			return err
		}
		defer cleanup()
		logger = l
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read photo: %w", err)
	}
	mimeType := photoMIME(path, data)

	a, err := newBackend(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.AnalyzeTimeout)
	defer cancel()
	out := vision.Evaluate(ctx, a, data, mimeType)

	report := analyzeReport{
		File:       path,
		MIMEType:   mimeType,
		Outcome:    out.Kind.String(),
		DurationMS: out.Duration.Milliseconds(),
		Result:     out.Result,
	}
	if out.Err != nil {
		report.Error = out.Err.Error()
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// photoMIME prefers the sniffed type and falls back to the file extension
// for formats the sniffer does not know, such as HEIC.
func photoMIME(path string, data []byte) string {
	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
