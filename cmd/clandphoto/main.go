package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vbonduro/clandphoto/internal/config"
	"github.com/vbonduro/clandphoto/internal/vision"
	claudevision "github.com/vbonduro/clandphoto/internal/vision/claude"
	geminivision "github.com/vbonduro/clandphoto/internal/vision/gemini"
	ollamavision "github.com/vbonduro/clandphoto/internal/vision/ollama"
)

var rootCmd = &cobra.Command{
	Use:   "clandphoto",
	Short: "Vehicle inspection photo collection service",
	Long: `clandphoto collects vehicle inspection photos, asks a vision model to
identify the vehicle and its licence plate, and keeps the reviewed records
for the dashboard and printable reports.

Configuration is read from the environment (LISTEN_ADDR, VISION_BACKEND,
GEMINI_API_KEY, CLAUDE_API_KEY, OLLAMA_HOST, MASTER_PASSWORD, ...).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// backend is what every vision adapter provides.
type backend interface {
	vision.Analyzer
	vision.Summarizer
}

// newBackend builds the adapter selected by VISION_BACKEND. A missing API key
// is an error; callers decide whether to run without analysis.
func newBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (backend, error) {
	switch cfg.VisionBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			return nil, fmt.Errorf("CLAUDE_API_KEY is required when VISION_BACKEND=claude")
		}
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeAnalyzer(cfg.ClaudeAPIKey, cfg.ClaudeModel), nil
	case "ollama":
		logger.Info("using Ollama vision backend", "host", cfg.OllamaHost, "model", cfg.OllamaModel)
		return ollamavision.NewOllamaAnalyzer(cfg.OllamaHost, cfg.OllamaModel), nil
	case "gemini", "":
		a, err := geminivision.NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini analyzer: %w", err)
		}
		logger.Info("using Gemini vision backend", "model", cfg.GeminiModel)
		return a, nil
	default:
		return nil, fmt.Errorf("unknown VISION_BACKEND %q", cfg.VisionBackend)
	}
}
