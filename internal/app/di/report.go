package di

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"mri_diagnosis/internal/feature/diagnosis/adapters/gemini"
	"mri_diagnosis/internal/feature/diagnosis/domain/report"
	"mri_diagnosis/internal/feature/diagnosis/usecase"
)

// NewDeriver creates the report deriver from REPORT_CONFIG_PATH, or the defaults when unset.
func NewDeriver() (*report.Deriver, error) {
	path := os.Getenv("REPORT_CONFIG_PATH")
	if path == "" {
		return report.NewDeriver(report.DefaultConfig()), nil
	}
	cfg, err := report.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("load report config: %w", err)
	}
	slog.Info("report policy loaded", "path", path, "high_risk_types", cfg.HighRiskTypes)
	return report.NewDeriver(cfg), nil
}

// NewNarrator creates the optional Gemini narrator when GEMINI_ENABLED is true.
// It returns nil when the narrative is disabled.
func NewNarrator(ctx context.Context) (usecase.ReportNarrator, error) {
	enabled, _ := strconv.ParseBool(os.Getenv("GEMINI_ENABLED"))
	if !enabled {
		return nil, nil
	}
	n, err := gemini.NewGeminiNarrator(ctx)
	if err != nil {
		return nil, err
	}
	return n, nil
}
