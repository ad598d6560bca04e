package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"mri_diagnosis/internal/app/di"
	"mri_diagnosis/internal/feature/diagnosis/adapters/inference"
	"mri_diagnosis/internal/feature/diagnosis/adapters/memory"
	"mri_diagnosis/internal/feature/diagnosis/adapters/preview"
	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
	"mri_diagnosis/internal/feature/diagnosis/transport/http/dto"
	"mri_diagnosis/internal/feature/diagnosis/usecase"
	"mri_diagnosis/internal/platform/logging"
)

const defaultViewport = "512x512"

// errDiagnosisFailed is returned when the classification settles in the failed phase.
var errDiagnosisFailed = errors.New("diagnosis failed")

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <image>",
		Short: "Classify one image and print the report",
		Long: `Run uploads one MRI image, waits for the classification to settle and
prints the report.

Examples:
  # Classify against a local service
  diagnose run --endpoint http://localhost:8000/classify scan.png

  # Map boxes onto an 800x600 viewport and print YAML
  diagnose run --viewport 800x600 -o yaml scan.png`,
		Args: cobra.ExactArgs(1),
		RunE: runRunCmd,
	}

	cmd.Flags().StringP("endpoint", "e", "",
		"Classification endpoint (default: $INFERENCE_URL)")
	cmd.Flags().String("viewport", defaultViewport,
		"Viewport size used to map detection boxes, as WIDTHxHEIGHT")
	cmd.Flags().StringP("output", "o", "human",
		"Output format: human, json or yaml")
	cmd.Flags().DurationP("timeout", "t", inference.DefaultTimeout,
		"Timeout for the classification request")

	return cmd
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	endpoint, _ := cmd.Flags().GetString("endpoint")
	viewport, _ := cmd.Flags().GetString("viewport")
	format, _ := cmd.Flags().GetString("output")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")

	width, height, err := parseViewport(viewport)
	if err != nil {
		return err
	}
	if !validFormat(format) {
		return fmt.Errorf("unknown output format %q (want human, json or yaml)", format)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(cmd.ErrOrStderr(), logging.Config{Format: "text", Level: level})

	cfg := inference.LoadConfig()
	if endpoint != "" {
		cfg.URL = endpoint
	}
	if timeout > 0 {
		cfg.Timeout = timeout
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := diagnose(ctx, cfg, logger, args[0], width, height)
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), res, format)
}

// diagnose runs one image through the pipeline with an in-process session store.
func diagnose(ctx context.Context, cfg inference.Config, logger *slog.Logger, path string, width, height float64) (*runResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	classifier, err := di.NewClassifier(cfg, nil)
	if err != nil {
		return nil, err
	}
	deriver, err := di.NewDeriver()
	if err != nil {
		return nil, err
	}

	uc := usecase.NewDiagnosisUsecase(memory.NewSessionMemory(0), classifier, preview.NewEncoder(), deriver,
		usecase.WithTimeout(cfg.Timeout),
		usecase.WithLogger(logger),
	)

	s, err := uc.CreateSession(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = uc.EndSession(context.WithoutCancel(ctx), s.ID) }()

	if _, err := uc.ResizeViewport(ctx, s.ID, width, height); err != nil {
		return nil, err
	}
	if _, err := uc.SelectFile(ctx, s.ID, filepath.Base(path), data); err != nil {
		return nil, err
	}

	settled := make(chan struct{})
	go func() {
		uc.Wait()
		close(settled)
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-settled:
	}

	view, err := uc.View(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	if view.Session.Phase == entity.PhaseFailed {
		logger.Debug("classification failed", "cause", view.Session.FailureCause)
		return nil, fmt.Errorf("%w: %s", errDiagnosisFailed, view.Session.ErrorMessage)
	}

	rep, err := uc.ExpandReport(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	return newRunResult(path, view, rep), nil
}

func parseViewport(v string) (float64, float64, error) {
	w, h, ok := strings.Cut(strings.ToLower(v), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid viewport %q (want WIDTHxHEIGHT)", v)
	}
	width, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
	if err != nil || width < 0 {
		return 0, 0, fmt.Errorf("invalid viewport width %q", w)
	}
	height, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil || height < 0 {
		return 0, 0, fmt.Errorf("invalid viewport height %q", h)
	}
	return width, height, nil
}

// runResult is the machine-readable output of the run command.
type runResult struct {
	Image      string                   `json:"image" yaml:"image"`
	Report     dto.ReportResponse       `json:"report" yaml:"report"`
	Viewport   string                   `json:"viewport" yaml:"viewport"`
	Scale      float64                  `json:"scale" yaml:"scale"`
	Renderable bool                     `json:"renderable" yaml:"renderable"`
	Boxes      []dto.OverlayBoxResponse `json:"boxes" yaml:"boxes"`
}

func newRunResult(path string, view *entity.View, rep *entity.Report) *runResult {
	v := dto.NewViewResponse(view)
	return &runResult{
		Image:      filepath.Base(path),
		Report:     dto.NewReportResponse(rep),
		Viewport:   fmt.Sprintf("%gx%g", view.Session.Viewport.Width, view.Session.Viewport.Height),
		Scale:      v.Overlay.Scale,
		Renderable: v.Overlay.Renderable,
		Boxes:      v.Overlay.Boxes,
	}
}
