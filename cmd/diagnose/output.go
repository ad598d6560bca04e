package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
)

func validFormat(format string) bool {
	switch format {
	case "human", "json", "yaml":
		return true
	}
	return false
}

// writeResult formats the result in the requested output format.
func writeResult(w io.Writer, res *runResult, format string) error {
	switch format {
	case "json":
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "yaml":
		out, err := yaml.Marshal(res)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		writeHuman(w, res)
		return nil
	}
}

func writeHuman(w io.Writer, res *runResult) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)
	rep := res.Report

	fmt.Fprintln(w)
	bold.Fprintf(w, "IMAGE: %s\n", res.Image)
	fmt.Fprintf(w, "   Prediction: %s (%.1f%%)\n", rep.ClassName, rep.Confidence*100)
	fmt.Fprintf(w, "   Tumor type: %s\n", rep.TumorType)
	riskColor(entity.RiskTier(rep.RiskTier)).Fprintf(w, "   Risk:       %s\n", strings.ToUpper(rep.RiskTier))
	fmt.Fprintf(w, "   Sequence:   %s\n", rep.SequenceTag)
	fmt.Fprintf(w, "   Detections: %d\n\n", rep.DetectionCount)

	if len(rep.TopAlternatives) > 0 {
		cyan.Fprintln(w, "ALTERNATIVES:")
		for i, p := range rep.TopAlternatives {
			fmt.Fprintf(w, "   %d. %s (%.1f%%)\n", i+1, p.ClassName, p.Confidence*100)
		}
		fmt.Fprintln(w)
	}

	cyan.Fprintf(w, "OVERLAY (viewport %s):\n", res.Viewport)
	switch {
	case !res.Renderable:
		fmt.Fprintf(w, "   %s\n", color.HiBlackString("not renderable for this viewport"))
	case len(res.Boxes) == 0:
		fmt.Fprintf(w, "   %s\n", color.HiBlackString("no detections"))
	default:
		fmt.Fprintf(w, "   scale %.3f\n", res.Scale)
		for i, b := range res.Boxes {
			fmt.Fprintf(w, "   %d. left=%.1f top=%.1f width=%.1f height=%.1f (%.1f%%)\n",
				i+1, b.Left, b.Top, b.Width, b.Height, b.Confidence*100)
		}
	}
	fmt.Fprintln(w)

	if p := rep.Profile; p != nil {
		cyan.Fprintf(w, "PROFILE: %s\n", p.Name)
		fmt.Fprintf(w, "   %s\n", p.Description)
		fmt.Fprintf(w, "   Survival: 1y %d%%, 5y %d%%, 10y %d%%\n",
			p.SurvivalRate.OneYear, p.SurvivalRate.FiveYear, p.SurvivalRate.TenYear)
		if len(p.CommonSymptoms) > 0 {
			fmt.Fprintf(w, "   Symptoms: %s\n", strings.Join(p.CommonSymptoms, ", "))
		}
		if len(p.TreatmentOptions) > 0 {
			fmt.Fprintf(w, "   Treatment: %s\n", strings.Join(p.TreatmentOptions, ", "))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "%s\n", color.HiBlackString("Run with -o json or -o yaml for machine-readable output"))
}

func riskColor(tier entity.RiskTier) *color.Color {
	switch tier {
	case entity.RiskHigh:
		return color.New(color.FgRed, color.Bold)
	case entity.RiskModerate:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgGreen, color.Bold)
	}
}
