package inference

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"mri_diagnosis/internal/feature/diagnosis/adapters/inference/dto"
	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
	"mri_diagnosis/internal/feature/diagnosis/domain/geometry"
)

// NormalizeOptions controls how loosely typed responses are converted.
type NormalizeOptions struct {
	// MaxAlternatives caps the alternatives kept from the response (0 = keep all).
	MaxAlternatives int
}

// unitTolerance absorbs float noise on probabilities that should be exactly 1.
const unitTolerance = 1e-6

// Normalize converts a raw response into the canonical outcome.
//
// Confidences at most unitTolerance above 1 are clamped to 1; the rest of
// the percent scale (1 < v <= 100) is divided by 100.
// Negative values or values above 100 are rejected. Box corners are
// reordered so that x2 >= x1 and y2 >= y1. Dimensions that round to zero or
// below are treated as absent.
func Normalize(resp *dto.ClassifyResponse, opts NormalizeOptions) (*entity.ClassificationOutcome, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", dto.ErrMalformedPayload)
	}

	alts := make([]entity.Prediction, 0, len(resp.Alternatives))
	for _, a := range resp.Alternatives {
		c, err := unit(a.Confidence)
		if err != nil {
			return nil, fmt.Errorf("alternative %q: %w", a.ClassName, err)
		}
		alts = append(alts, entity.Prediction{ClassName: a.ClassName, Confidence: c})
	}
	sort.SliceStable(alts, func(i, j int) bool {
		if alts[i].Confidence != alts[j].Confidence {
			return alts[i].Confidence > alts[j].Confidence
		}
		return alts[i].ClassName < alts[j].ClassName
	})
	if opts.MaxAlternatives > 0 && len(alts) > opts.MaxAlternatives {
		alts = alts[:opts.MaxAlternatives]
	}

	var confidence float64
	if resp.Confidence != nil {
		c, err := unit(*resp.Confidence)
		if err != nil {
			return nil, fmt.Errorf("confidence: %w", err)
		}
		confidence = c
	} else {
		// 信頼度が無い場合は同名の候補から補う
		for _, a := range alts {
			if strings.TrimSpace(a.ClassName) == strings.TrimSpace(resp.ClassName) {
				confidence = a.Confidence
				break
			}
		}
	}

	detections := make([]entity.Detection, 0, len(resp.Detections))
	for i, d := range resp.Detections {
		var c float64
		if d.Confidence != nil {
			v, err := unit(*d.Confidence)
			if err != nil {
				return nil, fmt.Errorf("detection %d: %w", i, err)
			}
			c = v
		}
		detections = append(detections, entity.Detection{
			Box: geometry.Box{
				X1: math.Min(d.Box.X1, d.Box.X2),
				Y1: math.Min(d.Box.Y1, d.Box.Y2),
				X2: math.Max(d.Box.X1, d.Box.X2),
				Y2: math.Max(d.Box.Y1, d.Box.Y2),
			},
			Confidence: c,
		})
	}

	out := &entity.ClassificationOutcome{
		Result: entity.ClassificationResult{
			ClassName:    resp.ClassName,
			Confidence:   confidence,
			Alternatives: alts,
		},
		Detections: detections,
	}
	if d := resp.Dimensions; d != nil {
		// 丸めた結果が0以下になる寸法は無いものとして扱う
		w, h := int(math.Round(d.Width)), int(math.Round(d.Height))
		if w > 0 && h > 0 {
			out.Dimensions = &entity.ImageDimensions{Width: w, Height: h}
		}
	}
	return out, nil
}

// unit maps a confidence onto [0,1].
func unit(v float64) (float64, error) {
	switch {
	case math.IsNaN(v) || v < 0 || v > 100:
		return 0, fmt.Errorf("%w: confidence %v out of range", dto.ErrMalformedPayload, v)
	case v > 1 && v <= 1+unitTolerance:
		return 1, nil
	case v > 1:
		return v / 100, nil
	default:
		return v, nil
	}
}
