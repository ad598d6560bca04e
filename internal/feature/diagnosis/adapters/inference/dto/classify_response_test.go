package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Variants(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		body     string
		validate func(t *testing.T, r *ClassifyResponse)
	}{
		{
			name: "bare string",
			body: `"Glioma T1"`,
			validate: func(t *testing.T, r *ClassifyResponse) {
				assert.Equal(t, "Glioma T1", r.ClassName)
				assert.Nil(t, r.Confidence)
				assert.Empty(t, r.Detections)
			},
		},
		{
			name: "snake case with bbox arrays",
			body: `{"class_name": "Meningioma T2", "score": "0.77",
				"boxes": [{"bbox": [1, 2, 3, 4], "score": 0.5}],
				"image_size": [320, 240]}`,
			validate: func(t *testing.T, r *ClassifyResponse) {
				assert.Equal(t, "Meningioma T2", r.ClassName)
				require.NotNil(t, r.Confidence)
				assert.Equal(t, 0.77, *r.Confidence)
				require.Len(t, r.Detections, 1)
				assert.Equal(t, Box{X1: 1, Y1: 2, X2: 3, Y2: 4}, r.Detections[0].Box)
				require.NotNil(t, r.Dimensions)
				assert.Equal(t, Dimensions{Width: 320, Height: 240}, *r.Dimensions)
			},
		},
		{
			name: "flat coordinates and flat dimensions",
			body: `{"label": "Glioma FLAIR", "confidence": 91,
				"detections": [{"x1": 10, "y1": 10, "x2": 50, "y2": 60, "confidence": 80}],
				"image_width": 256, "image_height": 256}`,
			validate: func(t *testing.T, r *ClassifyResponse) {
				require.Len(t, r.Detections, 1)
				assert.Equal(t, Box{X1: 10, Y1: 10, X2: 50, Y2: 60}, r.Detections[0].Box)
				require.NotNil(t, r.Dimensions)
				assert.Equal(t, 256.0, r.Dimensions.Width)
			},
		},
		{
			name: "probabilities map",
			body: `{"prediction": "_NORMAL T1", "probabilities": {"_NORMAL T1": 0.9, "Glioma T1": 0.1}}`,
			validate: func(t *testing.T, r *ClassifyResponse) {
				assert.Equal(t, "_NORMAL T1", r.ClassName)
				// マップの走査順に依存せずクラス名順に並ぶ
				assert.Equal(t, []Alternative{
					{ClassName: "Glioma T1", Confidence: 0.1},
					{ClassName: "_NORMAL T1", Confidence: 0.9},
				}, r.Alternatives)
			},
		},
		{
			name: "top predictions list",
			body: `{"predicted_class": "Pituitary T1", "detections": null,
				"top_predictions": [{"label": "Pituitary T1", "probability": 0.8}, {"class": "Glioma T1", "score": 0.2}]}`,
			validate: func(t *testing.T, r *ClassifyResponse) {
				assert.Empty(t, r.Detections)
				require.Len(t, r.Alternatives, 2)
				assert.Equal(t, Alternative{ClassName: "Glioma T1", Confidence: 0.2}, r.Alternatives[1])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r, err := Parse([]byte(tc.body))
			require.NoError(t, err)
			tc.validate(t, r)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{
		"empty":              ``,
		"blank label":        `"  "`,
		"array":              `[1,2,3]`,
		"missing label":      `{"confidence": 0.5}`,
		"numeric label":      `{"className": 3}`,
		"bad confidence":     `{"className": "Glioma", "confidence": "high"}`,
		"short bbox":         `{"className": "Glioma", "detections": [{"bbox": [1,2,3]}]}`,
		"missing coordinate": `{"className": "Glioma", "detections": [{"box": {"x1": 1, "y1": 2, "x2": 3}}]}`,
		"bad dimensions":     `{"className": "Glioma", "dimensions": {"width": 256}}`,
		"alternative label":  `{"className": "Glioma", "alternatives": [{"confidence": 0.2}]}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(body))
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}
