package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
)

var sampleReport = entity.Report{
	TumorType:      "Glioma",
	RiskTier:       entity.RiskHigh,
	SequenceTag:    "T1",
	Confidence:     0.91,
	DetectionCount: 1,
	TopAlternatives: []entity.Prediction{
		{ClassName: "Meningioma T1", Confidence: 0.05},
	},
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt(sampleReport)
	assert.Contains(t, prompt, "腫瘍タイプ: Glioma")
	assert.Contains(t, prompt, "リスク区分: high")
	assert.Contains(t, prompt, "信頼度: 91%")
	assert.Contains(t, prompt, "Meningioma T1 (5%)")
}

func TestGeminiNarrator_Narrate(t *testing.T) {
	t.Parallel()

	var gotModel string
	n := &GeminiNarrator{
		model: DefaultModel,
		generate: func(ctx context.Context, model, prompt string) (string, error) {
			gotModel = model
			return "  説明文です。\n", nil
		},
	}

	text, err := n.Narrate(context.Background(), sampleReport)
	require.NoError(t, err)
	assert.Equal(t, "説明文です。", text)
	assert.Equal(t, DefaultModel, gotModel)
}

func TestGeminiNarrator_NarrateError(t *testing.T) {
	t.Parallel()

	errAPI := errors.New("quota exceeded")
	n := &GeminiNarrator{
		model: DefaultModel,
		generate: func(ctx context.Context, model, prompt string) (string, error) {
			return "", errAPI
		},
	}

	_, err := n.Narrate(context.Background(), sampleReport)
	assert.ErrorIs(t, err, errAPI)
	assert.Contains(t, err.Error(), "gemini API request failed")
}
