// Package gemini はGoogle Gemini APIを使用したレポート説明文の生成クライアントを提供します。
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
	"mri_diagnosis/internal/feature/diagnosis/usecase"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"
)

// generator はGemini APIのテキスト生成呼び出しです。テストで差し替えます。
type generator func(ctx context.Context, model, prompt string) (string, error)

// GeminiNarrator はGoogle Gemini APIを使用して詳細レポートの説明文を生成します。
type GeminiNarrator struct {
	generate generator
	model    string
}

// GeminiNarratorがReportNarratorを実装していることをコンパイル時に検証します。
var _ usecase.ReportNarrator = (*GeminiNarrator)(nil)

// NewGeminiNarrator はADCを使用してGeminiNarratorの新しいインスタンスを生成します。
// 環境変数 GOOGLE_GENAI_USE_VERTEXAI, GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION が必要です。
func NewGeminiNarrator(ctx context.Context) (*GeminiNarrator, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiNarrator{
		model: DefaultModel,
		generate: func(ctx context.Context, model, prompt string) (string, error) {
			resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
			if err != nil {
				return "", err
			}
			return resp.Text(), nil
		},
	}, nil
}

// Narrate はレポートの内容から患者向けの説明文を生成します。
func (g *GeminiNarrator) Narrate(ctx context.Context, report entity.Report) (string, error) {
	text, err := g.generate(ctx, g.model, BuildPrompt(report))
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// BuildPrompt はレポートから説明文生成用のプロンプトを組み立てます。
func BuildPrompt(report entity.Report) string {
	var b strings.Builder
	b.WriteString("日本語で、脳MRI画像のAI分類結果を患者向けに3文以内で説明して。")
	b.WriteString("診断を断定せず、必ず専門医の受診を勧めること。\n")
	fmt.Fprintf(&b, "腫瘍タイプ: %s\n", report.TumorType)
	fmt.Fprintf(&b, "リスク区分: %s\n", report.RiskTier)
	fmt.Fprintf(&b, "MRIシーケンス: %s\n", report.SequenceTag)
	fmt.Fprintf(&b, "信頼度: %.0f%%\n", report.Confidence*100)
	fmt.Fprintf(&b, "検出領域数: %d\n", report.DetectionCount)
	if len(report.TopAlternatives) > 0 {
		names := make([]string, 0, len(report.TopAlternatives))
		for _, a := range report.TopAlternatives {
			names = append(names, fmt.Sprintf("%s (%.0f%%)", strings.TrimSpace(a.ClassName), a.Confidence*100))
		}
		fmt.Fprintf(&b, "その他の候補: %s\n", strings.Join(names, ", "))
	}
	return b.String()
}
