// Package report は分類ラベルから詳細レポートを導出する純粋関数を提供します。
//
// ラベル形式: "<TumorType> <MRIシーケンス（任意）>"。正常クラスは "_NORMAL T1" のように表されます。
// すべての関数はネットワークや状態を持たず、冪等です。
package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
)

// NoTumorDetected は正常クラスの腫瘍タイプ表示です。
const NoTumorDetected = "No tumor detected"

// UnknownTumorType は空ラベルの腫瘍タイプ表示です。
const UnknownTumorType = "Unknown"

// ErrNotSucceeded は分類が成功していないセッションからレポートを導出しようとした場合に返されます。
var ErrNotSucceeded = errors.New("report requires a succeeded classification")

// Deriver は設定されたラベルポリシーでレポートを導出します。
type Deriver struct {
	cfg       Config
	highRisk  map[string]struct{}
	markers   []string
	sequences []string
}

// NewDeriver は指定された設定で Deriver を生成します。
func NewDeriver(cfg Config) *Deriver {
	d := &Deriver{
		cfg:      cfg,
		highRisk: make(map[string]struct{}, len(cfg.HighRiskTypes)),
	}
	for _, t := range cfg.HighRiskTypes {
		d.highRisk[strings.ToUpper(strings.TrimSpace(t))] = struct{}{}
	}
	for _, m := range cfg.NormalMarkers {
		d.markers = append(d.markers, strings.ToUpper(m))
	}
	for _, s := range cfg.SequenceTags {
		d.sequences = append(d.sequences, strings.ToUpper(s))
	}
	// "T1C+" が "T1" より先に一致するよう長い順に並べる
	sort.SliceStable(d.sequences, func(i, j int) bool {
		return len(d.sequences[i]) > len(d.sequences[j])
	})
	if d.cfg.MaxAlternatives <= 0 {
		d.cfg.MaxAlternatives = DefaultConfig().MaxAlternatives
	}
	return d
}

// IsNormal はラベルが正常（腫瘍なし）クラスを表す場合にtrueを返します。
func (d *Deriver) IsNormal(label string) bool {
	upper := strings.ToUpper(strings.TrimSpace(label))
	if upper == "" {
		return false
	}
	for _, m := range d.markers {
		if strings.Contains(upper, m) {
			return true
		}
	}
	return strings.Fields(upper)[0] == "NORMAL"
}

// ExtractTumorType はラベルの先頭トークンを腫瘍タイプとして返します。
// 正常クラスの場合は "No tumor detected" を返します。
func (d *Deriver) ExtractTumorType(label string) string {
	if d.IsNormal(label) {
		return NoTumorDetected
	}
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return UnknownTumorType
	}
	return fields[0]
}

// ClassifyRisk はラベルのリスク区分を返します。
// 正常クラスは low、許可リストの腫瘍タイプは high、それ以外（空文字を含む）は moderate です。
func (d *Deriver) ClassifyRisk(label string) entity.RiskTier {
	if d.IsNormal(label) {
		return entity.RiskLow
	}
	fields := strings.Fields(label)
	if len(fields) > 0 {
		if _, ok := d.highRisk[strings.ToUpper(fields[0])]; ok {
			return entity.RiskHigh
		}
	}
	return entity.RiskModerate
}

// ExtractSequenceTag はラベルからMRIシーケンスタグを取り出します。一致しない場合は基準タグを返します。
// 腫瘍タイプ名との誤一致を避けるため、先頭トークン以降だけを照合します。
func (d *Deriver) ExtractSequenceTag(label string) string {
	fields := strings.Fields(strings.ToUpper(label))
	if len(fields) < 2 {
		return d.cfg.BaselineSequence
	}
	rest := strings.Join(fields[1:], " ")
	for _, s := range d.sequences {
		if strings.Contains(rest, s) {
			return s
		}
	}
	return d.cfg.BaselineSequence
}

// Derive はSucceeded状態のセッションから詳細レポートを導出します。
func (d *Deriver) Derive(s entity.Session) (entity.Report, error) {
	if s.Phase != entity.PhaseSucceeded || s.Result == nil {
		return entity.Report{}, fmt.Errorf("%w: session is %s", ErrNotSucceeded, s.Phase)
	}

	label := s.Result.ClassName
	tumorType := d.ExtractTumorType(label)

	alts := make([]entity.Prediction, 0, d.cfg.MaxAlternatives)
	for _, p := range s.Result.Alternatives {
		if len(alts) == d.cfg.MaxAlternatives {
			break
		}
		if strings.TrimSpace(p.ClassName) == strings.TrimSpace(label) {
			continue
		}
		alts = append(alts, p)
	}

	return entity.Report{
		TumorType:       tumorType,
		RiskTier:        d.ClassifyRisk(label),
		SequenceTag:     d.ExtractSequenceTag(label),
		ClassName:       label,
		Confidence:      s.Result.Confidence,
		DetectionCount:  len(s.Detections),
		TopAlternatives: alts,
		Profile:         LookupProfile(tumorType),
	}, nil
}

var defaultDeriver = NewDeriver(DefaultConfig())

// ExtractTumorType は既定のポリシーで腫瘍タイプを返します。
func ExtractTumorType(label string) string { return defaultDeriver.ExtractTumorType(label) }

// ClassifyRisk は既定のポリシーでリスク区分を返します。
func ClassifyRisk(label string) entity.RiskTier { return defaultDeriver.ClassifyRisk(label) }

// ExtractSequenceTag は既定のポリシーでシーケンスタグを返します。
func ExtractSequenceTag(label string) string { return defaultDeriver.ExtractSequenceTag(label) }
