package entity

import "time"

// Phase は診断セッションのライフサイクル上の状態です。
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhasePreviewing  Phase = "previewing"
	PhaseClassifying Phase = "classifying"
	PhaseSucceeded   Phase = "succeeded"
	PhaseFailed      Phase = "failed"
)

// Viewport はクライアントの描画コンテナの寸法です。
type Viewport struct {
	Width  float64
	Height float64
}

// Session は1回のアップロードから結果までの診断セッションです。
// 状態遷移はイベントごとに新しい値として生成されます。
type Session struct {
	ID         string
	Phase      Phase
	Seq        uint64 // 現在受け付ける分類リクエストのシーケンス番号
	Image      *ImageAsset
	Result     *ClassificationResult
	Detections []Detection
	Dimensions *ImageDimensions // 検出座標の基準となる推論空間の寸法

	ErrorMessage string // ユーザー向けエラーメッセージ（Failed時のみ）
	FailureCause string // 診断用の内部原因。クライアントには返さない

	ReportExpanded bool
	OverlayVisible bool
	Viewport       Viewport

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession はIdle状態の新しいセッションを生成します。
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:             id,
		Phase:          PhaseIdle,
		OverlayVisible: true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsSettled は分類が成功または失敗で確定していればtrueを返します。
func (s *Session) IsSettled() bool {
	return s.Phase == PhaseSucceeded || s.Phase == PhaseFailed
}

// IsPending はプレビュー中または分類中であればtrueを返します。
func (s *Session) IsPending() bool {
	return s.Phase == PhasePreviewing || s.Phase == PhaseClassifying
}
