package entity

import "mri_diagnosis/internal/feature/diagnosis/domain/geometry"

// OverlayBox は表示領域に写像された検出領域です。
type OverlayBox struct {
	geometry.ViewportBox
	Confidence float64
}

// Overlay は現在の表示領域に対する検出オーバーレイです。
type Overlay struct {
	Scale      float64
	Renderable bool // 倍率が確定し描画可能な場合にtrue
	Visible    bool
	Boxes      []OverlayBox // 非表示または描画不可の場合は空
}

// View はセッションとそのオーバーレイをまとめた表示用モデルです。
type View struct {
	Session Session
	Overlay Overlay
}
