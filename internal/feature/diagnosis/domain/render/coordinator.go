// Package render は描画コンテナと推論空間の寸法から検出オーバーレイを再計算します。
package render

import (
	"errors"
	"log/slog"

	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
	"mri_diagnosis/internal/feature/diagnosis/domain/geometry"
)

// Coordinator はコンテナ寸法・画像寸法・検出結果を監視し、実際に変化したときだけ倍率と
// オーバーレイ矩形を再計算します。表示切替は表示フラグの変更のみで、再計算は行いません。
//
// Coordinator は並行利用に対して安全ではありません。呼び出し側で直列化してください。
type Coordinator struct {
	container  geometry.Size
	image      entity.ImageDimensions
	generation uint64
	observed   bool

	scale      float64
	renderable bool
	boxes      []entity.OverlayBox
	visible    bool

	recomputes int
}

// NewCoordinator はオーバーレイ表示状態の Coordinator を生成します。
func NewCoordinator() *Coordinator {
	return &Coordinator{visible: true}
}

// Observe は最新の入力を記録し、前回から変化していれば再計算します。
// generation は検出結果の世代（セッションのシーケンス番号）で、変化すれば新しい検出結果とみなします。
// 再計算した場合にtrueを返します。
func (c *Coordinator) Observe(container geometry.Size, image *entity.ImageDimensions, generation uint64, detections []entity.Detection) bool {
	var dims entity.ImageDimensions
	if image != nil {
		dims = *image
	}
	if c.observed && c.container == container && c.image == dims && c.generation == generation {
		return false
	}
	c.container = container
	c.image = dims
	c.generation = generation
	c.observed = true
	c.recompute(detections)
	return true
}

func (c *Coordinator) recompute(detections []entity.Detection) {
	c.recomputes++
	c.scale = 0
	c.renderable = false
	c.boxes = nil

	if c.image == (entity.ImageDimensions{}) {
		return
	}

	scale, err := geometry.ComputeScale(c.container, geometry.Size{
		Width:  float64(c.image.Width),
		Height: float64(c.image.Height),
	})
	if err != nil {
		if errors.Is(err, geometry.ErrInvalidDimension) {
			slog.Warn("skipping overlay for invalid image dimensions", "width", c.image.Width, "height", c.image.Height)
		}
		return
	}
	if scale == 0 {
		return
	}

	boxes := make([]entity.OverlayBox, 0, len(detections))
	for _, d := range detections {
		boxes = append(boxes, entity.OverlayBox{
			ViewportBox: geometry.MapBox(d.Box, scale),
			Confidence:  d.Confidence,
		})
	}
	c.scale = scale
	c.renderable = true
	c.boxes = boxes
}

// SetVisible はオーバーレイの表示フラグを設定します。幾何計算には影響しません。
func (c *Coordinator) SetVisible(visible bool) {
	c.visible = visible
}

// Overlay は現在のオーバーレイを返します。非表示の場合は矩形を含みません。
func (c *Coordinator) Overlay() entity.Overlay {
	out := entity.Overlay{
		Scale:      c.scale,
		Renderable: c.renderable,
		Visible:    c.visible,
		Boxes:      []entity.OverlayBox{},
	}
	if c.visible && c.renderable {
		out.Boxes = append(out.Boxes, c.boxes...)
	}
	return out
}

// Recomputations は再計算の回数を返します。
func (c *Coordinator) Recomputations() int {
	return c.recomputes
}
