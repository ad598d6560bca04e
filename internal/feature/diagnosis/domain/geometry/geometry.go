// Package geometry は推論サービスのピクセル座標を表示領域の座標へ写像する純粋関数を提供します。
package geometry

import (
	"errors"
	"fmt"
)

// ErrInvalidDimension は画像寸法が0以下の場合に返されます。
// セッション全体ではなく、その1回の計算だけが失敗します。
var ErrInvalidDimension = errors.New("invalid image dimension")

// Size は幅と高さを表します（ピクセル単位）。
type Size struct {
	Width  float64
	Height float64
}

// Box は推論ピクセル空間のバウンディングボックスです。X2 >= X1、Y2 >= Y1 を満たします。
type Box struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// ViewportBox は表示領域上のオーバーレイ矩形です。
type ViewportBox struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// MapBox は推論空間のボックスを倍率 scale で表示領域の矩形に変換します。
// 丸めは行いません。面積0のボックスはサイズ0の矩形になります。
func MapBox(b Box, scale float64) ViewportBox {
	return ViewportBox{
		Left:   b.X1 * scale,
		Top:    b.Y1 * scale,
		Width:  (b.X2 - b.X1) * scale,
		Height: (b.Y2 - b.Y1) * scale,
	}
}

// ComputeScale はアスペクト比を保ったまま画像をコンテナに収める（contain）倍率を返します。
//
// 画像寸法のいずれかが0以下の場合は ErrInvalidDimension を返します。
// コンテナ寸法のいずれかが0以下の場合は 0 を返し、呼び出し側は「まだ描画できない」状態として扱います。
func ComputeScale(container, image Size) (float64, error) {
	if image.Width <= 0 || image.Height <= 0 {
		return 0, fmt.Errorf("%w: %gx%g", ErrInvalidDimension, image.Width, image.Height)
	}
	if container.Width <= 0 || container.Height <= 0 {
		return 0, nil
	}
	return min(container.Width/image.Width, container.Height/image.Height), nil
}
