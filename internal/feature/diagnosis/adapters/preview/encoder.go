// Package preview はアップロード画像から data URI 形式のプレビューを生成します。
package preview

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"  // GIFデコーダーを登録
	_ "image/jpeg" // JPEGデコーダーを登録
	_ "image/png"  // PNGデコーダーを登録
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"  // BMPデコーダーを登録
	_ "golang.org/x/image/tiff" // TIFFデコーダーを登録
	_ "golang.org/x/image/webp" // WebPデコーダーを登録

	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
	"mri_diagnosis/internal/feature/diagnosis/usecase"
)

// dicomType はDICOMファイルのMIMEタイプです。プレビューは生成できますが寸法は取得しません。
const dicomType = "application/dicom"

// Encoder は画像のMIMEタイプを判定し、プレビューと元画像の寸法を求めるPreviewer実装です。
type Encoder struct{}

// EncoderがPreviewerを実装していることをコンパイル時に検証します。
var _ usecase.Previewer = (*Encoder)(nil)

// NewEncoder はEncoderの新しいインスタンスを生成します。
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Preview は画像バイト列からImageAssetを生成します。
// 画像以外のファイルは usecase.ErrUnsupportedImage を返します。
// 寸法が読み取れない形式の場合、Natural はゼロ値のままです。
func (e *Encoder) Preview(filename string, data []byte) (*entity.ImageAsset, error) {
	if len(data) == 0 {
		return nil, usecase.ErrEmptyImage
	}

	mt := mimetype.Detect(data)
	contentType := mt.String()
	if !mt.Is(dicomType) && !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: %s", usecase.ErrUnsupportedImage, contentType)
	}

	sum := sha256.Sum256(data)
	asset := &entity.ImageAsset{
		Filename:    filepath.Base(filename),
		ContentType: contentType,
		Size:        len(data),
		Digest:      hex.EncodeToString(sum[:]),
		PreviewURI:  DataURI(contentType, data),
		Data:        data,
	}

	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		asset.Natural = entity.ImageDimensions{Width: cfg.Width, Height: cfg.Height}
	} else {
		slog.Debug("natural dimensions unavailable", "content_type", contentType, "format", format, "error", err)
	}
	return asset, nil
}

// DataURI はバイト列をbase64の data URI に変換します。
func DataURI(contentType string, data []byte) string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(contentType) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(contentType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}
