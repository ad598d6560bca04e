// Package entity は診断フィーチャーのドメインモデルを定義します。
package entity

// ImageDimensions は画像のピクセル寸法を表します。
type ImageDimensions struct {
	Width  int
	Height int
}

// Valid は幅と高さがともに正であればtrueを返します。
func (d ImageDimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// ImageAsset はアップロードされたMRI画像とそのプレビューを表します。
// セッションが排他的に所有し、再アップロードやリセット時には丸ごと置き換えられます。
type ImageAsset struct {
	Filename    string          // アップロード時のファイル名
	ContentType string          // 判定されたMIMEタイプ
	Size        int             // バイト数
	Digest      string          // SHA-256（16進）
	PreviewURI  string          // data URI 形式のプレビュー
	Natural     ImageDimensions // 元画像のピクセル寸法（不明な場合はゼロ値）
	Data        []byte          `json:"-"` // 画像本体（永続化しない）
}
