package entity

import "mri_diagnosis/internal/feature/diagnosis/domain/geometry"

// Prediction は1つのクラス予測と信頼度の組です。
type Prediction struct {
	ClassName  string
	Confidence float64 // 0.0 ~ 1.0
}

// ClassificationResult は正規化済みの分類結果です。受信後は変更されません。
type ClassificationResult struct {
	ClassName    string
	Confidence   float64      // 0.0 ~ 1.0
	Alternatives []Prediction // 信頼度の降順
}

// Detection は推論サービスが報告した腫瘍候補領域です。
type Detection struct {
	Box        geometry.Box // 推論ピクセル空間
	Confidence float64      // 0.0 ~ 1.0
}

// ClassificationOutcome は分類クライアント1回分の正規化済みレスポンスです。
type ClassificationOutcome struct {
	Result     ClassificationResult
	Detections []Detection
	Dimensions *ImageDimensions // サービスが寸法を返さなかった場合はnil
}
