package dto

import (
	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
)

// PreviewResponse はアップロード画像のプレビューです。
type PreviewResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	URI         string `json:"uri"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// PredictionResponse は1つのクラス予測です。
type PredictionResponse struct {
	ClassName  string  `json:"class_name" yaml:"class_name"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// ResultResponse は分類結果です。
type ResultResponse struct {
	ClassName    string               `json:"class_name"`
	Confidence   float64              `json:"confidence"`
	Alternatives []PredictionResponse `json:"alternatives"`
}

// DetectionResponse は推論空間上の検出領域です。
type DetectionResponse struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
}

// OverlayBoxResponse は表示領域に写像された検出矩形です。
type OverlayBoxResponse struct {
	Left       float64 `json:"left" yaml:"left"`
	Top        float64 `json:"top" yaml:"top"`
	Width      float64 `json:"width" yaml:"width"`
	Height     float64 `json:"height" yaml:"height"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// OverlayResponse は現在の表示領域に対するオーバーレイです。
type OverlayResponse struct {
	Scale      float64              `json:"scale"`
	Renderable bool                 `json:"renderable"`
	Visible    bool                 `json:"visible"`
	Boxes      []OverlayBoxResponse `json:"boxes"`
}

// ViewResponse はGET /v1/diagnosis のレスポンスDTOです。
type ViewResponse struct {
	Phase          string              `json:"phase"`
	Preview        *PreviewResponse    `json:"preview,omitempty"`
	Result         *ResultResponse     `json:"result,omitempty"`
	Detections     []DetectionResponse `json:"detections"`
	Overlay        OverlayResponse     `json:"overlay"`
	ReportExpanded bool                `json:"report_expanded"`
	ErrorMessage   string              `json:"error_message,omitempty"`
}

// NewViewResponse はドメインの表示モデルをレスポンスDTOに変換します。
// 内部の失敗原因（FailureCause）は含めません。
func NewViewResponse(v *entity.View) ViewResponse {
	s := v.Session
	out := ViewResponse{
		Phase:          string(s.Phase),
		Detections:     make([]DetectionResponse, 0, len(s.Detections)),
		ReportExpanded: s.ReportExpanded,
		ErrorMessage:   s.ErrorMessage,
		Overlay: OverlayResponse{
			Scale:      v.Overlay.Scale,
			Renderable: v.Overlay.Renderable,
			Visible:    v.Overlay.Visible,
			Boxes:      make([]OverlayBoxResponse, 0, len(v.Overlay.Boxes)),
		},
	}

	if img := s.Image; img != nil {
		out.Preview = &PreviewResponse{
			Filename:    img.Filename,
			ContentType: img.ContentType,
			Size:        img.Size,
			URI:         img.PreviewURI,
			Width:       img.Natural.Width,
			Height:      img.Natural.Height,
		}
	}
	if r := s.Result; r != nil {
		out.Result = &ResultResponse{
			ClassName:    r.ClassName,
			Confidence:   r.Confidence,
			Alternatives: newPredictions(r.Alternatives),
		}
	}
	for _, d := range s.Detections {
		out.Detections = append(out.Detections, DetectionResponse{
			X1: d.Box.X1, Y1: d.Box.Y1, X2: d.Box.X2, Y2: d.Box.Y2,
			Confidence: d.Confidence,
		})
	}
	for _, b := range v.Overlay.Boxes {
		out.Overlay.Boxes = append(out.Overlay.Boxes, OverlayBoxResponse{
			Left: b.Left, Top: b.Top, Width: b.Width, Height: b.Height,
			Confidence: b.Confidence,
		})
	}
	return out
}

func newPredictions(in []entity.Prediction) []PredictionResponse {
	out := make([]PredictionResponse, 0, len(in))
	for _, p := range in {
		out = append(out, PredictionResponse{ClassName: p.ClassName, Confidence: p.Confidence})
	}
	return out
}
