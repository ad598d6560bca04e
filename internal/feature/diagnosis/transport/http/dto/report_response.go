package dto

import "mri_diagnosis/internal/feature/diagnosis/domain/entity"

// SurvivalRateResponse は期間別の生存率（%）です。
type SurvivalRateResponse struct {
	OneYear  int `json:"one_year" yaml:"one_year"`
	FiveYear int `json:"five_year" yaml:"five_year"`
	TenYear  int `json:"ten_year" yaml:"ten_year"`
}

// ProfileResponse は腫瘍タイプの参考情報です。
type ProfileResponse struct {
	Name             string               `json:"name" yaml:"name"`
	Description      string               `json:"description" yaml:"description"`
	SurvivalRate     SurvivalRateResponse `json:"survival_rate" yaml:"survival_rate"`
	CommonSymptoms   []string             `json:"common_symptoms" yaml:"common_symptoms"`
	TreatmentOptions []string             `json:"treatment_options" yaml:"treatment_options"`
}

// ReportResponse はPOST /v1/diagnosis/report のレスポンスDTOです。
type ReportResponse struct {
	TumorType       string               `json:"tumor_type" yaml:"tumor_type"`
	RiskTier        string               `json:"risk_tier" yaml:"risk_tier"`
	SequenceTag     string               `json:"sequence_tag" yaml:"sequence_tag"`
	ClassName       string               `json:"class_name" yaml:"class_name"`
	Confidence      float64              `json:"confidence" yaml:"confidence"`
	DetectionCount  int                  `json:"detection_count" yaml:"detection_count"`
	TopAlternatives []PredictionResponse `json:"top_alternatives" yaml:"top_alternatives"`
	Profile         *ProfileResponse     `json:"profile,omitempty" yaml:"profile,omitempty"`
	Narrative       string               `json:"narrative,omitempty" yaml:"narrative,omitempty"`
}

// NewReportResponse はレポートをレスポンスDTOに変換します。
func NewReportResponse(r *entity.Report) ReportResponse {
	out := ReportResponse{
		TumorType:       r.TumorType,
		RiskTier:        string(r.RiskTier),
		SequenceTag:     r.SequenceTag,
		ClassName:       r.ClassName,
		Confidence:      r.Confidence,
		DetectionCount:  r.DetectionCount,
		TopAlternatives: newPredictions(r.TopAlternatives),
		Narrative:       r.Narrative,
	}
	if p := r.Profile; p != nil {
		out.Profile = &ProfileResponse{
			Name:        p.Name,
			Description: p.Description,
			SurvivalRate: SurvivalRateResponse{
				OneYear:  p.SurvivalRate.OneYear,
				FiveYear: p.SurvivalRate.FiveYear,
				TenYear:  p.SurvivalRate.TenYear,
			},
			CommonSymptoms:   append([]string(nil), p.CommonSymptoms...),
			TreatmentOptions: append([]string(nil), p.TreatmentOptions...),
		}
	}
	return out
}
