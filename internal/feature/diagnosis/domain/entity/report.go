package entity

// RiskTier はリスク区分です。
type RiskTier string

const (
	RiskLow      RiskTier = "low"
	RiskModerate RiskTier = "moderate"
	RiskHigh     RiskTier = "high"
)

// SurvivalRate は期間別の生存率（%）です。
type SurvivalRate struct {
	OneYear  int
	FiveYear int
	TenYear  int
}

// TumorProfile は腫瘍タイプごとの参考情報です。
type TumorProfile struct {
	Name             string
	Description      string
	SurvivalRate     SurvivalRate
	CommonSymptoms   []string
	TreatmentOptions []string
}

// Report はセッションから都度導出される詳細レポートです。保存はしません。
type Report struct {
	TumorType       string
	RiskTier        RiskTier
	SequenceTag     string
	ClassName       string
	Confidence      float64
	DetectionCount  int
	TopAlternatives []Prediction
	Profile         *TumorProfile // カタログに無い腫瘍タイプの場合はnil
	Narrative       string        // 生成に失敗した場合は空
}
