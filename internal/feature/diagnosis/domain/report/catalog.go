package report

import (
	"strings"

	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
)

// catalog は腫瘍タイプごとの参考情報です。リスク区分はここでは持たず、ClassifyRisk で決めます。
var catalog = map[string]entity.TumorProfile{
	"glioma": {
		Name:             "Glioma",
		Description:      "Tumors that begin in glial cells that surround and support neurons in the brain.",
		SurvivalRate:     entity.SurvivalRate{OneYear: 42, FiveYear: 17, TenYear: 10},
		CommonSymptoms:   []string{"Headaches", "Seizures", "Memory loss", "Physical weakness", "Cognitive decline"},
		TreatmentOptions: []string{"Surgery", "Radiation therapy", "Chemotherapy", "Targeted drug therapy", "Clinical trials"},
	},
	"meningioma": {
		Name:             "Meningioma",
		Description:      "Tumors that arise from the meninges, the membranes that surround the brain and spinal cord.",
		SurvivalRate:     entity.SurvivalRate{OneYear: 85, FiveYear: 70, TenYear: 62},
		CommonSymptoms:   []string{"Headaches", "Hearing loss", "Vision problems", "Memory loss", "Seizures"},
		TreatmentOptions: []string{"Observation", "Surgery", "Radiation therapy", "Radiosurgery"},
	},
	"pituitary": {
		Name:             "Pituitary Tumor",
		Description:      "Abnormal growths that develop in the pituitary gland at the base of the brain.",
		SurvivalRate:     entity.SurvivalRate{OneYear: 92, FiveYear: 82, TenYear: 76},
		CommonSymptoms:   []string{"Headaches", "Vision problems", "Hormonal imbalances", "Fatigue", "Unexplained weight changes"},
		TreatmentOptions: []string{"Medication", "Surgery", "Radiation therapy", "Hormone replacement"},
	},
	strings.ToLower(NoTumorDetected): {
		Name:             "No Tumor Detected",
		Description:      "No evidence of tumor presence in the brain tissue.",
		SurvivalRate:     entity.SurvivalRate{OneYear: 100, FiveYear: 100, TenYear: 100},
		CommonSymptoms:   []string{},
		TreatmentOptions: []string{},
	},
}

// LookupProfile は腫瘍タイプの参考情報を返します。カタログに無い場合はnilを返します。
// "Pituitary tumor" のような複数語の表記は先頭語で照合します。
func LookupProfile(tumorType string) *entity.TumorProfile {
	key := strings.ToLower(strings.TrimSpace(tumorType))
	p, ok := catalog[key]
	if !ok {
		fields := strings.Fields(key)
		if len(fields) == 0 {
			return nil
		}
		if p, ok = catalog[fields[0]]; !ok {
			return nil
		}
	}
	profile := p
	profile.CommonSymptoms = append([]string{}, p.CommonSymptoms...)
	profile.TreatmentOptions = append([]string{}, p.TreatmentOptions...)
	return &profile
}
