package report

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the report configuration file does not exist.
var ErrConfigNotFound = errors.New("report configuration file not found")

// Config holds the label policy used to derive reports.
// The high-risk allow-list is deployment configuration, not a fixed rule.
type Config struct {
	// HighRiskTypes lists tumor types (first label token, case-insensitive) rated high risk.
	HighRiskTypes []string `yaml:"high_risk_types"`

	// NormalMarkers are case-insensitive substrings that mark the normal (no tumor) class.
	NormalMarkers []string `yaml:"normal_markers"`

	// SequenceTags is the MRI sequence vocabulary matched against the label.
	SequenceTags []string `yaml:"sequence_tags"`

	// BaselineSequence is reported when no sequence tag matches.
	BaselineSequence string `yaml:"baseline_sequence"`

	// MaxAlternatives caps the alternative predictions shown in a report.
	MaxAlternatives int `yaml:"max_alternatives"`
}

// DefaultConfig returns the built-in label policy.
func DefaultConfig() Config {
	return Config{
		HighRiskTypes:    []string{"Glioma", "Glioblastoma"},
		NormalMarkers:    []string{"_NORMAL", "NO TUMOR", "NO_TUMOR", "NOTUMOR"},
		SequenceTags:     []string{"T1C+", "T1", "T2", "FLAIR"},
		BaselineSequence: "T1",
		MaxAlternatives:  3,
	}
}

// LoadConfigFile reads a YAML policy file and overlays it on DefaultConfig.
// Fields absent from the file keep their default values.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // operator-provided config path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, ErrConfigNotFound
		}
		return cfg, fmt.Errorf("read report config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse report config %s: %w", path, err)
	}

	if file.HighRiskTypes != nil {
		cfg.HighRiskTypes = file.HighRiskTypes
	}
	if len(file.NormalMarkers) > 0 {
		cfg.NormalMarkers = file.NormalMarkers
	}
	if len(file.SequenceTags) > 0 {
		cfg.SequenceTags = file.SequenceTags
	}
	if file.BaselineSequence != "" {
		cfg.BaselineSequence = file.BaselineSequence
	}
	if file.MaxAlternatives > 0 {
		cfg.MaxAlternatives = file.MaxAlternatives
	}
	return cfg, nil
}
