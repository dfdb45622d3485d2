package config

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/leadops/enrich-cli/internal/model"
	"github.com/leadops/enrich-cli/internal/phone"
	"github.com/leadops/enrich-cli/internal/priority"
	"github.com/leadops/enrich-cli/internal/scoring"
	"github.com/leadops/enrich-cli/internal/taxid"
)

// RuleSet is the parsed business configuration injected into the core
// components. The core never touches files itself.
type RuleSet struct {
	TaxID    taxid.Rules
	Phone    phone.Rules
	Priority priority.Rules
	Scoring  scoring.Config
	Aliases  model.FieldAliases
}

// rulesFile mirrors the on-disk rules.yaml layout.
type rulesFile struct {
	TaxIDValidation struct {
		Patterns struct {
			CIF string `yaml:"cif"`
			NIF string `yaml:"nif"`
			NIE string `yaml:"nie"`
		} `yaml:"patterns"`
		EntityTypes map[string]string `yaml:"entity_types"`
	} `yaml:"cif_validation"`

	PhoneValidation struct {
		Spain phone.Rules `yaml:"spain"`
	} `yaml:"phone_validation"`

	PriorityRules struct {
		Priority4 struct {
			Conditions priority.Condition `yaml:"conditions"`
		} `yaml:"priority_4"`
		Priority3 struct {
			Conditions []priority.Condition `yaml:"conditions"`
		} `yaml:"priority_3"`
		Priority2 struct {
			Conditions priority.RangeCondition `yaml:"conditions"`
		} `yaml:"priority_2"`
		ConsumptionFields []string            `yaml:"consumption_fields"`
		ServiceCodeField  string              `yaml:"service_code_field"`
		ServiceCodes      map[string][]string `yaml:"service_codes"`
	} `yaml:"priority_rules"`

	Scoring struct {
		Completeness struct {
			Fields map[string]float64 `yaml:"fields"`
		} `yaml:"completeness"`
		Confidence struct {
			Sources map[string]float64 `yaml:"sources"`
		} `yaml:"confidence"`
	} `yaml:"scoring"`

	Aliases map[string][]string `yaml:"aliases"`
}

// DefaultRuleSet returns the built-in rules used when no file is configured.
func DefaultRuleSet() *RuleSet {
	return &RuleSet{
		Priority: priority.DefaultRules(),
		Phone:    phone.DefaultRules(),
		Scoring:  scoring.DefaultConfig(),
		Aliases:  model.DefaultAliases(),
	}
}

// LoadRules parses the rules file at path. A missing file falls back to the
// built-in defaults; a malformed file is a configuration fault.
func LoadRules(path string) (*RuleSet, error) {
	if path == "" {
		return DefaultRuleSet(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			zap.L().Warn("rules file not found, using defaults", zap.String("path", path))
			return DefaultRuleSet(), nil
		}
		return nil, eris.Wrapf(err, "config: read rules %s", path)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "config: parse rules %s", path)
	}

	rs := DefaultRuleSet()

	rs.TaxID = taxid.Rules{
		CIFPattern:  f.TaxIDValidation.Patterns.CIF,
		NIFPattern:  f.TaxIDValidation.Patterns.NIF,
		NIEPattern:  f.TaxIDValidation.Patterns.NIE,
		EntityTypes: f.TaxIDValidation.EntityTypes,
	}

	if !isZeroPhone(f.PhoneValidation.Spain) {
		rs.Phone = f.PhoneValidation.Spain
	}

	pr := f.PriorityRules
	if pr.Priority4.Conditions.ConsumoMin != nil || len(pr.Priority3.Conditions) > 0 ||
		pr.Priority2.Conditions.ConsumoMin != nil {
		rs.Priority.Priority4 = pr.Priority4.Conditions
		rs.Priority.Priority3 = pr.Priority3.Conditions
		rs.Priority.Priority2 = pr.Priority2.Conditions
	}
	// Lookup-field overrides apply even when the tier thresholds are kept.
	if len(pr.ConsumptionFields) > 0 {
		rs.Priority.ConsumptionFields = pr.ConsumptionFields
	}
	if pr.ServiceCodeField != "" {
		rs.Priority.ServiceCodeField = pr.ServiceCodeField
	}
	if pr.ServiceCodes != nil {
		rs.Priority.ServiceCodes = pr.ServiceCodes
	}

	if f.Scoring.Completeness.Fields != nil {
		rs.Scoring.CompletenessFields = f.Scoring.Completeness.Fields
	}
	if f.Scoring.Confidence.Sources != nil {
		rs.Scoring.ConfidenceSources = f.Scoring.Confidence.Sources
	}

	if f.Aliases != nil {
		rs.Aliases = model.FieldAliases(f.Aliases)
	}

	return rs, nil
}

func isZeroPhone(r phone.Rules) bool {
	return r.MobilePrefixes == nil && r.LandlinePrefixes == nil &&
		r.SpecialPrefixes == nil && r.Length == 0 && r.InternationalPrefix == ""
}
