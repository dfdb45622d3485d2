// Package priority assigns outreach priority tiers (1-4) to leads from
// consumption figures and contracted-service flags, driven by an injected
// rule set evaluated strictly top-down: tier 4, then 3, then 2, default 1.
package priority

import (
	"strings"

	"github.com/leadops/enrich-cli/internal/model"
)

// Condition is one threshold rule. A nil ConsumoMin never matches, mirroring
// an absent threshold in the rules file.
type Condition struct {
	ConsumoMin       *float64 `yaml:"consumo_min"`
	RequiresServices []string `yaml:"requires_services"`
}

// RangeCondition is an inclusive consumption band.
type RangeCondition struct {
	ConsumoMin *float64 `yaml:"consumo_min"`
	ConsumoMax *float64 `yaml:"consumo_max"`
}

// Rules is the full tier configuration. Tier 3 is a list of OR'd conditions;
// the first satisfied condition wins.
type Rules struct {
	Priority4 Condition      `yaml:"priority_4"`
	Priority3 []Condition    `yaml:"priority_3"`
	Priority2 RangeCondition `yaml:"priority_2"`

	// ConsumptionFields lists the consumption column and its aliases, in
	// preference order. First parseable value wins.
	ConsumptionFields []string `yaml:"consumption_fields"`

	// ServiceCodeField is the combined code column consulted when a lead has
	// no dedicated column for a service. ServiceCodes maps a service name to
	// the substrings that mark it present in that column.
	ServiceCodeField string              `yaml:"service_code_field"`
	ServiceCodes     map[string][]string `yaml:"service_codes"`
}

// DefaultRules returns the shipped tier thresholds: tier 4 at 150 MWh with
// both services, tier 3 at 100 MWh or 80 MWh with gas, tier 2 at 70-99 MWh.
func DefaultRules() Rules {
	return Rules{
		Priority4: Condition{ConsumoMin: f(150), RequiresServices: []string{"LUZ", "GAS"}},
		Priority3: []Condition{
			{ConsumoMin: f(100)},
			{ConsumoMin: f(80), RequiresServices: []string{"GAS"}},
		},
		Priority2:         RangeCondition{ConsumoMin: f(70), ConsumoMax: f(99)},
		ConsumptionFields: []string{model.FieldConsumption, "CONSUMO"},
		ServiceCodeField:  model.FieldServiceCode,
		ServiceCodes: map[string][]string{
			"LUZ": {"L", "LUZ"},
			// V marks non-electric combustibles, bundled with gas here.
			"GAS": {"G", "GAS", "V"},
		},
	}
}

func f(v float64) *float64 { return &v }

// Classifier evaluates the rule cascade. Safe for concurrent use.
type Classifier struct {
	rules Rules
}

// New creates a Classifier, filling unset lookup configuration (consumption
// aliases, service code column) with defaults. Tier thresholds are taken as
// given: an absent threshold means that tier cannot match.
func New(rules Rules) *Classifier {
	def := DefaultRules()
	if len(rules.ConsumptionFields) == 0 {
		rules.ConsumptionFields = def.ConsumptionFields
	}
	if rules.ServiceCodeField == "" {
		rules.ServiceCodeField = def.ServiceCodeField
	}
	if rules.ServiceCodes == nil {
		rules.ServiceCodes = def.ServiceCodes
	}
	if rules.Priority2.ConsumoMin == nil {
		rules.Priority2.ConsumoMin = def.Priority2.ConsumoMin
	}
	if rules.Priority2.ConsumoMax == nil {
		rules.Priority2.ConsumoMax = def.Priority2.ConsumoMax
	}
	return &Classifier{rules: rules}
}

// Classify returns the priority tier for a lead, 4 highest, 1 the default.
func (c *Classifier) Classify(lead model.Lead) int {
	consumo, ok := c.consumption(lead)
	if ok {
		if c.matchesCondition(lead, consumo, c.rules.Priority4) {
			return 4
		}
		for _, cond := range c.rules.Priority3 {
			if c.matchesCondition(lead, consumo, cond) {
				return 3
			}
		}
		if c.matchesRange(consumo, c.rules.Priority2) {
			return 2
		}
	}
	return 1
}

// consumption returns the first parseable value among the configured
// consumption columns.
func (c *Classifier) consumption(lead model.Lead) (float64, bool) {
	for _, field := range c.rules.ConsumptionFields {
		if v, ok := lead.Float(field); ok {
			return v, true
		}
	}
	return 0, false
}

func (c *Classifier) matchesCondition(lead model.Lead, consumo float64, cond Condition) bool {
	if cond.ConsumoMin == nil || consumo < *cond.ConsumoMin {
		return false
	}
	for _, svc := range cond.RequiresServices {
		if !c.HasService(lead, svc) {
			return false
		}
	}
	return true
}

func (c *Classifier) matchesRange(consumo float64, r RangeCondition) bool {
	if r.ConsumoMin == nil || r.ConsumoMax == nil {
		return false
	}
	return consumo >= *r.ConsumoMin && consumo <= *r.ConsumoMax
}

// HasService reports whether a lead has the named service contracted.
// A dedicated column (the uppercased service name) wins when present: any
// non-empty, non-false value counts. Without one, the combined code column
// is scanned for the service's marker substrings. The two service checks are
// independent, so a code like "LV" can mark both LUZ and GAS.
func (c *Classifier) HasService(lead model.Lead, service string) bool {
	col := strings.ToUpper(strings.TrimSpace(service))
	if lead.Has(col) {
		v := lead.Get(col)
		if v == "" || strings.EqualFold(v, "false") {
			return false
		}
		return !model.IsEffectivelyEmpty(v)
	}

	code := strings.ToUpper(lead.Get(c.rules.ServiceCodeField))
	if code == "" {
		return false
	}
	for _, marker := range c.rules.ServiceCodes[col] {
		if strings.Contains(code, strings.ToUpper(marker)) {
			return true
		}
	}
	return false
}
