// Package scoring computes lead data-quality metrics after enrichment: a
// weighted completeness percentage, a source-trust confidence percentage, a
// categorical quality label and a provenance summary. The engine is pure;
// callers write results back and stamp the timestamp.
package scoring

import (
	"math"
	"strings"

	"github.com/leadops/enrich-cli/internal/model"
)

// Confidence source keys, matched against the weights map in Config.
const (
	SourceEmailMX        = "email_mx"
	SourceEmailSyntax    = "email_syntax_only"
	SourcePhoneNorm      = "phone_normalized"
	SourceWebsite        = "website_validated"
	SourceCNAEOfficial   = "cnae_official_register"
	SourceCNAEInferred   = "cnae_inferred"
)

// Result holds the derived scores for one lead.
type Result struct {
	CompletenessScore float64       `json:"completeness_score"`
	ConfidenceScore   float64       `json:"confidence_score"`
	Quality           model.Quality `json:"quality"`
	SourcesSummary    string        `json:"sources_summary"`
}

// Config carries the scoring weights. Quality thresholds are deliberately
// not configurable: the label is decided by fixed useful-data signals, the
// numeric scores are diagnostic only.
type Config struct {
	CompletenessFields map[string]float64 `yaml:"completeness_fields"`
	ConfidenceSources  map[string]float64 `yaml:"confidence_sources"`
}

// DefaultConfig returns the shipped weights. Completeness weights sum to
// 100; confidence weights are relative, only ratios matter.
func DefaultConfig() Config {
	return Config{
		CompletenessFields: map[string]float64{
			model.FieldTaxID:       20,
			model.FieldCompanyName: 15,
			model.FieldPhone:       15,
			model.FieldEmail:       20,
			model.FieldWebsite:     15,
			model.FieldCNAE:        15,
		},
		ConfidenceSources: map[string]float64{
			SourceEmailMX:      40,
			SourceEmailSyntax:  25,
			SourcePhoneNorm:    25,
			SourceWebsite:      20,
			SourceCNAEOfficial: 25,
			SourceCNAEInferred: 10,
		},
	}
}

// Engine scores leads. Safe for concurrent use.
type Engine struct {
	cfg Config
}

// New creates an Engine, falling back to default weights for unset maps.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.CompletenessFields == nil {
		cfg.CompletenessFields = def.CompletenessFields
	}
	if cfg.ConfidenceSources == nil {
		cfg.ConfidenceSources = def.ConfidenceSources
	}
	return &Engine{cfg: cfg}
}

// Score computes all derived values for a lead snapshot.
func (e *Engine) Score(lead model.Lead) Result {
	completeness := e.Completeness(lead)
	confidence := e.Confidence(lead)
	return Result{
		CompletenessScore: completeness,
		ConfidenceScore:   confidence,
		Quality:           e.Quality(lead),
		SourcesSummary:    e.SourcesSummary(lead),
	}
}

// Completeness returns the weighted share of configured fields that hold
// usable data. A field counts when non-empty and, if a companion *_VALID
// flag column exists, that flag is truthy.
func (e *Engine) Completeness(lead model.Lead) float64 {
	var totalWeight, filledWeight float64
	for field, weight := range e.cfg.CompletenessFields {
		totalWeight += weight
		if e.fieldUsable(lead, field) {
			filledWeight += weight
		}
	}
	if totalWeight == 0 {
		return 0.0
	}
	return round2(filledWeight / totalWeight * 100)
}

// fieldUsable checks presence plus the companion validity flag when one
// exists. Absence of the flag column means presence alone counts.
func (e *Engine) fieldUsable(lead model.Lead, field string) bool {
	if model.IsEffectivelyEmpty(lead.Get(field)) {
		return false
	}
	if flag, ok := lead.FlagSet(field + model.SuffixValid); ok {
		return flag
	}
	return true
}

// Confidence returns how trustworthy the populated fields are, weighting
// each by its source. An email flagged invalid still adds its syntax-only
// weight to the denominator, diluting the score.
func (e *Engine) Confidence(lead model.Lead) float64 {
	var total, earned float64

	if !model.IsEffectivelyEmpty(lead.Get(model.FieldEmail)) {
		if flag, ok := lead.FlagSet(model.FieldEmailValid); ok {
			if flag {
				key := SourceEmailSyntax
				if strings.EqualFold(lead.Get(model.FieldEmailLevel), "mx") {
					key = SourceEmailMX
				}
				w := e.cfg.ConfidenceSources[key]
				total += w
				earned += w
			} else {
				total += e.cfg.ConfidenceSources[SourceEmailSyntax]
			}
		}
	}

	if !model.IsEffectivelyEmpty(lead.Get(model.FieldPhone)) && lead.Flag(model.FieldPhoneValid) {
		w := e.cfg.ConfidenceSources[SourcePhoneNorm]
		total += w
		earned += w
	}

	if !model.IsEffectivelyEmpty(lead.Get(model.FieldWebsite)) &&
		lead.Get(model.FieldWebsite+model.SuffixSource) != "" {
		w := e.cfg.ConfidenceSources[SourceWebsite]
		total += w
		earned += w
	}

	if !model.IsEffectivelyEmpty(lead.Get(model.FieldCNAE)) {
		key := SourceCNAEInferred
		if isOfficialSource(lead.Get(model.FieldCNAE + model.SuffixSource)) {
			key = SourceCNAEOfficial
		}
		w := e.cfg.ConfidenceSources[key]
		total += w
		earned += w
	}

	if total == 0 {
		return 0.0
	}
	return round2(earned / total * 100)
}

// isOfficialSource recognizes official-register provenance for CNAE codes.
func isOfficialSource(source string) bool {
	return source == "official_register" || strings.Contains(strings.ToLower(source), "chamber")
}

// Quality derives the label from presence of genuinely useful data.
//
// High when any of: a specific non-placeholder email; a real website plus a
// real industry code; a validated phone plus a real legal name.
// Medium when at least two of: tax-id format valid, phone valid, original
// email contains "@", legal name present. Low otherwise.
func (e *Engine) Quality(lead model.Lead) model.Quality {
	hasRealEmail := !model.IsEffectivelyEmpty(lead.Get(model.FieldEmailSpecific))
	hasRealWebsite := !model.IsEffectivelyEmpty(lead.Get(model.FieldWebsite))
	hasRealCNAE := !model.IsEffectivelyEmpty(lead.Get(model.FieldCNAE))
	hasLegalName := !model.IsEffectivelyEmpty(lead.Get(model.FieldCompanyName))
	phoneValid := lead.Flag(model.FieldPhoneValid)

	if hasRealEmail {
		return model.QualityHigh
	}
	if hasRealWebsite && hasRealCNAE {
		return model.QualityHigh
	}
	if phoneValid && hasLegalName {
		return model.QualityHigh
	}

	signals := 0
	if lead.Flag(model.FieldTaxIDFormatOK) {
		signals++
	}
	if phoneValid {
		signals++
	}
	if email := lead.Get(model.FieldEmail); email != "" && strings.Contains(email, "@") {
		signals++
	}
	if hasLegalName {
		signals++
	}
	if signals >= 2 {
		return model.QualityMedium
	}
	return model.QualityLow
}

// SourcesSummary builds a "field:level" provenance string, semicolon-joined,
// for each populated field with a source or level indicator.
func (e *Engine) SourcesSummary(lead model.Lead) string {
	var parts []string

	if !model.IsEffectivelyEmpty(lead.Get(model.FieldEmail)) {
		if level := lead.Get(model.FieldEmailLevel); level != "" {
			parts = append(parts, "email:"+level)
		}
	}
	if !model.IsEffectivelyEmpty(lead.Get(model.FieldPhone)) && lead.Flag(model.FieldPhoneValid) {
		parts = append(parts, "phone:normalized")
	}
	if src := lead.Get(model.FieldWebsite + model.SuffixSource); src != "" {
		parts = append(parts, "website:"+src)
	}
	if src := lead.Get(model.FieldCNAE + model.SuffixSource); src != "" {
		parts = append(parts, "cnae:"+src)
	}
	return strings.Join(parts, "; ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
