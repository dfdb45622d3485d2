// Package pipeline orchestrates the per-lead enrichment decision: priority
// classification, tax ID and phone validation with write-back, and scoring.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/leadops/enrich-cli/internal/config"
	"github.com/leadops/enrich-cli/internal/model"
	"github.com/leadops/enrich-cli/internal/phone"
	"github.com/leadops/enrich-cli/internal/priority"
	"github.com/leadops/enrich-cli/internal/scoring"
	"github.com/leadops/enrich-cli/internal/taxid"
)

// Pipeline applies the full decision sequence to leads.
type Pipeline struct {
	taxID       *taxid.Validator
	phone       *phone.Validator
	classifier  *priority.Classifier
	scorer      *scoring.Engine
	concurrency int
}

// New builds a Pipeline from a rule set. Concurrency below 1 falls back to
// serial processing.
func New(rules *config.RuleSet, concurrency int) (*Pipeline, error) {
	tv, err := taxid.New(rules.TaxID)
	if err != nil {
		return nil, err
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		taxID:       tv,
		phone:       phone.New(rules.Phone),
		classifier:  priority.New(rules.Priority),
		scorer:      scoring.New(rules.Scoring),
		concurrency: concurrency,
	}, nil
}

// Enrich runs the decision sequence on one lead and returns the enriched
// copy plus its audit record. The input lead is not modified.
func (p *Pipeline) Enrich(lead model.Lead) (model.Lead, model.LeadResult) {
	out := lead.Clone()
	var notes []string

	tier := p.classifier.Classify(out)
	out.Set(model.FieldPriority, strconv.Itoa(tier))

	if rawID := out.Get(model.FieldTaxID); !model.IsEffectivelyEmpty(rawID) {
		notes = append(notes, p.applyTaxID(out, rawID))
	}

	if rawPhone := out.Get(model.FieldPhone); !model.IsEffectivelyEmpty(rawPhone) {
		notes = append(notes, p.applyPhone(out, rawPhone))
	}

	scores := p.scorer.Score(out)
	out.Set(model.FieldCompleteness, formatScore(scores.CompletenessScore))
	out.Set(model.FieldConfidence, formatScore(scores.ConfidenceScore))
	out.Set(model.FieldQuality, string(scores.Quality))
	out.Set(model.FieldSources, scores.SourcesSummary)
	out.Set(model.FieldLastUpdated, time.Now().UTC().Format(time.RFC3339))

	appendObservations(out, notes)

	result := model.LeadResult{
		ID:           uuid.New().String(),
		TaxID:        out.Get(model.FieldTaxID),
		CompanyName:  out.Get(model.FieldCompanyName),
		Priority:     tier,
		Quality:      scores.Quality,
		Completeness: scores.CompletenessScore,
		Confidence:   scores.ConfidenceScore,
		Sources:      scores.SourcesSummary,
		CreatedAt:    time.Now().UTC(),
	}
	return out, result
}

// applyTaxID validates and writes back the tax ID flags. Returns the
// observation note for the lead.
func (p *Pipeline) applyTaxID(lead model.Lead, raw string) string {
	res := p.taxID.Validate(raw)

	lead.Set(model.FieldTaxIDValid, strconv.FormatBool(res.IsValid))
	formatOK := res.IsValid || res.Error == taxid.ErrInvalidChecksum
	lead.Set(model.FieldTaxIDFormatOK, strconv.FormatBool(formatOK))
	if res.IDType != taxid.TypeUnknown {
		lead.Set(model.FieldTaxIDType, string(res.IDType))
	}
	if res.EntityType != "" {
		lead.Set(model.FieldTaxIDEntityType, res.EntityType)
	}

	if !res.IsValid {
		return fmt.Sprintf("CIF/NIF/NIE: %s - %s", raw, res.Error)
	}

	lead.Set(model.FieldTaxID, res.FormattedID)
	if res.EntityType != "" {
		return fmt.Sprintf("CIF/NIF/NIE: %s (%s, %s) ✓", res.FormattedID, res.IDType, res.EntityType)
	}
	return fmt.Sprintf("CIF/NIF/NIE: %s (%s) ✓", res.FormattedID, res.IDType)
}

// applyPhone validates and writes back the phone flags. Returns the
// observation note for the lead.
func (p *Pipeline) applyPhone(lead model.Lead, raw string) string {
	res := p.phone.Validate(raw)

	lead.Set(model.FieldPhoneValid, strconv.FormatBool(res.IsValid))
	lead.Set(model.FieldPhoneType, string(res.PhoneType))

	if !res.IsValid {
		return fmt.Sprintf("Teléfono: %s - %s", raw, res.Error)
	}

	lead.Set(model.FieldPhone, res.FormattedPhone)
	lead.Set(model.FieldPhoneIntl, res.InternationalFormat)
	return fmt.Sprintf("Teléfono: %s (%s) ✓", res.InternationalFormat, res.PhoneType)
}

// appendObservations joins new notes onto the observations column with the
// " | " separator, preserving whatever was already there.
func appendObservations(lead model.Lead, notes []string) {
	if len(notes) == 0 {
		return
	}
	existing := lead.Get(model.FieldObservations)
	joined := existing
	for _, n := range notes {
		if joined == "" {
			joined = n
		} else {
			joined += " | " + n
		}
	}
	lead.Set(model.FieldObservations, joined)
}

// skippable reports whether a lead carries nothing to work with. Skipped
// leads pass through unmodified.
func skippable(lead model.Lead) bool {
	return model.IsEffectivelyEmpty(lead.Get(model.FieldTaxID)) &&
		model.IsEffectivelyEmpty(lead.Get(model.FieldCompanyName)) &&
		model.IsEffectivelyEmpty(lead.Get(model.FieldPhone))
}

// Run enriches a batch of leads concurrently. Output order matches input
// order. Leads with no usable identity are counted as skipped and returned
// untouched.
func (p *Pipeline) Run(ctx context.Context, runID string, leads []model.Lead) ([]model.Lead, []model.LeadResult, *model.RunResult) {
	start := time.Now()

	enriched := make([]model.Lead, len(leads))
	perLead := make([]*model.LeadResult, len(leads))

	zap.L().Info("pipeline: starting run",
		zap.String("run_id", runID),
		zap.Int("leads", len(leads)),
		zap.Int("concurrency", p.concurrency),
	)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	skipped := 0
	for i, lead := range leads {
		if skippable(lead) {
			enriched[i] = lead
			skipped++
			continue
		}
		g.Go(func() error {
			out, lr := p.Enrich(lead)
			lr.RunID = runID
			enriched[i] = out
			perLead[i] = &lr
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors

	results := make([]model.LeadResult, 0, len(leads))
	priorityCounts := make(map[int]int)
	qualityCounts := make(map[string]int)
	for _, lr := range perLead {
		if lr == nil {
			continue
		}
		results = append(results, *lr)
		priorityCounts[lr.Priority]++
		qualityCounts[string(lr.Quality)]++
	}

	runResult := &model.RunResult{
		Leads:          len(results),
		Skipped:        skipped,
		PriorityCounts: priorityCounts,
		QualityCounts:  qualityCounts,
		DurationMs:     time.Since(start).Milliseconds(),
	}

	zap.L().Info("pipeline: run complete",
		zap.String("run_id", runID),
		zap.Int("enriched", runResult.Leads),
		zap.Int("skipped", runResult.Skipped),
		zap.Int64("duration_ms", runResult.DurationMs),
	)
	return enriched, results, runResult
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
