// Package model defines the lead record and the shared value types used
// across validation, classification and scoring.
package model

import (
	"strconv"
	"strings"
)

// Placeholder sentinels written by upstream enrichment when a lookup ran but
// found nothing. Fields holding one of these are treated as empty everywhere.
const (
	SentinelNotFound       = "NOT_FOUND"
	SentinelNoEmailFound   = "NO_EMAIL_FOUND"
	SentinelNoWebsiteFound = "NO_WEBSITE_FOUND"
)

// Canonical field names. Incoming spreadsheet headers are mapped onto these
// by alias resolution before a lead reaches any validator or scorer.
const (
	FieldTaxID         = "CIF"
	FieldCompanyName   = "RAZON_SOCIAL"
	FieldPhone         = "TELEFONO"
	FieldEmail         = "EMAIL"
	FieldEmailSpecific = "EMAIL_SPECIFIC"
	FieldWebsite       = "WEBSITE"
	FieldCNAE          = "CNAE"
	FieldConsumption   = "CONSUMO_MWH"
	FieldServiceCode   = "SERVICIOS"
	FieldObservations  = "OBSERVACIONES"
	FieldPriority      = "PRIORITY"

	FieldTaxIDValid      = "CIF_VALID"
	FieldTaxIDFormatOK   = "CIF_FORMAT_OK"
	FieldTaxIDType       = "CIF_TYPE"
	FieldTaxIDEntityType = "CIF_ENTITY_TYPE"
	FieldPhoneValid      = "PHONE_VALID"
	FieldPhoneType       = "PHONE_TYPE"
	FieldPhoneIntl       = "PHONE_INTERNATIONAL"
	FieldEmailValid      = "EMAIL_VALID"
	FieldEmailLevel      = "EMAIL_VALIDATION_LEVEL"

	FieldCompleteness = "COMPLETITUD_SCORE"
	FieldConfidence   = "CONFIDENCE_SCORE"
	FieldQuality      = "DATA_QUALITY"
	FieldSources      = "DATA_SOURCES"
	FieldLastUpdated  = "LAST_UPDATED"
)

// Suffixes for companion metadata fields.
const (
	SuffixValid  = "_VALID"
	SuffixSource = "_SOURCE"
)

// Quality is the categorical data-quality label assigned by the scoring engine.
type Quality string

const (
	QualityHigh   Quality = "High"
	QualityMedium Quality = "Medium"
	QualityLow    Quality = "Low"
)

// Lead is a single company record: a flat mapping from canonical field name
// to cell value. Absent keys and empty strings are both "no data"; the
// distinction only matters for service-flag columns, where key presence
// marks a dedicated column.
type Lead map[string]string

// Get returns the trimmed value for a field, or "" when absent.
func (l Lead) Get(field string) string {
	return strings.TrimSpace(l[field])
}

// Set stores a value under a field name.
func (l Lead) Set(field, value string) {
	l[field] = value
}

// Has reports whether the field exists as a column, regardless of value.
func (l Lead) Has(field string) bool {
	_, ok := l[field]
	return ok
}

// Flag interprets a field as a boolean. Recognized truthy spellings are
// "true", "1" and "yes" (case-insensitive). Absent fields are false.
func (l Lead) Flag(field string) bool {
	return Truthy(l.Get(field))
}

// FlagSet returns the flag value and whether the field exists at all.
// Scoring distinguishes "explicitly false" from "never validated".
func (l Lead) FlagSet(field string) (value, ok bool) {
	raw, ok := l[field]
	if !ok {
		return false, false
	}
	return Truthy(strings.TrimSpace(raw)), true
}

// Float parses a field as a number. The second return is false when the
// field is empty or not parseable.
func (l Lead) Float(field string) (float64, bool) {
	raw := l.Get(field)
	if raw == "" {
		return 0, false
	}
	// Spreadsheets in the wild use comma decimals.
	raw = strings.ReplaceAll(raw, ",", ".")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Clone returns a shallow copy of the lead.
func (l Lead) Clone() Lead {
	c := make(Lead, len(l))
	for k, v := range l {
		c[k] = v
	}
	return c
}

// Truthy reports whether a raw cell value spells a boolean true.
func Truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// IsEffectivelyEmpty reports whether a value carries no usable data:
// blank, whitespace-only, or one of the searched-but-not-found sentinels.
func IsEffectivelyEmpty(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return true
	}
	switch strings.ToUpper(v) {
	case SentinelNotFound, SentinelNoEmailFound, SentinelNoWebsiteFound:
		return true
	}
	return false
}
