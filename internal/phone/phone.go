// Package phone validates the structure of Spanish 9-digit phone numbers
// and classifies them as mobile, landline or special-rate.
package phone

import (
	"fmt"
	"strings"
)

// Type classifies a phone number by prefix.
type Type string

const (
	TypeMobile   Type = "mobile"
	TypeLandline Type = "landline"
	TypeSpecial  Type = "special"
	TypeInvalid  Type = "invalid"
)

// Error codes carried on invalid results.
const (
	ErrEmptyInput        = "EMPTY_INPUT"
	ErrInvalidCharacters = "INVALID_CHARACTERS"
	ErrInvalidPrefix     = "INVALID_PREFIX"
)

// Result is the outcome of validating one phone number. PhoneType invalid
// always implies IsValid false.
type Result struct {
	IsValid             bool   `json:"is_valid"`
	FormattedPhone      string `json:"formatted_phone"`
	PhoneType           Type   `json:"phone_type"`
	InternationalFormat string `json:"international_format,omitempty"`
	Error               string `json:"error,omitempty"`
}

// Rules configures prefix sets, expected length and the dial prefix.
// Zero values fall back to the Spanish numbering plan defaults.
type Rules struct {
	MobilePrefixes      []string `yaml:"mobile_prefixes"`
	LandlinePrefixes    []string `yaml:"landline_prefixes"`
	SpecialPrefixes     []string `yaml:"special_prefixes"`
	Length              int      `yaml:"length"`
	InternationalPrefix string   `yaml:"international_prefix"`
}

// DefaultRules returns the Spanish defaults: mobiles on 6/7, landlines on
// 8/9, special-rate on 800/900/901/902/905, nine digits, +34.
func DefaultRules() Rules {
	return Rules{
		MobilePrefixes:      []string{"6", "7"},
		LandlinePrefixes:    []string{"8", "9"},
		SpecialPrefixes:     []string{"800", "900", "901", "902", "905"},
		Length:              9,
		InternationalPrefix: "+34",
	}
}

// Validator validates phone numbers. Safe for concurrent use.
type Validator struct {
	rules Rules
}

// New creates a Validator, filling any unset rule with its default.
func New(rules Rules) *Validator {
	def := DefaultRules()
	if rules.MobilePrefixes == nil {
		rules.MobilePrefixes = def.MobilePrefixes
	}
	if rules.LandlinePrefixes == nil {
		rules.LandlinePrefixes = def.LandlinePrefixes
	}
	if rules.SpecialPrefixes == nil {
		rules.SpecialPrefixes = def.SpecialPrefixes
	}
	if rules.Length == 0 {
		rules.Length = def.Length
	}
	if rules.InternationalPrefix == "" {
		rules.InternationalPrefix = def.InternationalPrefix
	}
	return &Validator{rules: rules}
}

// Normalize strips separators and the international dial prefix in its
// +34, 0034 and bare-34 spellings.
func (v *Validator) Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.TrimSpace(raw) {
		switch r {
		case ' ', '-', '(', ')', '.', '\t':
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()

	bare := strings.TrimPrefix(v.rules.InternationalPrefix, "+")
	switch {
	case strings.HasPrefix(s, v.rules.InternationalPrefix):
		s = s[len(v.rules.InternationalPrefix):]
	case strings.HasPrefix(s, "00"+bare):
		s = s[len("00"+bare):]
	case strings.HasPrefix(s, bare) && len(s) == len(bare)+v.rules.Length:
		s = s[len(bare):]
	}
	return s
}

// Validate normalizes, checks structure, classifies and formats a number.
func (v *Validator) Validate(raw string) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{PhoneType: TypeInvalid, Error: ErrEmptyInput}
	}

	digits := v.Normalize(raw)
	if !allDigits(digits) {
		return Result{FormattedPhone: digits, PhoneType: TypeInvalid, Error: ErrInvalidCharacters}
	}
	if len(digits) != v.rules.Length {
		return Result{
			FormattedPhone: digits,
			PhoneType:      TypeInvalid,
			Error:          fmt.Sprintf("INVALID_LENGTH (expected %d, got %d)", v.rules.Length, len(digits)),
		}
	}

	phoneType := v.detectType(digits)
	if phoneType == TypeInvalid {
		return Result{FormattedPhone: digits, PhoneType: TypeInvalid, Error: ErrInvalidPrefix}
	}

	return Result{
		IsValid:             true,
		FormattedPhone:      digits,
		PhoneType:           phoneType,
		InternationalFormat: v.FormatInternational(digits),
	}
}

// detectType classifies by prefix, most specific first: three-digit special
// prefixes, then single-digit mobile, then single-digit landline.
func (v *Validator) detectType(digits string) Type {
	if len(digits) != v.rules.Length {
		return TypeInvalid
	}
	first := digits[:1]
	firstThree := digits[:3]

	for _, p := range v.rules.SpecialPrefixes {
		if firstThree == p {
			return TypeSpecial
		}
	}
	for _, p := range v.rules.MobilePrefixes {
		if first == p {
			return TypeMobile
		}
	}
	for _, p := range v.rules.LandlinePrefixes {
		if first == p {
			return TypeLandline
		}
	}
	return TypeInvalid
}

// FormatInternational renders "+34 DDD DDD DDD". Numbers of unexpected
// length get the prefix prepended without grouping.
func (v *Validator) FormatInternational(digits string) string {
	if len(digits) != 9 {
		return v.rules.InternationalPrefix + " " + digits
	}
	return fmt.Sprintf("%s %s %s %s", v.rules.InternationalPrefix, digits[:3], digits[3:6], digits[6:])
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
