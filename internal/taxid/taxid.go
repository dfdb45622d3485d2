// Package taxid validates Spanish fiscal identifiers (CIF, NIF, NIE) using
// the official MOD-23 checksum algorithms. Type is auto-detected by shape.
package taxid

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// IDType classifies a fiscal identifier by shape.
type IDType string

const (
	TypeCIF     IDType = "CIF"
	TypeNIF     IDType = "NIF"
	TypeNIE     IDType = "NIE"
	TypeUnknown IDType = "UNKNOWN"
)

// Error codes carried on invalid results. Malformed business input never
// raises; only broken configuration returns a Go error.
const (
	ErrEmptyInput      = "EMPTY_INPUT"
	ErrUnknownFormat   = "UNKNOWN_FORMAT"
	ErrInvalidFormat   = "INVALID_FORMAT"
	ErrInvalidChecksum = "INVALID_CHECKSUM"
)

// controlLetters is the MOD-23 lookup table shared by NIF and NIE.
const controlLetters = "TRWAGMYFPDXBNJZSQVHLCKE"

// cifLetterControls maps a CIF control digit to its letter form, used when
// the organization type mandates a letter control character.
const cifLetterControls = "JABCDEFGHI"

// cifLetterTypes are the organization types whose control character is a
// letter rather than a digit.
const cifLetterTypes = "NPQRSW"

// Result is the outcome of validating one identifier.
type Result struct {
	IsValid     bool   `json:"is_valid"`
	FormattedID string `json:"formatted_id"`
	IDType      IDType `json:"id_type"`
	EntityType  string `json:"entity_type,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Rules configures the validator. Zero values fall back to the built-in
// patterns and the standard 17-entry entity table.
type Rules struct {
	CIFPattern  string            `yaml:"cif_pattern"`
	NIFPattern  string            `yaml:"nif_pattern"`
	NIEPattern  string            `yaml:"nie_pattern"`
	EntityTypes map[string]string `yaml:"entity_types"`
}

const (
	defaultCIFPattern = `^[ABCDEFGHJNPQRSUVW][0-9]{7}[0-9A-J]$`
	defaultNIFPattern = `^[0-9]{8}[A-Z]$`
	defaultNIEPattern = `^[XYZ][0-9]{7}[A-Z]$`
)

// DefaultEntityTypes returns the organization-type letter to legal category
// table used for CIF classification.
func DefaultEntityTypes() map[string]string {
	return map[string]string{
		"A": "Sociedad Anónima",
		"B": "Sociedad Limitada",
		"C": "Sociedad Colectiva",
		"D": "Sociedad Comanditaria",
		"E": "Comunidad de Bienes",
		"F": "Sociedad Cooperativa",
		"G": "Asociación/Fundación",
		"H": "Comunidad de Propietarios",
		"J": "Sociedad Civil",
		"N": "Entidad Extranjera",
		"P": "Corporación Local",
		"Q": "Organismo Autónomo",
		"R": "Congregación Religiosa",
		"S": "Órgano de la Administración",
		"U": "Unión Temporal de Empresas",
		"V": "Otros tipos no definidos",
		"W": "Establecimiento permanente",
	}
}

// Validator validates fiscal identifiers. Safe for concurrent use.
type Validator struct {
	cifRe       *regexp.Regexp
	nifRe       *regexp.Regexp
	nieRe       *regexp.Regexp
	entityTypes map[string]string
}

// New creates a Validator from the given rules. A malformed pattern is a
// configuration fault and returns an error.
func New(rules Rules) (*Validator, error) {
	v := &Validator{entityTypes: rules.EntityTypes}
	if v.entityTypes == nil {
		v.entityTypes = DefaultEntityTypes()
	}

	var err error
	if v.cifRe, err = compilePattern(rules.CIFPattern, defaultCIFPattern); err != nil {
		return nil, eris.Wrap(err, "taxid: compile cif pattern")
	}
	if v.nifRe, err = compilePattern(rules.NIFPattern, defaultNIFPattern); err != nil {
		return nil, eris.Wrap(err, "taxid: compile nif pattern")
	}
	if v.nieRe, err = compilePattern(rules.NIEPattern, defaultNIEPattern); err != nil {
		return nil, eris.Wrap(err, "taxid: compile nie pattern")
	}
	return v, nil
}

// MustNew is New for the default rule set, where compilation cannot fail.
func MustNew() *Validator {
	v, err := New(Rules{})
	if err != nil {
		panic(err)
	}
	return v
}

func compilePattern(pattern, fallback string) (*regexp.Regexp, error) {
	if pattern == "" {
		pattern = fallback
	}
	return regexp.Compile(pattern)
}

// Normalize trims, uppercases, and strips internal spaces and hyphens.
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, "-", "")
}

// Validate classifies and checks a fiscal identifier, detecting the type by
// shape: NIE first, then NIF, then CIF.
func (v *Validator) Validate(raw string) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{IDType: TypeUnknown, Error: ErrEmptyInput}
	}

	id := Normalize(raw)
	switch {
	case v.nieRe.MatchString(id):
		return v.validateNIE(id)
	case v.nifRe.MatchString(id):
		return v.validateNIF(id)
	case v.cifRe.MatchString(id):
		return v.validateCIF(id)
	default:
		return Result{FormattedID: id, IDType: TypeUnknown, Error: ErrUnknownFormat}
	}
}

// validateNIF checks the MOD-23 control letter of an 8-digit NIF.
func (v *Validator) validateNIF(nif string) Result {
	if !v.nifRe.MatchString(nif) {
		return Result{FormattedID: nif, IDType: TypeNIF, Error: ErrInvalidFormat}
	}
	if nif[8] != expectedControlLetter(nif[:8]) {
		return Result{FormattedID: nif, IDType: TypeNIF, Error: ErrInvalidChecksum}
	}
	return Result{IsValid: true, FormattedID: nif, IDType: TypeNIF}
}

// validateNIE maps the prefix letter to a digit (X=0, Y=1, Z=2) and applies
// the NIF algorithm to the resulting 8-digit number.
func (v *Validator) validateNIE(nie string) Result {
	if !v.nieRe.MatchString(nie) {
		return Result{FormattedID: nie, IDType: TypeNIE, Error: ErrInvalidFormat}
	}

	var prefix byte
	switch nie[0] {
	case 'X':
		prefix = '0'
	case 'Y':
		prefix = '1'
	case 'Z':
		prefix = '2'
	}
	digits := string(prefix) + nie[1:8]

	if nie[8] != expectedControlLetter(digits) {
		return Result{FormattedID: nie, IDType: TypeNIE, Error: ErrInvalidChecksum}
	}
	return Result{IsValid: true, FormattedID: nie, IDType: TypeNIE}
}

// validateCIF checks the organization MOD-23 variant: plain sum of the 2nd,
// 4th and 6th body digits plus the doubled-and-folded 1st, 3rd, 5th and 7th.
func (v *Validator) validateCIF(cif string) Result {
	if !v.cifRe.MatchString(cif) {
		return Result{FormattedID: cif, IDType: TypeCIF, Error: ErrInvalidFormat}
	}

	orgType := cif[0]
	body := cif[1:8]
	control := cif[8]

	entityType := v.entityTypes[string(orgType)]

	sumOdd := 0
	for i := 1; i < 7; i += 2 {
		sumOdd += int(body[i] - '0')
	}
	sumEven := 0
	for i := 0; i < 7; i += 2 {
		doubled := int(body[i]-'0') * 2
		sumEven += doubled/10 + doubled%10
	}

	controlDigit := (10 - (sumOdd+sumEven)%10) % 10

	var expected byte
	if strings.IndexByte(cifLetterTypes, orgType) >= 0 {
		expected = cifLetterControls[controlDigit]
	} else {
		expected = byte('0' + controlDigit)
	}

	if control != expected {
		return Result{FormattedID: cif, IDType: TypeCIF, EntityType: entityType, Error: ErrInvalidChecksum}
	}
	return Result{IsValid: true, FormattedID: cif, IDType: TypeCIF, EntityType: entityType}
}

// expectedControlLetter computes the MOD-23 letter for an 8-digit string.
func expectedControlLetter(digits string) byte {
	n := 0
	for i := 0; i < len(digits); i++ {
		n = n*10 + int(digits[i]-'0')
	}
	return controlLetters[n%23]
}
