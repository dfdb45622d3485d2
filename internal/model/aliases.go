package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FieldAliases maps a canonical field name to the spreadsheet headers it may
// appear under, in preference order. Resolution happens once per workbook,
// before any lead reaches the validators.
type FieldAliases map[string][]string

// DefaultAliases returns the header spellings seen across customer lead
// lists. Matching is accent- and separator-insensitive, so "TELÉFONO" and
// "telefono" both resolve to TELEFONO.
func DefaultAliases() FieldAliases {
	return FieldAliases{
		FieldTaxID:        {"CIF", "CIF/NIF", "CIF_NIF", "NIF"},
		FieldCompanyName:  {"RAZON_SOCIAL", "RAZÓN SOCIAL", "NOMBRE_EMPRESA", "NOMBRE CLIENTE", "EMPRESA"},
		FieldPhone:        {"TELEFONO", "TELÉFONO", "TLF", "PHONE"},
		FieldEmail:        {"EMAIL", "E-MAIL", "CORREO"},
		FieldWebsite:      {"WEBSITE", "WEB", "URL"},
		FieldCNAE:         {"CNAE"},
		FieldConsumption:  {"CONSUMO_MWH", "CONSUMO ANUAL MWH", "CONSUMO"},
		FieldServiceCode:  {"SERVICIOS", "SUMINISTROS", "PRODUCTO"},
		FieldObservations: {"OBSERVACIONES", "NOTAS"},
	}
}

// NormalizeHeader canonicalizes a header cell: accents folded, uppercased,
// runs of spaces/hyphens/slashes/dots collapsed to a single underscore.
func NormalizeHeader(header string) string {
	folded := foldAccents(strings.TrimSpace(header))
	var b strings.Builder
	b.Grow(len(folded))
	lastSep := false
	for _, r := range folded {
		switch {
		case r == ' ' || r == '-' || r == '/' || r == '.' || r == '\t':
			if !lastSep && b.Len() > 0 {
				b.WriteByte('_')
				lastSep = true
			}
		default:
			b.WriteRune(unicode.ToUpper(r))
			lastSep = false
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// Resolution maps each canonical field to the column indexes that can
// supply it, in alias preference order. A workbook may carry several alias
// columns for one field (a blank CIF column next to a populated NIF one);
// the value is resolved per row, first non-empty wins.
type Resolution map[string][]int

// Value returns the field's value for one row: the first non-empty cell
// among the field's source columns.
func (r Resolution) Value(field string, cells []string) string {
	for _, idx := range r[field] {
		if idx < len(cells) && strings.TrimSpace(cells[idx]) != "" {
			return cells[idx]
		}
	}
	return ""
}

// Resolve maps each canonical field to its matching alias columns. Headers
// with no alias keep their normalized name, so pass-through columns like
// LUZ or GAS survive unchanged.
func (a FieldAliases) Resolve(headers []string) Resolution {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	resolved := make(Resolution)
	claimed := make(map[int]bool)
	for field, aliases := range a {
		for _, alias := range aliases {
			want := NormalizeHeader(alias)
			for i, h := range normalized {
				if h == want && !claimed[i] {
					resolved[field] = append(resolved[field], i)
					claimed[i] = true
				}
			}
		}
	}

	for i, h := range normalized {
		if !claimed[i] && h != "" {
			if _, taken := resolved[h]; !taken {
				resolved[h] = []int{i}
			}
		}
	}
	return resolved
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}
