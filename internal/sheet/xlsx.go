// Package sheet reads lead workbooks and writes the enriched, multi-sheet
// output. Header aliasing is resolved here so downstream code only ever sees
// canonical field names.
package sheet

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/leadops/enrich-cli/internal/model"
)

// ReadOptions configures the workbook reader.
type ReadOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	SkipColumn string // leads with a truthy value in this column are skipped
}

// ReadLeads reads a workbook and returns one Lead per data row, keyed by
// canonical field names. The second return lists the canonical column order
// as encountered, for stable output.
func ReadLeads(path string, aliases model.FieldAliases, opts ReadOptions) ([]model.Lead, []string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "sheet: open file")
	}

	s, err := getSheet(f, opts)
	if err != nil {
		return nil, nil, err
	}
	if len(s.Rows) == 0 {
		return nil, nil, eris.New("sheet: workbook has no header row")
	}

	headers := rowToStrings(s.Rows[0])
	resolved := aliases.Resolve(headers)
	columns := columnsInOrder(resolved)

	var leads []model.Lead
	for _, row := range s.Rows[1:] {
		cells := rowToStrings(row)
		if isBlankRow(cells) {
			continue
		}
		lead := make(model.Lead, len(resolved))
		for field := range resolved {
			lead[field] = resolved.Value(field, cells)
		}
		if opts.SkipColumn != "" && model.Truthy(lead.Get(opts.SkipColumn)) {
			continue
		}
		leads = append(leads, lead)
	}

	return leads, columns, nil
}

// WriteLeads writes the enriched workbook: a main sheet with every lead, one
// sheet per priority tier (highest first), and a summary sheet with counts
// by priority and quality.
func WriteLeads(path string, leads []model.Lead, columns []string) error {
	columns = withDerivedColumns(columns)

	f := xlsx.NewFile()

	if err := addLeadSheet(f, "Leads", leads, columns); err != nil {
		return err
	}

	for tier := 4; tier >= 1; tier-- {
		var subset []model.Lead
		for _, lead := range leads {
			if lead.Get(model.FieldPriority) == strconv.Itoa(tier) {
				subset = append(subset, lead)
			}
		}
		if len(subset) == 0 {
			continue
		}
		if err := addLeadSheet(f, fmt.Sprintf("Prioridad %d", tier), subset, columns); err != nil {
			return err
		}
	}

	if err := addSummarySheet(f, leads); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "sheet: save %s", path)
	}
	return nil
}

// withDerivedColumns appends the columns the pipeline adds, skipping any the
// input already carried.
func withDerivedColumns(columns []string) []string {
	derived := []string{
		model.FieldPriority,
		model.FieldTaxIDValid, model.FieldTaxIDFormatOK, model.FieldTaxIDType, model.FieldTaxIDEntityType,
		model.FieldPhoneValid, model.FieldPhoneType, model.FieldPhoneIntl,
		model.FieldCompleteness, model.FieldConfidence, model.FieldQuality,
		model.FieldSources, model.FieldLastUpdated,
		model.FieldObservations,
	}

	seen := make(map[string]bool, len(columns))
	out := make([]string, 0, len(columns)+len(derived))
	for _, c := range columns {
		if c == model.FieldObservations {
			continue // always re-appended last
		}
		seen[c] = true
		out = append(out, c)
	}
	for _, c := range derived {
		if !seen[c] {
			out = append(out, c)
		}
	}
	return out
}

func addLeadSheet(f *xlsx.File, name string, leads []model.Lead, columns []string) error {
	s, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "sheet: add sheet %s", name)
	}

	header := s.AddRow()
	for _, c := range columns {
		header.AddCell().SetString(c)
	}

	for _, lead := range leads {
		row := s.AddRow()
		for _, c := range columns {
			row.AddCell().SetString(lead[c])
		}
	}
	return nil
}

func addSummarySheet(f *xlsx.File, leads []model.Lead) error {
	s, err := f.AddSheet("Resumen")
	if err != nil {
		return eris.Wrap(err, "sheet: add summary sheet")
	}

	priorities := make(map[string]int)
	qualities := make(map[string]int)
	for _, lead := range leads {
		if p := lead.Get(model.FieldPriority); p != "" {
			priorities[p]++
		}
		if q := lead.Get(model.FieldQuality); q != "" {
			qualities[q]++
		}
	}

	row := s.AddRow()
	row.AddCell().SetString("Total leads")
	row.AddCell().SetInt(len(leads))

	s.AddRow() // spacer

	for tier := 4; tier >= 1; tier-- {
		key := strconv.Itoa(tier)
		row := s.AddRow()
		row.AddCell().SetString("Prioridad " + key)
		row.AddCell().SetInt(priorities[key])
	}

	s.AddRow() // spacer

	for _, q := range []model.Quality{model.QualityHigh, model.QualityMedium, model.QualityLow} {
		row := s.AddRow()
		row.AddCell().SetString("Calidad " + string(q))
		row.AddCell().SetInt(qualities[string(q)])
	}
	return nil
}

func getSheet(f *xlsx.File, opts ReadOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		s, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("sheet: sheet %q not found", opts.SheetName)
		}
		return s, nil
	}
	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("sheet: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

// columnsInOrder lists the canonical field names sorted by their first
// source column index, so output preserves the input layout.
func columnsInOrder(resolved model.Resolution) []string {
	columns := make([]string, 0, len(resolved))
	for field := range resolved {
		columns = append(columns, field)
	}
	sort.Slice(columns, func(i, j int) bool { return resolved[columns[i]][0] < resolved[columns[j]][0] })
	return columns
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
