package sheet

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/leadops/enrich-cli/internal/model"
)

// CSVOptions configures the CSV lead reader.
type CSVOptions struct {
	Delimiter  rune   // default ','; ';' is common in Spanish exports
	Comment    rune   // comment character (0 = none)
	LazyQuotes bool
	SkipColumn string // leads with a truthy value in this column are skipped
}

// ReadLeadsCSV reads leads from a CSV stream. The first row is the header
// and goes through the same alias resolution as workbook headers.
func ReadLeadsCSV(r io.Reader, aliases model.FieldAliases, opts CSVOptions) ([]model.Lead, []string, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // allow variable fields

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil, eris.New("csv: file has no header row")
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "csv: read header")
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}
	resolved := aliases.Resolve(headers)

	columns := columnsInOrder(resolved)

	var leads []model.Lead
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrap(err, "csv: read row")
		}
		for i, field := range record {
			record[i] = strings.TrimSpace(field)
		}
		if isBlankRow(record) {
			continue
		}

		lead := make(model.Lead, len(resolved))
		for field := range resolved {
			lead[field] = resolved.Value(field, record)
		}
		if opts.SkipColumn != "" && model.Truthy(lead.Get(opts.SkipColumn)) {
			continue
		}
		leads = append(leads, lead)
	}

	return leads, columns, nil
}

// ReadLeadsFile dispatches on the file extension: .csv goes through the CSV
// reader, everything else is treated as a workbook.
func ReadLeadsFile(path string, aliases model.FieldAliases, opts ReadOptions) ([]model.Lead, []string, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, eris.Wrap(err, "csv: open file")
		}
		defer f.Close() //nolint:errcheck
		return ReadLeadsCSV(f, aliases, CSVOptions{SkipColumn: opts.SkipColumn})
	}
	return ReadLeads(path, aliases, opts)
}
