package sheet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/leadops/enrich-cli/internal/model"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	err := f.Save(path)
	require.NoError(t, err)
	return path
}

func TestReadLeads_AliasedHeaders(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"NIF", "Razón Social", "TELÉFONO", "Consumo Anual MWh"},
			{"B67217349", "Acme SL", "612345678", "120,5"},
		},
	})

	leads, columns, err := ReadLeads(path, model.DefaultAliases(), ReadOptions{})
	require.NoError(t, err)
	require.Len(t, leads, 1)

	assert.Equal(t, "B67217349", leads[0].Get(model.FieldTaxID))
	assert.Equal(t, "Acme SL", leads[0].Get(model.FieldCompanyName))
	assert.Equal(t, "612345678", leads[0].Get(model.FieldPhone))
	assert.Equal(t, "120,5", leads[0].Get(model.FieldConsumption))

	// Columns come back in source order under canonical names.
	assert.Equal(t, []string{
		model.FieldTaxID, model.FieldCompanyName, model.FieldPhone, model.FieldConsumption,
	}, columns)
}

func TestReadLeads_BlankAliasColumnFallsBack(t *testing.T) {
	// A blank CIF column next to a populated NIF column must not lose the
	// tax ID: resolution picks the first non-empty value per row.
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"CIF", "NIF", "EMPRESA"},
			{"", "B67217349", "Acme SL"},
			{"G08663478", "X3263669S", "Fundación Test"},
		},
	})

	leads, columns, err := ReadLeads(path, model.DefaultAliases(), ReadOptions{})
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, "B67217349", leads[0].Get(model.FieldTaxID))
	// When both columns carry a value, the first alias wins.
	assert.Equal(t, "G08663478", leads[1].Get(model.FieldTaxID))
	// Both source columns collapse into one canonical column.
	assert.Equal(t, []string{model.FieldTaxID, model.FieldCompanyName}, columns)
}

func TestReadLeads_SkipsBlankRows(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"CIF", "EMAIL"},
			{"", ""},
			{"B67217349", "a@b.es"},
			{"", ""},
		},
	})

	leads, _, err := ReadLeads(path, model.DefaultAliases(), ReadOptions{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "B67217349", leads[0].Get(model.FieldTaxID))
}

func TestReadLeads_ShortRowsPadded(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"CIF", "EMAIL", "WEBSITE"},
			{"B67217349"},
		},
	})

	leads, _, err := ReadLeads(path, model.DefaultAliases(), ReadOptions{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "", leads[0].Get(model.FieldEmail))
	assert.Equal(t, "", leads[0].Get(model.FieldWebsite))
}

func TestReadLeads_SkipColumn(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"CIF", "PROCESSED"},
			{"B67217349", "true"},
			{"G08663478", ""},
		},
	})

	leads, _, err := ReadLeads(path, model.DefaultAliases(), ReadOptions{SkipColumn: "PROCESSED"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "G08663478", leads[0].Get(model.FieldTaxID))
}

func TestReadLeads_SheetName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Ignored": {{"CIF"}, {"X1"}},
		"Datos":   {{"CIF"}, {"B67217349"}},
	})

	leads, _, err := ReadLeads(path, model.DefaultAliases(), ReadOptions{SheetName: "Datos"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "B67217349", leads[0].Get(model.FieldTaxID))
}

func TestReadLeads_SheetNameNotFound(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"CIF"}},
	})

	_, _, err := ReadLeads(path, model.DefaultAliases(), ReadOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReadLeads_EmptyWorkbook(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {}})

	_, _, err := ReadLeads(path, model.DefaultAliases(), ReadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}

func TestWriteLeads_RoundTrip(t *testing.T) {
	leads := []model.Lead{
		{
			model.FieldTaxID:       "B67217349",
			model.FieldCompanyName: "Acme SL",
			model.FieldPriority:    "4",
			model.FieldQuality:     "High",
		},
		{
			model.FieldTaxID:       "G08663478",
			model.FieldCompanyName: "Fundación Test",
			model.FieldPriority:    "1",
			model.FieldQuality:     "Low",
		},
	}
	columns := []string{model.FieldTaxID, model.FieldCompanyName}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	err := WriteLeads(path, leads, columns)
	require.NoError(t, err)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	// Main sheet first, then per-priority sheets (high to low), then summary.
	require.GreaterOrEqual(t, len(f.Sheets), 4)
	assert.Equal(t, "Leads", f.Sheets[0].Name)
	assert.Equal(t, "Prioridad 4", f.Sheets[1].Name)
	assert.Equal(t, "Prioridad 1", f.Sheets[2].Name)
	assert.Equal(t, "Resumen", f.Sheets[len(f.Sheets)-1].Name)

	main := f.Sheets[0]
	require.Len(t, main.Rows, 3)
	assert.Equal(t, model.FieldTaxID, main.Rows[0].Cells[0].String())
	assert.Equal(t, "B67217349", main.Rows[1].Cells[0].String())

	p4 := f.Sheets[1]
	require.Len(t, p4.Rows, 2)
	assert.Equal(t, "B67217349", p4.Rows[1].Cells[0].String())
}

func TestWriteLeads_DerivedColumnsAppended(t *testing.T) {
	leads := []model.Lead{{
		model.FieldTaxID:        "B67217349",
		model.FieldPriority:     "2",
		model.FieldObservations: "nota",
	}}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	err := WriteLeads(path, leads, []string{model.FieldTaxID, model.FieldObservations})
	require.NoError(t, err)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	header := f.Sheets[0].Rows[0]
	var names []string
	for _, c := range header.Cells {
		names = append(names, c.String())
	}
	assert.Contains(t, names, model.FieldPriority)
	assert.Contains(t, names, model.FieldCompleteness)
	assert.Contains(t, names, model.FieldLastUpdated)
	// Observations stays last even when present in the input columns.
	assert.Equal(t, model.FieldObservations, names[len(names)-1])
	assert.Equal(t, 1, countOf(names, model.FieldObservations))
}

func countOf(ss []string, want string) int {
	n := 0
	for _, s := range ss {
		if s == want {
			n++
		}
	}
	return n
}
