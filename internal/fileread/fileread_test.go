package fileread

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/gyeh/refload/internal/model"
	"github.com/gyeh/refload/internal/normalize"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReadCSVComma(t *testing.T) {
	path := writeFile(t, "cups.csv", []byte("\xEF\xBB\xBFCodigo,Descripcion,Tarifa\n890201,\"Consulta, primera vez\",25000\n\n,,\n890301,Control,\n"))

	tbl, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Codigo", "Descripcion", "Tarifa"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "Consulta, primera vez", tbl.Rows[0]["Descripcion"])
	assert.NotContains(t, tbl.Rows[1], "Tarifa")
}

func TestReadCSVSemicolonLatin1(t *testing.T) {
	text := "Código;Descripción\nJ00;Rinofaringitis aguda\nJ18.9;Neumonía, no especificada\n"
	enc, err := charmap.Windows1252.NewEncoder().String(text)
	require.NoError(t, err)
	path := writeFile(t, "cie10.csv", []byte(enc))

	tbl, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Código", "Descripción"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "Neumonía, no especificada", tbl.Rows[1]["Descripción"])
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"codigo", "descripcion", "precio"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"GAS-001", "Gasa estéril", 1200}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"JER-005", "Jeringa 5 mL", 850.5}))
	path := filepath.Join(t.TempDir(), "materiales.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"codigo", "descripcion", "precio"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "GAS-001", tbl.Rows[0]["codigo"])
	assert.Equal(t, "850.5", tbl.Rows[1]["precio"])
}

func TestReadParquetExportRoundTrip(t *testing.T) {
	cat := "Surgical"
	tariff := 150000.0
	rows := []model.ExportRow{
		model.ToExportRow(&model.ProcedureRecord{Code: "470101", Description: "Apendicectomía", Category: cat, TariffCurrent: &tariff, Active: true}),
		model.ToExportRow(&model.ProcedureRecord{Code: "890201", Description: "Consulta", Category: "Consultation", Active: false}),
	}
	path := filepath.Join(t.TempDir(), "cups.parquet")
	require.NoError(t, parquet.WriteFile(path, rows))

	tbl, err := Read(path)
	require.NoError(t, err)
	assert.Contains(t, tbl.Headers, "tariff_current")
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "470101", tbl.Rows[0]["code"])
	assert.Equal(t, 150000.0, tbl.Rows[0]["tariff_current"])
	assert.Equal(t, false, tbl.Rows[1]["active"])
	assert.NotContains(t, tbl.Rows[1], "tariff_current")
}

func TestReadErrors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = Read(writeFile(t, "data.json", []byte("[]")))
	assert.ErrorContains(t, err, "unsupported file type")

	_, err = Read(writeFile(t, "empty.csv", nil))
	assert.Error(t, err)
}

func TestRequireColumn(t *testing.T) {
	assert.NoError(t, RequireColumn([]string{"Expediente CUM", "Producto"}, normalize.DrugSchema, "cumCode"))
	assert.NoError(t, RequireColumn([]string{"cum_code"}, normalize.DrugSchema, "cumCode"))
	assert.Error(t, RequireColumn([]string{"Producto"}, normalize.DrugSchema, "cumCode"))
}

func TestWriteParquet(t *testing.T) {
	recs := []model.Record{
		&model.DrugRecord{
			CumCode:                "19987654-2",
			ActiveIngredient:       "MORFINA",
			PharmaceuticalForm:     "Injection",
			RoutesOfAdministration: []string{"Intravenous", "Subcutaneous"},
			IsControlledSubstance:  true,
			Active:                 true,
		},
	}
	path := filepath.Join(t.TempDir(), "medicamentos.parquet")
	n, err := WriteParquet(path, recs)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tbl, err := Read(path)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "medicamentos", tbl.Rows[0]["entity"])
	assert.Equal(t, "19987654-2", tbl.Rows[0]["cum_code"])
	assert.Equal(t, "Intravenous, Subcutaneous", tbl.Rows[0]["routes_of_administration"])
	assert.Equal(t, true, tbl.Rows[0]["is_controlled_substance"])
}
