package batchfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadRows_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "socios.csv")
	content := "\xEF\xBB\xBFnombre,documento,importe\nJuan Perez,30111222,1500\n\"Gomez, Ana\",28999111,1500.50\nSolo nombre\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rows, err := ReadRows(path, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"nombre", "documento", "importe"}, rows[0])
	assert.Equal(t, []string{"Gomez, Ana", "28999111", "1500.50"}, rows[2])
	assert.Equal(t, []string{"Solo nombre"}, rows[3])
}

func TestReadCSV_Latin1AndDelimiter(t *testing.T) {
	// "Muñoz" en ISO-8859-1
	in := "nombre;documento;importe\nMu\xF1oz;20333444;900\n"
	rows, err := ReadCSV(strings.NewReader(in), Options{Delimiter: ';', Encoding: EncodingLatin1})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Muñoz", rows[1][0])
}

func TestReadCSV_UnknownEncoding(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b,c\n"), Options{Encoding: "ebcdic"})
	assert.Error(t, err)
}

func TestReadRows_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "socios.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"nombre", "documento", "importe"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Juan Perez", "30111222", "1500"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{"Ana Gomez", "28999111", "750.25"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	rows, err := ReadRows(path, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 3, "la fila vacía se descarta")
	assert.Equal(t, []string{"Ana Gomez", "28999111", "750.25"}, rows[2])
}

func TestReadRows_MissingFile(t *testing.T) {
	_, err := ReadRows(filepath.Join(t.TempDir(), "nope.csv"), Options{})
	assert.Error(t, err)
}
