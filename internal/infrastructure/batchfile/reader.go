// Package batchfile lee los lotes de facturación: una fila de encabezado y luego
// name,document_number,amount por fila. Acepta CSV (UTF-8 o Latin-1) y planillas .xlsx.
package batchfile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encodings soportados para CSV.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin1" // exportaciones de planillas antiguas
)

// Options ajustes de lectura. El valor cero lee CSV UTF-8 separado por comas
// y la primera hoja de un .xlsx.
type Options struct {
	Delimiter rune
	Encoding  string
	Sheet     string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadRows lee todas las filas del archivo, encabezado incluido.
func ReadRows(path string, opts Options) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path, opts.Sheet)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("abrir lote: %w", err)
		}
		defer f.Close()
		return ReadCSV(f, opts)
	}
}

// ReadCSV lee filas CSV de r.
func ReadCSV(r io.Reader, opts Options) ([][]string, error) {
	var src io.Reader = bufio.NewReader(r)
	switch strings.ToLower(opts.Encoding) {
	case "", EncodingUTF8, "utf8":
		br := src.(*bufio.Reader)
		if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			br.Discard(len(utf8BOM))
		}
	case EncodingLatin1, "iso-8859-1":
		src = transform.NewReader(src, charmap.ISO8859_1.NewDecoder())
	default:
		return nil, fmt.Errorf("encoding no soportado %q (usar %s o %s)", opts.Encoding, EncodingUTF8, EncodingLatin1)
	}

	reader := csv.NewReader(src)
	reader.Comma = ','
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	// filas cortas se informan como mal formadas más arriba, no aquí
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("leer CSV: %w", err)
	}
	return rows, nil
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("abrir planilla: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("leer hoja %q: %w", sheet, err)
	}
	// GetRows devuelve filas vacías intermedias como slices vacíos
	out := rows[:0]
	for _, r := range rows {
		if len(r) == 0 {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
