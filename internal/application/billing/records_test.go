package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-afip/internal/domain"
)

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord(4, []string{" Maria Lopez ", " 27333444 ", " 1250.50 "})
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Line)
	assert.Equal(t, "Maria Lopez", rec.Name)
	assert.Equal(t, "27333444", rec.DocumentNumber)
	assert.Equal(t, "1250.5", rec.Amount.String())
}

func TestParseRecord_CerosFinales(t *testing.T) {
	rec, err := ParseRecord(2, []string{"Maria", "27333444", "1500.500"})
	require.NoError(t, err)
	assert.True(t, rec.Amount.Equal(decimal.RequireFromString("1500.5")))
}

func TestParseRecord_Malformed(t *testing.T) {
	cases := map[string][]string{
		"faltan campos":    {"Maria", "27333444"},
		"importe ilegible": {"Maria", "27333444", "mil"},
		"importe vacío":    {"Maria", "27333444", ""},
		"campo de más":     {"Perez", " Juan", "30111222", "1500.00"},
		"importe cero":     {"Maria", "27333444", "0"},
		"importe negativo": {"Maria", "27333444", "-1500.00"},
		"tres decimales":   {"Maria", "27333444", "1500.005"},
	}
	for name, fields := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRecord(2, fields)
			assert.ErrorIs(t, err, domain.ErrMalformedRecord)
		})
	}
}
