package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-afip/internal/domain"
)

// Record fila de entrada: nombre, documento e importe.
type Record struct {
	Line           int
	Name           string
	DocumentNumber string
	Amount         decimal.Decimal
}

// ParseRecord interpreta los campos name,document_number,amount.
// Devuelve ErrMalformedRecord si no hay exactamente 3 campos o si el importe
// no es un monto positivo con a lo sumo dos decimales.
func ParseRecord(line int, fields []string) (Record, error) {
	if len(fields) != 3 {
		return Record{}, fmt.Errorf("%w: línea %d: se esperaban 3 campos, se recibieron %d",
			domain.ErrMalformedRecord, line, len(fields))
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(fields[2]))
	if err != nil {
		return Record{}, fmt.Errorf("%w: línea %d: importe %q: %v", domain.ErrMalformedRecord, line, fields[2], err)
	}
	if amount.Sign() <= 0 {
		return Record{}, fmt.Errorf("%w: línea %d: importe %s no positivo", domain.ErrMalformedRecord, line, amount)
	}
	if !amount.Equal(amount.Round(2)) {
		return Record{}, fmt.Errorf("%w: línea %d: importe %s con más de dos decimales", domain.ErrMalformedRecord, line, amount)
	}
	return Record{
		Line:           line,
		Name:           strings.TrimSpace(fields[0]),
		DocumentNumber: strings.TrimSpace(fields[1]),
		Amount:         amount,
	}, nil
}
