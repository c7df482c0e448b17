package pdf

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	moneyPrinter = message.NewPrinter(language.MustParse("es-AR"))
	hundred      = decimal.NewFromInt(100)
)

// formatMoney importe con separadores es-AR y dos decimales. Ej: 12345.5 → "12.345,50"
// La parte entera y los centavos se formatean por separado para no pasar por float64.
func formatMoney(d decimal.Decimal) string {
	r := d.Round(2)
	abs := r.Abs()
	whole := abs.IntPart()
	cents := abs.Sub(decimal.NewFromInt(whole)).Mul(hundred).IntPart()

	s := moneyPrinter.Sprint(number.Decimal(whole)) + fmt.Sprintf(",%02d", cents)
	if r.Sign() < 0 {
		s = "-" + s
	}
	return s
}
