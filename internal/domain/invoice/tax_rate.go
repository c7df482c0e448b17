package invoice

import "github.com/shopspring/decimal"

// TaxRate es la alícuota de IVA declarada para todo el comprobante.
// Distingue "no gravado" (sin alícuota) de "exento" (alícuota 0).
type TaxRate struct {
	value   decimal.Decimal
	defined bool
}

// NonTaxed es la política de ítems fuera del régimen de IVA (no gravados).
var NonTaxed = TaxRate{}

// Rate construye una alícuota porcentual (ej. 21, 10.5, 0).
func Rate(percent decimal.Decimal) TaxRate {
	return TaxRate{value: percent, defined: true}
}

// Defined indica si el comprobante tiene alícuota (gravado o exento).
func (r TaxRate) Defined() bool { return r.defined }

// Exempt indica alícuota 0 (exento).
func (r TaxRate) Exempt() bool { return r.defined && r.value.IsZero() }

// Taxed indica alícuota finita distinta de cero.
func (r TaxRate) Taxed() bool { return r.defined && !r.value.IsZero() }

// Percent devuelve la alícuota porcentual (cero si no está definida).
func (r TaxRate) Percent() decimal.Decimal { return r.value }

func (r TaxRate) String() string {
	if !r.defined {
		return "no gravado"
	}
	return r.value.String() + "%"
}
