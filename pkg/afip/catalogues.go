// Package afip contiene catálogos y reglas de las tablas de referencia de
// Factura Electrónica AFIP (WSFEv1, Argentina).
package afip

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-afip/internal/domain"
)

// =============================================================================
// Alícuotas de IVA (FEParamGetTiposIva)
// =============================================================================

const (
	IVANoGravado = 1 // condición de ítem: no gravado
	IVAExento    = 2 // condición de ítem: exento
	IVA0         = 3 // 0%
	IVA105       = 4 // 10,5%
	IVA21        = 5 // 21%
	IVA27        = 6 // 27%
)

var (
	rate105 = decimal.RequireFromString("10.5")
	rate21  = decimal.NewFromInt(21)
	rate27  = decimal.NewFromInt(27)
)

// TaxCodeFor devuelve el código de alícuota AFIP para una tasa porcentual.
// Solo se admiten 0, 10.5, 21 y 27; cualquier otra tasa es ErrUnknownTaxRate.
func TaxCodeFor(rate decimal.Decimal) (int, error) {
	switch {
	case rate.IsZero():
		return IVA0, nil
	case rate.Equal(rate105):
		return IVA105, nil
	case rate.Equal(rate21):
		return IVA21, nil
	case rate.Equal(rate27):
		return IVA27, nil
	}
	return 0, fmt.Errorf("%w: %s%%", domain.ErrUnknownTaxRate, rate.String())
}

// =============================================================================
// Tipos de comprobante (FEParamGetTiposCbte)
// =============================================================================

const (
	InvoiceA    = 1
	DebitNoteA  = 2
	CreditNoteA = 3
	ReceiptA    = 4
	SaleNoteA   = 5
	InvoiceB    = 6
	DebitNoteB  = 7
	CreditNoteB = 8
	InvoiceC    = 11
	DebitNoteC  = 12
	CreditNoteC = 13
	InvoiceM    = 51
)

// discriminatedTypes son los comprobantes que discriminan IVA en el detalle (clase A y M).
var discriminatedTypes = map[int]bool{
	1: true, 2: true, 3: true, 4: true, 5: true, 34: true, 39: true,
	51: true, 52: true, 53: true, 54: true, 60: true, 64: true,
}

// DiscriminatesTax indica si el tipo de comprobante muestra el IVA por separado
// (precio unitario neto) o lo incluye en el precio (clase B/C).
func DiscriminatesTax(tipoCbte int) bool {
	return discriminatedTypes[tipoCbte]
}

// LetterFor devuelve la letra impresa del comprobante ("A", "B", "C", "M").
func LetterFor(tipoCbte int) string {
	switch tipoCbte {
	case 1, 2, 3, 4, 5, 34, 39, 60, 63:
		return "A"
	case 6, 7, 8, 9, 10, 35, 40, 61, 64:
		return "B"
	case 11, 12, 13, 15:
		return "C"
	case 51, 52, 53, 54:
		return "M"
	}
	return "X"
}

// InvoiceTypeName denominación impresa del comprobante, sin la letra.
func InvoiceTypeName(tipoCbte int) string {
	switch tipoCbte {
	case 1, 6, 11, 51:
		return "FACTURA"
	case 2, 7, 12, 52:
		return "NOTA DE DÉBITO"
	case 3, 8, 13, 53:
		return "NOTA DE CRÉDITO"
	case 4, 9, 15, 54:
		return "RECIBO"
	}
	return "COMPROBANTE"
}

// =============================================================================
// Tipos de documento (FEParamGetTiposDoc)
// =============================================================================

const (
	DocCUIT            = 80
	DocCUIL            = 86
	DocDNI             = 96
	DocConsumidorFinal = 99
)

// DocTypeName nombre impreso del tipo de documento del receptor.
func DocTypeName(tipoDoc int) string {
	switch tipoDoc {
	case DocCUIT:
		return "CUIT"
	case DocCUIL:
		return "CUIL"
	case DocDNI:
		return "DNI"
	case DocConsumidorFinal:
		return "Sin identificar"
	}
	return "Doc."
}

// =============================================================================
// Conceptos (FEParamGetTiposConcepto)
// =============================================================================

const (
	ConceptProducts            = 1
	ConceptServices            = 2
	ConceptProductsAndServices = 3
)

// RequiresServicePeriod indica si el concepto exige fechas de servicio y vencimiento de pago.
func RequiresServicePeriod(concepto int) bool {
	return concepto == ConceptServices || concepto == ConceptProductsAndServices
}

// =============================================================================
// Monedas, unidades y resultados
// =============================================================================

const (
	CurrencyPesos    = "PES"
	CountryArgentina = 200
	UnitUnits        = 7 // unidades

	ResultApproved = "A"
	ResultRejected = "R"
	ResultPartial  = "P"

	DateLayout = "20060102" // formato de fechas AFIP (yyyymmdd)
)
