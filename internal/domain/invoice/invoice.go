// Package invoice modela el comprobante electrónico AFIP: cabecera, ítems y
// subtotales de IVA, y el cálculo de importes a medida que se agregan ítems.
package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-afip/internal/domain"
	"github.com/jhoicas/facturador-afip/pkg/afip"
)

// Header es la cabecera del comprobante (FECAECabRequest + FECAEDetRequest).
// Los importes se acumulan en AddItem; CbteNro se asigna recién al autorizar.
type Header struct {
	TipoCbte int
	PuntoVta int
	CbteNro  int64
	CbtDesde int64
	CbtHasta int64
	Concepto int

	TipoDoc          int
	NroDoc           string
	NombreCliente    string
	DomicilioCliente string
	Localidad        string
	Provincia        string
	IDImpositivo     string
	PaisDstCmp       int

	FechaCbte      string // yyyymmdd
	FechaServDesde string
	FechaServHasta string
	FechaVencPago  string

	ImpTotal   decimal.Decimal // total del comprobante
	ImpTotConc decimal.Decimal // no gravado
	ImpNeto    decimal.Decimal // neto gravado
	ImpTrib    decimal.Decimal // otros tributos
	ImpOpEx    decimal.Decimal // exento
	ImpIVA     decimal.Decimal // IVA liquidado

	MonedaID  string
	MonedaCtz decimal.Decimal

	MotivoObs  string
	Resultado  string // A, R o P; vacío hasta autorizar
	CAE        string
	FchVencCAE string
}

// Item es una línea del comprobante. Inmutable una vez agregada.
type Item struct {
	Description string
	Code        string
	Quantity    int
	UnitMeasure int
	Discount    decimal.Decimal
	IVAID       int
	UnitAmount  decimal.Decimal  // importe unitario recibido
	Subtotal    decimal.Decimal  // UnitAmount × Quantity
	Price       decimal.Decimal  // precio unitario impreso
	IVAAmount   *decimal.Decimal // IVA impreso; nil si no corresponde
	Amount      decimal.Decimal  // importe de la línea (subtotal + IVA liquidado)
}

// TaxSubtotal acumula base imponible e IVA por código de alícuota AFIP.
type TaxSubtotal struct {
	IVAID   int
	BaseImp decimal.Decimal
	Importe decimal.Decimal
}

// AssociatedDoc comprobante asociado (notas de crédito/débito, remitos).
type AssociatedDoc struct {
	Tipo     int
	PuntoVta int
	Nro      int64
	CUIT     string
	Fecha    string
}

// Invoice agregado raíz: una cabecera, ítems en orden de carga y subtotales por alícuota.
type Invoice struct {
	header     Header
	rate       TaxRate
	ivaID      int
	items      []Item
	subtotals  []TaxSubtotal
	subtotalIx map[int]int
	assocs     []AssociatedDoc
}

// New construye un comprobante vacío. La alícuota se resuelve una sola vez:
// una tasa finita fuera de la tabla AFIP devuelve ErrUnknownTaxRate.
func New(h Header, rate TaxRate) (*Invoice, error) {
	ivaID := afip.IVANoGravado
	if rate.Defined() {
		id, err := afip.TaxCodeFor(rate.Percent())
		if err != nil {
			return nil, err
		}
		ivaID = id
	}
	h.ImpTotal = decimal.Zero
	h.ImpTotConc = decimal.Zero
	h.ImpNeto = decimal.Zero
	h.ImpTrib = decimal.Zero
	h.ImpOpEx = decimal.Zero
	h.ImpIVA = decimal.Zero
	if h.MonedaID == "" {
		h.MonedaID = afip.CurrencyPesos
	}
	h.MonedaCtz = decimal.NewFromInt(1)
	if h.PaisDstCmp == 0 {
		h.PaisDstCmp = afip.CountryArgentina
	}
	if h.IDImpositivo == "" {
		h.IDImpositivo = "Consumidor Final"
	}
	h.Resultado, h.CAE, h.FchVencCAE = "", "", ""
	return &Invoice{
		header:     h,
		rate:       rate,
		ivaID:      ivaID,
		subtotalIx: make(map[int]int),
	}, nil
}

// Header devuelve una copia de la cabecera.
func (inv *Invoice) Header() Header { return inv.header }

// Rate devuelve la alícuota del comprobante.
func (inv *Invoice) Rate() TaxRate { return inv.rate }

// Items devuelve los ítems en orden de carga.
func (inv *Invoice) Items() []Item {
	out := make([]Item, len(inv.items))
	copy(out, inv.items)
	return out
}

// TaxSubtotals devuelve los subtotales de IVA en orden de aparición.
func (inv *Invoice) TaxSubtotals() []TaxSubtotal {
	out := make([]TaxSubtotal, len(inv.subtotals))
	copy(out, inv.subtotals)
	return out
}

// TaxSubtotal busca el subtotal de una alícuota.
func (inv *Invoice) TaxSubtotal(ivaID int) (TaxSubtotal, bool) {
	i, ok := inv.subtotalIx[ivaID]
	if !ok {
		return TaxSubtotal{}, false
	}
	return inv.subtotals[i], true
}

// AssociatedDocs devuelve los comprobantes asociados.
func (inv *Invoice) AssociatedDocs() []AssociatedDoc {
	out := make([]AssociatedDoc, len(inv.assocs))
	copy(out, inv.assocs)
	return out
}

// AddAssociatedDoc agrega un comprobante asociado (solo notas de crédito/débito).
func (inv *Invoice) AddAssociatedDoc(d AssociatedDoc) error {
	if inv.Authorized() {
		return domain.ErrAlreadyAuthorized
	}
	inv.assocs = append(inv.assocs, d)
	return nil
}

// Authorized indica si el comprobante ya pasó por la autorización (tiene resultado registrado).
func (inv *Invoice) Authorized() bool {
	return inv.header.Resultado != "" || inv.header.CAE != ""
}

// AssignNumber fija el número de comprobante (último autorizado + 1).
func (inv *Invoice) AssignNumber(nro int64) error {
	if inv.Authorized() {
		return domain.ErrAlreadyAuthorized
	}
	if nro <= 0 {
		return fmt.Errorf("%w: número de comprobante %d", domain.ErrInvalidInput, nro)
	}
	inv.header.CbteNro = nro
	inv.header.CbtDesde = nro
	inv.header.CbtHasta = nro
	return nil
}

// RecordAuthorization registra resultado, CAE y vencimiento devueltos por AFIP.
// Una vez registrados no pueden modificarse.
func (inv *Invoice) RecordAuthorization(resultado, cae, vencimiento string) error {
	if inv.Authorized() {
		return domain.ErrAlreadyAuthorized
	}
	inv.header.Resultado = resultado
	inv.header.CAE = cae
	inv.header.FchVencCAE = vencimiento
	return nil
}

// SetObservation fija el motivo/observación impreso (ej. leyenda de demostración).
func (inv *Invoice) SetObservation(obs string) {
	inv.header.MotivoObs = obs
}
