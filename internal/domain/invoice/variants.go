package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-afip/pkg/afip"
)

// MemberParams datos de una factura C de servicios a socios (exenta de IVA).
type MemberParams struct {
	DocumentNumber  string
	ClientName      string
	Address         string
	City            string
	ZipCode         string
	Province        string
	InvoiceDate     time.Time
	ServiceDateFrom string // yyyymmdd
	ServiceDateTo   string // yyyymmdd
	SellingPoint    int
}

// NewMemberInvoice factura C a consumidor identificado por DNI, concepto productos y servicios.
func NewMemberInvoice(p MemberParams) (*Invoice, error) {
	name := strings.TrimSpace(p.ClientName)
	if name == "" {
		name = "Consumidor Final"
	}
	fecha := p.InvoiceDate.Format(afip.DateLayout)
	return New(Header{
		TipoCbte:         afip.InvoiceC,
		TipoDoc:          afip.DocDNI,
		PuntoVta:         p.SellingPoint,
		Concepto:         afip.ConceptProductsAndServices,
		NombreCliente:    name,
		NroDoc:           strings.TrimSpace(p.DocumentNumber),
		DomicilioCliente: p.Address,
		Localidad:        fmt.Sprintf("%s (%s)", p.City, p.ZipCode),
		Provincia:        p.Province,
		FechaCbte:        fecha,
		FechaServDesde:   p.ServiceDateFrom,
		FechaServHasta:   p.ServiceDateTo,
		FechaVencPago:    fecha,
	}, Rate(decimal.Zero))
}

// ProductSaleParams datos de una factura de venta masiva de productos (consumidor final anónimo).
type ProductSaleParams struct {
	InvoiceDate  time.Time
	SellingPoint int
}

// NewProductSaleInvoice factura C de productos gravados al 21% sin identificar al comprador.
func NewProductSaleInvoice(p ProductSaleParams) (*Invoice, error) {
	return New(Header{
		TipoCbte:  afip.InvoiceC,
		TipoDoc:   afip.DocConsumidorFinal,
		NroDoc:    "0",
		PuntoVta:  p.SellingPoint,
		Concepto:  afip.ConceptProducts,
		FechaCbte: p.InvoiceDate.Format(afip.DateLayout),
	}, Rate(decimal.NewFromInt(21)))
}
