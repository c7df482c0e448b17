package billing

import (
	"time"

	"github.com/jhoicas/facturador-afip/internal/domain/invoice"
)

// InvoiceFactory construye el comprobante de una fila de entrada.
type InvoiceFactory func(rec Record) (*invoice.Invoice, error)

// MemberTemplate datos comunes a todas las facturas a socios de una corrida.
type MemberTemplate struct {
	Address         string
	City            string
	ZipCode         string
	Province        string
	ItemDescription string
	InvoiceDate     time.Time
	ServiceDateFrom string // yyyymmdd
	ServiceDateTo   string // yyyymmdd
	SellingPoint    int
}

// MemberInvoiceFactory factura C exenta con un único ítem por el importe de la fila.
func MemberInvoiceFactory(t MemberTemplate) InvoiceFactory {
	return func(rec Record) (*invoice.Invoice, error) {
		inv, err := invoice.NewMemberInvoice(invoice.MemberParams{
			DocumentNumber:  rec.DocumentNumber,
			ClientName:      rec.Name,
			Address:         t.Address,
			City:            t.City,
			ZipCode:         t.ZipCode,
			Province:        t.Province,
			InvoiceDate:     t.InvoiceDate,
			ServiceDateFrom: t.ServiceDateFrom,
			ServiceDateTo:   t.ServiceDateTo,
			SellingPoint:    t.SellingPoint,
		})
		if err != nil {
			return nil, err
		}
		if err := inv.AddItem(t.ItemDescription, 1, rec.Amount); err != nil {
			return nil, err
		}
		return inv, nil
	}
}

// ProductSaleTemplate datos comunes a las facturas de venta de productos de una corrida.
type ProductSaleTemplate struct {
	ItemDescription string // si la fila no trae nombre
	InvoiceDate     time.Time
	SellingPoint    int
}

// ProductSaleFactory factura C a consumidor final anónimo, gravada al 21%.
// El nombre de la fila es la descripción del ítem; el documento se ignora.
func ProductSaleFactory(t ProductSaleTemplate) InvoiceFactory {
	return func(rec Record) (*invoice.Invoice, error) {
		inv, err := invoice.NewProductSaleInvoice(invoice.ProductSaleParams{
			InvoiceDate:  t.InvoiceDate,
			SellingPoint: t.SellingPoint,
		})
		if err != nil {
			return nil, err
		}
		desc := rec.Name
		if desc == "" {
			desc = t.ItemDescription
		}
		if err := inv.AddItem(desc, 1, rec.Amount); err != nil {
			return nil, err
		}
		return inv, nil
	}
}
