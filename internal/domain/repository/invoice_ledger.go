package repository

import (
	"context"

	"github.com/jhoicas/facturador-afip/internal/domain/invoice"
)

// InvoiceLedger define el puerto de persistencia de comprobantes ya autorizados.
type InvoiceLedger interface {
	// Record guarda cabecera, ítems y subtotales de un comprobante con CAE.
	Record(ctx context.Context, inv *invoice.Invoice) error
	// Exists indica si el número ya fue registrado para ese tipo y punto de venta.
	Exists(ctx context.Context, tipoCbte, puntoVta int, cbteNro int64) (bool, error)
}
