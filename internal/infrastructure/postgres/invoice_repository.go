package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/facturador-afip/internal/domain"
	"github.com/jhoicas/facturador-afip/internal/domain/invoice"
	"github.com/jhoicas/facturador-afip/internal/domain/repository"
)

var _ repository.InvoiceLedger = (*InvoiceLedgerRepo)(nil)

// InvoiceLedgerRepo registro de comprobantes autorizados.
type InvoiceLedgerRepo struct {
	q  Querier
	tx *TxRunner
}

// NewInvoiceLedgerRepository construye el adaptador. Record usa una transacción por comprobante.
func NewInvoiceLedgerRepository(q Querier, tx *TxRunner) *InvoiceLedgerRepo {
	return &InvoiceLedgerRepo{q: q, tx: tx}
}

// Record persiste cabecera, ítems y subtotales de IVA. Un número ya registrado devuelve ErrAlreadyAuthorized.
func (r *InvoiceLedgerRepo) Record(ctx context.Context, inv *invoice.Invoice) error {
	if !inv.Authorized() {
		return fmt.Errorf("%w: solo se registran comprobantes autorizados", domain.ErrInvalidInput)
	}
	return r.tx.Run(ctx, func(q Querier) error {
		id := uuid.New()
		h := inv.Header()
		query := `
			INSERT INTO afip_invoices (id, tipo_cbte, punto_vta, cbte_nro, fecha_cbte, concepto, tipo_doc, nro_doc,
			                           nombre_cliente, imp_total, imp_tot_conc, imp_neto, imp_op_ex, imp_iva,
			                           moneda_id, resultado, cae, fch_venc_cae)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
		_, err := q.Exec(ctx, query,
			id, h.TipoCbte, h.PuntoVta, h.CbteNro, h.FechaCbte, h.Concepto, h.TipoDoc, h.NroDoc,
			h.NombreCliente, h.ImpTotal, h.ImpTotConc, h.ImpNeto, h.ImpOpEx, h.ImpIVA,
			h.MonedaID, h.Resultado, h.CAE, h.FchVencCAE,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %d-%d-%d ya registrado", domain.ErrAlreadyAuthorized, h.TipoCbte, h.PuntoVta, h.CbteNro)
			}
			return fmt.Errorf("insert afip_invoice: %w", err)
		}

		for i, it := range inv.Items() {
			_, err := q.Exec(ctx, `
				INSERT INTO afip_invoice_items (id, invoice_id, position, description, quantity, iva_id, unit_amount, amount)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				uuid.New(), id, i+1, it.Description, it.Quantity, it.IVAID, it.UnitAmount, it.Amount,
			)
			if err != nil {
				return fmt.Errorf("insert afip_invoice_item: %w", err)
			}
		}

		for _, st := range inv.TaxSubtotals() {
			_, err := q.Exec(ctx, `
				INSERT INTO afip_invoice_ivas (invoice_id, iva_id, base_imp, importe)
				VALUES ($1, $2, $3, $4)`,
				id, st.IVAID, st.BaseImp, st.Importe,
			)
			if err != nil {
				return fmt.Errorf("insert afip_invoice_iva: %w", err)
			}
		}
		return nil
	})
}

// Exists indica si el número ya fue registrado.
func (r *InvoiceLedgerRepo) Exists(ctx context.Context, tipoCbte, puntoVta int, cbteNro int64) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM afip_invoices WHERE tipo_cbte = $1 AND punto_vta = $2 AND cbte_nro = $3)`,
		tipoCbte, puntoVta, cbteNro,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("consultar afip_invoices: %w", err)
	}
	return exists, nil
}
