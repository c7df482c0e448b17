package postgres

import (
	"context"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS afip_invoices (
	id             UUID PRIMARY KEY,
	tipo_cbte      INTEGER       NOT NULL,
	punto_vta      INTEGER       NOT NULL,
	cbte_nro       BIGINT        NOT NULL,
	fecha_cbte     CHAR(8)       NOT NULL,
	concepto       INTEGER       NOT NULL,
	tipo_doc       INTEGER       NOT NULL,
	nro_doc        TEXT          NOT NULL,
	nombre_cliente TEXT          NOT NULL,
	imp_total      NUMERIC(15,2) NOT NULL,
	imp_tot_conc   NUMERIC(15,2) NOT NULL,
	imp_neto       NUMERIC(15,2) NOT NULL,
	imp_op_ex      NUMERIC(15,2) NOT NULL,
	imp_iva        NUMERIC(15,2) NOT NULL,
	moneda_id      CHAR(3)       NOT NULL,
	resultado      CHAR(1)       NOT NULL,
	cae            TEXT          NOT NULL,
	fch_venc_cae   CHAR(8)       NOT NULL,
	created_at     TIMESTAMPTZ   NOT NULL DEFAULT now(),
	UNIQUE (tipo_cbte, punto_vta, cbte_nro)
);

CREATE TABLE IF NOT EXISTS afip_invoice_items (
	id          UUID PRIMARY KEY,
	invoice_id  UUID          NOT NULL REFERENCES afip_invoices(id) ON DELETE CASCADE,
	position    INTEGER       NOT NULL,
	description TEXT          NOT NULL,
	quantity    INTEGER       NOT NULL,
	iva_id      INTEGER       NOT NULL,
	unit_amount NUMERIC(15,2) NOT NULL,
	amount      NUMERIC(15,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS afip_invoice_ivas (
	invoice_id UUID          NOT NULL REFERENCES afip_invoices(id) ON DELETE CASCADE,
	iva_id     INTEGER       NOT NULL,
	base_imp   NUMERIC(15,2) NOT NULL,
	importe    NUMERIC(15,2) NOT NULL,
	PRIMARY KEY (invoice_id, iva_id)
);`

// Migrate crea las tablas del registro de comprobantes si no existen.
func Migrate(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("crear esquema: %w", err)
	}
	return nil
}
