package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-afip/internal/domain"
	"github.com/jhoicas/facturador-afip/internal/domain/invoice"
)

func testIssuer() Issuer {
	return Issuer{
		Name:          "Asociación Civil Ejemplo",
		Letterhead1:   "Av. Pellegrini 1200 - Rosario",
		Letterhead2:   "info@ejemplo.org.ar",
		CUIT:          "30-71234567-1",
		IIBB:          "Exento",
		IVACondition:  "IVA Exento",
		ActivityStart: "01/03/2015",
	}
}

func authorizedMemberInvoice(t *testing.T) *invoice.Invoice {
	t.Helper()
	inv, err := invoice.NewMemberInvoice(invoice.MemberParams{
		DocumentNumber:  "30111222",
		ClientName:      "Juan Perez",
		Address:         "Mitre 123",
		City:            "Rosario",
		ZipCode:         "2000",
		Province:        "Santa Fe",
		InvoiceDate:     time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
		ServiceDateFrom: "20240201",
		ServiceDateTo:   "20240229",
		SellingPoint:    3,
	})
	require.NoError(t, err)
	require.NoError(t, inv.AddItem("Cuota social febrero", 1, decimal.NewFromInt(1500)))
	require.NoError(t, inv.AssignNumber(43))
	require.NoError(t, inv.RecordAuthorization("A", "74061234567890", "20240215"))
	return inv
}

func TestMarotoRenderer_Render(t *testing.T) {
	for _, demo := range []bool{false, true} {
		r := NewMarotoRenderer(testIssuer(), demo)
		pdf, err := r.Render(context.Background(), authorizedMemberInvoice(t))
		require.NoError(t, err)
		assert.Equal(t, "%PDF", string(pdf[:4]))
	}
}

func TestMarotoRenderer_SinglePage(t *testing.T) {
	pdf, err := NewMarotoRenderer(testIssuer(), false).Render(context.Background(), authorizedMemberInvoice(t))
	require.NoError(t, err)

	pages, err := api.PageCount(bytes.NewReader(pdf), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}

func TestMarotoRenderer_RenderDiscriminated(t *testing.T) {
	inv, err := invoice.New(invoice.Header{
		TipoCbte: 1, PuntoVta: 3, Concepto: 1, TipoDoc: 80, NroDoc: "20111111112",
		NombreCliente: "Proveedor SA", FechaCbte: "20240205",
	}, invoice.Rate(decimal.NewFromInt(21)))
	require.NoError(t, err)
	require.NoError(t, inv.AddItem("Servicio técnico", 2, decimal.NewFromInt(121)))
	require.NoError(t, inv.AddAssociatedDoc(invoice.AssociatedDoc{Tipo: 91, PuntoVta: 1, Nro: 10}))
	require.NoError(t, inv.AssignNumber(1))
	require.NoError(t, inv.RecordAuthorization("A", "74061234567891", "20240215"))

	pdf, err := NewMarotoRenderer(testIssuer(), false).Render(context.Background(), inv)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
}

func TestMarotoRenderer_RequiresCAE(t *testing.T) {
	inv, err := invoice.NewProductSaleInvoice(invoice.ProductSaleParams{
		InvoiceDate: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), SellingPoint: 3,
	})
	require.NoError(t, err)

	_, err = NewMarotoRenderer(testIssuer(), false).Render(context.Background(), inv)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "12.345,50", formatMoney(decimal.RequireFromString("12345.5")))
	assert.Equal(t, "146,41", formatMoney(decimal.RequireFromString("146.41")))
	assert.Equal(t, "0,05", formatMoney(decimal.RequireFromString("0.05")))
	assert.Equal(t, "-15.000,00", formatMoney(decimal.RequireFromString("-15000")))
	assert.Equal(t, "1,00", formatMoney(decimal.RequireFromString("0.995")))
	// montos fuera de la precisión de float64
	assert.Equal(t, "123.456.789.012.345,67", formatMoney(decimal.RequireFromString("123456789012345.67")))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "05/02/2024", formatDate("20240205"))
	assert.Equal(t, "", formatDate(""))
	assert.Equal(t, "0003-00000043", invoiceNumber(invoice.Header{PuntoVta: 3, CbteNro: 43}))
	assert.Equal(t, "10,5%", ivaLabel(4))
}
