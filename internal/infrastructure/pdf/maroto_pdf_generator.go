// Package pdf implementa la representación impresa del comprobante electrónico
// AFIP (RG 4291: QR de verificación en el pie).
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  EMISOR: Razón social +  │ C │  FACTURA  N° 0003-00000043   │
//	│  membrete                │11 │  Fecha / CUIT / IIBB / Inicio │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PERÍODO: Desde / Hasta / Vto. pago (servicios)              │
//	│  RECEPTOR: Nombre + Doc + Domicilio + Localidad             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | IVA | Importe          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SUBTOTALES IVA (A/M) / TOTALES                             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER AFIP: QR + CAE + Vto. CAE                           │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/facturador-afip/internal/application/billing"
	"github.com/jhoicas/facturador-afip/internal/domain"
	"github.com/jhoicas/facturador-afip/internal/domain/invoice"
	"github.com/jhoicas/facturador-afip/pkg/afip"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 190, Green: 30, Blue: 30}
)

// DemoObservation se imprime en las observaciones de comprobantes de homologación.
const DemoObservation = "Ejemplo Sin validez fiscal"

// Issuer datos del emisor impresos en el membrete.
type Issuer struct {
	Name          string
	Letterhead1   string
	Letterhead2   string
	CUIT          string
	CUITLegend    string // si está vacío se imprime la CUIT
	IIBB          string
	IVACondition  string
	ActivityStart string
	LogoPath      string
}

// ── Renderer ──────────────────────────────────────────────────────────────────

// MarotoRenderer implementa billing.Renderer usando Maroto v2.
type MarotoRenderer struct {
	issuer Issuer
	demo   bool
}

// NewMarotoRenderer construye el renderer. demo agrega la leyenda de homologación.
func NewMarotoRenderer(issuer Issuer, demo bool) *MarotoRenderer {
	return &MarotoRenderer{issuer: issuer, demo: demo}
}

// Render genera el PDF de un comprobante con CAE y devuelve sus bytes.
func (g *MarotoRenderer) Render(_ context.Context, inv *invoice.Invoice) ([]byte, error) {
	h := inv.Header()
	if h.CAE == "" {
		return nil, fmt.Errorf("%w: el comprobante %d no tiene CAE", domain.ErrInvalidInput, h.CbteNro)
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(fmt.Sprintf("%s %s %s", afip.InvoiceTypeName(h.TipoCbte), afip.LetterFor(h.TipoCbte), invoiceNumber(h)), true).
		WithAuthor(g.issuer.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(h))
	if g.demo {
		m.AddRows(demoRow())
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	if afip.RequiresServicePeriod(h.Concepto) {
		m.AddRows(periodRow(h))
	}
	m.AddRows(receptorRow(h))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	discriminated := afip.DiscriminatesTax(h.TipoCbte)
	m.AddRows(tableHeaderRow(discriminated))
	m.AddRows(tableDetailRows(inv.Items())...)

	if docs := inv.AssociatedDocs(); len(docs) > 0 {
		m.AddRows(associatedRows(docs)...)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	if discriminated {
		m.AddRows(taxSubtotalRows(inv.TaxSubtotals())...)
	}
	m.AddRows(totalsRow(h, discriminated))

	if obs := g.observations(h); obs != "" {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Observaciones: "+obs, props.Text{Size: 8, Top: 2, Color: colorGray}),
		)))
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	footer, err := g.afipFooterRows(h)
	if err != nil {
		return nil, err
	}
	m.AddRows(footer...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: emisor (izq), letra y código (centro), número y fechas (der).
func (g *MarotoRenderer) headerRow(h invoice.Header) core.Row {
	left := col.New(5)
	top := 1.0
	if g.issuer.LogoPath != "" {
		left.Add(image.NewFromFile(g.issuer.LogoPath, props.Rect{Percent: 60, Left: 0, Top: 0}))
		top = 14
	}
	left.Add(
		text.New(g.issuer.Name, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: top}),
		text.New(g.issuer.Letterhead1, props.Text{Size: 8, Top: top + 8, Color: colorGray}),
		text.New(g.issuer.Letterhead2, props.Text{Size: 8, Top: top + 12, Color: colorGray}),
		text.New("Condición frente al IVA: "+nonEmpty(g.issuer.IVACondition, "-"), props.Text{Size: 8, Top: top + 16}),
	)

	cuit := g.issuer.CUITLegend
	if cuit == "" {
		cuit = "CUIT: " + g.issuer.CUIT
	}
	return row.New(38).Add(
		left,
		col.New(2).Add(
			text.New(afip.LetterFor(h.TipoCbte), props.Text{
				Style: fontstyle.Bold, Size: 24, Align: align.Center, Top: 2,
			}),
			text.New(fmt.Sprintf("COD. %02d", h.TipoCbte), props.Text{
				Size: 7, Align: align.Center, Top: 14,
			}),
		),
		col.New(5).Add(
			text.New(afip.InvoiceTypeName(h.TipoCbte), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("N° "+invoiceNumber(h), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 8,
			}),
			text.New("Fecha de emisión: "+formatDate(h.FechaCbte), props.Text{
				Size: 8, Align: align.Right, Top: 15,
			}),
			text.New(cuit, props.Text{Size: 8, Align: align.Right, Top: 20, Color: colorGray}),
			text.New("Ingresos Brutos: "+nonEmpty(g.issuer.IIBB, "-"), props.Text{
				Size: 8, Align: align.Right, Top: 25, Color: colorGray,
			}),
			text.New("Inicio de actividades: "+nonEmpty(g.issuer.ActivityStart, "-"), props.Text{
				Size: 8, Align: align.Right, Top: 30, Color: colorGray,
			}),
		),
	)
}

func demoRow() core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New("DEMO - COMPROBANTE DE HOMOLOGACIÓN", props.Text{
			Style: fontstyle.Bold, Size: 11, Align: align.Center, Color: colorRed, Top: 1,
		}),
	))
}

// periodRow: período facturado y vencimiento del pago.
func periodRow(h invoice.Header) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(fmt.Sprintf("Período facturado desde: %s   hasta: %s   |   Fecha de vto. para el pago: %s",
			formatDate(h.FechaServDesde), formatDate(h.FechaServHasta), formatDate(h.FechaVencPago),
		), props.Text{Size: 8, Top: 2}),
	))
}

// receptorRow: datos del comprador.
func receptorRow(h invoice.Header) core.Row {
	doc := afip.DocTypeName(h.TipoDoc)
	if h.TipoDoc != afip.DocConsumidorFinal {
		doc += ": " + h.NroDoc
	}
	return row.New(20).Add(
		col.New(12).Add(
			text.New("RECEPTOR", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(h.NombreCliente, props.Text{Style: fontstyle.Bold, Size: 10, Top: 5}),
			text.New(fmt.Sprintf("%s   |   Condición frente al IVA: Consumidor Final", doc),
				props.Text{Size: 8, Top: 10, Color: colorGray}),
			text.New(fmt.Sprintf("Domicilio: %s   |   %s   |   %s",
				nonEmpty(h.DomicilioCliente, "-"),
				nonEmpty(h.Localidad, "-"),
				nonEmpty(h.Provincia, "-"),
			), props.Text{Size: 8, Top: 14, Color: colorGray}),
		),
	)
}

func tableHeaderRow(discriminated bool) core.Row {
	hdr := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	iva := "IVA"
	if discriminated {
		iva = "IVA $"
	}
	return row.New(8).Add(
		hdr("Cant.", 1, align.Center),
		hdr("Descripción", 5, align.Left),
		hdr("Precio Unit.", 2, align.Right),
		hdr(iva, 2, align.Right),
		hdr("Importe", 2, align.Right),
	)
}

// tableDetailRows: una fila por ítem, en orden de carga.
func tableDetailRows(items []invoice.Item) []core.Row {
	rows := make([]core.Row, 0, len(items))
	for _, it := range items {
		iva := "-"
		if it.IVAAmount != nil {
			iva = "$" + formatMoney(*it.IVAAmount)
		}
		rows = append(rows, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprintf("%d", it.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(5).Add(text.New(it.Description, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New("$"+formatMoney(it.Price), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(iva, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New("$"+formatMoney(it.Amount), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return rows
}

func associatedRows(docs []invoice.AssociatedDoc) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("Comprobantes asociados", props.Text{Style: fontstyle.Bold, Size: 8, Top: 2}),
		)),
	}
	for _, d := range docs {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(fmt.Sprintf("%s %s N° %04d-%08d", afip.InvoiceTypeName(d.Tipo), afip.LetterFor(d.Tipo), d.PuntoVta, d.Nro),
				props.Text{Size: 8, Left: 2, Color: colorGray}),
		)))
	}
	return rows
}

func taxSubtotalRows(subtotals []invoice.TaxSubtotal) []core.Row {
	rows := make([]core.Row, 0, len(subtotals))
	for _, st := range subtotals {
		rows = append(rows, row.New(5).Add(
			col.New(6),
			col.New(4).Add(text.New(fmt.Sprintf("IVA %s (base $%s):", ivaLabel(st.IVAID), formatMoney(st.BaseImp)),
				props.Text{Size: 8, Align: align.Right, Right: 2})),
			col.New(2).Add(text.New("$"+formatMoney(st.Importe), props.Text{Size: 8, Align: align.Right, Right: 1})),
		))
	}
	return rows
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(h invoice.Header, discriminated bool) core.Row {
	var labels, values []core.Component
	add := func(l, v string) {
		top := float64(len(labels)) * 5
		labels = append(labels, text.New(l, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top}))
		values = append(values, text.New(v, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top}))
	}
	if discriminated {
		add("Importe neto gravado:", "$"+formatMoney(h.ImpNeto))
		add("IVA:", "$"+formatMoney(h.ImpIVA))
	}
	if !h.ImpOpEx.IsZero() {
		add("Importe exento:", "$"+formatMoney(h.ImpOpEx))
	}
	if !h.ImpTotConc.IsZero() {
		add("Importe no gravado:", "$"+formatMoney(h.ImpTotConc))
	}
	if !h.ImpTrib.IsZero() {
		add("Otros tributos:", "$"+formatMoney(h.ImpTrib))
	}
	top := float64(len(labels)) * 5
	labels = append(labels, text.New("IMPORTE TOTAL:", props.Text{
		Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: top,
	}))
	values = append(values, text.New("$"+formatMoney(h.ImpTotal), props.Text{
		Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: top,
	}))

	return row.New(top + 8).Add(
		col.New(4),
		col.New(5).Add(labels...),
		col.New(3).Add(values...),
	)
}

// afipFooterRows: QR de verificación + CAE + vencimiento.
func (g *MarotoRenderer) afipFooterRows(h invoice.Header) ([]core.Row, error) {
	fecha, err := time.Parse(afip.DateLayout, h.FechaCbte)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha de comprobante %q", domain.ErrInvalidInput, h.FechaCbte)
	}
	qr, err := afip.BuildQRURL(afip.QRData{
		Fecha:      fecha,
		CUIT:       g.issuer.CUIT,
		PtoVta:     h.PuntoVta,
		TipoCmp:    h.TipoCbte,
		NroCmp:     h.CbteNro,
		Importe:    h.ImpTotal,
		Moneda:     h.MonedaID,
		Ctz:        h.MonedaCtz,
		TipoDocRec: h.TipoDoc,
		NroDocRec:  h.NroDoc,
		CodAut:     h.CAE,
	})
	if err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}

	status := "Comprobante Autorizado"
	if h.Resultado != afip.ResultApproved {
		status = "Resultado AFIP: " + h.Resultado
	}
	return []core.Row{
		row.New(40).Add(
			col.New(3).Add(code.NewQr(qr, props.Rect{Percent: 95, Center: true})),
			col.New(5).Add(
				text.New("AFIP", props.Text{Style: fontstyle.BoldItalic, Size: 16, Top: 4, Left: 3, Color: colorPrimary}),
				text.New(status, props.Text{Style: fontstyle.Bold, Size: 10, Top: 14, Left: 3}),
				text.New("Esta Administración Federal no se responsabiliza por los datos ingresados en el detalle de la operación",
					props.Text{Size: 6.5, Top: 22, Left: 3, Color: colorGray}),
			),
			col.New(4).Add(
				text.New("CAE N°: "+h.CAE, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 14}),
				text.New("Fecha de Vto. de CAE: "+formatDate(h.FchVencCAE), props.Text{
					Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 20,
				}),
			),
		),
	}, nil
}

func (g *MarotoRenderer) observations(h invoice.Header) string {
	obs := h.MotivoObs
	if g.demo {
		if obs != "" {
			obs += " - "
		}
		obs += DemoObservation
	}
	return obs
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// invoiceNumber formato PPPP-NNNNNNNN.
func invoiceNumber(h invoice.Header) string {
	return fmt.Sprintf("%04d-%08d", h.PuntoVta, h.CbteNro)
}

// formatDate convierte yyyymmdd a dd/mm/yyyy; si no es una fecha válida la deja igual.
func formatDate(s string) string {
	t, err := time.Parse(afip.DateLayout, s)
	if err != nil {
		return s
	}
	return t.Format("02/01/2006")
}

func ivaLabel(ivaID int) string {
	switch ivaID {
	case afip.IVA0:
		return "0%"
	case afip.IVA105:
		return "10,5%"
	case afip.IVA21:
		return "21%"
	case afip.IVA27:
		return "27%"
	}
	return fmt.Sprintf("cód. %d", ivaID)
}

var _ billing.Renderer = (*MarotoRenderer)(nil)
