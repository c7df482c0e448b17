package afip

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-afip/internal/application/billing"
	"github.com/jhoicas/facturador-afip/internal/domain/invoice"
	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
	"github.com/jhoicas/facturador-afip/pkg/logger"
)

// WSFEClient cliente SOAP de WSFEv1 (factura electrónica mercado interno).
type WSFEClient struct {
	url       string
	cuit      string
	tickets   TicketSource
	transport soapTransport
	log       *logger.Logger
}

// NewWSFEClient construye el cliente. httpClient puede ser nil.
func NewWSFEClient(url, cuit string, tickets TicketSource, httpClient *http.Client, log *logger.Logger) *WSFEClient {
	return &WSFEClient{
		url:       url,
		cuit:      pkgafip.OnlyDigits(cuit),
		tickets:   tickets,
		transport: newSOAPTransport(httpClient),
		log:       log,
	}
}

// ── Estructuras de request ────────────────────────────────────────────────────

type feAuth struct {
	Token string `xml:"Token"`
	Sign  string `xml:"Sign"`
	Cuit  string `xml:"Cuit"`
}

type feCompUltimoAutorizadoRequest struct {
	XMLName  xml.Name `xml:"FECompUltimoAutorizado"`
	Xmlns    string   `xml:"xmlns,attr"`
	Auth     feAuth   `xml:"Auth"`
	PtoVta   int      `xml:"PtoVta"`
	CbteTipo int      `xml:"CbteTipo"`
}

type feCompConsultarRequest struct {
	XMLName       xml.Name      `xml:"FECompConsultar"`
	Xmlns         string        `xml:"xmlns,attr"`
	Auth          feAuth        `xml:"Auth"`
	FeCompConsReq feCompConsReq `xml:"FeCompConsReq"`
}

type feCompConsReq struct {
	CbteTipo int   `xml:"CbteTipo"`
	CbteNro  int64 `xml:"CbteNro"`
	PtoVta   int   `xml:"PtoVta"`
}

type feDummyRequest struct {
	XMLName xml.Name `xml:"FEDummy"`
	Xmlns   string   `xml:"xmlns,attr"`
}

type feCAESolicitarRequest struct {
	XMLName  xml.Name `xml:"FECAESolicitar"`
	Xmlns    string   `xml:"xmlns,attr"`
	Auth     feAuth   `xml:"Auth"`
	FeCAEReq feCAEReq `xml:"FeCAEReq"`
}

type feCAEReq struct {
	FeCabReq struct {
		CantReg  int `xml:"CantReg"`
		PtoVta   int `xml:"PtoVta"`
		CbteTipo int `xml:"CbteTipo"`
	} `xml:"FeCabReq"`
	FeDetReq struct {
		Det feCAEDetRequest `xml:"FECAEDetRequest"`
	} `xml:"FeDetReq"`
}

type feCAEDetRequest struct {
	Concepto     int          `xml:"Concepto"`
	DocTipo      int          `xml:"DocTipo"`
	DocNro       string       `xml:"DocNro"`
	CbteDesde    int64        `xml:"CbteDesde"`
	CbteHasta    int64        `xml:"CbteHasta"`
	CbteFch      string       `xml:"CbteFch"`
	ImpTotal     string       `xml:"ImpTotal"`
	ImpTotConc   string       `xml:"ImpTotConc"`
	ImpNeto      string       `xml:"ImpNeto"`
	ImpOpEx      string       `xml:"ImpOpEx"`
	ImpTrib      string       `xml:"ImpTrib"`
	ImpIVA       string       `xml:"ImpIVA"`
	FchServDesde string       `xml:"FchServDesde,omitempty"`
	FchServHasta string       `xml:"FchServHasta,omitempty"`
	FchVtoPago   string       `xml:"FchVtoPago,omitempty"`
	MonID        string       `xml:"MonId"`
	MonCotiz     string       `xml:"MonCotiz"`
	CbtesAsoc    []feCbteAsoc `xml:"CbtesAsoc>CbteAsoc,omitempty"`
	Iva          []feAlicIva  `xml:"Iva>AlicIva,omitempty"`
}

type feCbteAsoc struct {
	Tipo    int    `xml:"Tipo"`
	PtoVta  int    `xml:"PtoVta"`
	Nro     int64  `xml:"Nro"`
	Cuit    string `xml:"Cuit,omitempty"`
	CbteFch string `xml:"CbteFch,omitempty"`
}

type feAlicIva struct {
	ID      int    `xml:"Id"`
	BaseImp string `xml:"BaseImp"`
	Importe string `xml:"Importe"`
}

// ── Estructuras de respuesta ──────────────────────────────────────────────────

type feErr struct {
	Code int    `xml:"Code"`
	Msg  string `xml:"Msg"`
}

type feErrors struct {
	Err []feErr `xml:"Err"`
}

type feCompUltimoAutorizadoResponse struct {
	Result struct {
		PtoVta   int      `xml:"PtoVta"`
		CbteTipo int      `xml:"CbteTipo"`
		CbteNro  int64    `xml:"CbteNro"`
		Errors   feErrors `xml:"Errors"`
	} `xml:"FECompUltimoAutorizadoResult"`
}

type feCAESolicitarResponse struct {
	Result struct {
		FeCabResp struct {
			Resultado string `xml:"Resultado"`
		} `xml:"FeCabResp"`
		FeDetResp struct {
			Det []struct {
				Resultado     string  `xml:"Resultado"`
				CAE           string  `xml:"CAE"`
				CAEFchVto     string  `xml:"CAEFchVto"`
				Observaciones []feErr `xml:"Observaciones>Obs"`
			} `xml:"FECAEDetResponse"`
		} `xml:"FeDetResp"`
		Errors feErrors `xml:"Errors"`
	} `xml:"FECAESolicitarResult"`
}

type feCompConsultarResponse struct {
	Result struct {
		ResultGet *struct {
			CbteTipo        int    `xml:"CbteTipo"`
			PtoVta          int    `xml:"PtoVta"`
			CbteDesde       int64  `xml:"CbteDesde"`
			CbteFch         string `xml:"CbteFch"`
			DocTipo         int    `xml:"DocTipo"`
			DocNro          string `xml:"DocNro"`
			ImpTotal        string `xml:"ImpTotal"`
			Resultado       string `xml:"Resultado"`
			CodAutorizacion string `xml:"CodAutorizacion"`
			FchVto          string `xml:"FchVto"`
			EmisionTipo     string `xml:"EmisionTipo"`
		} `xml:"ResultGet"`
		Errors feErrors `xml:"Errors"`
	} `xml:"FECompConsultarResult"`
}

type feDummyResponse struct {
	Result ServerStatus `xml:"FEDummyResult"`
}

// ServerStatus estado de los servidores de AFIP (FEDummy).
type ServerStatus struct {
	AppServer  string `xml:"AppServer"`
	DbServer   string `xml:"DbServer"`
	AuthServer string `xml:"AuthServer"`
}

// OK indica que los tres servidores responden.
func (s ServerStatus) OK() bool {
	return s.AppServer == "OK" && s.DbServer == "OK" && s.AuthServer == "OK"
}

// InvoiceStatus comprobante registrado en AFIP (FECompConsultar).
type InvoiceStatus struct {
	CbteTipo  int
	PtoVta    int
	CbteNro   int64
	CbteFch   string
	DocTipo   int
	DocNro    string
	ImpTotal  decimal.Decimal
	Resultado string
	CAE       string
	FchVtoCAE string
	Emision   string
}

// ── Operaciones ───────────────────────────────────────────────────────────────

func (c *WSFEClient) auth(ctx context.Context) (feAuth, error) {
	t, err := c.tickets.Ticket(ctx, ServiceWSFE)
	if err != nil {
		return feAuth{}, fmt.Errorf("wsfe: ticket de acceso: %w", err)
	}
	return feAuth{Token: t.Token, Sign: t.Sign, Cuit: c.cuit}, nil
}

func (c *WSFEClient) action(op string) string { return wsfev1NS + op }

// Dummy verifica el estado de los servidores (no requiere autenticación).
func (c *WSFEClient) Dummy(ctx context.Context) (ServerStatus, error) {
	var resp feDummyResponse
	if err := c.transport.call(ctx, "FEDummy", c.url, c.action("FEDummy"), feDummyRequest{Xmlns: wsfev1NS}, &resp); err != nil {
		return ServerStatus{}, err
	}
	return resp.Result, nil
}

// LastAuthorized devuelve el último número autorizado (FECompUltimoAutorizado).
func (c *WSFEClient) LastAuthorized(ctx context.Context, tipoCbte, puntoVta int) (int64, error) {
	auth, err := c.auth(ctx)
	if err != nil {
		return 0, err
	}
	req := feCompUltimoAutorizadoRequest{Xmlns: wsfev1NS, Auth: auth, PtoVta: puntoVta, CbteTipo: tipoCbte}
	var resp feCompUltimoAutorizadoResponse
	if err := c.transport.call(ctx, "FECompUltimoAutorizado", c.url, c.action("FECompUltimoAutorizado"), req, &resp); err != nil {
		return 0, err
	}
	if e := remoteError("FECompUltimoAutorizado", resp.Result.Errors); e != nil {
		return 0, e
	}
	return resp.Result.CbteNro, nil
}

// QueryInvoice consulta un comprobante emitido (FECompConsultar).
func (c *WSFEClient) QueryInvoice(ctx context.Context, tipoCbte, puntoVta int, nro int64) (*InvoiceStatus, error) {
	auth, err := c.auth(ctx)
	if err != nil {
		return nil, err
	}
	req := feCompConsultarRequest{
		Xmlns:         wsfev1NS,
		Auth:          auth,
		FeCompConsReq: feCompConsReq{CbteTipo: tipoCbte, CbteNro: nro, PtoVta: puntoVta},
	}

	var resp feCompConsultarResponse
	if err := c.transport.call(ctx, "FECompConsultar", c.url, c.action("FECompConsultar"), req, &resp); err != nil {
		return nil, err
	}
	if e := remoteError("FECompConsultar", resp.Result.Errors); e != nil {
		return nil, e
	}
	g := resp.Result.ResultGet
	if g == nil {
		return nil, fmt.Errorf("wsfe: FECompConsultar sin ResultGet")
	}
	total, err := decimal.NewFromString(strings.TrimSpace(g.ImpTotal))
	if err != nil {
		total = decimal.Zero
	}
	return &InvoiceStatus{
		CbteTipo:  g.CbteTipo,
		PtoVta:    g.PtoVta,
		CbteNro:   g.CbteDesde,
		CbteFch:   g.CbteFch,
		DocTipo:   g.DocTipo,
		DocNro:    g.DocNro,
		ImpTotal:  total,
		Resultado: g.Resultado,
		CAE:       g.CodAutorizacion,
		FchVtoCAE: g.FchVto,
		Emision:   g.EmisionTipo,
	}, nil
}

// RequestCAE envía el comprobante (FECAESolicitar). Los errores que AFIP informa en
// la respuesta se devuelven en AuthorizationResult.Error; el error de retorno queda
// para fallas de transporte, autenticación o SOAP Fault.
func (c *WSFEClient) RequestCAE(ctx context.Context, inv *invoice.Invoice) (*billing.AuthorizationResult, error) {
	auth, err := c.auth(ctx)
	if err != nil {
		return nil, err
	}
	req := feCAESolicitarRequest{Xmlns: wsfev1NS, Auth: auth, FeCAEReq: buildCAEReq(inv)}

	var resp feCAESolicitarResponse
	if err := c.transport.call(ctx, "FECAESolicitar", c.url, c.action("FECAESolicitar"), req, &resp); err != nil {
		return nil, err
	}

	res := &billing.AuthorizationResult{Status: resp.Result.FeCabResp.Resultado}
	if dets := resp.Result.FeDetResp.Det; len(dets) > 0 {
		d := dets[0]
		if d.Resultado != "" {
			res.Status = d.Resultado
		}
		res.CAE = strings.TrimSpace(d.CAE)
		res.Expiry = strings.TrimSpace(d.CAEFchVto)
		for _, o := range d.Observaciones {
			res.Observations = append(res.Observations, fmt.Sprintf("%d: %s", o.Code, o.Msg))
		}
	}
	if e := remoteError("FECAESolicitar", resp.Result.Errors); e != nil {
		res.Error = strings.Join(e.Messages, "; ")
	}
	return res, nil
}

func buildCAEReq(inv *invoice.Invoice) feCAEReq {
	h := inv.Header()
	var r feCAEReq
	r.FeCabReq.CantReg = 1
	r.FeCabReq.PtoVta = h.PuntoVta
	r.FeCabReq.CbteTipo = h.TipoCbte

	det := feCAEDetRequest{
		Concepto:   h.Concepto,
		DocTipo:    h.TipoDoc,
		DocNro:     pkgafip.OnlyDigits(h.NroDoc),
		CbteDesde:  h.CbtDesde,
		CbteHasta:  h.CbtHasta,
		CbteFch:    h.FechaCbte,
		ImpTotal:   amount(h.ImpTotal),
		ImpTotConc: amount(h.ImpTotConc),
		ImpNeto:    amount(h.ImpNeto),
		ImpOpEx:    amount(h.ImpOpEx),
		ImpTrib:    amount(h.ImpTrib),
		ImpIVA:     amount(h.ImpIVA),
		MonID:      h.MonedaID,
		MonCotiz:   h.MonedaCtz.StringFixed(6),
	}
	if det.DocNro == "" {
		det.DocNro = "0"
	}
	if pkgafip.RequiresServicePeriod(h.Concepto) {
		det.FchServDesde = h.FechaServDesde
		det.FchServHasta = h.FechaServHasta
		det.FchVtoPago = h.FechaVencPago
	}
	for _, a := range inv.AssociatedDocs() {
		det.CbtesAsoc = append(det.CbtesAsoc, feCbteAsoc{
			Tipo:    a.Tipo,
			PtoVta:  a.PuntoVta,
			Nro:     a.Nro,
			Cuit:    pkgafip.OnlyDigits(a.CUIT),
			CbteFch: a.Fecha,
		})
	}
	for _, st := range inv.TaxSubtotals() {
		det.Iva = append(det.Iva, feAlicIva{ID: st.IVAID, BaseImp: amount(st.BaseImp), Importe: amount(st.Importe)})
	}
	r.FeDetReq.Det = det
	return r
}

// amount formato numérico de WSFEv1: punto decimal, dos decimales.
func amount(d decimal.Decimal) string { return d.StringFixed(2) }

func remoteError(op string, errs feErrors) *RemoteError {
	if len(errs.Err) == 0 {
		return nil
	}
	e := &RemoteError{Op: op, Code: strconv.Itoa(errs.Err[0].Code)}
	for _, x := range errs.Err {
		e.Messages = append(e.Messages, fmt.Sprintf("%d: %s", x.Code, x.Msg))
	}
	return e
}

var _ billing.Authorizer = (*WSFEClient)(nil)
