package afip

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-afip/internal/domain"
	"github.com/jhoicas/facturador-afip/internal/domain/invoice"
	"github.com/jhoicas/facturador-afip/pkg/logger"
)

type staticTickets struct{ err error }

func (s staticTickets) Ticket(context.Context, string) (*Ticket, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &Ticket{Token: "TKN", Sign: "SGN", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func soapOK(inner string) string {
	return `<?xml version="1.0" encoding="utf-8"?><soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>` +
		inner + `</soap:Body></soap:Envelope>`
}

// wsfeServer responde según SOAPAction y guarda el último body recibido.
func wsfeServer(t *testing.T, responses map[string]string, lastBody *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action := strings.TrimPrefix(r.Header.Get("SOAPAction"), wsfev1NS)
		body, _ := io.ReadAll(r.Body)
		if lastBody != nil {
			*lastBody = string(body)
		}
		resp, ok := responses[action]
		if !ok {
			http.Error(w, "acción inesperada "+action, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		io.WriteString(w, soapOK(resp))
	}))
}

func memberInvoice(t *testing.T) *invoice.Invoice {
	t.Helper()
	inv, err := invoice.NewMemberInvoice(invoice.MemberParams{
		DocumentNumber:  "30111222",
		ClientName:      "Juan Perez",
		City:            "Rosario",
		ZipCode:         "2000",
		InvoiceDate:     time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
		ServiceDateFrom: "20240201",
		ServiceDateTo:   "20240229",
		SellingPoint:    3,
	})
	require.NoError(t, err)
	require.NoError(t, inv.AddItem("Cuota social", 1, decimal.NewFromInt(1500)))
	require.NoError(t, inv.AssignNumber(43))
	return inv
}

func TestWSFEClient_LastAuthorized(t *testing.T) {
	var body string
	srv := wsfeServer(t, map[string]string{
		"FECompUltimoAutorizado": `<FECompUltimoAutorizadoResponse xmlns="http://ar.gov.afip.dif.FEV1/"><FECompUltimoAutorizadoResult>
<PtoVta>3</PtoVta><CbteTipo>11</CbteTipo><CbteNro>42</CbteNro></FECompUltimoAutorizadoResult></FECompUltimoAutorizadoResponse>`,
	}, &body)
	defer srv.Close()

	c := NewWSFEClient(srv.URL, "20-11111111-2", staticTickets{}, srv.Client(), logger.Nop())
	last, err := c.LastAuthorized(context.Background(), 11, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(42), last)
	assert.Contains(t, body, "<Token>TKN</Token>")
	assert.Contains(t, body, "<Cuit>20111111112</Cuit>")
	assert.Contains(t, body, "<PtoVta>3</PtoVta>")
	assert.Contains(t, body, "<CbteTipo>11</CbteTipo>")
}

func TestWSFEClient_LastAuthorized_RemoteError(t *testing.T) {
	srv := wsfeServer(t, map[string]string{
		"FECompUltimoAutorizado": `<FECompUltimoAutorizadoResponse xmlns="http://ar.gov.afip.dif.FEV1/"><FECompUltimoAutorizadoResult>
<PtoVta>3</PtoVta><CbteTipo>11</CbteTipo><CbteNro>0</CbteNro>
<Errors><Err><Code>600</Code><Msg>ValidacionDeToken: No validaron las fechas del token GenTime, ExpTime, NowUTC</Msg></Err></Errors>
</FECompUltimoAutorizadoResult></FECompUltimoAutorizadoResponse>`,
	}, nil)
	defer srv.Close()

	c := NewWSFEClient(srv.URL, "20111111112", staticTickets{}, srv.Client(), logger.Nop())
	_, err := c.LastAuthorized(context.Background(), 11, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemoteAuthorization)
	assert.Contains(t, err.Error(), "600")
}

func TestWSFEClient_RequestCAE_Approved(t *testing.T) {
	var body string
	srv := wsfeServer(t, map[string]string{
		"FECAESolicitar": `<FECAESolicitarResponse xmlns="http://ar.gov.afip.dif.FEV1/"><FECAESolicitarResult>
<FeCabResp><Cuit>20111111112</Cuit><PtoVta>3</PtoVta><CbteTipo>11</CbteTipo><Resultado>A</Resultado></FeCabResp>
<FeDetResp><FECAEDetResponse><Concepto>3</Concepto><CbteDesde>43</CbteDesde><CbteHasta>43</CbteHasta>
<Resultado>A</Resultado><CAE>74061234567890</CAE><CAEFchVto>20240215</CAEFchVto>
<Observaciones><Obs><Code>10217</Code><Msg>Campo informativo</Msg></Obs></Observaciones>
</FECAEDetResponse></FeDetResp></FECAESolicitarResult></FECAESolicitarResponse>`,
	}, &body)
	defer srv.Close()

	c := NewWSFEClient(srv.URL, "20111111112", staticTickets{}, srv.Client(), logger.Nop())
	res, err := c.RequestCAE(context.Background(), memberInvoice(t))
	require.NoError(t, err)
	assert.True(t, res.Approved())
	assert.Equal(t, "74061234567890", res.CAE)
	assert.Equal(t, "20240215", res.Expiry)
	assert.Equal(t, []string{"10217: Campo informativo"}, res.Observations)
	assert.Empty(t, res.Error)

	for _, want := range []string{
		"<CantReg>1</CantReg>",
		"<Concepto>3</Concepto>",
		"<DocTipo>96</DocTipo>",
		"<DocNro>30111222</DocNro>",
		"<CbteDesde>43</CbteDesde>",
		"<CbteFch>20240205</CbteFch>",
		"<ImpTotal>1500.00</ImpTotal>",
		"<ImpOpEx>1500.00</ImpOpEx>",
		"<ImpIVA>0.00</ImpIVA>",
		"<FchServDesde>20240201</FchServDesde>",
		"<FchVtoPago>20240205</FchVtoPago>",
		"<MonId>PES</MonId>",
	} {
		assert.Contains(t, body, want)
	}
	assert.NotContains(t, body, "<Iva>", "comprobante exento sin alícuotas")
	assert.NotContains(t, body, "<CbtesAsoc>")
}

func TestWSFEClient_RequestCAE_SendsTaxSubtotalsAndAssociated(t *testing.T) {
	var body string
	srv := wsfeServer(t, map[string]string{
		"FECAESolicitar": `<FECAESolicitarResponse xmlns="http://ar.gov.afip.dif.FEV1/"><FECAESolicitarResult>
<FeCabResp><Resultado>A</Resultado></FeCabResp>
<FeDetResp><FECAEDetResponse><Resultado>A</Resultado><CAE>1</CAE><CAEFchVto>20240215</CAEFchVto></FECAEDetResponse></FeDetResp>
</FECAESolicitarResult></FECAESolicitarResponse>`,
	}, &body)
	defer srv.Close()

	inv, err := invoice.New(invoice.Header{
		TipoCbte: 6, PuntoVta: 3, Concepto: 1, TipoDoc: 99, NroDoc: "0", FechaCbte: "20240205",
	}, invoice.Rate(decimal.NewFromInt(21)))
	require.NoError(t, err)
	require.NoError(t, inv.AddItem("Remera", 2, decimal.NewFromInt(100)))
	require.NoError(t, inv.AddAssociatedDoc(invoice.AssociatedDoc{Tipo: 91, PuntoVta: 2, Nro: 7}))
	require.NoError(t, inv.AssignNumber(1))

	c := NewWSFEClient(srv.URL, "20111111112", staticTickets{}, srv.Client(), logger.Nop())
	_, err = c.RequestCAE(context.Background(), inv)
	require.NoError(t, err)

	assert.Contains(t, body, "<Iva><AlicIva><Id>5</Id><BaseImp>200.00</BaseImp><Importe>42.00</Importe></AlicIva></Iva>")
	assert.Contains(t, body, "<CbtesAsoc><CbteAsoc><Tipo>91</Tipo><PtoVta>2</PtoVta><Nro>7</Nro></CbteAsoc></CbtesAsoc>")
	assert.NotContains(t, body, "FchServDesde", "concepto productos sin período de servicio")
}

func TestWSFEClient_RequestCAE_Rejected(t *testing.T) {
	srv := wsfeServer(t, map[string]string{
		"FECAESolicitar": `<FECAESolicitarResponse xmlns="http://ar.gov.afip.dif.FEV1/"><FECAESolicitarResult>
<FeCabResp><Resultado>R</Resultado></FeCabResp>
<FeDetResp><FECAEDetResponse><Resultado>R</Resultado><CAE></CAE><CAEFchVto></CAEFchVto></FECAEDetResponse></FeDetResp>
<Errors><Err><Code>10016</Code><Msg>El numero o fecha del comprobante no se corresponde con el proximo a autorizar.</Msg></Err></Errors>
</FECAESolicitarResult></FECAESolicitarResponse>`,
	}, nil)
	defer srv.Close()

	c := NewWSFEClient(srv.URL, "20111111112", staticTickets{}, srv.Client(), logger.Nop())
	res, err := c.RequestCAE(context.Background(), memberInvoice(t))
	require.NoError(t, err)
	assert.False(t, res.Approved())
	assert.Equal(t, "R", res.Status)
	assert.Contains(t, res.Error, "10016")
}

func TestWSFEClient_TicketError(t *testing.T) {
	c := NewWSFEClient("http://127.0.0.1:0", "20111111112", staticTickets{err: fmt.Errorf("sin ticket")}, nil, logger.Nop())
	_, err := c.LastAuthorized(context.Background(), 11, 3)
	assert.ErrorContains(t, err, "sin ticket")
}

func TestWSFEClient_QueryInvoice(t *testing.T) {
	srv := wsfeServer(t, map[string]string{
		"FECompConsultar": `<FECompConsultarResponse xmlns="http://ar.gov.afip.dif.FEV1/"><FECompConsultarResult><ResultGet>
<Concepto>3</Concepto><DocTipo>96</DocTipo><DocNro>30111222</DocNro><CbteDesde>42</CbteDesde><CbteHasta>42</CbteHasta>
<CbteFch>20240205</CbteFch><ImpTotal>1500</ImpTotal><Resultado>A</Resultado><CodAutorizacion>74061234567890</CodAutorizacion>
<EmisionTipo>CAE</EmisionTipo><FchVto>20240215</FchVto><PtoVta>3</PtoVta><CbteTipo>11</CbteTipo>
</ResultGet></FECompConsultarResult></FECompConsultarResponse>`,
	}, nil)
	defer srv.Close()

	c := NewWSFEClient(srv.URL, "20111111112", staticTickets{}, srv.Client(), logger.Nop())
	st, err := c.QueryInvoice(context.Background(), 11, 3, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), st.CbteNro)
	assert.Equal(t, "A", st.Resultado)
	assert.Equal(t, "74061234567890", st.CAE)
	assert.True(t, st.ImpTotal.Equal(decimal.NewFromInt(1500)))
}

func TestWSFEClient_Dummy(t *testing.T) {
	srv := wsfeServer(t, map[string]string{
		"FEDummy": `<FEDummyResponse xmlns="http://ar.gov.afip.dif.FEV1/"><FEDummyResult>
<AppServer>OK</AppServer><DbServer>OK</DbServer><AuthServer>OK</AuthServer></FEDummyResult></FEDummyResponse>`,
	}, nil)
	defer srv.Close()

	c := NewWSFEClient(srv.URL, "20111111112", staticTickets{err: fmt.Errorf("no se usa")}, srv.Client(), logger.Nop())
	st, err := c.Dummy(context.Background())
	require.NoError(t, err)
	assert.True(t, st.OK())
}

func TestWSFEClient_HTTPErrorWithoutSOAP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewWSFEClient(srv.URL, "20111111112", staticTickets{}, srv.Client(), logger.Nop())
	_, err := c.Dummy(context.Background())
	assert.Error(t, err)
}
