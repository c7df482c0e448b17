package afip

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	soapNS   = "http://schemas.xmlsoap.org/soap/envelope/"
	wsaaNS   = "http://wsaa.view.sua.dvadac.desein.afip.gov"
	wsfev1NS = "http://ar.gov.afip.dif.FEV1/"

	// WSFEv1 puede demorar varios segundos en horario pico.
	defaultHTTPTimeout = 60 * time.Second
	maxResponseBytes   = 1 << 20
)

// ── Estructuras SOAP ──────────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	XmlnsS  string   `xml:"xmlns:soap,attr"`
	Body    soapBody `xml:"soap:Body"`
}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "soap:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

type soapResponseEnvelope struct {
	Body struct {
		Fault *soapFault `xml:"Fault"`
		Inner []byte     `xml:",innerxml"`
	} `xml:"Body"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// soapTransport POST de un envelope SOAP 1.1 y decodificación del Body.
type soapTransport struct {
	httpClient *http.Client
}

func newSOAPTransport(httpClient *http.Client) soapTransport {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return soapTransport{httpClient: httpClient}
}

// call envía body a url y decodifica el contenido de soap:Body en out.
// Un SOAP Fault se devuelve como *RemoteError.
func (t soapTransport) call(ctx context.Context, op, url, action string, body, out interface{}) error {
	payload, err := xml.Marshal(soapEnvelope{XmlnsS: soapNS, Body: soapBody{Content: body}})
	if err != nil {
		return fmt.Errorf("soap %s: serializar envelope: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url,
		bytes.NewReader(append([]byte(xml.Header), payload...)))
	if err != nil {
		return fmt.Errorf("soap %s: crear request: %w", op, err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", action)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("soap %s: timeout o cancelación: %w", op, ctx.Err())
		}
		return fmt.Errorf("soap %s: llamada HTTP fallida: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("soap %s: leer respuesta: %w", op, err)
	}

	var env soapResponseEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("soap %s: respuesta no es SOAP (HTTP %d): %w", op, resp.StatusCode, err)
	}
	if f := env.Body.Fault; f != nil {
		return &RemoteError{Op: op, Code: f.FaultCode, Messages: []string{f.FaultString}}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("soap %s: HTTP %d", op, resp.StatusCode)
	}
	if err := xml.Unmarshal(env.Body.Inner, out); err != nil {
		return fmt.Errorf("soap %s: decodificar respuesta: %w", op, err)
	}
	return nil
}
