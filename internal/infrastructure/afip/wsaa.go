package afip

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.mozilla.org/pkcs7"

	"github.com/jhoicas/facturador-afip/pkg/logger"
)

// ServiceWSFE nombre del servicio de factura electrónica en WSAA.
const ServiceWSFE = "wsfe"

// ticketTTL vigencia solicitada para el TA (AFIP otorga hasta 12 h).
const ticketTTL = 12 * time.Hour

// TicketSource provee tickets de acceso vigentes para un servicio.
type TicketSource interface {
	Ticket(ctx context.Context, service string) (*Ticket, error)
}

// WSAAClient autentica contra WSAA (loginCms) y reutiliza el TA mientras esté vigente.
type WSAAClient struct {
	url       string
	creds     *Credentials
	store     TicketStore
	transport soapTransport
	now       func() time.Time
	log       *logger.Logger

	mu     sync.Mutex
	memory map[string]*Ticket
}

// WSAAOption configura opciones no obligatorias del cliente.
type WSAAOption func(*WSAAClient)

// WithWSAAHTTPClient reemplaza el cliente HTTP (tests, proxies).
func WithWSAAHTTPClient(c *http.Client) WSAAOption {
	return func(w *WSAAClient) { w.transport = newSOAPTransport(c) }
}

// WithClock fija el reloj usado para el TRA y la vigencia del TA.
func WithClock(now func() time.Time) WSAAOption {
	return func(w *WSAAClient) { w.now = now }
}

// NewWSAAClient construye el cliente. store puede ser nil (solo caché en memoria).
func NewWSAAClient(url string, creds *Credentials, store TicketStore, log *logger.Logger, opts ...WSAAOption) *WSAAClient {
	w := &WSAAClient{
		url:       url,
		creds:     creds,
		store:     store,
		transport: newSOAPTransport(nil),
		now:       time.Now,
		log:       log,
		memory:    make(map[string]*Ticket),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type loginCmsRequest struct {
	XMLName xml.Name `xml:"loginCms"`
	Xmlns   string   `xml:"xmlns,attr"`
	In0     string   `xml:"in0"`
}

type loginCmsResponse struct {
	Return string `xml:"loginCmsReturn"`
}

// Ticket devuelve un TA vigente para service: memoria, luego caché en disco y por último loginCms.
func (w *WSAAClient) Ticket(ctx context.Context, service string) (*Ticket, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	key := w.cacheKey(service)
	if t := w.memory[key]; t.Valid(now) {
		return t, nil
	}
	if w.store != nil {
		t, err := w.store.Load(key)
		if err != nil {
			w.log.Warn().Err(err).Msg("caché de tickets ilegible")
		} else if t.Valid(now) {
			w.memory[key] = t
			return t, nil
		}
	}

	t, err := w.login(ctx, service, now)
	if err != nil {
		return nil, err
	}
	w.memory[key] = t
	if w.store != nil {
		if err := w.store.Save(key, t); err != nil {
			w.log.Warn().Err(err).Msg("no se pudo guardar el ticket de acceso")
		}
	}
	w.log.Info().Str("service", service).Time("vence", t.ExpiresAt).Msg("ticket de acceso obtenido")
	return t, nil
}

func (w *WSAAClient) login(ctx context.Context, service string, now time.Time) (*Ticket, error) {
	tra, err := buildTRA(service, now, ticketTTL)
	if err != nil {
		return nil, err
	}
	cms, err := signCMS(tra, w.creds)
	if err != nil {
		return nil, err
	}

	var resp loginCmsResponse
	req := loginCmsRequest{Xmlns: wsaaNS, In0: base64.StdEncoding.EncodeToString(cms)}
	if err := w.transport.call(ctx, "loginCms", w.url, "", req, &resp); err != nil {
		return nil, err
	}
	return parseLoginTicketResponse(resp.Return)
}

// signCMS firma el TRA como CMS SignedData con el contenido embebido.
func signCMS(content []byte, creds *Credentials) ([]byte, error) {
	if creds == nil || creds.Certificate == nil {
		return nil, fmt.Errorf("wsaa: sin certificado para firmar")
	}
	sd, err := pkcs7.NewSignedData(content)
	if err != nil {
		return nil, fmt.Errorf("wsaa: crear CMS: %w", err)
	}
	sd.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)
	if err := sd.AddSigner(creds.Certificate, creds.PrivateKey, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, fmt.Errorf("wsaa: firmar TRA: %w", err)
	}
	der, err := sd.Finish()
	if err != nil {
		return nil, fmt.Errorf("wsaa: cerrar CMS: %w", err)
	}
	return der, nil
}

// cacheKey distingue tickets por servicio, endpoint y certificado.
func (w *WSAAClient) cacheKey(service string) string {
	h := sha256.New()
	h.Write([]byte(w.url))
	if w.creds != nil && w.creds.Certificate != nil {
		h.Write(w.creds.Certificate.Raw)
	}
	return service + "-" + hex.EncodeToString(h.Sum(nil)[:8])
}
