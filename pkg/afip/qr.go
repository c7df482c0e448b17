package afip

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// QRBaseURL es la URL de verificación del código QR de comprobantes (RG 4291).
const QRBaseURL = "https://www.afip.gob.ar/fe/qr/?p="

// QRData datos del comprobante que se codifican en el QR impreso.
type QRData struct {
	Fecha      time.Time
	CUIT       string
	PtoVta     int
	TipoCmp    int
	NroCmp     int64
	Importe    decimal.Decimal
	Moneda     string
	Ctz        decimal.Decimal
	TipoDocRec int
	NroDocRec  string
	CodAut     string // CAE
}

type qrPayload struct {
	Ver        int         `json:"ver"`
	Fecha      string      `json:"fecha"`
	CUIT       json.Number `json:"cuit"`
	PtoVta     int         `json:"ptoVta"`
	TipoCmp    int         `json:"tipoCmp"`
	NroCmp     int64       `json:"nroCmp"`
	Importe    json.Number `json:"importe"`
	Moneda     string      `json:"moneda"`
	Ctz        json.Number `json:"ctz"`
	TipoDocRec int         `json:"tipoDocRec,omitempty"`
	NroDocRec  json.Number `json:"nroDocRec,omitempty"`
	TipoCodAut string      `json:"tipoCodAut"`
	CodAut     json.Number `json:"codAut"`
}

// BuildQRURL arma la URL del QR: base + base64(JSON) según la especificación de AFIP.
func BuildQRURL(d QRData) (string, error) {
	cuit := OnlyDigits(d.CUIT)
	if cuit == "" {
		return "", fmt.Errorf("afip qr: CUIT del emisor vacía")
	}
	codAut := OnlyDigits(d.CodAut)
	if codAut == "" {
		return "", fmt.Errorf("afip qr: el comprobante no tiene CAE")
	}
	p := qrPayload{
		Ver:        1,
		Fecha:      d.Fecha.Format("2006-01-02"),
		CUIT:       json.Number(cuit),
		PtoVta:     d.PtoVta,
		TipoCmp:    d.TipoCmp,
		NroCmp:     d.NroCmp,
		Importe:    json.Number(d.Importe.StringFixed(2)),
		Moneda:     d.Moneda,
		Ctz:        json.Number(d.Ctz.String()),
		TipoCodAut: "E",
		CodAut:     json.Number(codAut),
	}
	if doc := OnlyDigits(d.NroDocRec); doc != "" && doc != "0" {
		if _, err := strconv.ParseInt(doc, 10, 64); err == nil {
			p.TipoDocRec = d.TipoDocRec
			p.NroDocRec = json.Number(doc)
		}
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("afip qr: serializar: %w", err)
	}
	return QRBaseURL + base64.StdEncoding.EncodeToString(raw), nil
}
