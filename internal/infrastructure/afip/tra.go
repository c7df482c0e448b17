package afip

import (
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"
)

// traLayout formato xsd:dateTime con zona horaria que exige WSAA.
const traLayout = "2006-01-02T15:04:05-07:00"

// buildTRA arma el Ticket de Requerimiento de Acceso (loginTicketRequest v1.0).
func buildTRA(service string, now time.Time, ttl time.Duration) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("loginTicketRequest")
	root.CreateAttr("version", "1.0")

	header := root.CreateElement("header")
	header.CreateElement("uniqueId").SetText(strconv.FormatInt(now.Unix(), 10))
	// tolerancia de reloj: AFIP rechaza generationTime en el futuro
	header.CreateElement("generationTime").SetText(now.Add(-10 * time.Minute).Format(traLayout))
	header.CreateElement("expirationTime").SetText(now.Add(ttl).Format(traLayout))

	root.CreateElement("service").SetText(service)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("wsaa: serializar TRA: %w", err)
	}
	return out, nil
}

// parseLoginTicketResponse extrae token, sign y vencimiento del TA devuelto por loginCms.
func parseLoginTicketResponse(raw string) (*Ticket, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(raw); err != nil {
		return nil, fmt.Errorf("wsaa: parsear loginTicketResponse: %w", err)
	}
	token := doc.FindElement("//credentials/token")
	sign := doc.FindElement("//credentials/sign")
	exp := doc.FindElement("//header/expirationTime")
	if token == nil || sign == nil || exp == nil {
		return nil, fmt.Errorf("wsaa: loginTicketResponse incompleto")
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, exp.Text())
	if err != nil {
		return nil, fmt.Errorf("wsaa: expirationTime %q: %w", exp.Text(), err)
	}
	return &Ticket{Token: token.Text(), Sign: sign.Text(), ExpiresAt: expiresAt}, nil
}
