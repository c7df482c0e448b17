package billing

import (
	"context"

	"github.com/jhoicas/facturador-afip/internal/domain/invoice"
	"github.com/jhoicas/facturador-afip/pkg/afip"
)

// AuthorizationResult respuesta de AFIP a una solicitud de CAE.
type AuthorizationResult struct {
	Status       string   // A = aprobado, R = rechazado, P = parcial
	CAE          string   // código de autorización
	Expiry       string   // vencimiento del CAE (yyyymmdd)
	Observations []string // observaciones; no abortan
	Error        string   // error informado por AFIP; aborta el comprobante
}

// Approved es el único predicado de éxito: aprobado, con CAE y con vencimiento.
func (r *AuthorizationResult) Approved() bool {
	return r != nil && r.Status == afip.ResultApproved && r.CAE != "" && r.Expiry != ""
}

// Authorizer puerto de salida hacia el servicio de factura electrónica (WSFEv1).
type Authorizer interface {
	// LastAuthorized devuelve el último número autorizado para el tipo y punto de venta.
	LastAuthorized(ctx context.Context, tipoCbte, puntoVta int) (int64, error)
	// RequestCAE envía cabecera, subtotales de IVA y comprobantes asociados.
	RequestCAE(ctx context.Context, inv *invoice.Invoice) (*AuthorizationResult, error)
}

// Renderer genera la representación impresa de un comprobante autorizado.
type Renderer interface {
	Render(ctx context.Context, inv *invoice.Invoice) ([]byte, error)
}
