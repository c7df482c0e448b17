package cli

import (
	"context"
	"fmt"

	"github.com/jhoicas/facturador-afip/internal/application/billing"
	"github.com/jhoicas/facturador-afip/internal/domain/repository"
	"github.com/jhoicas/facturador-afip/internal/infrastructure/afip"
	"github.com/jhoicas/facturador-afip/internal/infrastructure/pdf"
	"github.com/jhoicas/facturador-afip/internal/infrastructure/postgres"
	"github.com/jhoicas/facturador-afip/pkg/config"
	"github.com/jhoicas/facturador-afip/pkg/logger"
)

// Verifier operaciones de diagnóstico del servicio WSFEv1.
type Verifier interface {
	Dummy(ctx context.Context) (afip.ServerStatus, error)
	LastAuthorized(ctx context.Context, tipoCbte, puntoVta int) (int64, error)
	QueryInvoice(ctx context.Context, tipoCbte, puntoVta int, nro int64) (*afip.InvoiceStatus, error)
}

// Backend colaboradores de una corrida, construidos una vez por ambiente.
type Backend struct {
	Authorizer billing.Authorizer
	Verifier   Verifier
	Renderer   billing.Renderer
	Ledger     repository.InvoiceLedger // nil sin DATABASE_URL
	Close      func()
}

// BackendFactory construye el Backend para un ambiente ya seleccionado.
type BackendFactory func(ctx context.Context, cfg *config.Config, env config.AFIPEnvironment, log *logger.Logger) (*Backend, error)

func newAFIPBackend(ctx context.Context, cfg *config.Config, env config.AFIPEnvironment, log *logger.Logger) (*Backend, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	creds, err := afip.LoadCredentials(env.Certificate, env.PrivateKey, env.CertPassword)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("ambiente", env.Name).
		Str("certificate", env.Certificate).
		Str("url_wsaa", env.URLWSAA).
		Str("cache", env.CacheDir).
		Msg("autenticación AFIP")

	wsaa := afip.NewWSAAClient(env.URLWSAA, creds, afip.NewFileTicketStore(env.CacheDir), log)
	wsfe := afip.NewWSFEClient(env.URLWSFE, env.CUIT, wsaa, nil, log)

	issuer := pdf.Issuer{
		Name:          cfg.Issuer.Name,
		Letterhead1:   cfg.Issuer.Letterhead1,
		Letterhead2:   cfg.Issuer.Letterhead2,
		CUIT:          env.CUIT,
		CUITLegend:    cfg.Issuer.CUITLegend,
		IIBB:          cfg.Issuer.IIBB,
		IVACondition:  cfg.Issuer.IVACondition,
		ActivityStart: cfg.Issuer.ActivityStart,
		LogoPath:      cfg.Issuer.LogoPath,
	}

	b := &Backend{
		Authorizer: wsfe,
		Verifier:   wsfe,
		Renderer:   pdf.NewMarotoRenderer(issuer, env.Demo),
		Close:      func() {},
	}
	if cfg.DB.DatabaseURL == "" {
		return b, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("registro de comprobantes: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	b.Ledger = postgres.NewInvoiceLedgerRepository(pool, postgres.NewTxRunner(pool))
	b.Close = pool.Close
	return b, nil
}
