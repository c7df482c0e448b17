package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/facturador-afip/internal/domain"
	"github.com/jhoicas/facturador-afip/internal/domain/invoice"
	"github.com/jhoicas/facturador-afip/internal/domain/repository"
	"github.com/jhoicas/facturador-afip/pkg/logger"
)

// AuthorizeUseCase obtiene el CAE de un comprobante:
//
//	último autorizado → número = último + 1 → FECAESolicitar → registrar resultado
//
// Un comprobante se autoriza una sola vez; no hay reintentos.
type AuthorizeUseCase struct {
	authorizer Authorizer
	ledger     repository.InvoiceLedger // opcional
	log        *logger.Logger
}

// NewAuthorizeUseCase construye el caso de uso. ledger puede ser nil.
func NewAuthorizeUseCase(authorizer Authorizer, ledger repository.InvoiceLedger, log *logger.Logger) *AuthorizeUseCase {
	return &AuthorizeUseCase{authorizer: authorizer, ledger: ledger, log: log}
}

// Authorize solicita el CAE. Devuelve nil solo si AFIP aprobó el comprobante
// con CAE y vencimiento; en ese caso la cabecera queda con resultado, CAE y vencimiento.
//
// Errores:
//   - domain.ErrAlreadyAuthorized    si el comprobante ya tiene resultado o el número ya está registrado.
//   - domain.ErrRemoteAuthorization  si AFIP informa un error (no se registra resultado).
//   - domain.ErrPartialAuthorization si la respuesta no cumple el predicado de éxito.
func (uc *AuthorizeUseCase) Authorize(ctx context.Context, inv *invoice.Invoice) error {
	if inv.Authorized() {
		return domain.ErrAlreadyAuthorized
	}
	h := inv.Header()
	if err := invoice.Validate(inv); err != nil {
		uc.log.Warn().Err(err).Str("nro_doc", h.NroDoc).Msg("totales inconsistentes, se envía igual")
	}

	// ── 1. Próximo número ─────────────────────────────────────────────────────
	last, err := uc.authorizer.LastAuthorized(ctx, h.TipoCbte, h.PuntoVta)
	if err != nil {
		return fmt.Errorf("consultar último comprobante: %w", err)
	}
	if err := inv.AssignNumber(last + 1); err != nil {
		return err
	}
	h = inv.Header()
	if uc.ledger != nil {
		// AFIP informa un número que ya figura en el registro local: no se pide otro CAE
		exists, err := uc.ledger.Exists(ctx, h.TipoCbte, h.PuntoVta, h.CbteNro)
		if err != nil {
			return fmt.Errorf("consultar registro local: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: %d-%d-%d ya figura en el registro local", domain.ErrAlreadyAuthorized, h.TipoCbte, h.PuntoVta, h.CbteNro)
		}
	}

	// ── 2. Solicitud de CAE ───────────────────────────────────────────────────
	res, err := uc.authorizer.RequestCAE(ctx, inv)
	if err != nil {
		return fmt.Errorf("solicitar CAE: %w", err)
	}
	for _, obs := range res.Observations {
		uc.log.Warn().Int64("cbte_nro", h.CbteNro).Str("obs", obs).Msg("observación AFIP")
	}
	if res.Error != "" {
		return fmt.Errorf("%w: %s", domain.ErrRemoteAuthorization, res.Error)
	}

	// ── 3. Registrar resultado (inmutable) ────────────────────────────────────
	if err := inv.RecordAuthorization(res.Status, res.CAE, res.Expiry); err != nil {
		return err
	}
	if !res.Approved() {
		return fmt.Errorf("%w: resultado=%q cae=%q vencimiento=%q",
			domain.ErrPartialAuthorization, res.Status, res.CAE, res.Expiry)
	}

	uc.log.Info().
		Int64("cbte_nro", h.CbteNro).
		Str("cae", res.CAE).
		Str("vto_cae", res.Expiry).
		Msg("Ok")

	if uc.ledger != nil {
		if err := uc.ledger.Record(ctx, inv); err != nil {
			// el CAE ya fue otorgado: el registro local no revierte la autorización
			uc.log.Error().Err(err).Int64("cbte_nro", h.CbteNro).Msg("no se pudo registrar el comprobante")
		}
	}
	return nil
}
