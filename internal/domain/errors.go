package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrConfiguration        = errors.New("configuración inválida")
	ErrUnknownTaxRate       = errors.New("alícuota de IVA desconocida")
	ErrRemoteAuthorization  = errors.New("AFIP rechazó la solicitud")
	ErrMalformedRecord      = errors.New("registro mal formado")
	ErrPartialAuthorization = errors.New("autorización incompleta")
	ErrAlreadyAuthorized    = errors.New("el comprobante ya fue autorizado")
)
