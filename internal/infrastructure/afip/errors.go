package afip

import (
	"fmt"
	"strings"

	"github.com/jhoicas/facturador-afip/internal/domain"
)

// RemoteError error informado por un web service de AFIP (Errors/Err o SOAP Fault).
type RemoteError struct {
	Op       string
	Code     string
	Messages []string
}

func (e *RemoteError) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if e.Code != "" {
		return fmt.Sprintf("afip %s [%s]: %s", e.Op, e.Code, msg)
	}
	return fmt.Sprintf("afip %s: %s", e.Op, msg)
}

// Unwrap permite errors.Is(err, domain.ErrRemoteAuthorization).
func (e *RemoteError) Unwrap() error { return domain.ErrRemoteAuthorization }
