package afip

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Ticket ticket de acceso (TA) de WSAA.
type Ticket struct {
	Token     string    `json:"token"`
	Sign      string    `json:"sign"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ticketMargin un TA que vence antes de este margen se considera vencido.
const ticketMargin = 5 * time.Minute

// Valid indica si el ticket puede usarse en now.
func (t *Ticket) Valid(now time.Time) bool {
	return t != nil && t.Token != "" && t.Sign != "" && now.Add(ticketMargin).Before(t.ExpiresAt)
}

// TicketStore persiste tickets de acceso entre ejecuciones.
type TicketStore interface {
	Load(key string) (*Ticket, error) // nil, nil si no existe
	Save(key string, t *Ticket) error
}

// FileTicketStore guarda un archivo JSON por clave en un directorio de caché.
type FileTicketStore struct {
	dir string
}

// NewFileTicketStore crea el store sobre dir (se crea al primer Save).
func NewFileTicketStore(dir string) *FileTicketStore {
	return &FileTicketStore{dir: dir}
}

func (s *FileTicketStore) path(key string) string {
	return filepath.Join(s.dir, "ta-"+key+".json")
}

// Load lee el ticket de key. Un archivo corrupto se trata como inexistente.
func (s *FileTicketStore) Load(key string) (*Ticket, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("leer ticket de acceso: %w", err)
	}
	var t Ticket
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, nil
	}
	return &t, nil
}

// Save escribe el ticket de forma atómica (archivo temporal + rename).
func (s *FileTicketStore) Save(key string, t *Ticket) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("crear caché de tickets: %w", err)
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("serializar ticket: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "ta-*.tmp")
	if err != nil {
		return fmt.Errorf("guardar ticket: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("guardar ticket: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("guardar ticket: %w", err)
	}
	return os.Rename(tmp.Name(), s.path(key))
}
