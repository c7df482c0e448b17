package billing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhoicas/facturador-afip/internal/domain/invoice"
	"github.com/jhoicas/facturador-afip/pkg/logger"
)

// Outcome resultado de una fila procesada.
type Outcome struct {
	Record       Record
	Invoice      *invoice.Invoice
	DocumentPath string
	Err          error
}

// OK indica autorización aprobada y PDF generado.
func (o Outcome) OK() bool { return o.Err == nil }

// SkippedRow fila descartada por estar mal formada.
type SkippedRow struct {
	Line int
	Raw  []string
	Err  error
}

// BatchReport resumen de una corrida.
type BatchReport struct {
	Outcomes []Outcome
	Skipped  []SkippedRow
}

// Succeeded cantidad de comprobantes autorizados y generados.
func (r *BatchReport) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Failed cantidad de comprobantes con error de autorización o generación.
func (r *BatchReport) Failed() int { return len(r.Outcomes) - r.Succeeded() }

// BatchDriver procesa filas secuencialmente: cada comprobante se autoriza y se
// imprime antes de pasar al siguiente. El fallo de una fila no afecta a las demás.
type BatchDriver struct {
	authorize *AuthorizeUseCase
	renderer  Renderer
	factory   InvoiceFactory
	outputDir string
	log       *logger.Logger
}

// NewBatchDriver construye el driver. outputDir recibe un PDF por comprobante autorizado.
func NewBatchDriver(authorize *AuthorizeUseCase, renderer Renderer, factory InvoiceFactory, outputDir string, log *logger.Logger) *BatchDriver {
	return &BatchDriver{
		authorize: authorize,
		renderer:  renderer,
		factory:   factory,
		outputDir: outputDir,
		log:       log,
	}
}

// ProcessRows procesa un lote cuya primera fila es encabezado.
// Las filas mal formadas se descartan; un error al construir un comprobante
// (ej. alícuota desconocida) aborta la corrida antes de autorizar nada.
func (d *BatchDriver) ProcessRows(ctx context.Context, rows [][]string) (*BatchReport, error) {
	report := &BatchReport{}
	if len(rows) == 0 {
		return report, nil
	}

	type pending struct {
		rec Record
		inv *invoice.Invoice
	}
	var queue []pending
	for i, raw := range rows[1:] {
		line := i + 2
		rec, err := ParseRecord(line, raw)
		if err != nil {
			d.log.Warn().Err(err).Int("line", line).Strs("raw", raw).Msg("fila descartada")
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Raw: raw, Err: err})
			continue
		}
		inv, err := d.factory(rec)
		if err != nil {
			return report, fmt.Errorf("línea %d: construir comprobante: %w", line, err)
		}
		queue = append(queue, pending{rec: rec, inv: inv})
	}

	for _, p := range queue {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Outcomes = append(report.Outcomes, d.process(ctx, p.rec, p.inv))
	}
	return report, nil
}

// ProcessRecord procesa un único registro. El error devuelto es solo el de
// construcción del comprobante; los errores de autorización quedan en Outcome.Err.
func (d *BatchDriver) ProcessRecord(ctx context.Context, rec Record) (Outcome, error) {
	inv, err := d.factory(rec)
	if err != nil {
		return Outcome{Record: rec}, fmt.Errorf("construir comprobante: %w", err)
	}
	return d.process(ctx, rec, inv), nil
}

func (d *BatchDriver) process(ctx context.Context, rec Record, inv *invoice.Invoice) Outcome {
	out := Outcome{Record: rec, Invoice: inv}
	log := d.log.WithFields(map[string]any{"line": rec.Line, "nro_doc": rec.DocumentNumber})

	if err := d.authorize.Authorize(ctx, inv); err != nil {
		log.Error().Err(err).Str("cliente", rec.Name).Msg("comprobante no autorizado")
		out.Err = err
		return out
	}

	pdf, err := d.renderer.Render(ctx, inv)
	if err != nil {
		log.Error().Err(err).Msg("generación de PDF fallida")
		out.Err = fmt.Errorf("generar PDF: %w", err)
		return out
	}
	path := DocumentPath(d.outputDir, inv)
	if err := os.MkdirAll(d.outputDir, 0o755); err != nil {
		out.Err = fmt.Errorf("crear directorio de PDFs: %w", err)
		return out
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		log.Error().Err(err).Str("path", path).Msg("no se pudo escribir el PDF")
		out.Err = fmt.Errorf("escribir PDF: %w", err)
		return out
	}
	out.DocumentPath = path
	log.Info().Str("path", path).Msg("PDF generado")
	return out
}

// DocumentPath ruta del PDF: {dir}/{fecha_cbte}_{cbte_nro}.pdf
func DocumentPath(dir string, inv *invoice.Invoice) string {
	h := inv.Header()
	return filepath.Join(dir, fmt.Sprintf("%s_%d.pdf", h.FechaCbte, h.CbteNro))
}
