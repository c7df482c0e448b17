package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jhoicas/facturador-afip/internal/application/billing"
)

var (
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")
	warning = lipgloss.Color("#F59E0B")
	dim     = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(success)
	failStyle  = lipgloss.NewStyle().Foreground(danger)
	skipStyle  = lipgloss.NewStyle().Foreground(warning)
	dimStyle   = lipgloss.NewStyle().Foreground(dim)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dim).
			Padding(0, 1)
)

// renderSummary resumen de una corrida por lote: una línea por fila y totales.
func renderSummary(r *billing.BatchReport, env string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Facturación "+env) + "\n\n")

	for _, o := range r.Outcomes {
		label := fmt.Sprintf("L%-4d %-28s %-12s", o.Record.Line, truncate(o.Record.Name, 28), o.Record.DocumentNumber)
		if o.OK() {
			h := o.Invoice.Header()
			b.WriteString(okStyle.Render("✓ ") + label + fmt.Sprintf(" N° %d  CAE %s", h.CbteNro, h.CAE) + "\n")
			continue
		}
		b.WriteString(failStyle.Render("✗ ") + label + " " + dimStyle.Render(o.Err.Error()) + "\n")
	}
	for _, s := range r.Skipped {
		b.WriteString(skipStyle.Render("- ") + fmt.Sprintf("L%-4d fila descartada: %s", s.Line, strings.Join(s.Raw, ",")) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(okStyle.Render(fmt.Sprintf("Autorizadas: %d", r.Succeeded())) + "   ")
	b.WriteString(failStyle.Render(fmt.Sprintf("Con error: %d", r.Failed())) + "   ")
	b.WriteString(skipStyle.Render(fmt.Sprintf("Descartadas: %d", len(r.Skipped))))
	return boxStyle.Render(b.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
