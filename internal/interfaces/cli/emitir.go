package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jhoicas/facturador-afip/internal/application/billing"
	"github.com/jhoicas/facturador-afip/internal/domain"
	"github.com/jhoicas/facturador-afip/internal/infrastructure/batchfile"
	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
)

const (
	invoiceDateLayout = "02/01/2006"
	// AFIP acepta fechas de emisión hasta 10 días antes o después de la fecha actual
	invoiceDateWindow = 10 * 24 * time.Hour
)

type emitirFlags struct {
	processFrom      string
	processTo        string
	fechaFacturacion string
	filePath         string
	record           bool
	productSale      bool
	encoding         string
	sheet            string
	dev              bool
	prod             bool
}

func newEmitirCmd(o *options) *cobra.Command {
	var f emitirFlags
	cmd := &cobra.Command{
		Use:   "emitir [NOMBRE DNI IMPORTE]",
		Short: "Autoriza facturas a socios desde un archivo o un registro",
		Example: `  facturador emitir --dev -f 20240201 -t 20240229 -d 05/02/2024 -p socios.csv
  facturador emitir --prod -f 20240201 -t 20240229 -d 05/02/2024 -r "Perez, Juan" 30111222 1500.00`,
		Args: func(cmd *cobra.Command, args []string) error {
			if !f.record {
				return cobra.NoArgs(cmd, args)
			}
			if len(args) != 3 {
				return fmt.Errorf("%w: --record espera 3 valores (nombre, documento, importe), se recibieron %d",
					domain.ErrMalformedRecord, len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmitir(cmd, o, f, args)
		},
	}

	cmd.Flags().StringVarP(&f.processFrom, "process-from", "f", "", "Período facturado desde (YYYYMMDD)")
	cmd.Flags().StringVarP(&f.processTo, "process-to", "t", "", "Período facturado hasta (YYYYMMDD)")
	cmd.Flags().StringVarP(&f.fechaFacturacion, "fecha-facturacion", "d", "", "Fecha de factura (dd/mm/yyyy), +-10 días de la fecha actual")
	cmd.Flags().StringVarP(&f.filePath, "file-path", "p", "", "Archivo .csv o .xlsx con nombre,documento,importe (primera fila encabezado)")
	cmd.Flags().BoolVarP(&f.record, "record", "r", false, `Procesa un único registro: -r "Nombre Cliente" DNI IMPORTE`)
	cmd.Flags().BoolVar(&f.productSale, "venta", false, "Factura de venta de productos a consumidor final (IVA 21%); el nombre es la descripción del ítem")
	cmd.Flags().StringVar(&f.encoding, "encoding", batchfile.EncodingUTF8, "Encoding del CSV (utf-8 o latin1)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Hoja de la planilla .xlsx (por defecto la primera)")
	environmentFlags(cmd, &f.dev, &f.prod)

	_ = cmd.MarkFlagRequired("process-from")
	_ = cmd.MarkFlagRequired("process-to")
	_ = cmd.MarkFlagRequired("fecha-facturacion")
	cmd.MarkFlagsMutuallyExclusive("file-path", "record")
	cmd.MarkFlagsOneRequired("file-path", "record")
	return cmd
}

func runEmitir(cmd *cobra.Command, o *options, f emitirFlags, args []string) error {
	invoiceDate, err := parseEmitirDates(f)
	if err != nil {
		return err
	}

	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	env, err := cfg.Environment(environmentName(f.dev))
	if err != nil {
		return err
	}
	log := newLogger(cfg, cmd.ErrOrStderr()).WithFields(map[string]any{
		"run_id":   uuid.NewString(),
		"ambiente": env.Name,
	})

	if d := invoiceDate.Sub(truncateDay(o.now())); d > invoiceDateWindow || d < -invoiceDateWindow {
		log.Warn().Str("fecha_facturacion", f.fechaFacturacion).Msg("fecha de factura fuera del rango aceptado por AFIP")
	}

	ctx := cmd.Context()
	backend, err := o.newBackend(ctx, cfg, env, log)
	if err != nil {
		return err
	}
	if backend.Close != nil {
		defer backend.Close()
	}

	factory := billing.MemberInvoiceFactory(billing.MemberTemplate{
		Address:         cfg.Member.Address,
		City:            cfg.Member.City,
		ZipCode:         cfg.Member.ZipCode,
		Province:        cfg.Member.Province,
		ItemDescription: cfg.Member.ItemDescription,
		InvoiceDate:     invoiceDate,
		ServiceDateFrom: f.processFrom,
		ServiceDateTo:   f.processTo,
		SellingPoint:    env.SellingPoint,
	})
	if f.productSale {
		factory = billing.ProductSaleFactory(billing.ProductSaleTemplate{
			ItemDescription: cfg.Member.ItemDescription,
			InvoiceDate:     invoiceDate,
			SellingPoint:    env.SellingPoint,
		})
	}
	driver := billing.NewBatchDriver(
		billing.NewAuthorizeUseCase(backend.Authorizer, backend.Ledger, log),
		backend.Renderer, factory, env.PDFDir, log,
	)

	if f.record {
		rec, err := billing.ParseRecord(1, args)
		if err != nil {
			return err
		}
		out, err := driver.ProcessRecord(ctx, rec)
		if err != nil {
			return err
		}
		if out.Err != nil {
			return out.Err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Ok %s\n", out.DocumentPath)
		return nil
	}

	rows, err := batchfile.ReadRows(f.filePath, batchfile.Options{Encoding: f.encoding, Sheet: f.sheet})
	if err != nil {
		return err
	}
	report, err := driver.ProcessRows(ctx, rows)
	if report != nil && (err == nil || len(report.Outcomes) > 0) {
		// una corrida interrumpida informa igual lo ya autorizado
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(report, env.Name))
	}
	return err
}

func parseEmitirDates(f emitirFlags) (time.Time, error) {
	from, err := time.Parse(pkgafip.DateLayout, f.processFrom)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --process-from %q debe tener formato YYYYMMDD", domain.ErrInvalidInput, f.processFrom)
	}
	to, err := time.Parse(pkgafip.DateLayout, f.processTo)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --process-to %q debe tener formato YYYYMMDD", domain.ErrInvalidInput, f.processTo)
	}
	if to.Before(from) {
		return time.Time{}, fmt.Errorf("%w: --process-to anterior a --process-from", domain.ErrInvalidInput)
	}
	invoiceDate, err := time.Parse(invoiceDateLayout, f.fechaFacturacion)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --fecha-facturacion %q debe tener formato dd/mm/yyyy", domain.ErrInvalidInput, f.fechaFacturacion)
	}
	return invoiceDate, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
