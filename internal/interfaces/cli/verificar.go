package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/facturador-afip/internal/domain"
	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
)

func newVerificarCmd(o *options) *cobra.Command {
	var dev, prod bool
	var tipoCbte int
	cmd := &cobra.Command{
		Use:   "verificar",
		Short: "Verifica la conexión con AFIP y el último comprobante autorizado",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			env, err := cfg.Environment(environmentName(dev))
			if err != nil {
				return err
			}
			log := newLogger(cfg, cmd.ErrOrStderr())
			ctx := cmd.Context()

			backend, err := o.newBackend(ctx, cfg, env, log)
			if err != nil {
				return err
			}
			if backend.Close != nil {
				defer backend.Close()
			}
			out := cmd.OutOrStdout()

			status, err := backend.Verifier.Dummy(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Servidores AFIP: app=%s db=%s auth=%s\n", status.AppServer, status.DbServer, status.AuthServer)

			last, err := backend.Verifier.LastAuthorized(ctx, tipoCbte, env.SellingPoint)
			if err != nil {
				return err
			}
			if last == 0 {
				return fmt.Errorf("%w: último comprobante autorizado 0 (AFIP is misbehaving)", domain.ErrRemoteAuthorization)
			}
			fmt.Fprintf(out, "Último comprobante autorizado: %d\n", last)

			inv, err := backend.Verifier.QueryInvoice(ctx, tipoCbte, env.SellingPoint, last)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Estado actual: resultado=%s cae=%s vto=%s fecha=%s total=%s\n",
				inv.Resultado, inv.CAE, inv.FchVtoCAE, inv.CbteFch, inv.ImpTotal.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().IntVar(&tipoCbte, "tipo-cbte", pkgafip.InvoiceC, "Tipo de comprobante a consultar")
	environmentFlags(cmd, &dev, &prod)
	return cmd
}
