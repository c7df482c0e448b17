package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/facturador-afip/pkg/config"
	"github.com/jhoicas/facturador-afip/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
)

type options struct {
	loadConfig func() (*config.Config, error)
	newBackend BackendFactory
	now        func() time.Time
}

// Option reemplaza colaboradores del comando raíz (tests).
type Option func(*options)

// WithConfigLoader reemplaza la lectura de .env / variables de entorno.
func WithConfigLoader(fn func() (*config.Config, error)) Option {
	return func(o *options) { o.loadConfig = fn }
}

// WithBackendFactory reemplaza la construcción de los clientes AFIP, renderer y registro.
func WithBackendFactory(fn BackendFactory) Option {
	return func(o *options) { o.newBackend = fn }
}

// WithClock fija la fecha actual usada para validar la fecha de facturación.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func newRootCmd(opts ...Option) *cobra.Command {
	o := &options{
		loadConfig: config.Load,
		newBackend: newAFIPBackend,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	cmd := &cobra.Command{
		Use:           "facturador",
		Short:         "Emisión de facturas electrónicas AFIP (WSFEv1)",
		Long:          "Autoriza comprobantes ante AFIP (CAE) de a uno o por lote y genera el PDF de cada comprobante aprobado.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newEmitirCmd(o))
	cmd.AddCommand(newVerificarCmd(o))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest(opts ...Option) *cobra.Command {
	return newRootCmd(opts...)
}

// Execute ejecuta la CLI con la configuración del proceso.
func Execute(ctx context.Context) error {
	cmd := newRootCmd()
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		cmd.PrintErrln("Error:", err)
	}
	return err
}

func newLogger(cfg *config.Config, w io.Writer) *logger.Logger {
	return logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Output: w})
}

// environmentFlags registra --dev / --prod (exactamente uno).
func environmentFlags(cmd *cobra.Command, dev, prod *bool) {
	cmd.Flags().BoolVar(dev, "dev", false, "Ambiente de homologación AFIP")
	cmd.Flags().BoolVar(prod, "prod", false, "Ambiente de producción AFIP")
	cmd.MarkFlagsMutuallyExclusive("dev", "prod")
	cmd.MarkFlagsOneRequired("dev", "prod")
}

func environmentName(dev bool) string {
	if dev {
		return config.EnvDev
	}
	return config.EnvProd
}
