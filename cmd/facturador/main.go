package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/facturador-afip/internal/interfaces/cli"
)

func main() {
	// Ctrl-C corta el lote después del comprobante en curso
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
