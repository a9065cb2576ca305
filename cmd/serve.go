package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/smartdoc/internal/server"
	"github.com/KaramelBytes/smartdoc/internal/store"
)

var (
	serveAddr  string
	serveModel string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SmartDoc HTTP API",
	Example: `  smartdoc serve
  smartdoc serve --addr :9000 --model ./model.yaml --watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		addr := c.ListenAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		model := c.ClassifierModel
		if cmd.Flags().Changed("model") {
			model = serveModel
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(server.Config{
			Addr:                 addr,
			MaxUploadBytes:       int64(c.MaxUploadMB) << 20,
			Ingest:               ingestOptions(),
			Analysis:             analysisOptions(),
			CorrelationThreshold: c.CorrelationThreshold,
			ModelPath:            model,
			Watch:                serveWatch,
			Logger:               logger,
		}, store.New())
		if err := srv.Serve(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "classifier model file (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the classifier model when its file changes")
}
