package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hr-gpt/internal/logger"
	"github.com/spigell/hr-gpt/internal/server"
	"github.com/spigell/hr-gpt/internal/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis workflow over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address (default from server.address)")
	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, config := setup(false)
	analyzer := mustAnalyzer(ctx, config, l)

	store := server.NewStore(func() *workflow.Machine {
		return newMachine(analyzer, config, l)
	})
	srv := server.New(config.Server, store, logger.WithFields(l, zap.String("component", "http")))

	if err := srv.Run(ctx); err != nil {
		l.Fatal("http server stopped", zap.Error(err))
	}
	l.Info("exiting", zap.String("reason", "shutdown requested"))
}
