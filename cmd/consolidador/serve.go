// cmd/consolidador/serve.go
package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/erosa-dev/cashflow-converter/internal/api/handlers"
	"github.com/erosa-dev/cashflow-converter/internal/core/consolidacao"
	"github.com/erosa-dev/cashflow-converter/internal/core/execucoes"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Inicia a API HTTP de consolidação",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := app.logger

		gin.SetMode(app.cfg.Server.GinMode)
		consolidacaoService := consolidacao.NewService(logger, app.cfg.Processing.Politica())
		runner := execucoes.NewRunner(consolidacaoService, logger,
			app.cfg.Processing.MaxConcurrentRuns, app.cfg.Processing.RunRetention)
		consolidacaoHandler := handlers.NewConsolidacaoHandler(
			consolidacaoService, runner, app.cfg.Processing.WorkDir, app.cfg.Processing.OutputDir)

		router := gin.Default()
		router.MaxMultipartMemory = app.cfg.Server.MaxUploadBytes

		apiV1 := router.Group("/api/v1")
		consolidacaoHandler.RegisterRoutes(apiV1)

		router.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "UP", "service": "consolidador-service"})
		})

		srv := &http.Server{Addr: ":" + app.cfg.Server.Port, Handler: router}
		errCh := make(chan error, 1)
		go func() {
			logger.Info("🚀 Consolidador Service (Go) iniciado", zap.String("porta", app.cfg.Server.Port))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			logger.Error("Falha ao iniciar o servidor de consolidação", zap.Error(err))
			return err
		case <-cmd.Context().Done():
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
		runner.Aguardar()
		logger.Info("servidor encerrado")
		return nil
	},
}
