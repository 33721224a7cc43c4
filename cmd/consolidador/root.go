package main

import (
	"github.com/erosa-dev/cashflow-converter/internal/api/responses"
	"github.com/erosa-dev/cashflow-converter/internal/config"
	"github.com/erosa-dev/cashflow-converter/internal/domain"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app guarda a configuração e o logger carregados antes de qualquer subcomando.
var app struct {
	cfg    *config.Config
	logger *zap.Logger
}

var rootCmd = &cobra.Command{
	Use:   "consolidador",
	Short: "Consolida planilhas de custo (Orçado) e de verba (Previsto) por CC",
	Long: `Consolidador lê as planilhas exportadas por obra, corrige a estrutura,
reconstrói a hierarquia Classe2/Classe3/ClasseComp a partir da coluna de código
e gera um único consolidado:

  - orcado:   RESULTADO_CONSOLIDADO.xlsx (lançamentos com exatamente um mês preenchido)
  - previsto: RESULTADO_PREVISTO_CONSOLIDADO.xlsx (uma Verba por ClasseComp)

A configuração vem de .env, variáveis CONSOLIDADOR_* e consolidador.yaml.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		app.cfg = cfg
		app.logger = responses.InitLogger(cfg.Logging.Level, cfg.Logging.Development)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app.logger != nil {
			_ = app.logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newExecutarCmd("orcado", domain.ModoOrcado))
	rootCmd.AddCommand(newExecutarCmd("previsto", domain.ModoPrevisto))
}
