package main

import (
	"fmt"
	"strings"

	"github.com/erosa-dev/cashflow-converter/internal/core/consolidacao"
	"github.com/erosa-dev/cashflow-converter/internal/domain"

	"github.com/spf13/cobra"
)

func newExecutarCmd(use string, modo domain.Modo) *cobra.Command {
	var pastaSaida string
	nome, _ := consolidacao.ArquivoSaida(modo)

	cmd := &cobra.Command{
		Use:   use + " arquivo.xlsx=CC [arquivo.xlsx=CC...]",
		Short: fmt.Sprintf("Gera %s a partir das planilhas informadas", nome),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entradas, err := parseEntradas(args)
			if err != nil {
				return err
			}
			if pastaSaida == "" {
				pastaSaida = app.cfg.Processing.OutputDir
			}

			svc := consolidacao.NewService(app.logger, app.cfg.Processing.Politica())
			caminho, err := svc.Executar(cmd.Context(), modo, entradas, pastaSaida)
			fmt.Fprintln(cmd.OutOrStdout(), consolidacao.Mensagem(modo, caminho, err))
			return err
		},
	}
	cmd.Flags().StringVarP(&pastaSaida, "saida", "s", "", "pasta onde o consolidado será gravado (padrão: processing.output_dir)")
	return cmd
}

// parseEntradas lê argumentos "caminho=CC"; o último "=" separa o CC.
func parseEntradas(args []string) ([]domain.Entrada, error) {
	entradas := make([]domain.Entrada, 0, len(args))
	for _, arg := range args {
		i := strings.LastIndex(arg, "=")
		if i <= 0 {
			return nil, fmt.Errorf("argumento %q sem CC: use arquivo.xlsx=CC", arg)
		}
		entradas = append(entradas, domain.Entrada{
			Caminho: strings.TrimSpace(arg[:i]),
			CC:      strings.TrimSpace(arg[i+1:]),
		})
	}
	if err := consolidacao.ValidarEntradas(entradas); err != nil {
		return nil, err
	}
	return entradas, nil
}
