package consolidacao

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/erosa-dev/cashflow-converter/internal/domain"

	"go.uber.org/zap"
)

// Service define a interface do consolidador de planilhas Orçado/Previsto.
type Service interface {
	ProcessarOrcado(ctx context.Context, entradas []domain.Entrada) (*domain.TabelaFinal, error)
	ProcessarPrevisto(ctx context.Context, entradas []domain.Entrada) (*domain.TabelaFinal, error)
	Executar(ctx context.Context, modo domain.Modo, entradas []domain.Entrada, pastaSaida string) (string, error)
}

type service struct {
	logger   *zap.Logger
	politica domain.PoliticaHierarquia
}

// NewService cria uma nova instância do serviço de consolidação.
func NewService(logger *zap.Logger, politica domain.PoliticaHierarquia) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{logger: logger, politica: politica}
}

// Erros de validação da execução.
var (
	ErrSemArquivos   = errors.New("Adicione pelo menos um arquivo.")
	ErrArquivoSemCC  = errors.New("Há arquivo sem CC. Defina CC para o(s) arquivo(s) selecionado(s).")
	ErrSemPastaSaida = errors.New("Selecione a pasta de saída.")
	ErrModoInvalido  = errors.New("modo de consolidação inválido")
)

// ValidarEntradas confere a lista de arquivos antes de iniciar uma execução.
func ValidarEntradas(entradas []domain.Entrada) error {
	if len(entradas) == 0 {
		return ErrSemArquivos
	}
	for _, e := range entradas {
		if strings.TrimSpace(e.CC) == "" {
			return ErrArquivoSemCC
		}
	}
	return nil
}

// ArquivoSaida devolve o nome fixo do consolidado de cada modo.
func ArquivoSaida(modo domain.Modo) (string, error) {
	switch modo {
	case domain.ModoOrcado:
		return ArquivoOrcado, nil
	case domain.ModoPrevisto:
		return ArquivoPrevisto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrModoInvalido, modo)
	}
}

// Mensagem resume o resultado de uma execução em uma única frase para o usuário.
func Mensagem(modo domain.Modo, caminho string, err error) string {
	if modo == domain.ModoPrevisto {
		if err != nil {
			return fmt.Sprintf("Ocorreu um erro em 'Previsto':\n%v", err)
		}
		return fmt.Sprintf("Consolidado 'Previsto' gerado:\n%s", caminho)
	}
	if err != nil {
		return fmt.Sprintf("Ocorreu um erro:\n%v", err)
	}
	return fmt.Sprintf("Consolidado gerado:\n%s", caminho)
}

// ProcessarOrcado corrige, classifica e consolida as planilhas de lançamentos realizados.
func (svc *service) ProcessarOrcado(ctx context.Context, entradas []domain.Entrada) (*domain.TabelaFinal, error) {
	if err := ValidarEntradas(entradas); err != nil {
		return nil, err
	}

	var conjuntos [][]domain.Lancamento
	for _, entrada := range entradas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := svc.comPlanilhaCorrigida(entrada, func(t *domain.Tabela) error {
			parcial, err := ClassificarRealizado(t, entrada.CC, svc.politica)
			if err != nil {
				return err
			}
			svc.logger.Info("planilha classificada",
				zap.String("arquivo", filepath.Base(entrada.Caminho)),
				zap.String("cc", entrada.CC),
				zap.Int("lancamentos", len(parcial)))
			conjuntos = append(conjuntos, parcial)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(entrada.Caminho), err)
		}
	}

	lancamentos, err := ConsolidarLancamentos(conjuntos...)
	if err != nil {
		return nil, err
	}
	return TabelaOrcado(lancamentos), nil
}

// ProcessarPrevisto corrige, classifica e consolida as planilhas de Verba prevista.
func (svc *service) ProcessarPrevisto(ctx context.Context, entradas []domain.Entrada) (*domain.TabelaFinal, error) {
	if err := ValidarEntradas(entradas); err != nil {
		return nil, err
	}

	var conjuntos [][]domain.Previsto
	for _, entrada := range entradas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := svc.comPlanilhaCorrigida(entrada, func(t *domain.Tabela) error {
			parcial, err := ClassificarPrevisto(t, entrada.CC, svc.politica)
			if err != nil {
				return err
			}
			svc.logger.Info("planilha de previsto classificada",
				zap.String("arquivo", filepath.Base(entrada.Caminho)),
				zap.String("cc", entrada.CC),
				zap.Int("verbas", len(parcial)))
			conjuntos = append(conjuntos, parcial)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(entrada.Caminho), err)
		}
	}

	previstos, err := ConsolidarPrevistos(conjuntos...)
	if err != nil {
		return nil, err
	}
	return TabelaPrevisto(previstos), nil
}

// Executar processa as entradas no modo pedido e grava o consolidado em pastaSaida.
// Nenhum arquivo de saída é criado quando a execução falha.
func (svc *service) Executar(ctx context.Context, modo domain.Modo, entradas []domain.Entrada, pastaSaida string) (string, error) {
	nome, err := ArquivoSaida(modo)
	if err != nil {
		return "", err
	}
	if err := ValidarEntradas(entradas); err != nil {
		return "", err
	}
	if strings.TrimSpace(pastaSaida) == "" {
		return "", ErrSemPastaSaida
	}

	var tabela *domain.TabelaFinal
	if modo == domain.ModoPrevisto {
		tabela, err = svc.ProcessarPrevisto(ctx, entradas)
	} else {
		tabela, err = svc.ProcessarOrcado(ctx, entradas)
	}
	if err != nil {
		return "", err
	}

	destino := filepath.Join(pastaSaida, nome)
	if err := gravarArquivo(destino, tabela); err != nil {
		return "", err
	}
	svc.logger.Info("consolidado gravado",
		zap.String("modo", string(modo)),
		zap.String("saida", destino),
		zap.Int("linhas", len(tabela.Linhas)))
	return destino, nil
}

func gravarArquivo(destino string, tabela *domain.TabelaFinal) error {
	arq, err := os.Create(destino)
	if err != nil {
		return fmt.Errorf("erro ao criar arquivo de saída: %w", err)
	}
	if err := EscreverXLSX(arq, tabela); err != nil {
		arq.Close()
		os.Remove(destino)
		return fmt.Errorf("erro ao gravar consolidado: %w", err)
	}
	if err := arq.Close(); err != nil {
		os.Remove(destino)
		return fmt.Errorf("erro ao gravar consolidado: %w", err)
	}
	return nil
}

// comPlanilhaCorrigida gera a cópia corrigida da entrada, entrega a tabela lida a fn
// e remove os arquivos intermediários em qualquer caminho de saída.
func (svc *service) comPlanilhaCorrigida(entrada domain.Entrada, fn func(*domain.Tabela) error) error {
	origem := entrada.Caminho
	if ehXLS(origem) {
		convertido, err := converterXLSparaXLSX(origem)
		if err != nil {
			return err
		}
		defer svc.remover(convertido)
		origem = convertido
	}

	rel, err := CorrigirPlanilha(origem)
	if err != nil {
		return err
	}
	defer svc.remover(rel.Corrigido)
	for _, etapa := range rel.Etapas {
		if !etapa.Aplicada {
			svc.logger.Debug("reparo ignorado",
				zap.String("arquivo", filepath.Base(entrada.Caminho)),
				zap.String("etapa", etapa.Etapa),
				zap.String("motivo", etapa.Motivo))
		}
	}

	tabela, err := lerTabelaCorrigida(rel.Corrigido)
	if err != nil {
		return err
	}
	return fn(tabela)
}

func (svc *service) remover(caminho string) {
	if err := os.Remove(caminho); err != nil && !errors.Is(err, os.ErrNotExist) {
		svc.logger.Warn("falha ao remover arquivo temporário", zap.String("arquivo", caminho), zap.Error(err))
	}
}
