package consolidacao

import (
	"errors"
	"sort"

	"github.com/erosa-dev/cashflow-converter/internal/domain"
)

// Erros de execução vazia, distintos dos erros por arquivo.
var (
	ErrNenhumLancamento = errors.New("nenhum lançamento encontrado em nenhum arquivo")
	ErrNenhumPrevisto   = errors.New("nenhuma linha de 'Previsto' encontrada em nenhum arquivo")
)

// DescricaoDescartada: artefato da exportação de origem que nunca deve chegar ao consolidado.
const DescricaoDescartada = "Custos com Serviços [FD]"

// Nomes dos arquivos de saída por modo.
const (
	ArquivoOrcado   = "RESULTADO_CONSOLIDADO.xlsx"
	ArquivoPrevisto = "RESULTADO_PREVISTO_CONSOLIDADO.xlsx"
)

// Colunas finais, na ordem de gravação.
var (
	ColunasOrcado   = []string{"CC", "Classe2", "Classe3", "ClasseComp", "Descrição", "Cto/ Pedido/ NF", "Valor", "Data"}
	ColunasPrevisto = []string{"CC", "Classe2", "Classe3", "ClasseComp", "Verba"}
)

// ConsolidarLancamentos junta os lançamentos de todos os arquivos, remove a descrição
// descartada, formata Data e ordena por CC, Classe2, Classe3, ClasseComp, Data.
func ConsolidarLancamentos(conjuntos ...[]domain.Lancamento) ([]domain.Lancamento, error) {
	var todos []domain.Lancamento
	for _, c := range conjuntos {
		for _, l := range c {
			if l.Descricao == DescricaoDescartada {
				continue
			}
			l.Data = FormatarData(l.Competencia)
			todos = append(todos, l)
		}
	}
	if len(todos) == 0 {
		return nil, ErrNenhumLancamento
	}

	sort.SliceStable(todos, func(i, j int) bool {
		a, b := todos[i], todos[j]
		return menor(
			[]string{a.CC, a.Classe2, a.Classe3, a.ClasseComp, a.Data},
			[]string{b.CC, b.Classe2, b.Classe3, b.ClasseComp, b.Data},
		)
	})
	return todos, nil
}

// ConsolidarPrevistos junta os registros de Verba e ordena por CC, Classe2, Classe3, ClasseComp.
func ConsolidarPrevistos(conjuntos ...[]domain.Previsto) ([]domain.Previsto, error) {
	var todos []domain.Previsto
	for _, c := range conjuntos {
		todos = append(todos, c...)
	}
	if len(todos) == 0 {
		return nil, ErrNenhumPrevisto
	}

	sort.SliceStable(todos, func(i, j int) bool {
		a, b := todos[i], todos[j]
		return menor(
			[]string{a.CC, a.Classe2, a.Classe3, a.ClasseComp},
			[]string{b.CC, b.Classe2, b.Classe3, b.ClasseComp},
		)
	})
	return todos, nil
}

// menor compara as chaves em ordem, lexicograficamente.
func menor(a, b []string) bool {
	for k := range a {
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return false
}

// Reindexar alinha as linhas à lista fixa de colunas: colunas extras são descartadas
// e as ausentes ficam vazias (nil).
func Reindexar(linhas []map[string]interface{}, colunas []string) *domain.TabelaFinal {
	tabela := &domain.TabelaFinal{Colunas: append([]string(nil), colunas...)}
	for _, l := range linhas {
		row := make([]interface{}, len(colunas))
		for i, c := range colunas {
			if v, ok := l[c]; ok {
				row[i] = v
			}
		}
		tabela.Linhas = append(tabela.Linhas, row)
	}
	return tabela
}

// TabelaOrcado monta a tabela final do modo Orçado.
func TabelaOrcado(lancamentos []domain.Lancamento) *domain.TabelaFinal {
	linhas := make([]map[string]interface{}, 0, len(lancamentos))
	for _, l := range lancamentos {
		var data interface{}
		if l.Data != "" {
			data = l.Data
		}
		var documento interface{}
		if l.DocumentoRef != "" {
			documento = l.DocumentoRef
		}
		linhas = append(linhas, map[string]interface{}{
			"CC":              l.CC,
			"Classe2":         l.Classe2,
			"Classe3":         l.Classe3,
			"ClasseComp":      l.ClasseComp,
			"Descrição":       l.Descricao,
			"Cto/ Pedido/ NF": documento,
			"Valor":           l.Valor,
			"Data":            data,
		})
	}
	return Reindexar(linhas, ColunasOrcado)
}

// TabelaPrevisto monta a tabela final do modo Previsto.
func TabelaPrevisto(previstos []domain.Previsto) *domain.TabelaFinal {
	linhas := make([]map[string]interface{}, 0, len(previstos))
	for _, p := range previstos {
		linhas = append(linhas, map[string]interface{}{
			"CC":         p.CC,
			"Classe2":    p.Classe2,
			"Classe3":    p.Classe3,
			"ClasseComp": p.ClasseComp,
			"Verba":      p.Verba.Valor(),
		})
	}
	return Reindexar(linhas, ColunasPrevisto)
}
