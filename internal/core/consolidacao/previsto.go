package consolidacao

import (
	"math"
	"strconv"
	"strings"

	"github.com/erosa-dev/cashflow-converter/internal/domain"
)

// ColunaVerba é a coluna do Verba sob o cabeçalho "Previsto".
const ColunaVerba = "unnamed: 4"

// ClassificarPrevisto gera um registro por ClasseComp (7+ dígitos) encontrada,
// mesmo quando o Verba está vazio ou zerado.
func ClassificarPrevisto(t *domain.Tabela, cc string, politica domain.PoliticaHierarquia) ([]domain.Previsto, error) {
	colCodigo := t.Indice(ColunaCodigo)
	if colCodigo == -1 {
		return nil, erroColunaAusente(t, "código da hierarquia", ColunaCodigo)
	}
	colVerba := t.Indice(ColunaVerba)
	if colVerba == -1 {
		return nil, erroColunaAusente(t, "Verba", ColunaVerba)
	}

	h := NovaHierarquia(politica)
	var previstos []domain.Previsto

	for i := range t.Linhas {
		if h.Atualizar(t.Celula(i, colCodigo)) != domain.NivelClasseComp {
			continue
		}
		previstos = append(previstos, domain.Previsto{
			CC:         cc,
			Classe2:    h.Estado.Classe2,
			Classe3:    h.Estado.Classe3,
			ClasseComp: h.Estado.ClasseComp,
			Verba:      lerVerba(t.Celula(i, colVerba)),
		})
	}
	return previstos, nil
}

// lerVerba converte para número finito quando possível; caso contrário mantém o texto.
func lerVerba(celula string) domain.Verba {
	if f, err := strconv.ParseFloat(strings.TrimSpace(celula), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return domain.Verba{Numero: f, Numerica: true}
	}
	return domain.Verba{Bruto: celula}
}
