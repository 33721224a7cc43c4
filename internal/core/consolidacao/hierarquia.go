package consolidacao

import (
	"math"
	"strconv"
	"strings"

	"github.com/erosa-dev/cashflow-converter/internal/domain"
)

// CodigoCasoEspecial é a ClasseComp cujas linhas recebem Descrição e Documento fixos.
const CodigoCasoEspecial = "1030303"

// NivelPorDigitos mapeia o comprimento do código para o nível da hierarquia.
func NivelPorDigitos(n int) domain.Nivel {
	switch {
	case n == 3:
		return domain.NivelClasse2
	case n == 5:
		return domain.NivelClasse3
	case n >= 7:
		return domain.NivelClasseComp
	default:
		return domain.NivelNenhum
	}
}

// normalizarCodigo converte a célula de código em sua forma decimal canônica
// ("2030101.0" -> "2030101"). Células vazias ou não numéricas retornam false.
func normalizarCodigo(celula string) (string, bool) {
	s := strings.TrimSpace(celula)
	if s == "" {
		return "", false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	return strconv.FormatInt(int64(f), 10), true
}

// Hierarquia reconstrói Classe2/Classe3/ClasseComp durante a varredura de uma planilha.
// Uma instância por arquivo; nunca compartilhada.
type Hierarquia struct {
	Estado   domain.EstadoHierarquia
	politica domain.PoliticaHierarquia
}

// NovaHierarquia cria o rastreador com a política informada (vazia = persistente).
func NovaHierarquia(politica domain.PoliticaHierarquia) *Hierarquia {
	if politica == "" {
		politica = domain.PoliticaPersistente
	}
	return &Hierarquia{politica: politica}
}

// Atualizar aplica a célula de código da linha atual e retorna o nível alterado
// (NivelNenhum quando o estado foi apenas mantido).
func (h *Hierarquia) Atualizar(celula string) domain.Nivel {
	nivel := domain.NivelNenhum
	if codigo, ok := normalizarCodigo(celula); ok {
		nivel = NivelPorDigitos(len(codigo))
		h.aplicar(nivel, codigo)
	}
	h.Estado.EmCasoEspecial = h.Estado.ClasseComp == CodigoCasoEspecial
	return nivel
}

func (h *Hierarquia) aplicar(nivel domain.Nivel, codigo string) {
	e := &h.Estado
	switch nivel {
	case domain.NivelClasse2:
		e.Classe2 = codigo
		if h.politica == domain.PoliticaPorPrefixo {
			e.Classe3, e.ClasseComp = "", ""
		}
	case domain.NivelClasse3:
		e.Classe3 = codigo
		if h.politica == domain.PoliticaPorPrefixo {
			e.ClasseComp = ""
			if !strings.HasPrefix(codigo, e.Classe2) {
				e.Classe2 = ""
			}
		}
	case domain.NivelClasseComp:
		e.ClasseComp = codigo
		if h.politica == domain.PoliticaPorPrefixo {
			if !strings.HasPrefix(codigo, e.Classe3) {
				e.Classe3 = ""
			}
			if !strings.HasPrefix(codigo, e.Classe2) {
				e.Classe2 = ""
			}
		}
	}
}
