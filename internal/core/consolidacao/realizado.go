package consolidacao

import (
	"time"

	"github.com/erosa-dev/cashflow-converter/internal/domain"
)

// ColunaCodigo é o nome, após a normalização, da coluna com o código da hierarquia
// (coluna B sem título depois do reparo).
const ColunaCodigo = "unnamed: 1"

// SobrescritaCasoEspecial define os campos forçados nas linhas da ClasseComp especial.
type SobrescritaCasoEspecial struct {
	Descricao    string
	DocumentoRef string
}

// CasoEspecial: linhas sob 1030303 ignoram descrição/documento da planilha.
var CasoEspecial = SobrescritaCasoEspecial{
	Descricao:    "Custos com Serviços PJ - Obra",
	DocumentoRef: "Documento",
}

// colunaPeriodo é uma coluna de mês ("jan/24") já convertida para data.
type colunaPeriodo struct {
	indice      int
	competencia time.Time
}

func colunasPeriodo(t *domain.Tabela) []colunaPeriodo {
	var periodos []colunaPeriodo
	for i, c := range t.Colunas {
		if d, ok := ConverterDataPtBr(c); ok {
			periodos = append(periodos, colunaPeriodo{indice: i, competencia: d})
		}
	}
	return periodos
}

// ClassificarRealizado percorre a planilha corrigida e gera um lançamento por linha
// com exatamente um mês preenchido, não zerado, e com descrição (ou sob o caso especial).
func ClassificarRealizado(t *domain.Tabela, cc string, politica domain.PoliticaHierarquia) ([]domain.Lancamento, error) {
	colDesc := colunaContendo(t, "descri")
	if colDesc == -1 {
		return nil, erroColunaAusente(t, "Descrição", "descricao")
	}
	colCodigo := t.Indice(ColunaCodigo)
	if colCodigo == -1 {
		return nil, erroColunaAusente(t, "código da hierarquia", ColunaCodigo)
	}
	colDoc := colunaContendo(t, "pedido", "nf")
	periodos := colunasPeriodo(t)

	h := NovaHierarquia(politica)
	var lancamentos []domain.Lancamento

	for i := range t.Linhas {
		h.Atualizar(t.Celula(i, colCodigo))
		estado := h.Estado
		if estado.ClasseComp == "" {
			continue
		}

		preenchidos := 0
		var periodo colunaPeriodo
		for _, p := range periodos {
			if t.Celula(i, p.indice) != "" {
				preenchidos++
				periodo = p
			}
		}
		if preenchidos != 1 {
			continue
		}

		descricao := t.Celula(i, colDesc)
		if descricao == "" && !estado.EmCasoEspecial {
			continue
		}

		valor, ok := parseNumero(t.Celula(i, periodo.indice))
		if !ok || valor == 0 {
			continue
		}

		documento := ""
		if colDoc != -1 {
			documento = t.Celula(i, colDoc)
		}
		if estado.EmCasoEspecial {
			descricao = CasoEspecial.Descricao
			documento = CasoEspecial.DocumentoRef
		}

		lancamentos = append(lancamentos, domain.Lancamento{
			CC:           cc,
			Classe2:      estado.Classe2,
			Classe3:      estado.Classe3,
			ClasseComp:   estado.ClasseComp,
			Descricao:    descricao,
			DocumentoRef: documento,
			Valor:        valor,
			Competencia:  periodo.competencia,
		})
	}
	return lancamentos, nil
}
