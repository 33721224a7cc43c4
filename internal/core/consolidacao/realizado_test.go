package consolidacao

import (
	"testing"
	"time"

	"github.com/erosa-dev/cashflow-converter/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cabecalhoRealizado = []string{"Conta", "", "Descrição", "Cto/ Pedido/ NF", "Jan/24", "Fev/24"}

func tabelaRealizado(linhas ...[]string) *domain.Tabela {
	return NovaTabela(append([][]string{cabecalhoRealizado}, linhas...))
}

func TestClassificarRealizado_SinglePeriodRow(t *testing.T) {
	tabela := tabelaRealizado(
		[]string{"", "203", "Aluguéis", "", "", ""},
		[]string{"", "20301", "Imóveis", "", "", ""},
		[]string{"", "2030101", "Rent", "NF 123", "100", ""},
	)

	got, err := ClassificarRealizado(tabela, "OBRA1", domain.PoliticaPersistente)
	require.NoError(t, err)
	require.Len(t, got, 1)

	l := got[0]
	assert.Equal(t, "OBRA1", l.CC)
	assert.Equal(t, "203", l.Classe2)
	assert.Equal(t, "20301", l.Classe3)
	assert.Equal(t, "2030101", l.ClasseComp)
	assert.Equal(t, "Rent", l.Descricao)
	assert.Equal(t, "NF 123", l.DocumentoRef)
	assert.Equal(t, 100.0, l.Valor)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), l.Competencia)
}

func TestClassificarRealizado_Filters(t *testing.T) {
	tabela := tabelaRealizado(
		[]string{"", "", "Antes de qualquer folha", "", "10", ""},
		[]string{"", "2030101", "", "", "", ""},
		[]string{"", "", "Dois meses", "", "10", "20"},
		[]string{"", "", "Sem mês", "", "", ""},
		[]string{"", "", "Zerado", "", "0", ""},
		[]string{"", "", "", "", "30", ""},
		[]string{"", "", "Texto", "", "n/d", ""},
		[]string{"", "", "Fevereiro", "", "", "R$ 1.234,56"},
	)

	got, err := ClassificarRealizado(tabela, "OBRA1", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Fevereiro", got[0].Descricao)
	assert.Equal(t, 1234.56, got[0].Valor)
	assert.Equal(t, time.February, got[0].Competencia.Month())
	assert.Equal(t, "", got[0].DocumentoRef)
}

func TestClassificarRealizado_CasoEspecial(t *testing.T) {
	tabela := tabelaRealizado(
		[]string{"", "103", "", "", "", ""},
		[]string{"", "10303", "", "", "", ""},
		[]string{"", CodigoCasoEspecial, "Serviços PJ", "", "", ""},
		[]string{"", "", "", "", "", "50"},
		[]string{"", "", "Fornecedor X", "NF 9", "75", ""},
		[]string{"", "", "", "", "10", "20"},
	)

	got, err := ClassificarRealizado(tabela, "OBRA2", domain.PoliticaPersistente)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for _, l := range got {
		assert.Equal(t, CasoEspecial.Descricao, l.Descricao)
		assert.Equal(t, CasoEspecial.DocumentoRef, l.DocumentoRef)
		assert.Equal(t, CodigoCasoEspecial, l.ClasseComp)
	}
	assert.Equal(t, 50.0, got[0].Valor)
	assert.Equal(t, time.February, got[0].Competencia.Month())
	assert.Equal(t, 75.0, got[1].Valor)
}

func TestClassificarRealizado_TwoPeriodsNeverEmit(t *testing.T) {
	tabela := tabelaRealizado(
		[]string{"", "2030101", "Com descrição", "", "10", "20"},
		[]string{"", CodigoCasoEspecial, "", "", "10", "20"},
	)

	got, err := ClassificarRealizado(tabela, "OBRA1", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClassificarRealizado_MissingColumns(t *testing.T) {
	semDescricao := NovaTabela([][]string{{"Conta", "", "Histórico", "Jan/24"}})
	_, err := ClassificarRealizado(semDescricao, "OBRA1", "")
	require.ErrorIs(t, err, ErrColunaAusente)
	assert.Contains(t, err.Error(), "Descrição")

	semCodigo := NovaTabela([][]string{{"Conta", "Código", "Descrição", "Jan/24"}})
	_, err = ClassificarRealizado(semCodigo, "OBRA1", "")
	require.ErrorIs(t, err, ErrColunaAusente)
	assert.Contains(t, err.Error(), "código da hierarquia")
}

func TestNovaTabela_NormalizesHeaders(t *testing.T) {
	tabela := NovaTabela([][]string{
		{"  Descrição\nDo  Item ", "", "JAN/24", "Valor", "valor"},
		{"a"},
	})

	assert.Equal(t, []string{"descrição do item", "unnamed: 1", "jan/24", "valor", "valor.1"}, tabela.Colunas)
	require.Len(t, tabela.Linhas, 1)
	assert.Len(t, tabela.Linhas[0], 5, "rows are padded to the header width")
}
