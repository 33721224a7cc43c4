package consolidacao

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/erosa-dev/cashflow-converter/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// planilhaRealizado reproduz a exportação bruta: coluna B descartável, código na C.
func planilhaRealizado(t *testing.T, dir, nome string, dados ...[]interface{}) string {
	t.Helper()
	linhas := append([][]interface{}{
		{"Conta", "Lixo", nil, "Descrição", "Cto/ Pedido/ NF", "Jan/24", "Fev/24"},
	}, dados...)
	return novaPlanilha(t, dir, nome, "Relatorio", linhas)
}

func planilhaPrevisto(t *testing.T, dir, nome string, dados ...[]interface{}) string {
	t.Helper()
	linhas := append([][]interface{}{
		{"Conta", "Lixo", nil, "Descrição", "Previsto", nil},
	}, dados...)
	return novaPlanilha(t, dir, nome, "Relatorio", linhas)
}

func TestProcessarOrcado(t *testing.T) {
	dir := t.TempDir()
	obra1 := planilhaRealizado(t, dir, "obra1.xlsx",
		[]interface{}{nil, "x", 203, "Aluguéis"},
		[]interface{}{nil, "x", 20301, "Imóveis"},
		[]interface{}{nil, "x", 2030101, "Rent", nil, 100},
	)
	obra2 := planilhaRealizado(t, dir, "obra2.xlsx",
		[]interface{}{nil, "x", 101},
		[]interface{}{nil, "x", 10101},
		[]interface{}{nil, "x", 1010101, "Material", "NF 7", nil, 35.5},
		[]interface{}{nil, "x", nil, DescricaoDescartada, nil, 10},
	)

	svc := NewService(zap.NewNop(), domain.PoliticaPersistente)
	tabela, err := svc.ProcessarOrcado(context.Background(), []domain.Entrada{
		{Caminho: obra2, CC: "OBRA2"},
		{Caminho: obra1, CC: "OBRA1"},
	})
	require.NoError(t, err)

	assert.Equal(t, ColunasOrcado, tabela.Colunas)
	assert.Equal(t, [][]interface{}{
		{"OBRA1", "203", "20301", "2030101", "Rent", nil, 100.0, "Jan/24"},
		{"OBRA2", "101", "10101", "1010101", "Material", "NF 7", 35.5, "Feb/24"},
	}, tabela.Linhas)

	for _, origem := range []string{obra1, obra2} {
		assert.FileExists(t, origem)
		assert.NoFileExists(t, CaminhoCorrigido(origem), "intermediate copies are removed")
	}
}

func TestProcessarOrcado_NoRecords(t *testing.T) {
	dir := t.TempDir()
	vazia := planilhaRealizado(t, dir, "vazia.xlsx",
		[]interface{}{nil, "x", 2030101, "Dois meses", nil, 1, 2},
	)

	_, err := NewService(nil, "").ProcessarOrcado(context.Background(), []domain.Entrada{{Caminho: vazia, CC: "OBRA1"}})
	assert.ErrorIs(t, err, ErrNenhumLancamento)
	assert.NoFileExists(t, CaminhoCorrigido(vazia))
}

func TestProcessarOrcado_MissingColumnNamesFile(t *testing.T) {
	dir := t.TempDir()
	ruim := novaPlanilha(t, dir, "ruim.xlsx", "Relatorio", [][]interface{}{
		{"Conta", "Lixo", nil, "Histórico", "Jan/24"},
		{nil, "x", 2030101, "Rent", 100},
	})

	_, err := NewService(nil, "").ProcessarOrcado(context.Background(), []domain.Entrada{{Caminho: ruim, CC: "OBRA1"}})
	require.ErrorIs(t, err, ErrColunaAusente)
	assert.Contains(t, err.Error(), "ruim.xlsx")
	assert.NoFileExists(t, CaminhoCorrigido(ruim))
}

func TestProcessarPrevisto(t *testing.T) {
	dir := t.TempDir()
	origem := planilhaPrevisto(t, dir, "previsto.xlsx",
		[]interface{}{nil, "x", 999, "Grupo"},
		[]interface{}{nil, "x", 99988, "Subgrupo"},
		[]interface{}{nil, "x", 9998877, "Sem verba"},
		[]interface{}{nil, "x", 9998878, "Com verba", nil, 1500.5},
	)

	tabela, err := NewService(nil, domain.PoliticaPersistente).ProcessarPrevisto(
		context.Background(), []domain.Entrada{{Caminho: origem, CC: "OBRA1"}})
	require.NoError(t, err)

	assert.Equal(t, ColunasPrevisto, tabela.Colunas)
	assert.Equal(t, [][]interface{}{
		{"OBRA1", "999", "99988", "9998877", nil},
		{"OBRA1", "999", "99988", "9998878", 1500.5},
	}, tabela.Linhas)
}

func TestExecutar(t *testing.T) {
	dir := t.TempDir()
	saida := t.TempDir()
	origem := planilhaRealizado(t, dir, "obra1.xlsx",
		[]interface{}{nil, "x", 203},
		[]interface{}{nil, "x", 20301},
		[]interface{}{nil, "x", 2030101, "Rent", nil, 100},
	)

	caminho, err := NewService(nil, "").Executar(context.Background(), domain.ModoOrcado,
		[]domain.Entrada{{Caminho: origem, CC: "OBRA1"}}, saida)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(saida, ArquivoOrcado), caminho)

	rows := lerLinhas(t, caminho, abaSaida)
	require.Len(t, rows, 2)
	assert.Equal(t, ColunasOrcado, rows[0])
	assert.Equal(t, []string{"OBRA1", "203", "20301", "2030101", "Rent", "", "100", "Jan/24"}, rows[1])
}

func TestExecutar_FailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	saida := t.TempDir()
	origem := planilhaPrevisto(t, dir, "vazio.xlsx", []interface{}{nil, "x", 999, "Grupo", nil, 5})

	_, err := NewService(nil, "").Executar(context.Background(), domain.ModoPrevisto,
		[]domain.Entrada{{Caminho: origem, CC: "OBRA1"}}, saida)
	require.ErrorIs(t, err, ErrNenhumPrevisto)
	assert.NoFileExists(t, filepath.Join(saida, ArquivoPrevisto))
}

func TestExecutar_Validation(t *testing.T) {
	svc := NewService(nil, "")
	ctx := context.Background()
	valida := []domain.Entrada{{Caminho: "obra.xlsx", CC: "OBRA1"}}

	_, err := svc.Executar(ctx, domain.ModoOrcado, nil, t.TempDir())
	assert.ErrorIs(t, err, ErrSemArquivos)

	_, err = svc.Executar(ctx, domain.ModoOrcado, []domain.Entrada{{Caminho: "obra.xlsx", CC: "  "}}, t.TempDir())
	assert.ErrorIs(t, err, ErrArquivoSemCC)

	_, err = svc.Executar(ctx, domain.ModoOrcado, valida, "")
	assert.ErrorIs(t, err, ErrSemPastaSaida)

	_, err = svc.Executar(ctx, domain.Modo("outro"), valida, t.TempDir())
	assert.ErrorIs(t, err, ErrModoInvalido)
}

func TestProcessar_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewService(nil, "").ProcessarOrcado(ctx, []domain.Entrada{{Caminho: "obra.xlsx", CC: "OBRA1"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMensagem(t *testing.T) {
	assert.Equal(t, "Consolidado gerado:\n/saida/RESULTADO_CONSOLIDADO.xlsx",
		Mensagem(domain.ModoOrcado, "/saida/RESULTADO_CONSOLIDADO.xlsx", nil))
	assert.Equal(t, "Ocorreu um erro:\n"+ErrSemArquivos.Error(), Mensagem(domain.ModoOrcado, "", ErrSemArquivos))
	assert.Equal(t, "Consolidado 'Previsto' gerado:\n/saida/x.xlsx", Mensagem(domain.ModoPrevisto, "/saida/x.xlsx", nil))
	assert.Equal(t, "Ocorreu um erro em 'Previsto':\n"+ErrSemPastaSaida.Error(), Mensagem(domain.ModoPrevisto, "", ErrSemPastaSaida))
}

func TestEhXLS(t *testing.T) {
	assert.True(t, ehXLS("obra.xls"))
	assert.True(t, ehXLS("OBRA.XLS"))
	assert.False(t, ehXLS("obra.xlsx"))
}

func TestProcessarOrcado_KeepsUnrelatedCorrectedSibling(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, origem string)
	}{
		{name: "missing input", prepare: func(*testing.T, string) {}},
		{name: "broken input", prepare: func(t *testing.T, origem string) {
			require.NoError(t, os.WriteFile(origem, []byte("não é uma planilha"), 0o644))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			origem := filepath.Join(dir, "obra.xlsx")
			irmao := CaminhoCorrigido(origem)
			require.NoError(t, os.WriteFile(irmao, []byte("dados do usuário"), 0o644))
			tt.prepare(t, origem)

			_, err := NewService(nil, "").ProcessarOrcado(context.Background(),
				[]domain.Entrada{{Caminho: origem, CC: "OBRA1"}})
			require.Error(t, err)

			conteudo, err := os.ReadFile(irmao)
			require.NoError(t, err, "a file this run did not create is left alone")
			assert.Equal(t, "dados do usuário", string(conteudo))
		})
	}
}
