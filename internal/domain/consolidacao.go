// package domain/consolidacao.go
package domain

import "time"

// Modo identifies which consolidation a run produces.
type Modo string

// Constants for consolidation modes.
const (
	ModoOrcado   Modo = "orcado"
	ModoPrevisto Modo = "previsto"
)

// Entrada is one input spreadsheet plus the CC attached to every record derived from it.
type Entrada struct {
	Caminho string `json:"caminho" binding:"required"`
	CC      string `json:"cc" binding:"required"`
}

// Tabela is a rectangular header-plus-rows table read from a single sheet.
// Colunas holds the normalized header names; every row has len(Colunas) cells.
type Tabela struct {
	Colunas []string
	Linhas  [][]string
}

// Indice returns the position of the column named nome, or -1.
func (t *Tabela) Indice(nome string) int {
	for i, c := range t.Colunas {
		if c == nome {
			return i
		}
	}
	return -1
}

// Celula returns the cell at (linha, coluna), or "" when out of range.
func (t *Tabela) Celula(linha, coluna int) string {
	if coluna < 0 || linha < 0 || linha >= len(t.Linhas) {
		return ""
	}
	row := t.Linhas[linha]
	if coluna >= len(row) {
		return ""
	}
	return row[coluna]
}

// --- Reparo da planilha de entrada ---

// EtapaReparo records the outcome of one best-effort repair step.
type EtapaReparo struct {
	Etapa    string `json:"etapa"`
	Aplicada bool   `json:"aplicada"`
	Motivo   string `json:"motivo,omitempty"`
}

// RelatorioReparo is what the repairer produced for one input file.
type RelatorioReparo struct {
	Origem    string        `json:"origem"`
	Corrigido string        `json:"corrigido"`
	Etapas    []EtapaReparo `json:"etapas"`
}

// --- Hierarquia de classes ---

// Nivel is the hierarchy level a code belongs to, derived from its digit count.
type Nivel int

// Hierarchy levels.
const (
	NivelNenhum Nivel = iota
	NivelClasse2
	NivelClasse3
	NivelClasseComp
)

func (n Nivel) String() string {
	switch n {
	case NivelClasse2:
		return "Classe2"
	case NivelClasse3:
		return "Classe3"
	case NivelClasseComp:
		return "ClasseComp"
	default:
		return "nenhum"
	}
}

// PoliticaHierarquia decides what happens to the other levels when a new code arrives.
type PoliticaHierarquia string

const (
	// PoliticaPersistente keeps every level until a code of the same length replaces it.
	PoliticaPersistente PoliticaHierarquia = "persistente"
	// PoliticaPorPrefixo clears lower levels on a new code and drops higher levels that
	// are not a prefix of it.
	PoliticaPorPrefixo PoliticaHierarquia = "prefixo"
)

// EstadoHierarquia is the carry-forward classification context of one file scan.
type EstadoHierarquia struct {
	Classe2        string
	Classe3        string
	ClasseComp     string
	EmCasoEspecial bool
}

// --- Registros de saída ---

// Lancamento is one row of consolidated actual spend (Orçado).
type Lancamento struct {
	CC           string
	Classe2      string
	Classe3      string
	ClasseComp   string
	Descricao    string
	DocumentoRef string
	Valor        float64
	Competencia  time.Time
	Data         string
}

// Verba is the budget figure of a leaf code: numeric when the cell coerced, otherwise
// the raw cell text (empty means missing).
type Verba struct {
	Numero   float64
	Bruto    string
	Numerica bool
}

// Valor returns the value to be written to the output cell, nil for a missing figure.
func (v Verba) Valor() interface{} {
	if v.Numerica {
		return v.Numero
	}
	if v.Bruto == "" {
		return nil
	}
	return v.Bruto
}

// Previsto is one row of consolidated budget allotment, one per leaf code.
type Previsto struct {
	CC         string
	Classe2    string
	Classe3    string
	ClasseComp string
	Verba      Verba
}

// TabelaFinal is the consolidated output: a fixed header and the reindexed rows.
type TabelaFinal struct {
	Colunas []string
	Linhas  [][]interface{}
}

// --- Execuções ---

// EstadoExecucao is the lifecycle state of an asynchronous run.
type EstadoExecucao string

// Run states.
const (
	ExecucaoPendente   EstadoExecucao = "pendente"
	ExecucaoExecutando EstadoExecucao = "executando"
	ExecucaoConcluida  EstadoExecucao = "concluida"
	ExecucaoFalhou     EstadoExecucao = "falhou"
)

// Execucao is the observable status of a run submitted to the job runner.
type Execucao struct {
	ID         string         `json:"id"`
	Modo       Modo           `json:"modo"`
	Estado     EstadoExecucao `json:"estado"`
	Mensagem   string         `json:"mensagem,omitempty"`
	Saida      string         `json:"saida,omitempty"`
	CriadaEm   time.Time      `json:"criada_em"`
	IniciadaEm *time.Time     `json:"iniciada_em,omitempty"`
	Finalizada *time.Time     `json:"finalizada_em,omitempty"`
}
