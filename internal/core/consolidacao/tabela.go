package consolidacao

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/erosa-dev/cashflow-converter/internal/domain"

	"github.com/schollz/closestmatch"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NomeAbaCorrigida é o nome canônico da aba após o reparo.
const NomeAbaCorrigida = "Aba1"

// ErrColunaAusente indica que uma coluna obrigatória não existe após a normalização.
var ErrColunaAusente = errors.New("coluna obrigatória não encontrada")

var whitespaceRegex = regexp.MustCompile(`\s+`)
var nonAlphanumericRegex = regexp.MustCompile(`[^A-Z0-9 ]+`)

// normalizarCabecalho: trim, minúsculas e espaços/quebras de linha colapsados.
func normalizarCabecalho(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// normalizeText remove acentos e pontuação; usado só para sugerir colunas parecidas.
func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, _ := transform.String(t, str)
	result = strings.ToUpper(result)
	result = nonAlphanumericRegex.ReplaceAllString(result, " ")
	result = whitespaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// nomearColunas normaliza o cabeçalho; colunas sem título viram "unnamed: <i>" e
// repetidas recebem sufixo ".1", ".2"...
func nomearColunas(cabecalho []string, largura int) []string {
	colunas := make([]string, largura)
	vistos := make(map[string]int)
	for i := 0; i < largura; i++ {
		nome := ""
		if i < len(cabecalho) {
			nome = normalizarCabecalho(cabecalho[i])
		}
		if nome == "" {
			nome = fmt.Sprintf("unnamed: %d", i)
		}
		if n, ok := vistos[nome]; ok {
			vistos[nome] = n + 1
			nome = fmt.Sprintf("%s.%d", nome, n+1)
		} else {
			vistos[nome] = 0
		}
		colunas[i] = nome
	}
	return colunas
}

// NovaTabela monta uma Tabela a partir das linhas cruas (a primeira é o cabeçalho).
func NovaTabela(rows [][]string) *domain.Tabela {
	if len(rows) == 0 {
		return &domain.Tabela{}
	}
	largura := 0
	for _, row := range rows {
		if len(row) > largura {
			largura = len(row)
		}
	}
	tabela := &domain.Tabela{Colunas: nomearColunas(rows[0], largura)}
	for _, row := range rows[1:] {
		linha := make([]string, largura)
		copy(linha, row)
		tabela.Linhas = append(tabela.Linhas, linha)
	}
	return tabela
}

// lerTabelaCorrigida lê a aba "Aba1" (ou a ativa, se o renome falhou) de uma planilha
// já corrigida. O cabeçalho usa o valor formatado; os dados, o valor cru da célula.
func lerTabelaCorrigida(caminho string) (*domain.Tabela, error) {
	f, err := excelize.OpenFile(caminho)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir planilha corrigida: %w", err)
	}
	defer f.Close()

	aba := NomeAbaCorrigida
	if idx, err := f.GetSheetIndex(aba); err != nil || idx < 0 {
		aba = f.GetSheetName(f.GetActiveSheetIndex())
	}

	rows, err := f.GetRows(aba, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("erro ao ler aba '%s': %w", aba, err)
	}
	formatadas, err := f.GetRows(aba)
	if err == nil && len(formatadas) > 0 && len(rows) > 0 {
		rows[0] = formatadas[0]
	}
	return NovaTabela(rows), nil
}

// colunaContendo retorna a primeira coluna cujo nome contém algum dos trechos.
func colunaContendo(t *domain.Tabela, trechos ...string) int {
	for i, c := range t.Colunas {
		for _, trecho := range trechos {
			if strings.Contains(c, trecho) {
				return i
			}
		}
	}
	return -1
}

// erroColunaAusente descreve a coluna pelo conceito e sugere a mais parecida, se houver.
func erroColunaAusente(t *domain.Tabela, conceito, referencia string) error {
	msg := fmt.Sprintf("coluna de %s não encontrada", conceito)
	chaves := make([]string, 0, len(t.Colunas))
	originais := make(map[string]string)
	for _, c := range t.Colunas {
		k := normalizeText(c)
		if k == "" {
			continue
		}
		if _, ok := originais[k]; !ok {
			originais[k] = c
			chaves = append(chaves, k)
		}
	}
	if len(chaves) > 0 {
		cm := closestmatch.New(chaves, []int{2, 3})
		if match := cm.Closest(normalizeText(referencia)); match != "" {
			msg += fmt.Sprintf(" (mais próxima: '%s')", originais[match])
		}
	}
	return fmt.Errorf("%w: %s", ErrColunaAusente, msg)
}

// parseNumero aceita números crus da planilha e, como fallback, textos no formato
// brasileiro ("R$ 1.234,56", "(10,00)").
func parseNumero(val string) (float64, bool) {
	s := strings.TrimSpace(val)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	f, err := parseBRLNumber(s)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseBRLNumber: heurística para entradas brasileiras/anglo
func parseBRLNumber(val string) (float64, error) {
	s := strings.TrimSpace(val)
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return 0, fmt.Errorf("valor vazio")
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimPrefix(strings.TrimSuffix(s, ")"), "(")
	}
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimPrefix(s, "-")
	}

	// a última ocorrência de . ou , decide o separador decimal
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	if lastComma > lastDot {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else if lastDot > lastComma && strings.Count(s, ".") > 1 {
		parts := strings.Split(s, ".")
		s = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		f = -f
	}
	return f, nil
}
