package consolidacao

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode"
	"unicode/utf8"

	"github.com/erosa-dev/cashflow-converter/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Formato de exportação da tabela final.
type Formato string

const (
	FormatoXLSX Formato = "xlsx"
	FormatoCSV  Formato = "csv"
)

const abaSaida = "Sheet1"

// Exportar grava a tabela no formato pedido.
func Exportar(w io.Writer, t *domain.TabelaFinal, formato Formato) error {
	switch formato {
	case FormatoCSV:
		return EscreverCSV(w, t)
	case FormatoXLSX, "":
		return EscreverXLSX(w, t)
	default:
		return fmt.Errorf("formato de saída não suportado: %s", formato)
	}
}

// EscreverXLSX grava cabeçalho + linhas em uma única aba.
func EscreverXLSX(w io.Writer, t *domain.TabelaFinal) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(abaSaida)
	if err != nil {
		return err
	}

	cabecalho := make([]interface{}, len(t.Colunas))
	for i, c := range t.Colunas {
		cabecalho[i] = c
	}
	if err := sw.SetRow("A1", cabecalho); err != nil {
		return err
	}
	for i, linha := range t.Linhas {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, linha); err != nil {
			return fmt.Errorf("erro ao gravar linha %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

// EscreverCSV gera o CSV ";" em Windows-1252 usado pela importação contábil.
func EscreverCSV(w io.Writer, t *domain.TabelaFinal) error {
	var buffer bytes.Buffer
	tw := transform.NewWriter(&buffer, encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()))
	writer := csv.NewWriter(tw)
	writer.Comma = ';'

	header := make([]string, len(t.Colunas))
	for i, c := range t.Colunas {
		header[i] = sanitizeForCSV(c)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, linha := range t.Linhas {
		record := make([]string, len(linha))
		for i, v := range linha {
			record[i] = sanitizeForCSV(formatarCampo(v))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	_, err := w.Write(buffer.Bytes())
	return err
}

func formatarCampo(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return formatTwoDecimalsComma(val)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func formatTwoDecimalsComma(val float64) string {
	s := decimal.NewFromFloat(val).StringFixed(2)
	b := []byte(s)
	for i := range b {
		if b[i] == '.' {
			b[i] = ','
		}
	}
	return string(b)
}

// sanitizeForCSV remove quebras de linha e tabs embutidos, converte controles para espaço e faz trim
func sanitizeForCSV(s string) string {
	start, end := 0, len(s)
	for start < end {
		r, size := utf8.DecodeRuneInString(s[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(s[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}

	var b bytes.Buffer
	for i := start; i < end; {
		r, size := utf8.DecodeRuneInString(s[i:end])
		i += size
		if r == '\r' || r == '\n' || r == '\t' {
			continue
		}
		if r < 32 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
