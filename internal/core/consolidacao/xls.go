package consolidacao

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// SufixoConvertido nomeia a cópia .xlsx gerada a partir de uma entrada .xls.
const SufixoConvertido = "__convertido.xlsx"

// ehXLS indica se a entrada está no formato binário antigo.
func ehXLS(caminho string) bool {
	return strings.EqualFold(filepath.Ext(caminho), ".xls")
}

// converterXLSparaXLSX copia a primeira planilha de um .xls para um .xlsx ao lado do
// original, para que o reparo opere sempre sobre o mesmo formato. Mesclas do .xls
// não são preservadas.
func converterXLSparaXLSX(caminho string) (string, error) {
	arq, err := os.Open(caminho)
	if err != nil {
		return "", err
	}
	defer arq.Close()

	workbook, err := xls.OpenReader(arq)
	if err != nil {
		return "", fmt.Errorf("erro ao ler arquivo .xls: %w", err)
	}
	if len(workbook.GetSheets()) == 0 {
		return "", fmt.Errorf("o arquivo .xls não contém planilhas")
	}
	sheet, err := workbook.GetSheet(0)
	if err != nil {
		return "", fmt.Errorf("erro ao obter planilha do arquivo .xls: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	aba := f.GetSheetName(0)

	for r, row := range sheet.GetRows() {
		for c, cell := range row.GetCols() {
			texto := cell.GetString()
			if texto == "" {
				continue
			}
			nome, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return "", err
			}
			var valor interface{} = texto
			if n, err := strconv.ParseFloat(strings.TrimSpace(texto), 64); err == nil {
				valor = n
			}
			if err := f.SetCellValue(aba, nome, valor); err != nil {
				return "", err
			}
		}
	}

	stem := strings.TrimSuffix(filepath.Base(caminho), filepath.Ext(caminho))
	destino := filepath.Join(filepath.Dir(caminho), stem+SufixoConvertido)
	if err := f.SaveAs(destino); err != nil {
		return "", fmt.Errorf("erro ao salvar conversão do .xls: %w", err)
	}
	return destino, nil
}
