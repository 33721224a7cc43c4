package consolidacao

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// novaPlanilha grava as linhas (a partir de A1) em um .xlsx com a aba informada.
// Células nil ficam vazias.
func novaPlanilha(t *testing.T, dir, nome, aba string, linhas [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), aba))

	for r, linha := range linhas {
		for c, v := range linha {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(aba, cell, v))
		}
	}

	caminho := filepath.Join(dir, nome)
	require.NoError(t, f.SaveAs(caminho))
	return caminho
}

func lerLinhas(t *testing.T, caminho, aba string) [][]string {
	t.Helper()

	f, err := excelize.OpenFile(caminho)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(aba)
	require.NoError(t, err)
	return rows
}
