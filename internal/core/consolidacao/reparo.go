package consolidacao

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/erosa-dev/cashflow-converter/internal/domain"

	"github.com/xuri/excelize/v2"
)

// SufixoCorrigido é acrescentado ao nome do arquivo reparado, gravado ao lado do original.
const SufixoCorrigido = "__corrigido.xlsx"

// Etapas do reparo.
const (
	EtapaRenomearAba  = "renomear_aba"
	EtapaRemoverColB  = "remover_coluna_b"
	EtapaDesfazMescla = "desfazer_mescla_a1_c2"
)

// CaminhoCorrigido devolve "<pasta>/<stem>__corrigido.xlsx" para o arquivo de entrada.
func CaminhoCorrigido(caminho string) string {
	stem := strings.TrimSuffix(filepath.Base(caminho), filepath.Ext(caminho))
	return filepath.Join(filepath.Dir(caminho), stem+SufixoCorrigido)
}

// CorrigirPlanilha aplica os reparos estruturais conhecidos e salva uma cópia corrigida:
//  1. renomeia a aba ativa para "Aba1";
//  2. apaga a coluna B;
//  3. se alguma mescla intersecta A1:C2, desfaz a primeira, move A1 -> C1 e limpa A1.
//
// A mescla da etapa 3 é procurada nas coordenadas de antes da remoção da coluna B.
// Falhas nas etapas não interrompem o processamento; ficam registradas no relatório.
// Só abrir ou salvar a planilha são erros fatais. O original nunca é alterado.
func CorrigirPlanilha(caminho string) (*domain.RelatorioReparo, error) {
	f, err := excelize.OpenFile(caminho)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir planilha '%s': %w", filepath.Base(caminho), err)
	}
	defer f.Close()

	rel := &domain.RelatorioReparo{Origem: caminho, Corrigido: CaminhoCorrigido(caminho)}

	aba := f.GetSheetName(f.GetActiveSheetIndex())
	rel.Etapas = append(rel.Etapas, renomearAba(f, aba))
	if idx, err := f.GetSheetIndex(NomeAbaCorrigida); err == nil && idx >= 0 {
		aba = NomeAbaCorrigida
	}

	valor, etapaMescla := desfazerMesclaCabecalho(f, aba)
	rel.Etapas = append(rel.Etapas, removerColunaB(f, aba))
	if etapaMescla.Aplicada {
		etapaMescla = moverTituloParaC1(f, aba, valor)
	}
	rel.Etapas = append(rel.Etapas, etapaMescla)

	if err := f.SaveAs(rel.Corrigido); err != nil {
		removerParcial(rel.Corrigido)
		return nil, fmt.Errorf("erro ao salvar planilha corrigida: %w", err)
	}
	return rel, nil
}

// removerParcial apaga a cópia corrigida incompleta; diretórios nunca são tocados.
func removerParcial(caminho string) {
	if info, err := os.Stat(caminho); err == nil && info.Mode().IsRegular() {
		os.Remove(caminho)
	}
}

func pulada(etapa, motivo string) domain.EtapaReparo {
	return domain.EtapaReparo{Etapa: etapa, Motivo: motivo}
}

func renomearAba(f *excelize.File, aba string) domain.EtapaReparo {
	if aba == "" {
		return pulada(EtapaRenomearAba, "nenhuma aba ativa")
	}
	if aba == NomeAbaCorrigida {
		return domain.EtapaReparo{Etapa: EtapaRenomearAba, Aplicada: true}
	}
	if err := f.SetSheetName(aba, NomeAbaCorrigida); err != nil {
		return pulada(EtapaRenomearAba, err.Error())
	}
	return domain.EtapaReparo{Etapa: EtapaRenomearAba, Aplicada: true}
}

func removerColunaB(f *excelize.File, aba string) domain.EtapaReparo {
	rows, err := f.GetRows(aba)
	if err != nil {
		return pulada(EtapaRemoverColB, err.Error())
	}
	largura := 0
	for _, row := range rows {
		if len(row) > largura {
			largura = len(row)
		}
	}
	if largura < 2 {
		return pulada(EtapaRemoverColB, "planilha sem coluna B")
	}
	if err := f.RemoveCol(aba, "B"); err != nil {
		return pulada(EtapaRemoverColB, err.Error())
	}
	return domain.EtapaReparo{Etapa: EtapaRemoverColB, Aplicada: true}
}

// intersectaCabecalho: a região cruza o retângulo linhas 1-2 x colunas 1-3?
func intersectaCabecalho(inicio, fim string) bool {
	c1, r1, err := excelize.CellNameToCoordinates(inicio)
	if err != nil {
		return false
	}
	c2, r2, err := excelize.CellNameToCoordinates(fim)
	if err != nil {
		return false
	}
	return r1 <= 2 && c1 <= 3 && r2 >= 1 && c2 >= 1
}

// desfazerMesclaCabecalho desfaz a primeira mescla que cruza A1:C2 e devolve o valor
// de A1, que só é movido depois da remoção da coluna B.
func desfazerMesclaCabecalho(f *excelize.File, aba string) (interface{}, domain.EtapaReparo) {
	mesclas, err := f.GetMergeCells(aba)
	if err != nil {
		return nil, pulada(EtapaDesfazMescla, err.Error())
	}
	for _, m := range mesclas {
		inicio, fim := m.GetStartAxis(), m.GetEndAxis()
		if !intersectaCabecalho(inicio, fim) {
			continue
		}
		valor, err := valorA1(f, aba)
		if err != nil {
			return nil, pulada(EtapaDesfazMescla, err.Error())
		}
		if err := f.UnmergeCell(aba, inicio, fim); err != nil {
			return nil, pulada(EtapaDesfazMescla, err.Error())
		}
		return valor, domain.EtapaReparo{Etapa: EtapaDesfazMescla, Aplicada: true}
	}
	return nil, pulada(EtapaDesfazMescla, "nenhuma mescla em A1:C2")
}

func moverTituloParaC1(f *excelize.File, aba string, valor interface{}) domain.EtapaReparo {
	if err := f.SetCellValue(aba, "C1", valor); err != nil {
		return pulada(EtapaDesfazMescla, err.Error())
	}
	if err := f.SetCellValue(aba, "A1", nil); err != nil {
		return pulada(EtapaDesfazMescla, err.Error())
	}
	return domain.EtapaReparo{Etapa: EtapaDesfazMescla, Aplicada: true}
}

// valorA1 preserva números como números ao mover o conteúdo de A1.
func valorA1(f *excelize.File, aba string) (interface{}, error) {
	bruto, err := f.GetCellValue(aba, "A1", excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if bruto == "" {
		return nil, nil
	}
	tipo, err := f.GetCellType(aba, "A1")
	if err == nil && (tipo == excelize.CellTypeNumber || tipo == excelize.CellTypeUnset) {
		if n, err := strconv.ParseFloat(bruto, 64); err == nil {
			return n, nil
		}
	}
	return bruto, nil
}
