package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/erosa-dev/cashflow-converter/internal/api/responses"
	"github.com/erosa-dev/cashflow-converter/internal/core/consolidacao"
	"github.com/erosa-dev/cashflow-converter/internal/core/execucoes"
	"github.com/erosa-dev/cashflow-converter/internal/domain"

	"github.com/gin-gonic/gin"
)

// ConsolidacaoHandler lida com as requisições de consolidação de planilhas Orçado/Previsto.
type ConsolidacaoHandler struct {
	service    consolidacao.Service
	runner     execucoes.Runner
	workDir    string
	pastaSaida string
}

// NewConsolidacaoHandler cria um novo handler de consolidação. workDir recebe os uploads e
// limita os arquivos das execuções ("" = diretório temporário do sistema); pastaSaida limita
// e é o destino padrão das execuções.
func NewConsolidacaoHandler(service consolidacao.Service, runner execucoes.Runner, workDir, pastaSaida string) *ConsolidacaoHandler {
	return &ConsolidacaoHandler{
		service:    service,
		runner:     runner,
		workDir:    workDir,
		pastaSaida: pastaSaida,
	}
}

// RegisterRoutes registra as rotas de consolidação no grupo informado.
func (h *ConsolidacaoHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/consolidate/orcado", h.HandleConsolidarOrcado)
	g.POST("/consolidate/previsto", h.HandleConsolidarPrevisto)
	g.POST("/runs", h.HandleSubmeterExecucao)
	g.GET("/runs/:id", h.HandleConsultarExecucao)
}

// HandleConsolidarOrcado consolida as planilhas enviadas e devolve RESULTADO_CONSOLIDADO.
func (h *ConsolidacaoHandler) HandleConsolidarOrcado(c *gin.Context) {
	h.consolidarUpload(c, domain.ModoOrcado)
}

// HandleConsolidarPrevisto consolida as planilhas enviadas e devolve RESULTADO_PREVISTO_CONSOLIDADO.
func (h *ConsolidacaoHandler) HandleConsolidarPrevisto(c *gin.Context) {
	h.consolidarUpload(c, domain.ModoPrevisto)
}

func (h *ConsolidacaoHandler) consolidarUpload(c *gin.Context, modo domain.Modo) {
	formato := consolidacao.Formato(strings.ToLower(c.DefaultQuery("formato", string(consolidacao.FormatoXLSX))))
	if formato != consolidacao.FormatoXLSX && formato != consolidacao.FormatoCSV {
		responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Formato de saída não suportado: %s", formato))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Formulário multipart inválido", err.Error())
		return
	}
	arquivos := form.File["arquivos"]
	ccs := form.Value["cc"]
	if len(arquivos) == 0 {
		responses.Error(c, http.StatusBadRequest, consolidacao.ErrSemArquivos.Error())
		return
	}
	if len(ccs) != len(arquivos) {
		responses.Error(c, http.StatusBadRequest, consolidacao.ErrArquivoSemCC.Error(),
			fmt.Sprintf("%d arquivo(s) e %d CC(s) recebidos", len(arquivos), len(ccs)))
		return
	}

	dir, err := os.MkdirTemp(h.workDir, "consolidador-*")
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Não foi possível preparar a pasta de trabalho")
		return
	}
	defer os.RemoveAll(dir)

	entradas := make([]domain.Entrada, 0, len(arquivos))
	for i, fh := range arquivos {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if ext != ".xlsx" && ext != ".xls" {
			responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Extensão de arquivo não suportada: %s", ext))
			return
		}
		destino := filepath.Join(dir, fmt.Sprintf("%02d_%s", i+1, filepath.Base(fh.Filename)))
		if err := c.SaveUploadedFile(fh, destino); err != nil {
			responses.Error(c, http.StatusInternalServerError, "Não foi possível salvar o arquivo enviado", fh.Filename)
			return
		}
		entradas = append(entradas, domain.Entrada{Caminho: destino, CC: strings.TrimSpace(ccs[i])})
	}

	var tabela *domain.TabelaFinal
	if modo == domain.ModoPrevisto {
		tabela, err = h.service.ProcessarPrevisto(c.Request.Context(), entradas)
	} else {
		tabela, err = h.service.ProcessarOrcado(c.Request.Context(), entradas)
	}
	if err != nil {
		responses.Error(c, statusDoErro(err), consolidacao.Mensagem(modo, "", err), err.Error())
		return
	}

	var buffer bytes.Buffer
	if err := consolidacao.Exportar(&buffer, tabela, formato); err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao gerar o consolidado", err.Error())
		return
	}

	nome, _ := consolidacao.ArquivoSaida(modo)
	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if formato == consolidacao.FormatoCSV {
		nome = strings.TrimSuffix(nome, filepath.Ext(nome)) + ".csv"
		contentType = "text/csv; charset=windows-1252"
	}
	c.Header("Content-Disposition", "attachment; filename="+nome)
	c.Data(http.StatusOK, contentType, buffer.Bytes())
}

type execucaoRequest struct {
	Modo       domain.Modo      `json:"modo" binding:"required,oneof=orcado previsto"`
	Arquivos   []domain.Entrada `json:"arquivos" binding:"required,min=1,dive"`
	PastaSaida string           `json:"pastaSaida"`
}

// HandleSubmeterExecucao agenda uma consolidação sobre arquivos já presentes na pasta de
// trabalho; a saída fica sob a pasta de saída configurada.
func (h *ConsolidacaoHandler) HandleSubmeterExecucao(c *gin.Context) {
	var req execucaoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Error(c, http.StatusBadRequest, "Requisição inválida", err.Error())
		return
	}
	entradas := make([]domain.Entrada, 0, len(req.Arquivos))
	for _, e := range req.Arquivos {
		caminho, err := resolverDentro(h.raizEntradas(), e.Caminho)
		if err != nil {
			responses.Error(c, http.StatusBadRequest, "Arquivo fora da pasta de trabalho", err.Error())
			return
		}
		entradas = append(entradas, domain.Entrada{Caminho: caminho, CC: e.CC})
	}
	pasta, err := resolverDentro(h.pastaSaida, req.PastaSaida)
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Pasta de saída fora da pasta permitida", err.Error())
		return
	}

	exec, err := h.runner.Submeter(req.Modo, entradas, pasta)
	if err != nil {
		responses.Error(c, statusDoErro(err), err.Error())
		return
	}
	responses.SuccessWithStatus(c, http.StatusAccepted, exec, "Execução agendada")
}

// HandleConsultarExecucao devolve o estado e a mensagem final de uma execução.
func (h *ConsolidacaoHandler) HandleConsultarExecucao(c *gin.Context) {
	exec, ok := h.runner.Consultar(c.Param("id"))
	if !ok {
		responses.Error(c, http.StatusNotFound, "Execução não encontrada")
		return
	}
	responses.Success(c, exec, exec.Mensagem)
}

// ErrCaminhoNaoPermitido indica um caminho que escapa da pasta raiz configurada.
var ErrCaminhoNaoPermitido = errors.New("caminho fora da pasta permitida")

func (h *ConsolidacaoHandler) raizEntradas() string {
	if h.workDir == "" {
		return os.TempDir()
	}
	return h.workDir
}

// resolverDentro interpreta caminho relativo à raiz (vazio = a própria raiz) e rejeita
// qualquer resultado fora dela.
func resolverDentro(raiz, caminho string) (string, error) {
	base, err := filepath.Abs(raiz)
	if err != nil {
		return "", err
	}
	alvo := filepath.Clean(caminho)
	if !filepath.IsAbs(alvo) {
		alvo = filepath.Join(base, alvo)
	}
	rel, err := filepath.Rel(base, alvo)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrCaminhoNaoPermitido, caminho)
	}
	return alvo, nil
}

func statusDoErro(err error) int {
	switch {
	case errors.Is(err, consolidacao.ErrSemArquivos),
		errors.Is(err, consolidacao.ErrArquivoSemCC),
		errors.Is(err, consolidacao.ErrSemPastaSaida),
		errors.Is(err, consolidacao.ErrModoInvalido):
		return http.StatusBadRequest
	case errors.Is(err, consolidacao.ErrColunaAusente),
		errors.Is(err, consolidacao.ErrNenhumLancamento),
		errors.Is(err, consolidacao.ErrNenhumPrevisto):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
