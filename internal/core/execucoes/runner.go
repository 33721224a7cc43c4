package execucoes

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/erosa-dev/cashflow-converter/internal/core/consolidacao"
	"github.com/erosa-dev/cashflow-converter/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Runner executa consolidações fora da goroutine de quem as pediu. Cada execução é
// sequencial; o semáforo limita quantas rodam ao mesmo tempo.
type Runner interface {
	Submeter(modo domain.Modo, entradas []domain.Entrada, pastaSaida string) (domain.Execucao, error)
	Consultar(id string) (domain.Execucao, bool)
	Aguardar()
}

// RetencaoPadrao é quanto tempo uma execução finalizada continua consultável.
const RetencaoPadrao = time.Hour

type runner struct {
	service  consolidacao.Service
	logger   *zap.Logger
	sem      *semaphore.Weighted
	retencao time.Duration
	agora    func() time.Time

	mu        sync.RWMutex
	execucoes map[string]*domain.Execucao
	wg        sync.WaitGroup
}

// NewRunner cria o executor assíncrono; maxConcorrentes < 1 vira 1 e retencao <= 0 vira
// RetencaoPadrao. Execuções finalizadas há mais que retencao são descartadas.
func NewRunner(service consolidacao.Service, logger *zap.Logger, maxConcorrentes int64, retencao time.Duration) Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxConcorrentes < 1 {
		maxConcorrentes = 1
	}
	if retencao <= 0 {
		retencao = RetencaoPadrao
	}
	return &runner{
		service:   service,
		logger:    logger,
		sem:       semaphore.NewWeighted(maxConcorrentes),
		retencao:  retencao,
		agora:     time.Now,
		execucoes: make(map[string]*domain.Execucao),
	}
}

// Submeter valida o pedido e agenda a execução, devolvendo seu estado inicial.
func (r *runner) Submeter(modo domain.Modo, entradas []domain.Entrada, pastaSaida string) (domain.Execucao, error) {
	if _, err := consolidacao.ArquivoSaida(modo); err != nil {
		return domain.Execucao{}, err
	}
	if err := consolidacao.ValidarEntradas(entradas); err != nil {
		return domain.Execucao{}, err
	}
	if strings.TrimSpace(pastaSaida) == "" {
		return domain.Execucao{}, consolidacao.ErrSemPastaSaida
	}

	exec := &domain.Execucao{
		ID:       uuid.NewString(),
		Modo:     modo,
		Estado:   domain.ExecucaoPendente,
		CriadaEm: r.agora(),
	}
	r.mu.Lock()
	r.descartarExpiradas()
	r.execucoes[exec.ID] = exec
	snapshot := *exec
	r.mu.Unlock()

	copia := append([]domain.Entrada(nil), entradas...)
	r.wg.Add(1)
	go r.executar(exec.ID, modo, copia, pastaSaida)

	return snapshot, nil
}

func (r *runner) executar(id string, modo domain.Modo, entradas []domain.Entrada, pastaSaida string) {
	defer r.wg.Done()
	ctx := context.Background()

	if err := r.sem.Acquire(ctx, 1); err != nil {
		r.finalizar(id, modo, "", err)
		return
	}
	defer r.sem.Release(1)

	r.atualizar(id, func(e *domain.Execucao) {
		agora := r.agora()
		e.Estado = domain.ExecucaoExecutando
		e.IniciadaEm = &agora
	})

	caminho, err := r.executarProtegido(ctx, modo, entradas, pastaSaida)
	r.finalizar(id, modo, caminho, err)
}

// executarProtegido converte um panic do processamento em erro da execução.
func (r *runner) executarProtegido(ctx context.Context, modo domain.Modo, entradas []domain.Entrada, pastaSaida string) (caminho string, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic durante consolidação", zap.Any("panic", p))
			err = errors.New("falha inesperada no processamento")
		}
	}()
	return r.service.Executar(ctx, modo, entradas, pastaSaida)
}

func (r *runner) finalizar(id string, modo domain.Modo, caminho string, err error) {
	mensagem := consolidacao.Mensagem(modo, caminho, err)
	r.atualizar(id, func(e *domain.Execucao) {
		agora := r.agora()
		e.Finalizada = &agora
		e.Mensagem = mensagem
		if err != nil {
			e.Estado = domain.ExecucaoFalhou
			return
		}
		e.Estado = domain.ExecucaoConcluida
		e.Saida = caminho
	})
	if err != nil {
		r.logger.Error("execução falhou", zap.String("id", id), zap.String("modo", string(modo)), zap.Error(err))
		return
	}
	r.logger.Info("execução concluída", zap.String("id", id), zap.String("modo", string(modo)), zap.String("saida", caminho))
}

func (r *runner) atualizar(id string, fn func(*domain.Execucao)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.execucoes[id]; ok {
		fn(e)
	}
}

// Consultar devolve uma cópia do estado atual da execução.
func (r *runner) Consultar(id string) (domain.Execucao, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.execucoes[id]
	if !ok || r.expirada(e) {
		return domain.Execucao{}, false
	}
	return *e, true
}

func (r *runner) expirada(e *domain.Execucao) bool {
	return e.Finalizada != nil && r.agora().Sub(*e.Finalizada) > r.retencao
}

// descartarExpiradas exige r.mu travado para escrita.
func (r *runner) descartarExpiradas() {
	for id, e := range r.execucoes {
		if r.expirada(e) {
			delete(r.execucoes, id)
		}
	}
}

// Aguardar bloqueia até todas as execuções submetidas terminarem.
func (r *runner) Aguardar() {
	r.wg.Wait()
}
