package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridmind/gridmind/core"
)

// scriptedAgent is a SubAgent stub with deterministic behavior per call.
type scriptedAgent struct {
	BaseAgent
	results []func(task *core.Task) (*core.TaskResult, error)
	calls   int
}

func newScriptedAgent(name string, results ...func(task *core.Task) (*core.TaskResult, error)) *scriptedAgent {
	return &scriptedAgent{BaseAgent: NewBaseAgent(name, "scripted"), results: results}
}

func (a *scriptedAgent) Handle(_ *core.TurnContext, task *core.Task) (*core.TaskResult, error) {
	fn := a.results[len(a.results)-1]
	if a.calls < len(a.results) {
		fn = a.results[a.calls]
	}
	a.calls++

	return fn(task)
}

func succeedWith(output string) func(*core.Task) (*core.TaskResult, error) {
	return func(*core.Task) (*core.TaskResult, error) {
		return &core.TaskResult{Output: output, Confidence: 0.9}, nil
	}
}

func failWith(reason core.TaskFailReason) func(*core.Task) (*core.TaskResult, error) {
	return func(task *core.Task) (*core.TaskResult, error) {
		return nil, &core.TaskFailedError{TaskID: task.ID, Agent: task.Agent, Reason: reason}
	}
}

func approveReviewer() *scriptedAgent {
	return newScriptedAgent(ReviewerName, succeedWith(`{"verdict": "approve"}`))
}

func TestCoordinator_SingleAgentTurn(t *testing.T) {
	f := newFixture(t, core.DefaultConfig())

	engineer := newScriptedAgent(ElectricEngineerName, succeedWith("Conforme o PRODIST, a faixa é adequada."))
	coord := NewCoordinator(approveReviewer(), engineer)

	outcome, err := coord.HandleTurn(f.turnCtx, "a tensão está em conformidade com a norma?")
	require.NoError(t, err)
	assert.Equal(t, core.TurnComplete, outcome.Status)
	assert.Equal(t, "Conforme o PRODIST, a faixa é adequada.", outcome.Response)
	assert.Empty(t, outcome.Gaps)
	require.Len(t, outcome.Tasks, 1)
	assert.Equal(t, core.TaskSucceeded, outcome.Tasks[0].Status)
}

func TestCoordinator_AmbiguousFanOut(t *testing.T) {
	f := newFixture(t, core.DefaultConfig())

	ds := newScriptedAgent(DataScientistName, succeedWith("A média das medições é 218 V."))
	eng := newScriptedAgent(ElectricEngineerName, succeedWith("Dentro da faixa adequada do PRODIST."))
	coord := NewCoordinator(approveReviewer(), ds, eng)

	outcome, err := coord.HandleTurn(f.turnCtx, "analise as medições de tensão e a conformidade com o prodist")
	require.NoError(t, err)
	require.Len(t, outcome.Tasks, 2)
	assert.Contains(t, outcome.Response, "218 V")
	assert.Contains(t, outcome.Response, "faixa adequada")
}

func TestCoordinator_PartialFailureFlagsGap(t *testing.T) {
	f := newFixture(t, core.DefaultConfig())

	ds := newScriptedAgent(DataScientistName, failWith(core.TaskFailBudgetExceeded))
	eng := newScriptedAgent(ElectricEngineerName, succeedWith("Dentro da faixa adequada."))
	coord := NewCoordinator(approveReviewer(), ds, eng)

	outcome, err := coord.HandleTurn(f.turnCtx, "analise as medições de tensão e a conformidade com o prodist")
	require.NoError(t, err)
	assert.Equal(t, core.TurnComplete, outcome.Status)
	assert.Contains(t, outcome.Response, "Dentro da faixa adequada.")
	require.Len(t, outcome.Gaps, 1)
	assert.Contains(t, outcome.Gaps[0], DataScientistName)
	assert.Contains(t, outcome.Response, "resposta parcial")
}

func TestCoordinator_RetryOnModelError(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.TaskRetryLimit = 1

	f := newFixture(t, cfg)

	eng := newScriptedAgent(ElectricEngineerName,
		failWith(core.TaskFailModelError),
		succeedWith("Funcionou na segunda tentativa."),
	)
	coord := NewCoordinator(approveReviewer(), eng)

	outcome, err := coord.HandleTurn(f.turnCtx, "pergunta sobre norma")
	require.NoError(t, err)
	assert.Equal(t, "Funcionou na segunda tentativa.", outcome.Response)
	assert.Equal(t, 1, outcome.Tasks[0].Retries)
}

func TestCoordinator_BudgetExceededNotRetried(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.TaskRetryLimit = 2

	f := newFixture(t, cfg)

	eng := newScriptedAgent(ElectricEngineerName, failWith(core.TaskFailBudgetExceeded))
	coord := NewCoordinator(approveReviewer(), eng)

	outcome, err := coord.HandleTurn(f.turnCtx, "pergunta sobre norma")
	require.NoError(t, err)
	assert.Equal(t, core.TaskFailed, outcome.Tasks[0].Status)
	assert.Equal(t, 1, eng.calls)
}

func TestCoordinator_ReviewerRequestsRedelegation(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.ReviewRedelegationLimit = 1

	f := newFixture(t, cfg)

	eng := newScriptedAgent(ElectricEngineerName,
		succeedWith("Rascunho sem citações."),
		succeedWith("Rascunho revisado com citações do PRODIST."),
	)
	reviewer := newScriptedAgent(ReviewerName,
		succeedWith(`{"verdict": "redelegate", "feedback": "cite as normas"}`),
		succeedWith(`{"verdict": "approve"}`),
	)
	coord := NewCoordinator(reviewer, eng)

	outcome, err := coord.HandleTurn(f.turnCtx, "pergunta sobre norma")
	require.NoError(t, err)
	assert.Equal(t, "Rascunho revisado com citações do PRODIST.", outcome.Response)
	assert.Equal(t, 2, eng.calls)

	// The reviewer feedback was injected into the reworked task input.
	assert.Contains(t, outcome.Tasks[0].Input, "cite as normas")
}

func TestCoordinator_RedelegationBounded(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.ReviewRedelegationLimit = 1

	f := newFixture(t, cfg)

	eng := newScriptedAgent(ElectricEngineerName, succeedWith("Rascunho."))
	reviewer := newScriptedAgent(ReviewerName,
		succeedWith(`{"verdict": "redelegate", "feedback": "ainda insuficiente"}`),
	)
	coord := NewCoordinator(reviewer, eng)

	outcome, err := coord.HandleTurn(f.turnCtx, "pergunta sobre norma")
	require.NoError(t, err)
	// One rework round, then the draft ships with the reservation attached.
	assert.Equal(t, 2, eng.calls)
	assert.Equal(t, 2, reviewer.calls)
	assert.Contains(t, outcome.Response, "ainda insuficiente")
	assert.Equal(t, core.TurnComplete, outcome.Status)
}

func TestCoordinator_ReviewerClarifies(t *testing.T) {
	f := newFixture(t, core.DefaultConfig())

	eng := newScriptedAgent(ElectricEngineerName, succeedWith("Depende do nível de tensão."))
	reviewer := newScriptedAgent(ReviewerName,
		succeedWith(`{"verdict": "clarify", "questions": ["Qual o nível de tensão da instalação?"]}`),
	)
	coord := NewCoordinator(reviewer, eng)

	outcome, err := coord.HandleTurn(f.turnCtx, "pergunta sobre norma")
	require.NoError(t, err)
	assert.Equal(t, core.TurnNeedsClarification, outcome.Status)
	assert.Contains(t, outcome.Response, "Qual o nível de tensão da instalação?")
}

func TestCoordinator_ReviewerFailureIsBestEffort(t *testing.T) {
	f := newFixture(t, core.DefaultConfig())

	eng := newScriptedAgent(ElectricEngineerName, succeedWith("Resposta técnica."))
	reviewer := newScriptedAgent(ReviewerName, failWith(core.TaskFailModelError))
	coord := NewCoordinator(reviewer, eng)

	outcome, err := coord.HandleTurn(f.turnCtx, "pergunta sobre norma")
	require.NoError(t, err)
	assert.Equal(t, core.TurnComplete, outcome.Status)
	assert.Equal(t, "Resposta técnica.", outcome.Response)
}

func TestCoordinator_TaskTimeout(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.TaskTimeout = 20 * time.Millisecond
	cfg.TaskRetryLimit = 0

	f := newFixture(t, cfg)

	slow := newScriptedAgent(ElectricEngineerName, func(*core.Task) (*core.TaskResult, error) {
		time.Sleep(200 * time.Millisecond)
		return &core.TaskResult{Output: "tarde demais"}, nil
	})
	coord := NewCoordinator(approveReviewer(), slow)

	outcome, err := coord.HandleTurn(f.turnCtx, "pergunta sobre norma")
	require.NoError(t, err)
	assert.Equal(t, core.TaskFailed, outcome.Tasks[0].Status)
	require.Len(t, outcome.Gaps, 1)
	assert.Contains(t, outcome.Gaps[0], string(core.TaskFailTimeout))
}

func TestParseReview(t *testing.T) {
	review, err := parseReview("Aqui está minha avaliação:\n```json\n{\"verdict\": \"approve\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, VerdictApprove, review.Verdict)

	_, err = parseReview("sem json nenhum")
	assert.Error(t, err)

	_, err = parseReview(`{"verdict": "maybe"}`)
	assert.Error(t, err)
}

func TestCoordinator_AllSpecialistsFail(t *testing.T) {
	f := newFixture(t, core.DefaultConfig())

	ds := newScriptedAgent(DataScientistName, failWith(core.TaskFailModelError))
	eng := newScriptedAgent(ElectricEngineerName, failWith(core.TaskFailModelError))
	coord := NewCoordinator(approveReviewer(), ds, eng)

	_, err := coord.HandleTurn(f.turnCtx, "analise as medições de tensão e a conformidade com o prodist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all specialists failed")
}
