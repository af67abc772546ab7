package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridmind/gridmind/artifact"
	"github.com/gridmind/gridmind/core"
	"github.com/gridmind/gridmind/embed"
	"github.com/gridmind/gridmind/index"
	"github.com/gridmind/gridmind/internal/testutil"
	"github.com/gridmind/gridmind/model"
	"github.com/gridmind/gridmind/tool"
)

type fixture struct {
	llm      *model.Mock
	registry *tool.Registry
	turnCtx  *core.TurnContext
	index    *index.InMemory
}

func newFixture(t *testing.T, cfg core.Config) *fixture {
	t.Helper()

	m := embed.NewMock(32)
	ix := index.NewInMemory(m, index.WithChunking(8, 2))

	registry := tool.NewRegistry(
		tool.NewRegulationTool(),
		tool.NewLearningTool(),
		tool.NewPowerMetricsTool(),
		tool.NewReportTool(),
	)

	sess := core.NewSession("s1", "maria")
	turnCtx := core.NewTurnContext(context.Background(), "t1", sess, nil, artifact.NewInMemoryStore(), ix, cfg, nil)

	return &fixture{llm: model.NewMock(), registry: registry, turnCtx: turnCtx, index: ix}
}

func TestModelAgent_DirectAnswer(t *testing.T) {
	f := newFixture(t, core.DefaultConfig())
	ag := NewElectricEngineer(f.llm, f.registry)

	f.llm.Enqueue(model.Response{Text: "A THD limite é 10% para baixa tensão.", FinishReason: "stop"})

	task := core.NewTask("t1", ag.Name(), "qual o limite de THD?", nil)
	result, err := ag.Handle(f.turnCtx, task)
	require.NoError(t, err)
	assert.Equal(t, "A THD limite é 10% para baixa tensão.", result.Output)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, core.TraceModelCall, result.Trace[0].Kind)
	// No tool grounding lowers the self-assessment.
	assert.InDelta(t, 0.6, result.Confidence, 0.01)
}

func TestModelAgent_ToolLoop(t *testing.T) {
	f := newFixture(t, core.DefaultConfig())

	_, err := f.index.Ingest(f.turnCtx.Context, core.Document{
		ID:   "prodist-8",
		Text: "limite de distorcao harmonica total para baixa tensao conforme tabela",
	})
	require.NoError(t, err)

	ag := NewElectricEngineer(f.llm, f.registry)

	f.llm.EnqueueToolCall("query_regulations", `{"query": "limite de distorcao harmonica baixa tensao"}`)
	f.llm.Enqueue(model.Response{Text: "Conforme o PRODIST, o limite aplicável consta da tabela citada.", FinishReason: "stop"})

	task := core.NewTask("t1", ag.Name(), "qual o limite de distorção harmônica?", nil)
	result, err := ag.Handle(f.turnCtx, task)
	require.NoError(t, err)

	require.Len(t, result.Trace, 3)
	assert.Equal(t, core.TraceModelCall, result.Trace[0].Kind)
	assert.Equal(t, core.TraceToolCall, result.Trace[1].Kind)
	assert.Equal(t, "query_regulations", result.Trace[1].Name)
	assert.Equal(t, core.TraceModelCall, result.Trace[2].Kind)
	assert.InDelta(t, 0.9, result.Confidence, 0.01)

	// The tool result was fed back to the model as a tool message.
	reqs := f.llm.Requests()
	require.Len(t, reqs, 2)
	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Contains(t, last.Text, "results")
}

func TestModelAgent_BudgetExceeded(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.ToolCallBudget = 2

	f := newFixture(t, cfg)
	ag := NewDataScientist(f.llm, f.registry)

	for i := 0; i < 3; i++ {
		f.llm.EnqueueToolCall("power_metrics", `{"operation": "demand_factor", "peak_kw": 70, "installed_kw": 100}`)
	}

	task := core.NewTask("t1", ag.Name(), "calcule o fator de demanda repetidamente", nil)
	_, err := ag.Handle(f.turnCtx, task)
	require.Error(t, err)

	var failed *core.TaskFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, core.TaskFailBudgetExceeded, failed.Reason)
	assert.NotEmpty(t, failed.Trace)
}

func TestModelAgent_UnauthorizedCountsAgainstBudget(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.ToolCallBudget = 1

	f := newFixture(t, cfg)
	reviewer := NewReviewer(f.llm, f.registry)

	// The reviewer's scope excludes record_learning; the attempt fails but
	// still burns the budget.
	f.llm.EnqueueToolCall("record_learning", `{"insight": "tentativa indevida"}`)
	f.llm.EnqueueToolCall("query_regulations", `{"query": "qualquer"}`)

	task := core.NewTask("t1", reviewer.Name(), "revise", nil)
	_, err := reviewer.Handle(f.turnCtx, task)
	require.Error(t, err)

	var failed *core.TaskFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, core.TaskFailBudgetExceeded, failed.Reason)

	// The unauthorized call itself was traced with its error.
	var sawUnauthorized bool
	for _, step := range failed.Trace {
		if step.Kind == core.TraceToolCall && step.Name == "record_learning" {
			assert.Contains(t, step.Err, "UNAUTHORIZED")
			sawUnauthorized = true
		}
	}
	assert.True(t, sawUnauthorized)
}

func TestModelAgent_ModelError(t *testing.T) {
	f := newFixture(t, core.DefaultConfig())
	ag := NewElectricEngineer(f.llm, f.registry)

	f.llm.Fail(errors.New("backend unavailable"))

	task := core.NewTask("t1", ag.Name(), "qualquer pergunta", nil)
	_, err := ag.Handle(f.turnCtx, task)
	require.Error(t, err)

	var failed *core.TaskFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, core.TaskFailModelError, failed.Reason)
}

func TestModelAgent_ReportArtifactCollected(t *testing.T) {
	f := newFixture(t, core.DefaultConfig())
	ag := NewElectricEngineer(f.llm, f.registry)

	f.llm.EnqueueToolCall("save_report", `{
		"title": "Laudo de tensão",
		"sections": [{"heading": "Leitura", "body": "Dentro da faixa adequada."}]
	}`)
	f.llm.Enqueue(model.Response{Text: "Laudo salvo.", FinishReason: "stop"})

	task := core.NewTask("t1", ag.Name(), "gere o laudo", nil)
	result, err := ag.Handle(f.turnCtx, task)
	require.NoError(t, err)
	require.Len(t, result.Artifacts, 1)

	data, err := f.turnCtx.GetArtifact(result.Artifacts[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Laudo de tensão")
}

func TestModelAgent_HistoryBounded(t *testing.T) {
	m := embed.NewMock(32)
	ix := index.NewInMemory(m, index.WithChunking(8, 2))
	registry := tool.NewRegistry(tool.NewRegulationTool())

	sess := testutil.NewSessionBuilder("s1", "maria").
		Exchange("primeira pergunta", "primeira resposta").
		Exchange("segunda pergunta", "segunda resposta").
		Exchange("terceira pergunta", "terceira resposta").
		Build()
	turnCtx := core.NewTurnContext(context.Background(), "t1", sess, nil, artifact.NewInMemoryStore(), ix, core.DefaultConfig(), nil)

	llm := model.NewMock()
	llm.Enqueue(model.Response{Text: "ok", FinishReason: "stop"})

	ag := NewModelAgent("engineer", "bounded history agent", llm, registry.Scope("query_regulations"), func(o *ModelAgentOptions) {
		o.MaxHistoryMessages = 2
	})

	task := core.NewTask("t1", ag.Name(), "quarta pergunta", nil)
	_, err := ag.Handle(turnCtx, task)
	require.NoError(t, err)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	// Only the most recent exchange plus the task input survive the cap.
	require.Len(t, reqs[0].Messages, 3)
	assert.Equal(t, "terceira pergunta", reqs[0].Messages[0].Text)
	assert.Equal(t, "terceira resposta", reqs[0].Messages[1].Text)
	assert.Equal(t, "quarta pergunta", reqs[0].Messages[2].Text)
}
