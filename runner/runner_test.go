package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridmind/gridmind/agent"
	"github.com/gridmind/gridmind/core"
	"github.com/gridmind/gridmind/session"
)

type stubAgent struct {
	agent.BaseAgent
	handle func(task *core.Task) (*core.TaskResult, error)
}

func newStubAgent(name string, handle func(task *core.Task) (*core.TaskResult, error)) *stubAgent {
	return &stubAgent{BaseAgent: agent.NewBaseAgent(name, "stub"), handle: handle}
}

func (a *stubAgent) Handle(_ *core.TurnContext, task *core.Task) (*core.TaskResult, error) {
	return a.handle(task)
}

func echoEngineer(output string) *stubAgent {
	return newStubAgent(agent.ElectricEngineerName, func(*core.Task) (*core.TaskResult, error) {
		return &core.TaskResult{Output: output, Confidence: 0.9}, nil
	})
}

func approver() *stubAgent {
	return newStubAgent(agent.ReviewerName, func(*core.Task) (*core.TaskResult, error) {
		return &core.TaskResult{Output: `{"verdict": "approve"}`, Confidence: 0.9}, nil
	})
}

func TestRunTurn_PersistsBothTurns(t *testing.T) {
	store := session.NewInMemoryStore()
	coord := agent.NewCoordinator(approver(), echoEngineer("A faixa adequada é 202 V a 231 V."))

	r := New(coord, func(o *Options) {
		o.SessionStore = store
	})

	out, err := r.RunTurn(context.Background(), "s1", "maria", "qual a faixa adequada de tensão?")
	require.NoError(t, err)
	assert.Equal(t, core.TurnComplete, out.Status)
	assert.Equal(t, "A faixa adequada é 202 V a 231 V.", out.Response)
	assert.Equal(t, int64(2), out.Version)

	sess, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	turns := sess.GetTurns()
	require.Len(t, turns, 2)
	assert.Equal(t, core.TurnRoleUser, turns[0].Role)
	assert.Equal(t, core.TurnRoleAssistant, turns[1].Role)
	assert.Equal(t, turns[0].ID, turns[1].ParentID)
	assert.Equal(t, core.TurnComplete, turns[1].Status)
}

func TestRunTurn_SecondTurnSameSessionSequential(t *testing.T) {
	coord := agent.NewCoordinator(approver(), echoEngineer("resposta"))
	r := New(coord)

	_, err := r.RunTurn(context.Background(), "s1", "maria", "primeira pergunta sobre a norma")
	require.NoError(t, err)

	out, err := r.RunTurn(context.Background(), "s1", "maria", "segunda pergunta sobre a norma")
	require.NoError(t, err)
	assert.Equal(t, int64(4), out.Version)
}

func TestRunTurn_ConcurrentTurnRejected(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var startedOnce sync.Once

	slow := newStubAgent(agent.ElectricEngineerName, func(*core.Task) (*core.TaskResult, error) {
		startedOnce.Do(func() { close(started) })
		<-release
		return &core.TaskResult{Output: "ok"}, nil
	})
	coord := agent.NewCoordinator(approver(), slow)
	r := New(coord)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := r.RunTurn(context.Background(), "s1", "maria", "pergunta lenta sobre a norma")
		assert.NoError(t, err)
	}()

	<-started
	_, err := r.RunTurn(context.Background(), "s1", "maria", "pergunta concorrente")
	assert.ErrorIs(t, err, core.ErrTurnInFlight)

	close(release)
	wg.Wait()

	// A different session is not blocked by s1's turn.
	_, err = r.RunTurn(context.Background(), "s2", "joao", "pergunta em outra sessão sobre a norma")
	assert.NoError(t, err)
}

func TestRunTurn_BudgetExpiryYieldsIncomplete(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.TurnBudget = 30 * time.Millisecond
	cfg.TaskTimeout = time.Second
	cfg.TaskRetryLimit = 0

	slow := newStubAgent(agent.ElectricEngineerName, func(*core.Task) (*core.TaskResult, error) {
		time.Sleep(300 * time.Millisecond)
		return &core.TaskResult{Output: "tarde"}, nil
	})
	coord := agent.NewCoordinator(nil, slow)

	r := New(coord, func(o *Options) { o.Config = cfg })

	out, err := r.RunTurn(context.Background(), "s1", "maria", "pergunta sobre a norma")
	require.NoError(t, err)
	assert.Equal(t, core.TurnIncomplete, out.Status)

	// The incomplete turn is still committed to the session.
	sess, err := r.sessions.Load(context.Background(), "s1")
	require.NoError(t, err)
	turns := sess.GetTurns()
	require.Len(t, turns, 2)
	assert.Equal(t, core.TurnIncomplete, turns[1].Status)
}

// conflictingStore wraps a SessionStore and injects version conflicts on the
// first n AppendTurn calls for assistant turns.
type conflictingStore struct {
	core.SessionStore
	mu        sync.Mutex
	remaining int
}

func (s *conflictingStore) AppendTurn(ctx context.Context, sessionID string, expectedVersion int64, turn core.Turn, stateDelta map[string]interface{}) (int64, error) {
	s.mu.Lock()
	inject := turn.Role == core.TurnRoleAssistant && s.remaining > 0
	if inject {
		s.remaining--
	}
	s.mu.Unlock()

	if inject {
		return 0, &core.VersionConflictError{SessionID: sessionID, Expected: expectedVersion, Actual: expectedVersion + 1}
	}

	return s.SessionStore.AppendTurn(ctx, sessionID, expectedVersion, turn, stateDelta)
}

func TestRunTurn_RetriesVersionConflict(t *testing.T) {
	store := &conflictingStore{SessionStore: session.NewInMemoryStore(), remaining: 2}
	coord := agent.NewCoordinator(approver(), echoEngineer("resposta"))

	r := New(coord, func(o *Options) { o.SessionStore = store })

	out, err := r.RunTurn(context.Background(), "s1", "maria", "pergunta sobre a norma")
	require.NoError(t, err)
	assert.Equal(t, core.TurnComplete, out.Status)

	sess, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, sess.GetTurns(), 2)
}

func TestRunTurn_ConflictRetriesExhausted(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.SessionRetryLimit = 2

	store := &conflictingStore{SessionStore: session.NewInMemoryStore(), remaining: 100}
	coord := agent.NewCoordinator(approver(), echoEngineer("resposta"))

	r := New(coord, func(o *Options) {
		o.SessionStore = store
		o.Config = cfg
	})

	_, err := r.RunTurn(context.Background(), "s1", "maria", "pergunta sobre a norma")
	require.Error(t, err)

	var conflict *core.SessionConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 3, conflict.Attempts)
}
