package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gridmind/gridmind/agent"
	"github.com/gridmind/gridmind/artifact"
	"github.com/gridmind/gridmind/core"
	"github.com/gridmind/gridmind/logging"
	"github.com/gridmind/gridmind/session"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Session persistence backend.
	SessionStore core.SessionStore
	// Artifact persistence backend.
	ArtifactStore core.ArtifactStore
	// Document index for retrieval and learnings.
	Index core.DocumentIndex
	// Config carries the turn, task and retrieval tunables.
	Config core.Config
	// Logging services.
	Logger logging.Logger
}

// Runner executes user turns against the coordinator and persists the
// results. Public methods are safe for concurrent use; turns on the same
// session are serialized, a second concurrent turn is rejected immediately
// with core.ErrTurnInFlight.
type Runner struct {
	coordinator *agent.Coordinator

	sessions  core.SessionStore
	artifacts core.ArtifactStore
	index     core.DocumentIndex
	cfg       core.Config
	logger    logging.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// New constructs a Runner with optional overrides. Defaults use in-memory
// stores, which suit tests and single-process deployments.
func New(coordinator *agent.Coordinator, optFns ...func(o *Options)) *Runner {
	opts := Options{
		SessionStore:  session.NewInMemoryStore(),
		ArtifactStore: artifact.NewInMemoryStore(),
		Config:        core.DefaultConfig(),
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		coordinator: coordinator,
		sessions:    opts.SessionStore,
		artifacts:   opts.ArtifactStore,
		index:       opts.Index,
		cfg:         opts.Config,
		logger:      opts.Logger,
		inFlight:    make(map[string]bool),
	}
}

// TurnOutput is the committed result of one user turn.
type TurnOutput struct {
	SessionID string
	// Turn is the assistant turn as persisted.
	Turn core.Turn
	// Response is the assistant text, possibly partial.
	Response string
	// Status reports how the turn concluded.
	Status core.TurnStatus
	// Gaps lists competences that could not contribute.
	Gaps []string
	// Artifacts lists artifact ids produced during the turn.
	Artifacts []string
	// Version is the session version after the commit.
	Version int64
}

// RunTurn executes one user turn end to end: persist the user turn, run the
// coordinator under the turn budget, persist the assistant turn. A session
// unknown to the store is created on first use.
func (r *Runner) RunTurn(ctx context.Context, sessionID, userID, userText string) (*TurnOutput, error) {
	if !r.acquire(sessionID) {
		return nil, core.ErrTurnInFlight
	}
	defer r.release(sessionID)

	sess, err := r.sessions.Load(ctx, sessionID)
	if errors.Is(err, core.ErrSessionNotFound) {
		sess, err = r.sessions.Create(ctx, sessionID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	userTurn := core.NewUserTurn(userText)
	version, _, err := r.appendWithRetry(ctx, sess, userTurn, nil)
	if err != nil {
		return nil, err
	}

	// Work from the committed snapshot so the turn context sees the user
	// turn it is answering.
	sess, err = r.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reload session: %w", err)
	}

	turnCtx, cancel, turnID := r.newTurnContext(ctx, sess)
	defer cancel()

	r.logger.Info("runner.turn.start", "session", sessionID, "turn", turnID)

	outcome, handleErr := r.coordinator.HandleTurn(turnCtx, userText)

	status := core.TurnComplete
	var response string
	var gaps []string
	var artifacts []string

	switch {
	case handleErr == nil:
		status = outcome.Status
		response = outcome.Response
		gaps = outcome.Gaps
		artifacts = outcome.Artifacts
		if errors.Is(turnCtx.Err(), context.DeadlineExceeded) {
			status = core.TurnIncomplete
		}
	case errors.Is(turnCtx.Err(), context.DeadlineExceeded):
		// Budget expired before anything usable was produced.
		status = core.TurnIncomplete
		response = partialNotice(r.cfg)
	default:
		return nil, fmt.Errorf("handle turn: %w", handleErr)
	}

	assistantTurn := core.NewAssistantTurn(userTurn.ID, response, status)
	assistantTurn.Artifacts = artifacts

	// The coordinator may have expired the turn context; commits use the
	// caller's context so a finished turn is never lost to the budget.
	newVersion, _, err := r.appendAtVersion(ctx, sess, version, assistantTurn, turnCtx.StateDelta())
	if err != nil {
		return nil, err
	}

	r.logger.Info("runner.turn.completed",
		"session", sessionID,
		"turn", turnID,
		"status", string(status),
		"tasks", taskCount(outcome),
	)

	return &TurnOutput{
		SessionID: sessionID,
		Turn:      assistantTurn,
		Response:  response,
		Status:    status,
		Gaps:      gaps,
		Artifacts: artifacts,
		Version:   newVersion,
	}, nil
}

func (r *Runner) newTurnContext(ctx context.Context, sess *core.Session) (*core.TurnContext, context.CancelFunc, string) {
	turnID := core.NewID()

	cancel := context.CancelFunc(func() {})
	if r.cfg.TurnBudget > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.cfg.TurnBudget)
	}

	turnCtx := core.NewTurnContext(ctx, turnID, sess, r.sessions, r.artifacts, r.index, r.cfg, r.logger)

	return turnCtx, cancel, turnID
}

// appendWithRetry commits a turn at the session's current version, retrying
// on version conflicts by reloading and reapplying up to SessionRetryLimit
// times. It returns the committed version and the freshest session snapshot.
func (r *Runner) appendWithRetry(ctx context.Context, sess *core.Session, turn core.Turn, delta map[string]interface{}) (int64, *core.Session, error) {
	return r.appendAtVersion(ctx, sess, sess.CurrentVersion(), turn, delta)
}

func (r *Runner) appendAtVersion(ctx context.Context, sess *core.Session, expected int64, turn core.Turn, delta map[string]interface{}) (int64, *core.Session, error) {
	sessionID := sess.ID

	for attempt := 0; attempt <= r.cfg.SessionRetryLimit; attempt++ {
		version, err := r.sessions.AppendTurn(ctx, sessionID, expected, turn, delta)
		if err == nil {
			return version, sess, nil
		}
		if !core.IsVersionConflict(err) {
			return 0, nil, fmt.Errorf("append turn: %w", err)
		}

		r.logger.Warn("runner.append.conflict", "session", sessionID, "attempt", attempt+1)

		reloaded, loadErr := r.sessions.Load(ctx, sessionID)
		if loadErr != nil {
			return 0, nil, fmt.Errorf("reload after conflict: %w", loadErr)
		}
		sess = reloaded
		expected = sess.CurrentVersion()
	}

	return 0, nil, &core.SessionConflictError{SessionID: sessionID, Attempts: r.cfg.SessionRetryLimit + 1}
}

func (r *Runner) acquire(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inFlight[sessionID] {
		return false
	}
	r.inFlight[sessionID] = true

	return true
}

func (r *Runner) release(sessionID string) {
	r.mu.Lock()
	delete(r.inFlight, sessionID)
	r.mu.Unlock()
}

func taskCount(outcome *agent.TurnOutcome) int {
	if outcome == nil {
		return 0
	}

	return len(outcome.Tasks)
}

func partialNotice(cfg core.Config) string {
	if len(cfg.Language) >= 2 && cfg.Language[:2] == "pt" {
		return "O tempo da rodada expirou antes de concluir a resposta. Resultado parcial indisponível; tente novamente."
	}

	return "The turn budget expired before a response could be completed. Please try again."
}
