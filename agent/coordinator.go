package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gridmind/gridmind/core"
)

// phase names one stage of a coordinated turn. Transitions are logged so a
// turn can be followed through the pipeline.
type phase string

const (
	phaseRouting     phase = "routing"
	phaseDelegating  phase = "delegating"
	phaseAggregating phase = "aggregating"
	phaseReviewing   phase = "reviewing"
	phaseResponding  phase = "responding"
)

// Review verdicts emitted by the reviewer.
const (
	VerdictApprove    = "approve"
	VerdictRedelegate = "redelegate"
	VerdictClarify    = "clarify"
)

// Review is the reviewer's structured judgment over an aggregated draft.
type Review struct {
	Verdict   string   `json:"verdict"`
	Feedback  string   `json:"feedback,omitempty"`
	Questions []string `json:"questions,omitempty"`
}

// TurnOutcome is what a coordinated turn produces: the response text, how
// the turn concluded, the tasks that ran (with results and traces), the
// flagged gaps, and every artifact the tasks persisted.
type TurnOutcome struct {
	Response  string
	Status    core.TurnStatus
	Tasks     []*core.Task
	Gaps      []string
	Artifacts []string
}

// Coordinator orchestrates one user turn across the specialists: it routes
// the request, delegates tasks concurrently, aggregates the results,
// submits the draft to the reviewer and composes the final response.
//
// A specialist failure never aborts the turn; the failed competence is
// flagged as a gap and the response proceeds with what succeeded. The
// reviewer can demand a bounded number of re-delegations or escalate to
// the user with clarifying questions.
type Coordinator struct {
	specialists map[string]SubAgent
	reviewer    SubAgent
}

// NewCoordinator wires the coordinator with its specialists and reviewer.
// A nil reviewer disables the review phase.
func NewCoordinator(reviewer SubAgent, specialists ...SubAgent) *Coordinator {
	byName := make(map[string]SubAgent, len(specialists))
	for _, s := range specialists {
		byName[s.Name()] = s
	}

	return &Coordinator{specialists: byName, reviewer: reviewer}
}

// HandleTurn runs the full phase sequence for one user request.
func (c *Coordinator) HandleTurn(turnCtx *core.TurnContext, userText string) (*TurnOutcome, error) {
	logger := turnCtx.Logger()
	cfg := turnCtx.Config

	c.enterPhase(turnCtx, phaseRouting)
	names := Route(userText, cfg.MaxRouteFanOut)
	var routed []string
	for _, name := range names {
		if _, ok := c.specialists[name]; ok {
			routed = append(routed, name)
		}
	}
	if len(routed) == 0 {
		return nil, fmt.Errorf("no specialist available for request")
	}

	logger.Info("coordinator.routing.completed", "turn", turnCtx.TurnID, "agents", strings.Join(routed, ","))

	c.enterPhase(turnCtx, phaseDelegating)
	tasks := make([]*core.Task, 0, len(routed))
	for _, name := range routed {
		tasks = append(tasks, core.NewTask(turnCtx.TurnID, name, userText, nil))
	}
	c.runTasks(turnCtx, tasks)

	// Aggregating and reviewing alternate over bounded re-delegation rounds.
	outcome := &TurnOutcome{Status: core.TurnComplete, Tasks: tasks}

	for round := 0; ; round++ {
		c.enterPhase(turnCtx, phaseAggregating)
		draft, gaps := c.aggregate(turnCtx, tasks)
		outcome.Gaps = gaps

		if !anySucceeded(tasks) {
			return nil, fmt.Errorf("all specialists failed: %s", strings.Join(gaps, "; "))
		}

		if c.reviewer == nil {
			outcome.Response = c.compose(cfg, draft, gaps, "")
			break
		}

		c.enterPhase(turnCtx, phaseReviewing)
		review := c.review(turnCtx, userText, draft, gaps)

		switch review.Verdict {
		case VerdictClarify:
			outcome.Status = core.TurnNeedsClarification
			outcome.Response = c.composeClarification(cfg, review.Questions)

		case VerdictRedelegate:
			if round < cfg.ReviewRedelegationLimit {
				logger.Info("coordinator.review.redelegate", "turn", turnCtx.TurnID, "round", round+1)
				c.redelegate(turnCtx, tasks, review.Feedback)
				continue
			}
			// Re-delegation budget spent; ship the draft with the
			// reviewer's reservation attached.
			outcome.Response = c.compose(cfg, draft, gaps, review.Feedback)

		default:
			outcome.Response = c.compose(cfg, draft, gaps, "")
		}

		break
	}

	c.enterPhase(turnCtx, phaseResponding)
	for _, task := range tasks {
		if task.Result != nil {
			outcome.Artifacts = append(outcome.Artifacts, task.Result.Artifacts...)
		}
	}

	logger.Info("coordinator.turn.completed",
		"turn", turnCtx.TurnID,
		"status", string(outcome.Status),
		"tasks", len(tasks),
		"gaps", len(outcome.Gaps),
	)

	return outcome, nil
}

func (c *Coordinator) enterPhase(turnCtx *core.TurnContext, p phase) {
	turnCtx.Logger().Debug("coordinator.phase", "turn", turnCtx.TurnID, "phase", string(p))
}

// anySucceeded reports whether at least one task produced a usable result.
func anySucceeded(tasks []*core.Task) bool {
	for _, task := range tasks {
		if task.Status == core.TaskSucceeded {
			return true
		}
	}
	return false
}

// runTasks executes the pending tasks concurrently, bounded by
// MaxConcurrentTasks. Failures are recorded on the task, never returned:
// partial results are still worth aggregating.
func (c *Coordinator) runTasks(turnCtx *core.TurnContext, tasks []*core.Task) {
	g := new(errgroup.Group)
	g.SetLimit(turnCtx.Config.MaxConcurrentTasks)

	for _, task := range tasks {
		if task.Status == core.TaskSucceeded {
			continue
		}
		g.Go(func() error {
			c.runTask(turnCtx, task)
			return nil
		})
	}

	_ = g.Wait()
}

// runTask drives one task through its agent with the per-task timeout and
// retry policy. Budget exhaustion and cancellation are terminal; timeouts
// and model errors retry up to TaskRetryLimit.
func (c *Coordinator) runTask(turnCtx *core.TurnContext, task *core.Task) {
	cfg := turnCtx.Config
	logger := turnCtx.Logger()

	ag := c.specialists[task.Agent]
	task.Status = core.TaskRunning

	var lastErr error
	for attempt := 0; attempt <= cfg.TaskRetryLimit; attempt++ {
		if attempt > 0 {
			task.Retries++
			logger.Info("coordinator.task.retry", "task", task.ID, "agent", task.Agent, "attempt", attempt)
		}

		result, err := handleWithTimeout(turnCtx, ag, task, cfg.TaskTimeout)
		if err == nil {
			task.Status = core.TaskSucceeded
			task.Result = result
			task.Updated = time.Now()
			return
		}
		lastErr = err

		var failed *core.TaskFailedError
		if errors.As(err, &failed) {
			if failed.Reason == core.TaskFailBudgetExceeded || failed.Reason == core.TaskFailCanceled {
				break
			}
		}
	}

	task.Status = core.TaskFailed
	task.Updated = time.Now()
	task.Result = &core.TaskResult{Output: lastErr.Error(), Confidence: 0}

	logger.Warn("coordinator.task.failed", "task", task.ID, "agent", task.Agent, "error", lastErr.Error())
}

// handleWithTimeout abandons a task that outlives its deadline. The handler
// goroutine keeps running until the turn context cancels it; its late result
// is discarded.
func handleWithTimeout(turnCtx *core.TurnContext, ag SubAgent, task *core.Task, timeout time.Duration) (*core.TaskResult, error) {
	type handleResult struct {
		result *core.TaskResult
		err    error
	}

	done := make(chan handleResult, 1)
	go func() {
		result, err := ag.Handle(turnCtx, task)
		done <- handleResult{result: result, err: err}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case res := <-done:
		return res.result, res.err
	case <-expired:
		return nil, &core.TaskFailedError{TaskID: task.ID, Agent: ag.Name(), Reason: core.TaskFailTimeout}
	case <-turnCtx.Done():
		return nil, &core.TaskFailedError{TaskID: task.ID, Agent: ag.Name(), Reason: core.TaskFailCanceled, Err: turnCtx.Err()}
	}
}

// redelegate resets tasks for another round, carrying the reviewer's
// feedback into each task input, and runs them again.
func (c *Coordinator) redelegate(turnCtx *core.TurnContext, tasks []*core.Task, feedback string) {
	for _, task := range tasks {
		task.Status = core.TaskPending
		task.Result = nil
		if feedback != "" {
			task.Input = task.Input + "\n\nReviewer feedback to address:\n" + feedback
		}
	}

	c.runTasks(turnCtx, tasks)
}

// aggregate merges successful task outputs into a draft and renders failed
// competences as gaps.
func (c *Coordinator) aggregate(turnCtx *core.TurnContext, tasks []*core.Task) (string, []string) {
	var (
		sections []string
		gaps     []string
	)

	for _, task := range tasks {
		if task.Status == core.TaskSucceeded && task.Result != nil {
			sections = append(sections, task.Result.Output)
			continue
		}

		reason := "failed"
		if task.Result != nil && task.Result.Output != "" {
			reason = task.Result.Output
		}
		gaps = append(gaps, fmt.Sprintf("%s: %s", task.Agent, reason))
	}

	turnCtx.Logger().Debug("coordinator.aggregate.completed", "sections", len(sections), "gaps", len(gaps))

	return strings.Join(sections, "\n\n"), gaps
}

// review submits the draft to the reviewer and parses its verdict. A broken
// reviewer never blocks the turn; the draft ships as approved best-effort.
func (c *Coordinator) review(turnCtx *core.TurnContext, userText, draft string, gaps []string) Review {
	input := fmt.Sprintf("User request:\n%s\n\nDraft response:\n%s", userText, draft)
	if len(gaps) > 0 {
		input += "\n\nKnown gaps:\n- " + strings.Join(gaps, "\n- ")
	}

	task := core.NewTask(turnCtx.TurnID, ReviewerName, input, nil)

	result, err := handleWithTimeout(turnCtx, c.reviewer, task, turnCtx.Config.TaskTimeout)
	if err != nil {
		turnCtx.Logger().Warn("coordinator.review.unavailable", "error", err.Error())
		return Review{Verdict: VerdictApprove}
	}

	review, err := parseReview(result.Output)
	if err != nil {
		turnCtx.Logger().Warn("coordinator.review.unparseable", "error", err.Error())
		return Review{Verdict: VerdictApprove}
	}

	return review
}

// parseReview extracts the reviewer's JSON object from its output. Models
// occasionally wrap JSON in prose or code fences; the first balanced object
// found is used.
func parseReview(output string) (Review, error) {
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start < 0 || end <= start {
		return Review{}, fmt.Errorf("no JSON object in review output")
	}

	var review Review
	if err := json.Unmarshal([]byte(output[start:end+1]), &review); err != nil {
		return Review{}, fmt.Errorf("decode review: %w", err)
	}

	switch review.Verdict {
	case VerdictApprove, VerdictRedelegate, VerdictClarify:
		return review, nil
	default:
		return Review{}, fmt.Errorf("unknown verdict %q", review.Verdict)
	}
}

func (c *Coordinator) compose(cfg core.Config, draft string, gaps []string, reservation string) string {
	response := draft
	if response == "" {
		response = glossary(cfg, "empty")
	}

	if len(gaps) > 0 {
		response += "\n\n" + glossary(cfg, "gaps") + "\n- " + strings.Join(gaps, "\n- ")
	}
	if reservation != "" {
		response += "\n\n" + glossary(cfg, "reservation") + " " + reservation
	}

	return response
}

func (c *Coordinator) composeClarification(cfg core.Config, questions []string) string {
	if len(questions) == 0 {
		return glossary(cfg, "clarify")
	}

	return glossary(cfg, "clarify") + "\n- " + strings.Join(questions, "\n- ")
}

// glossary returns the fixed connective phrases in the configured language.
// Specialist output already arrives in that language; these cover only the
// glue the coordinator itself writes.
func glossary(cfg core.Config, key string) string {
	pt := strings.HasPrefix(strings.ToLower(cfg.Language), "pt")

	switch key {
	case "gaps":
		if pt {
			return "Atenção: resposta parcial. Não foi possível concluir:"
		}
		return "Note: partial response. The following could not be completed:"
	case "reservation":
		if pt {
			return "Ressalva do revisor:"
		}
		return "Reviewer reservation:"
	case "clarify":
		if pt {
			return "Preciso de alguns esclarecimentos antes de responder:"
		}
		return "I need some clarification before answering:"
	case "empty":
		if pt {
			return "Não foi possível processar a solicitação no momento."
		}
		return "The request could not be processed at this time."
	}

	return ""
}
