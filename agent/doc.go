// Package agent implements the specialist sub-agents and the coordinator
// that orchestrates them.
//
// Every specialist shares the same model-driven loop (ModelAgent): resolve
// an instruction, converse with the language model, execute requested tool
// calls through a capability-scoped registry view, and return a uniform
// TaskResult with output, artifacts, a confidence estimate and a trace of
// every model and tool call made.
//
// Three specialists are provided:
//
//   - DataScientist: quantitative analysis of measurement data
//   - ElectricEngineer: regulatory interpretation and compliance reports
//   - Reviewer: read-only quality gate over aggregated drafts
//
// The Coordinator routes a user turn to one or more specialists, runs them
// concurrently, aggregates their results, submits the draft to the Reviewer
// and composes the final response.
package agent
