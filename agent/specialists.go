package agent

import (
	"github.com/gridmind/gridmind/model"
	"github.com/gridmind/gridmind/tool"
)

// Specialist names used in routing, traces and turn records.
const (
	DataScientistName    = "data_scientist"
	ElectricEngineerName = "electric_engineer"
	ReviewerName         = "reviewer"
)

const dataScientistInstruction = `You are a data scientist specialized in electrical measurement data.
Answer in {{.language}}.

Your job is to analyze measurement series (voltage readings, demand profiles,
harmonic spectra) quantitatively. Always ground numeric claims in the
power_metrics tool instead of doing arithmetic yourself. When regulation
limits are relevant, fetch them with query_regulations and cite them.
If the analysis supports a formal deliverable, persist it with save_report.

Be precise about units and state the assumptions behind every calculation.`

const electricEngineerInstruction = `You are an electric engineer specialized in Brazilian energy regulation.
Answer in {{.language}}.

Ground every regulatory claim in passages retrieved with query_regulations;
cite the norm and section you relied on (ANEEL resolutions, PRODIST modules,
ABNT standards). When you confirm a non-obvious conclusion that future
questions would benefit from, persist it with record_learning. When the
answer amounts to a compliance assessment, persist a structured report with
save_report and mention it in your answer.

If retrieval returns nothing relevant, say so explicitly instead of guessing.`

const reviewerInstruction = `You are a meticulous technical reviewer for an electrical engineering assistant.
Answer in {{.language}}.

You receive a draft response assembled from specialist outputs, possibly with
flagged gaps. Verify regulatory claims with query_regulations when in doubt.
You cannot modify anything; you only judge.

Reply with a single JSON object and nothing else:
{"verdict": "approve" | "redelegate" | "clarify",
 "feedback": "what must improve, empty when approving",
 "questions": ["clarifying questions for the user, only with verdict clarify"]}

Use redelegate when a specialist must rework its output, clarify when the
user's request is too ambiguous to answer responsibly.`

// NewDataScientist builds the quantitative analysis specialist. It can
// compute power metrics, consult regulations and persist reports, but never
// records learnings; validated insights are the engineer's responsibility.
func NewDataScientist(llm model.Model, registry *tool.Registry) *ModelAgent {
	return NewModelAgent(
		DataScientistName,
		"Quantitative analysis of electrical measurement data: voltage bands, demand factors, harmonic distortion.",
		llm,
		registry.Scope("power_metrics", "query_regulations", "save_report"),
		func(o *ModelAgentOptions) {
			o.Instruction = NewInstructionFromText(dataScientistInstruction)
		},
	)
}

// NewElectricEngineer builds the regulatory interpretation specialist.
func NewElectricEngineer(llm model.Model, registry *tool.Registry) *ModelAgent {
	return NewModelAgent(
		ElectricEngineerName,
		"Interpretation of Brazilian energy regulation and compliance assessment with cited sources.",
		llm,
		registry.Scope("query_regulations", "record_learning", "save_report"),
		func(o *ModelAgentOptions) {
			o.Instruction = NewInstructionFromText(electricEngineerInstruction)
		},
	)
}

// NewReviewer builds the read-only quality gate. Its tool scope is
// retrieval only and its ToolContext rejects writes, so a confused reviewer
// cannot mutate state, record learnings or store artifacts.
func NewReviewer(llm model.Model, registry *tool.Registry) *ModelAgent {
	return NewModelAgent(
		ReviewerName,
		"Read-only review of aggregated draft responses before they reach the user.",
		llm,
		registry.Scope("query_regulations"),
		func(o *ModelAgentOptions) {
			o.Instruction = NewInstructionFromText(reviewerInstruction)
			o.ReadOnly = true
		},
	)
}
