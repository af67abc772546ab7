package tool

import (
	"fmt"
	"strings"

	"github.com/gridmind/gridmind/core"
)

// NewLearningTool returns the record_learning tool. It persists a validated
// insight into the knowledge base so later retrieval queries can surface it.
// The stored chunk is tagged with the recording agent and task, and the tool
// is rejected for read-only agents.
func NewLearningTool() Tool {
	return NewFunctionTool(
		"record_learning",
		"Persist a validated insight or conclusion into the knowledge base so future "+
			"queries can retrieve it. Use for non-obvious findings confirmed during analysis, "+
			"not for restating regulation text.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"insight": map[string]any{
					"type":        "string",
					"description": "Self-contained statement of the insight to remember",
				},
			},
			"required": []string{"insight"},
		},
		recordLearning,
	)
}

func recordLearning(tc *core.ToolContext, args map[string]any) (any, error) {
	insight, _ := args["insight"].(string)
	insight = strings.TrimSpace(insight)
	if insight == "" {
		return nil, fmt.Errorf("insight must be a non-empty string")
	}

	id, err := tc.RecordLearning(insight)
	if err != nil {
		return nil, err
	}

	return map[string]any{"chunk_id": id, "recorded": true}, nil
}
