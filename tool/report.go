package tool

import (
	"encoding/json"
	"fmt"

	"github.com/gridmind/gridmind/core"
	"github.com/gridmind/gridmind/report"
)

// NewReportTool returns the save_report tool. It assembles a structured
// compliance report from the model supplied sections, validates it and
// persists the JSON as a content-addressed artifact of the session. The
// artifact id is returned so the final response can reference it.
func NewReportTool() Tool {
	return NewFunctionTool(
		"save_report",
		"Assemble and persist a structured compliance report. Provide a title, an "+
			"introduction, analysis sections with citations to the norms they rely on, "+
			"and final considerations. Returns the stored artifact id.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{
					"type":        "string",
					"description": "Report title",
				},
				"introduction": map[string]any{
					"type":        "string",
					"description": "Opening context for the report",
				},
				"sections": map[string]any{
					"type": "array",
					"description": "Analysis sections. Each item: {heading, body, " +
						"citations: [{norm, section, excerpt, chunk_id}], " +
						"charts: [{kind, title, series}]}",
				},
				"final_considerations": map[string]any{
					"type":        "string",
					"description": "Closing assessment and recommendations",
				},
				"bibliography": map[string]any{
					"type":        "array",
					"description": "Extra bibliography entries beyond cited norms",
				},
			},
			"required": []string{"title", "sections"},
		},
		saveReport,
	)
}

func saveReport(tc *core.ToolContext, args map[string]any) (any, error) {
	// Round-trip through JSON so the loosely typed argument maps land in the
	// report structs with one code path.
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode report arguments: %w", err)
	}

	var rpt report.Report
	if err := json.Unmarshal(raw, &rpt); err != nil {
		return nil, fmt.Errorf("decode report arguments: %w", err)
	}

	rpt.SessionID = tc.SessionID()
	rpt.Language = tc.Config().Language

	data, err := rpt.Marshal()
	if err != nil {
		return nil, err
	}

	id, err := tc.SaveArtifact(core.Artifact{
		Name:     rpt.Title,
		MIMEType: "application/json",
	}, data)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"artifact_id": id,
		"title":       rpt.Title,
		"sections":    len(rpt.Sections),
		"saved":       true,
	}, nil
}
