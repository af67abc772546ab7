package tool

import (
	"fmt"

	"github.com/gridmind/gridmind/core"
)

// RegulationHit is one retrieved passage returned by the regulation tool.
type RegulationHit struct {
	ChunkID    string  `json:"chunk_id"`
	DocID      string  `json:"doc_id,omitempty"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	Provenance string  `json:"provenance"`
	Origin     string  `json:"origin,omitempty"`
}

// NewRegulationTool returns the query_regulations tool. It retrieves the
// passages most similar to the query from the regulatory corpus (ANEEL
// resolutions, PRODIST modules, technical norms) plus recorded learnings.
// It performs no writes and is safe to grant to read-only agents.
func NewRegulationTool() Tool {
	return NewFunctionTool(
		"query_regulations",
		"Search the regulatory knowledge base (ANEEL resolutions, PRODIST modules, "+
			"technical norms and recorded learnings) for passages relevant to a query. "+
			"Returns the best matching excerpts with similarity scores.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Natural language question or topic to search for",
				},
				"top_k": map[string]any{
					"type":        "integer",
					"description": "Maximum number of passages to return (default from config)",
				},
				"min_score": map[string]any{
					"type":        "number",
					"description": "Discard passages scoring below this similarity",
				},
				"doc_ids": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Restrict the search to these document ids",
				},
			},
			"required": []string{"query"},
		},
		queryRegulations,
	)
}

func queryRegulations(tc *core.ToolContext, args map[string]any) (any, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("query must be a non-empty string")
	}

	k := tc.Config().RetrievalK
	if raw, ok := args["top_k"].(float64); ok && int(raw) > 0 {
		k = int(raw)
	}

	var filters core.QueryFilters
	if raw, ok := args["min_score"].(float64); ok {
		filters.MinScore = raw
	}
	if raw, ok := args["doc_ids"].([]any); ok {
		for _, v := range raw {
			if id, ok := v.(string); ok && id != "" {
				filters.DocIDs = append(filters.DocIDs, id)
			}
		}
	}

	hits, err := tc.QueryIndex(query, k, filters)
	if err != nil {
		if core.IsRetrievalUnavailable(err) {
			return nil, &ToolError{
				Tool:    "query_regulations",
				Message: "retrieval backend unavailable, retry later: " + err.Error(),
				Code:    CodeExecution,
				Details: map[string]any{"retryable": true},
			}
		}

		return nil, err
	}

	results := make([]RegulationHit, 0, len(hits))
	for _, h := range hits {
		results = append(results, RegulationHit{
			ChunkID:    h.Chunk.ID,
			DocID:      h.Chunk.DocID,
			Text:       h.Chunk.Text,
			Score:      h.Score,
			Provenance: string(h.Chunk.Provenance),
			Origin:     h.Chunk.Origin,
		})
	}

	return map[string]any{
		"query":   query,
		"results": results,
		"count":   len(results),
	}, nil
}
