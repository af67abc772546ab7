// Package report defines the structured compliance report produced by
// analysis turns. Reports are serialized to JSON and persisted as
// content-addressed artifacts.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Citation references a regulatory source backing a section of analysis.
type Citation struct {
	Norm    string `json:"norm"`              // e.g. "REN 956/2021" or "PRODIST Modulo 8"
	Section string `json:"section,omitempty"` // Article, clause or table
	Excerpt string `json:"excerpt,omitempty"` // Short supporting quote
	ChunkID string `json:"chunk_id,omitempty"`
}

// ChartSuggestion describes a visualization the section author recommends.
// Rendering is left to the consumer.
type ChartSuggestion struct {
	Kind   string `json:"kind"` // line, bar, histogram
	Title  string `json:"title"`
	Series string `json:"series,omitempty"`
}

// Section is one titled block of analysis with its supporting citations.
type Section struct {
	Heading   string            `json:"heading"`
	Body      string            `json:"body"`
	Citations []Citation        `json:"citations,omitempty"`
	Charts    []ChartSuggestion `json:"charts,omitempty"`
}

// Report is a complete compliance report.
type Report struct {
	Title               string    `json:"title"`
	SessionID           string    `json:"session_id,omitempty"`
	Language            string    `json:"language,omitempty"`
	GeneratedAt         time.Time `json:"generated_at"`
	Introduction        string    `json:"introduction,omitempty"`
	Sections            []Section `json:"sections"`
	FinalConsiderations string    `json:"final_considerations,omitempty"`
	Bibliography        []string  `json:"bibliography,omitempty"`
}

// Validate checks the minimum structure before persisting.
func (r *Report) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("report title is required")
	}
	if len(r.Sections) == 0 {
		return fmt.Errorf("report must have at least one section")
	}
	for i, s := range r.Sections {
		if strings.TrimSpace(s.Heading) == "" {
			return fmt.Errorf("section %d: heading is required", i)
		}
		if strings.TrimSpace(s.Body) == "" {
			return fmt.Errorf("section %d: body is required", i)
		}
	}

	return nil
}

// Normalize fills derived fields and deduplicates the bibliography from
// section citations so every cited norm appears exactly once.
func (r *Report) Normalize() {
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC()
	}

	seen := map[string]bool{}
	for _, entry := range r.Bibliography {
		seen[entry] = true
	}
	for _, s := range r.Sections {
		for _, c := range s.Citations {
			entry := c.Norm
			if c.Section != "" {
				entry = c.Norm + ", " + c.Section
			}
			if entry != "" && !seen[entry] {
				seen[entry] = true
				r.Bibliography = append(r.Bibliography, entry)
			}
		}
	}
}

// Marshal validates, normalizes and serializes the report to indented JSON.
func (r *Report) Marshal() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.Normalize()

	return json.MarshalIndent(r, "", "  ")
}

// Unmarshal parses a serialized report.
func Unmarshal(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}

	return &r, nil
}
