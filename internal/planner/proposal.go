package planner

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Proposal is the parsed form of a model-proposed plan payload. Fields are
// best-effort: anything the payload got wrong is simply absent and falls back
// to the deterministic defaults during Normalize.
type Proposal struct {
	Sections []ProposalSection
}

// ProposalSection mirrors one entry of the raw payload. TargetChars is nil
// when missing or unparseable.
type ProposalSection struct {
	Title           string
	TargetChars     *int
	MinTables       int
	MinFigures      int
	KeyPoints       []string
	Figures         []map[string]any
	Tables          []map[string]any
	EvidenceQueries []string
}

const proposalSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["sections"],
  "properties": {
    "sections": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title"],
        "properties": {
          "title": {"type": "string"},
          "target_chars": {"type": ["integer", "number", "string"]},
          "min_tables": {"type": ["integer", "number", "string"]},
          "min_figures": {"type": ["integer", "number", "string"]},
          "key_points": {"type": "array"},
          "figures": {"type": "array"},
          "tables": {"type": "array"},
          "evidence_queries": {"type": "array"}
        }
      }
    }
  }
}`

var (
	proposalSchemaOnce sync.Once
	proposalSchema     *jsonschema.Schema
	proposalSchemaErr  error
)

func compiledProposalSchema() (*jsonschema.Schema, error) {
	proposalSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("proposal.schema.json", strings.NewReader(proposalSchemaJSON)); err != nil {
			proposalSchemaErr = err
			return
		}
		proposalSchema, proposalSchemaErr = compiler.Compile("proposal.schema.json")
	})
	return proposalSchema, proposalSchemaErr
}

// ParseProposal extracts and validates a plan payload from raw model output.
// The payload may be wrapped in markdown fences or surrounding prose. A nil
// result means "no usable proposal"; callers degrade to the default plan
// rather than treating it as an error.
func ParseProposal(raw string) (*Proposal, error) {
	block := ExtractJSONBlock(raw)
	if block == "" {
		return nil, fmt.Errorf("no JSON object found in payload")
	}

	var payload any
	if err := json.Unmarshal([]byte(block), &payload); err != nil {
		return nil, fmt.Errorf("decode proposal: %w", err)
	}

	schema, err := compiledProposalSchema()
	if err != nil {
		return nil, fmt.Errorf("compile proposal schema: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return nil, fmt.Errorf("validate proposal: %w", err)
	}

	root, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("proposal payload is not an object")
	}
	rawSections, _ := root["sections"].([]any)

	out := &Proposal{}
	for _, item := range rawSections {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		title := strings.TrimSpace(asString(entry["title"]))
		if title == "" {
			continue
		}
		out.Sections = append(out.Sections, ProposalSection{
			Title:           title,
			TargetChars:     asIntPtr(entry["target_chars"]),
			MinTables:       asNonNegInt(entry["min_tables"]),
			MinFigures:      asNonNegInt(entry["min_figures"]),
			KeyPoints:       asStringList(entry["key_points"]),
			Figures:         asObjectList(entry["figures"]),
			Tables:          asObjectList(entry["tables"]),
			EvidenceQueries: asStringList(entry["evidence_queries"]),
		})
	}
	return out, nil
}

// ExtractJSONBlock strips code fences and returns the outermost {...} object
// embedded in model output, or "" when none is present.
func ExtractJSONBlock(text string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asIntPtr(v any) *int {
	switch t := v.(type) {
	case float64:
		n := int(t)
		return &n
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return &n
		}
	}
	return nil
}

func asNonNegInt(v any) int {
	if p := asIntPtr(v); p != nil && *p > 0 {
		return *p
	}
	return 0
}

func asStringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(asString(item)); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func asObjectList(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
