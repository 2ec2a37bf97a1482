// Package toolschema is the Tool-call schema registry (spec.md 4.4):
// first-class JSON-schema declarations for every structured LLM call the
// core makes, so that "structured output" always means a tool call, never
// prose parsing.
//
// Grounded on steveyegge-vc's internal/repl/conversation_tools.go, which
// declares each tool as an anthropic.ToolParam{Name, Description,
// InputSchema: anthropic.ToolInputSchemaParam{Properties, Required}}. The
// registry here generalizes that shape to a provider-neutral
// map[string]any JSON schema — the Gateway's provider adapters translate
// a Schema into whichever SDK-specific tool type their provider wants
// (anthropic.ToolUnionParam, openai.ChatCompletionToolParam, Gemini's
// FunctionDeclaration), so the schema is declared exactly once per
// operation regardless of how many providers can serve it.
package toolschema

// Schema is a provider-neutral tool-call declaration.
type Schema struct {
	Name        string
	Description string
	Parameters  map[string]any // a JSON Schema object: {"type": "object", "properties": {...}, "required": [...]}
}

// RecordAnalysisWithWork is the schema the Analysis Agent (spec.md 4.6)
// forces the model to call: it must emit scores, derived metrics,
// evidence quotes with offsets, the code it claims to have executed, and
// that code's claimed output — never free text.
var RecordAnalysisWithWork = Schema{
	Name:        "record_analysis_with_work",
	Description: "Record the dimension scores, derived metrics, evidence, and executed code for one document.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"scores": map[string]any{
				"type":        "object",
				"description": "Map of dimension name to {raw, salience, confidence}, each in [0,1].",
				"additionalProperties": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"raw":        map[string]any{"type": "number", "minimum": 0, "maximum": 1},
						"salience":   map[string]any{"type": "number", "minimum": 0, "maximum": 1},
						"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					},
					"required": []string{"raw", "salience", "confidence"},
				},
			},
			"derived_metrics": map[string]any{
				"type":                 "object",
				"description":          "Map of metric name to its computed numeric value.",
				"additionalProperties": map[string]any{"type": "number"},
			},
			"evidence": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"dimension": map[string]any{"type": "string"},
						"quote":     map[string]any{"type": "string"},
						"source":    map[string]any{"type": "string"},
						"offset":    map[string]any{"type": "integer"},
					},
					"required": []string{"dimension", "quote", "source", "offset"},
				},
			},
			"code":           map[string]any{"type": "string", "description": "The code executed to compute derived_metrics."},
			"claimed_output": map[string]any{"type": "string", "description": "The claimed stdout of executing code."},
		},
		"required": []string{"scores", "derived_metrics", "evidence", "code", "claimed_output"},
	},
}

// RecordAttestation is the schema the Verification Agent (spec.md 4.7)
// forces the verifier model to call.
var RecordAttestation = Schema{
	Name:        "record_attestation",
	Description: "Record the result of independently re-executing a prior analysis's claimed code.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"success":   map[string]any{"type": "boolean"},
			"reasoning": map[string]any{"type": "string"},
			"re_execution_output": map[string]any{"type": "string"},
			"re_executed_metrics": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "number"},
			},
		},
		"required": []string{"success", "reasoning"},
	},
}

// GenerateQueries is the schema used by the Sequential Synthesis Agent's
// query-generation pass (spec.md 4.10), constrained to 3–5 queries
// (SPEC_FULL.md section C.5).
var GenerateQueries = Schema{
	Name:        "generate_queries",
	Description: "Generate 3 to 5 search queries for the Knowledge Index relevant to the current synthesis stage.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"queries": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": 3,
				"maxItems": 5,
			},
		},
		"required": []string{"queries"},
	},
}

// Registry holds every schema by name for lookup at a Gateway call site.
var Registry = map[string]Schema{
	RecordAnalysisWithWork.Name: RecordAnalysisWithWork,
	RecordAttestation.Name:      RecordAttestation,
	GenerateQueries.Name:        GenerateQueries,
}

// Get looks up a schema by name.
func Get(name string) (Schema, bool) {
	s, ok := Registry[name]
	return s, ok
}
