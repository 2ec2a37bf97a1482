// Package artifact defines the typed, content-addressed records that flow
// through the experiment execution core. Every artifact is an immutable
// byte blob identified by the SHA-256 of its canonical serialization; the
// Go types here are what producers build before sealing, and what
// consumers get back after a CAS Get.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies which of the fixed artifact kinds a blob represents.
type Type string

const (
	TypeCorpusDocument   Type = "corpus_document"
	TypeFrameworkSpec    Type = "framework_spec"
	TypeExperimentConfig Type = "experiment_config"
	TypeAnalysisResult   Type = "analysis_result"
	TypeWork             Type = "work"
	TypeAttestation      Type = "attestation"
	TypeStatistics       Type = "statistics"
	TypeSynthesisStep    Type = "synthesis_step"
	TypeFinalReport      Type = "final_report"
	TypeAuditEvent       Type = "audit_event"
	TypeKnowledgeIndex   Type = "knowledge_index"
)

// Metadata is the side-car record that accompanies every sealed blob. It is
// never part of the hashed content — two puts of the same bytes with
// different metadata collapse to one blob and a merged metadata record,
// per spec.md 4.1.
type Metadata struct {
	ArtifactType      Type           `json:"artifact_type"`
	CreatedAt         time.Time      `json:"created_at"`
	ProducerComponent string         `json:"producer_component"`
	ProducerModel     string         `json:"producer_model,omitempty"`
	Parents           []string       `json:"parents"`
	CustomFields      map[string]any `json:"custom_fields,omitempty"`
}

// Merge extends m with fields from other, never overwriting an existing
// non-zero field — provenance only ever grows. Parents are unioned.
func (m Metadata) Merge(other Metadata) Metadata {
	out := m
	if out.ArtifactType == "" {
		out.ArtifactType = other.ArtifactType
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = other.CreatedAt
	}
	if out.ProducerComponent == "" {
		out.ProducerComponent = other.ProducerComponent
	}
	if out.ProducerModel == "" {
		out.ProducerModel = other.ProducerModel
	}
	out.Parents = unionStrings(out.Parents, other.Parents)
	if out.CustomFields == nil {
		out.CustomFields = map[string]any{}
	}
	for k, v := range other.CustomFields {
		if _, exists := out.CustomFields[k]; !exists {
			out.CustomFields[k] = v
		}
	}
	return out
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Seal canonically serializes v (a typed artifact payload) and returns the
// bytes plus their content id. Canonicalization relies on json.Marshal's
// guarantee that struct fields serialize in declaration order and map keys
// serialize sorted lexicographically — sufficient determinism for the
// payload shapes in this package, none of which use non-string map keys.
func Seal(v any) (content []byte, id string, err error) {
	content, err = json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("artifact: canonicalize: %w", err)
	}
	return content, ID(content), nil
}

// ID computes the content address of raw bytes.
func ID(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Dimension is one declared scoring axis of a framework.
type Dimension struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	ScaleMin    float64 `json:"scale_min" yaml:"scale_min"`
	ScaleMax    float64 `json:"scale_max" yaml:"scale_max"`
}

// FrameworkSpec is the payload of a framework_spec artifact.
type FrameworkSpec struct {
	Name       string      `json:"name"`
	Version    string      `json:"version"`
	Dimensions []Dimension `json:"dimensions"`
}

// CorpusDocument is the payload of a corpus_document artifact.
type CorpusDocument struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Text       string `json:"text"`
}

// Hypothesis is one researcher-authored claim under test.
type Hypothesis struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Statement string `json:"statement" yaml:"statement"`
}

// ExperimentConfig is the payload of an experiment_config artifact.
type ExperimentConfig struct {
	Name           string       `json:"name" yaml:"name"`
	Description    string       `json:"description" yaml:"description"`
	FrameworkHash  string       `json:"framework_hash" yaml:"framework_hash"`
	CorpusHashes   []string     `json:"corpus_hashes" yaml:"corpus_hashes"`
	Questions      []string     `json:"questions" yaml:"questions"`
	Hypotheses     []Hypothesis `json:"hypotheses" yaml:"hypotheses"`
	AnalysisMode   string       `json:"analysis_mode" yaml:"analysis_mode"`
	SelectedModels []string     `json:"selected_models" yaml:"selected_models"`
	Thresholds     *Thresholds  `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// Thresholds are the optional quality gates (spec.md 4.11 Quality) a
// researcher may override per experiment.
type Thresholds struct {
	MinFrameworkFit            float64 `json:"min_framework_fit,omitempty" yaml:"min_framework_fit,omitempty"`
	MinSampleSize              int     `json:"min_sample_size,omitempty" yaml:"min_sample_size,omitempty"`
	MaxPValue                  float64 `json:"max_p_value,omitempty" yaml:"max_p_value,omitempty"`
	MaxCIWidth                 float64 `json:"max_ci_width,omitempty" yaml:"max_ci_width,omitempty"`
	MinResponseLength          int     `json:"min_response_length,omitempty" yaml:"min_response_length,omitempty"`
	MaxCoefficientOfVariation  float64 `json:"max_coefficient_of_variation,omitempty" yaml:"max_coefficient_of_variation,omitempty"`
}

// DimensionScore is one scored axis of one analysis_result.
type DimensionScore struct {
	Raw        float64 `json:"raw"`
	Salience   float64 `json:"salience"`
	Confidence float64 `json:"confidence"`
}

// Evidence is a verbatim span the Analysis Agent attributes to a dimension.
type Evidence struct {
	Dimension string `json:"dimension"`
	Quote     string `json:"quote"`
	Source    string `json:"source"`
	Offset    int    `json:"offset"`
}

// AnalysisResult is the payload of an analysis_result artifact.
type AnalysisResult struct {
	DocumentID     string                    `json:"document_id"`
	DocumentHash   string                    `json:"document_hash"`
	FrameworkHash  string                    `json:"framework_hash"`
	Model          string                    `json:"model"`
	BatchID        string                    `json:"batch_id"`
	Scores         map[string]DimensionScore `json:"scores"`
	DerivedMetrics map[string]float64        `json:"derived_metrics"`
	Evidence       []Evidence                `json:"evidence"`
	FallbackUsed   string                    `json:"fallback_used,omitempty"`
	FallbackReason string                    `json:"fallback_reason,omitempty"`
}

// Work is the payload of a work artifact: the code the scoring LLM claims
// to have executed to derive DerivedMetrics, plus its claimed stdout.
type Work struct {
	Code         string `json:"code"`
	ClaimedOutput string `json:"claimed_output"`
}

// Attestation is the payload of an attestation artifact.
type Attestation struct {
	TargetAnalysisHash  string  `json:"target_analysis_hash"`
	TargetWorkHash      string  `json:"target_work_hash"`
	Success             bool    `json:"success"`
	VerifierModel       string  `json:"verifier_model"`
	Reasoning           string  `json:"reasoning"`
	ReExecutionOutput   string  `json:"re_execution_output,omitempty"`
	ReExecutedMetrics   map[string]float64 `json:"re_executed_metrics,omitempty"`
	ToleranceApplied    float64 `json:"tolerance_applied"`
}

// SynthesisStep is the payload of a synthesis_step artifact.
type SynthesisStep struct {
	Stage                 string   `json:"stage"`
	Queries               []string `json:"queries"`
	RetrievalHashes        []string `json:"retrieval_hashes"`
	Output                 string   `json:"output"`
	HallucinationUnresolved bool     `json:"hallucination_unresolved,omitempty"`
}

// FinalReport is the payload of a final_report artifact.
type FinalReport struct {
	Narrative         string   `json:"narrative"`
	ReferencedAnalyses []string `json:"referenced_analyses"`
}

// AuditEvent is the payload of an audit_event artifact — the sealed,
// per-experiment provenance trail, distinct from the operational logging
// in internal/auditlog (see SPEC_FULL.md section A).
type AuditEvent struct {
	Kind      string         `json:"kind"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
