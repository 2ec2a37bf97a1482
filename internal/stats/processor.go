package stats

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/discernus/discernus-core/internal/artifact"
	"github.com/discernus/discernus-core/internal/cas"
	"github.com/discernus/discernus-core/internal/logutil"
)

// DocumentLevelStats is one row per document, derived-metric columns
// (spec.md 4.8's document-level bullet).
type DocumentLevelStats struct {
	SampleSize    int                      `json:"sample_size"`
	MetricCount   int                      `json:"metric_count"`
	MetricNames   []string                 `json:"metric_names"`
	Descriptives  map[string]Descriptive   `json:"descriptives"`
	Correlations  CorrelationResult        `json:"correlations"`
	Reliability   ReliabilityResult        `json:"reliability"`
	PCA           PCAResult                `json:"pca"`
	Clustering    map[string]ClusterResult `json:"clustering"`
	Outliers      map[string]OutlierResult `json:"outliers"`
	EffectSizes   map[string]EffectSize    `json:"effect_sizes"`
	Normality     map[string]NormalityResult `json:"normality"`
	Error         string                   `json:"error,omitempty"`
}

// DimensionLevelStats is one row per document x dimension.
type DimensionLevelStats struct {
	SampleSize          int                               `json:"sample_size"`
	DimensionCount      int                                `json:"dimension_count"`
	DocumentCount       int                                `json:"document_count"`
	DimensionNames      []string                            `json:"dimension_names"`
	OverallDescriptives map[string]Descriptive              `json:"overall_descriptives"`
	ByDimension         map[string]DimensionBreakdown        `json:"by_dimension"`
	ScoreCorrelations   CorrelationResult                   `json:"score_correlations"`
	Error               string                               `json:"error,omitempty"`
}

// DimensionBreakdown is one dimension's per-score-type descriptives.
type DimensionBreakdown struct {
	SampleSize   int                    `json:"sample_size"`
	Descriptives map[string]Descriptive `json:"descriptives"`
}

// CrossLevelStats merges per-document dimension aggregates with derived
// metrics.
type CrossLevelStats struct {
	MergedSampleSize     int                          `json:"merged_sample_size"`
	CrossCorrelations    CorrelationResult             `json:"cross_correlations"`
	DimensionAggregates  map[string]AggregateSummary    `json:"dimension_aggregates"`
	Error                string                        `json:"error,omitempty"`
}

// AggregateSummary is a mean/std pair over one cross-level aggregate
// column.
type AggregateSummary struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// EvidenceLevelStats summarizes the Evidence quotes attached to every
// analysis_result.
type EvidenceLevelStats struct {
	QuoteCountsByDimension map[string]int `json:"quote_counts_by_dimension"`
	QuoteCountsByDocument  map[string]int `json:"quote_counts_by_document"`
	QuoteLength            Descriptive    `json:"quote_length"`
	Error                  string         `json:"error,omitempty"`
}

// ProcessingMetadata records the provenance of one statistics artifact.
type ProcessingMetadata struct {
	SampleSize     int    `json:"sample_size"`
	DocumentCount  int    `json:"document_count"`
	DimensionCount int    `json:"dimension_count"`
	ContentHash    string `json:"content_hash"`
}

// Statistics is the payload of a statistics artifact.
type Statistics struct {
	DocumentLevel      DocumentLevelStats  `json:"document_level"`
	DimensionLevel      DimensionLevelStats `json:"dimension_level"`
	CrossLevel          CrossLevelStats     `json:"cross_level"`
	EvidenceLevel       EvidenceLevelStats  `json:"evidence_level"`
	ProcessingMetadata  ProcessingMetadata  `json:"processing_metadata"`
}

// Processor is the Statistical Processor: it reads analysis_result
// artifacts from CAS and writes a single statistics artifact, touching
// no LLM.
type Processor struct {
	store  *cas.Store
	logger logutil.LoggerInterface
}

// NewProcessor builds a Statistical Processor.
func NewProcessor(store *cas.Store, logger logutil.LoggerInterface) *Processor {
	return &Processor{store: store, logger: logger}
}

// Process computes a statistics artifact over results and persists it,
// reusing a cached artifact if one with the same content already exists
// (PutArtifact's own dedup). Every sub-analysis is computed behind a
// recover so one broken metric never fails the whole artifact.
func (p *Processor) Process(ctx context.Context, results []artifact.AnalysisResult, parents []string) (string, error) {
	docColumns, docIDs := documentColumns(results)
	dimRows := dimensionRows(results)

	stats := Statistics{}

	stats.DocumentLevel = safeDocumentLevel(docColumns)
	stats.DimensionLevel = safeDimensionLevel(dimRows)
	if len(docColumns) > 0 && len(dimRows) > 0 {
		stats.CrossLevel = safeCrossLevel(docColumns, docIDs, dimRows)
	} else {
		stats.CrossLevel = CrossLevelStats{Error: "insufficient data for cross-level analysis"}
	}
	stats.EvidenceLevel = safeEvidenceLevel(results)

	metaBytes, _ := json.Marshal(struct {
		D DocumentLevelStats  `json:"d"`
		M DimensionLevelStats `json:"m"`
		C CrossLevelStats     `json:"c"`
		E EvidenceLevelStats  `json:"e"`
	}{stats.DocumentLevel, stats.DimensionLevel, stats.CrossLevel, stats.EvidenceLevel})
	sum := sha256.Sum256(metaBytes)

	stats.ProcessingMetadata = ProcessingMetadata{
		SampleSize:     len(results),
		DocumentCount:  len(docIDs),
		DimensionCount: stats.DimensionLevel.DimensionCount,
		ContentHash:    hex.EncodeToString(sum[:]),
	}

	id, err := p.store.PutArtifact(stats, artifact.Metadata{
		ArtifactType:      artifact.TypeStatistics,
		ProducerComponent: "stats",
		Parents:           parents,
	})
	if err != nil {
		return "", fmt.Errorf("stats: persist statistics artifact: %w", err)
	}
	p.logger.InfoContext(ctx, "stats: processed %d analysis results into statistics artifact %s", len(results), id)
	return id, nil
}

func documentColumns(results []artifact.AnalysisResult) (map[string][]float64, []string) {
	columns := make(map[string][]float64)
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.DocumentID)
		for name, v := range r.DerivedMetrics {
			columns[name] = append(columns[name], v)
		}
	}
	return columns, ids
}

type dimensionRow struct {
	documentID string
	dimension  string
	raw        float64
	salience   float64
	confidence float64
}

func dimensionRows(results []artifact.AnalysisResult) []dimensionRow {
	var rows []dimensionRow
	for _, r := range results {
		for dim, s := range r.Scores {
			rows = append(rows, dimensionRow{
				documentID: r.DocumentID,
				dimension:  dim,
				raw:        s.Raw,
				salience:   s.Salience,
				confidence: s.Confidence,
			})
		}
	}
	return rows
}
