package stats

import "github.com/discernus/discernus-core/internal/artifact"

// safeDocumentLevel runs every document-level sub-analysis over the same
// derived-metric columns, isolating each behind a recover so a single
// broken metric degrades to an {error} leaf instead of failing the whole
// artifact (spec.md 4.8).
func safeDocumentLevel(columns map[string][]float64) (result DocumentLevelStats) {
	defer func() {
		if r := recover(); r != nil {
			result = DocumentLevelStats{Error: panicMessage(r)}
		}
	}()

	names := sortedKeys(columns)
	if len(names) == 0 {
		return DocumentLevelStats{Error: "no derived metrics to analyze"}
	}

	descriptives := make(map[string]Descriptive, len(names))
	for _, name := range names {
		descriptives[name] = safeDescriptive(columns[name])
	}

	clusters := make(map[string]ClusterResult)
	func() {
		defer recoverInto(&clusters, map[string]ClusterResult{"error": {Error: "clustering panicked"}})
		clusters = clustering(columns)
	}()

	outliers := make(map[string]OutlierResult)
	for _, name := range names {
		outliers[name] = safeOutliers(columns[name])
	}

	effectSizes := make(map[string]EffectSize)
	for _, name := range names {
		if es, ok := safeHedgesG(columns[name]); ok {
			effectSizes[name] = es
		}
	}

	normality := make(map[string]NormalityResult)
	for _, name := range names {
		if nr, ok := safeShapiroWilk(columns[name]); ok {
			normality[name] = nr
		}
	}

	return DocumentLevelStats{
		SampleSize:   len(columns[names[0]]),
		MetricCount:  len(names),
		MetricNames:  names,
		Descriptives: descriptives,
		Correlations: safeCorrelation(columns),
		Reliability:  safeReliability(columns),
		PCA:          safePCA(columns),
		Clustering:   clusters,
		Outliers:     outliers,
		EffectSizes:  effectSizes,
		Normality:    normality,
	}
}

// safeDimensionLevel aggregates score descriptives per dimension plus an
// overall cross-dimension correlation matrix on raw scores.
func safeDimensionLevel(rows []dimensionRow) (result DimensionLevelStats) {
	defer func() {
		if r := recover(); r != nil {
			result = DimensionLevelStats{Error: panicMessage(r)}
		}
	}()

	if len(rows) == 0 {
		return DimensionLevelStats{Error: "no dimension scores to analyze"}
	}

	byDim := make(map[string][]dimensionRow)
	documents := make(map[string]bool)
	for _, r := range rows {
		byDim[r.dimension] = append(byDim[r.dimension], r)
		documents[r.documentID] = true
	}

	dimNames := make([]string, 0, len(byDim))
	for name := range byDim {
		dimNames = append(dimNames, name)
	}

	rawColumns := make(map[string][]float64, len(byDim))
	breakdown := make(map[string]DimensionBreakdown, len(byDim))
	overallRaw := make([]float64, 0, len(rows))
	for name, dimRows := range byDim {
		raw := make([]float64, len(dimRows))
		for i, r := range dimRows {
			raw[i] = r.raw
		}
		rawColumns[name] = raw
		overallRaw = append(overallRaw, raw...)

		breakdown[name] = DimensionBreakdown{
			SampleSize: len(dimRows),
			Descriptives: map[string]Descriptive{
				"raw":        safeDescriptive(raw),
				"salience":   safeDescriptive(salienceValues(dimRows)),
				"confidence": safeDescriptive(confidenceValues(dimRows)),
			},
		}
	}

	return DimensionLevelStats{
		SampleSize:          len(rows),
		DimensionCount:      len(dimNames),
		DocumentCount:       len(documents),
		DimensionNames:      dimNames,
		OverallDescriptives: map[string]Descriptive{"raw": safeDescriptive(overallRaw)},
		ByDimension:         breakdown,
		ScoreCorrelations:   safeCorrelation(rawColumns),
	}
}

func salienceValues(rows []dimensionRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.salience
	}
	return out
}

func confidenceValues(rows []dimensionRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.confidence
	}
	return out
}

// safeCrossLevel correlates each document's derived metrics against its
// per-dimension mean raw score, merged on document id.
func safeCrossLevel(docColumns map[string][]float64, docIDs []string, rows []dimensionRow) (result CrossLevelStats) {
	defer func() {
		if r := recover(); r != nil {
			result = CrossLevelStats{Error: panicMessage(r)}
		}
	}()

	dimMeansByDoc := make(map[string]map[string]float64)
	for _, r := range rows {
		if dimMeansByDoc[r.documentID] == nil {
			dimMeansByDoc[r.documentID] = make(map[string]float64)
		}
		dimMeansByDoc[r.documentID][r.dimension] += r.raw
	}
	counts := make(map[string]map[string]int)
	for _, r := range rows {
		if counts[r.documentID] == nil {
			counts[r.documentID] = make(map[string]int)
		}
		counts[r.documentID][r.dimension]++
	}
	for doc, dims := range dimMeansByDoc {
		for dim, total := range dims {
			dimMeansByDoc[doc][dim] = total / float64(counts[doc][dim])
		}
	}

	merged := make(map[string][]float64)
	for name, col := range docColumns {
		merged["metric_"+name] = col
	}
	aggregates := make(map[string]AggregateSummary)
	dimNames := sortedKeys(flattenDimensionNames(dimMeansByDoc))
	for _, dim := range dimNames {
		col := make([]float64, len(docIDs))
		for i, doc := range docIDs {
			col[i] = dimMeansByDoc[doc][dim]
		}
		merged["dimension_"+dim] = col
		m := mean(col)
		aggregates[dim] = AggregateSummary{Mean: m, Std: stdDev(col, m, 1)}
	}

	return CrossLevelStats{
		MergedSampleSize:    len(docIDs),
		CrossCorrelations:   safeCorrelation(merged),
		DimensionAggregates: aggregates,
	}
}

func flattenDimensionNames(byDoc map[string]map[string]float64) map[string][]float64 {
	out := make(map[string][]float64)
	for _, dims := range byDoc {
		for dim := range dims {
			out[dim] = nil
		}
	}
	return out
}

// safeEvidenceLevel summarizes quote counts and lengths across every
// analysis result's Evidence slice.
func safeEvidenceLevel(results []artifact.AnalysisResult) (result EvidenceLevelStats) {
	defer func() {
		if r := recover(); r != nil {
			result = EvidenceLevelStats{Error: panicMessage(r)}
		}
	}()

	byDim := make(map[string]int)
	byDoc := make(map[string]int)
	var lengths []float64
	for _, r := range results {
		for _, e := range r.Evidence {
			byDim[e.Dimension]++
			byDoc[r.DocumentID]++
			lengths = append(lengths, float64(len(e.Quote)))
		}
	}
	if len(lengths) == 0 {
		return EvidenceLevelStats{Error: "no evidence quotes to analyze"}
	}

	return EvidenceLevelStats{
		QuoteCountsByDimension: byDim,
		QuoteCountsByDocument:  byDoc,
		QuoteLength:            safeDescriptive(lengths),
	}
}

func panicMessage(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	if s, ok := r.(string); ok {
		return s
	}
	return "sub-analysis panicked"
}

func recoverInto[T any](dst *T, fallback T) {
	if r := recover(); r != nil {
		*dst = fallback
	}
}

func safeDescriptive(values []float64) (result Descriptive) {
	defer recoverInto(&result, Descriptive{})
	if len(values) == 0 {
		return Descriptive{}
	}
	return descriptive(values)
}

func safeCorrelation(columns map[string][]float64) (result CorrelationResult) {
	defer recoverInto(&result, CorrelationResult{Error: "correlation analysis panicked"})
	return correlationMatrix(columns)
}

func safeReliability(columns map[string][]float64) (result ReliabilityResult) {
	defer recoverInto(&result, ReliabilityResult{Error: "reliability analysis panicked"})
	return reliability(columns)
}

func safePCA(columns map[string][]float64) (result PCAResult) {
	defer recoverInto(&result, PCAResult{Error: "pca panicked"})
	return pca(columns)
}

func safeOutliers(values []float64) (result OutlierResult) {
	defer recoverInto(&result, OutlierResult{})
	r, ok := detectOutliers(values)
	if !ok {
		return OutlierResult{}
	}
	return r
}

func safeHedgesG(values []float64) (result EffectSize, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			result, ok = EffectSize{}, false
		}
	}()
	return hedgesG(values)
}

func safeShapiroWilk(values []float64) (result NormalityResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			result, ok = NormalityResult{}, false
		}
	}()
	return shapiroWilk(values)
}
