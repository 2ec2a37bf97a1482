package stats

import (
	"fmt"
	"math"
)

// ClusterResult is one k-means run's centres, inertia, and cluster
// sizes.
type ClusterResult struct {
	ClusterCenters [][]float64 `json:"cluster_centers,omitempty"`
	Inertia        float64     `json:"inertia,omitempty"`
	ClusterSizes   []int       `json:"cluster_sizes,omitempty"`
	Error          string      `json:"error,omitempty"`
}

// clustering runs k-means for every k in [2, min(5, n-1)], standardizing
// columns first the same way pca does, matching original_source's sweep
// over candidate cluster counts.
func clustering(columns map[string][]float64) map[string]ClusterResult {
	names := sortedKeys(columns)
	if len(names) == 0 {
		return map[string]ClusterResult{"error": {Error: "no document data for clustering"}}
	}
	n := len(columns[names[0]])
	if n < 3 {
		return map[string]ClusterResult{"error": {Error: "insufficient data for clustering"}}
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, len(names))
	}
	for c, name := range names {
		col := columns[name]
		m := mean(col)
		s := stdDev(col, m, 0)
		for i, v := range col {
			if s > 0 {
				rows[i][c] = (v - m) / s
			}
		}
	}

	maxK := n - 1
	if maxK > 5 {
		maxK = 5
	}

	results := make(map[string]ClusterResult, maxK-1)
	for k := 2; k <= maxK; k++ {
		key := fmt.Sprintf("%d_clusters", k)
		results[key] = kMeans(rows, k)
	}
	return results
}

// kMeans runs Lloyd's algorithm from a deterministic initialization
// (every k-th point by index, matching the reproducibility a fixed
// random_state gives the original implementation) so two runs over the
// same data always produce the same clustering.
func kMeans(rows [][]float64, k int) ClusterResult {
	n := len(rows)
	dims := len(rows[0])

	centers := make([][]float64, k)
	stride := n / k
	for i := 0; i < k; i++ {
		centers[i] = append([]float64(nil), rows[i*stride]...)
	}

	assignments := make([]int, n)
	const maxIterations = 100
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, row := range rows {
			best, bestDist := 0, math.Inf(1)
			for c, center := range centers {
				d := squaredDistance(row, center)
				if d < bestDist {
					best, bestDist = c, d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float64, dims)
		}
		for i, row := range rows {
			c := assignments[i]
			counts[c]++
			for d := 0; d < dims; d++ {
				sums[c][d] += row[d]
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			for d := 0; d < dims; d++ {
				centers[c][d] = sums[c][d] / float64(counts[c])
			}
		}

		if !changed && iter > 0 {
			break
		}
	}

	var inertia float64
	sizes := make([]int, k)
	for i, row := range rows {
		c := assignments[i]
		sizes[c]++
		inertia += squaredDistance(row, centers[c])
	}

	return ClusterResult{ClusterCenters: centers, Inertia: inertia, ClusterSizes: sizes}
}

func squaredDistance(a, b []float64) float64 {
	var d float64
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}
