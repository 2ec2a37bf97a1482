package stats

import (
	"math"
	"sort"
	"strconv"
)

// PCAResult is the principal-component summary spec.md 4.8 requires:
// explained and cumulative variance ratios, the smallest component count
// that reaches 90% cumulative variance, and the loadings of the top
// three components.
type PCAResult struct {
	ExplainedVarianceRatio []float64                    `json:"explained_variance_ratio,omitempty"`
	CumulativeVariance     []float64                    `json:"cumulative_variance,omitempty"`
	NComponents90Percent   int                           `json:"n_components_90_percent,omitempty"`
	ComponentLoadings      map[string]map[string]float64 `json:"component_loadings,omitempty"`
	Error                  string                        `json:"error,omitempty"`
}

// pca standardizes each column (zero mean, unit variance) and
// eigendecomposes the resulting correlation matrix via the Jacobi
// eigenvalue algorithm — symmetric, always converges, and needs no
// external linear-algebra library for the handful of metric columns a
// single experiment produces.
func pca(columns map[string][]float64) PCAResult {
	names := sortedKeys(columns)
	if len(names) < 2 {
		return PCAResult{Error: "insufficient numeric data for multivariate analysis"}
	}

	p := len(names)
	n := len(columns[names[0]])
	standardized := make([][]float64, p)
	for i, name := range names {
		col := columns[name]
		m := mean(col)
		s := stdDev(col, m, 0)
		standardized[i] = make([]float64, n)
		for j, v := range col {
			if s > 0 {
				standardized[i][j] = (v - m) / s
			}
		}
	}

	cov := make([][]float64, p)
	for i := range cov {
		cov[i] = make([]float64, p)
	}
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			var c float64
			for k := 0; k < n; k++ {
				c += standardized[i][k] * standardized[j][k]
			}
			c /= float64(n - 1)
			cov[i][j] = c
			cov[j][i] = c
		}
	}

	eigenvalues, eigenvectors := jacobiEigen(cov)

	type component struct {
		value  float64
		vector []float64
	}
	components := make([]component, p)
	for i := range eigenvalues {
		components[i] = component{value: eigenvalues[i], vector: eigenvectors[i]}
	}
	sort.Slice(components, func(i, j int) bool { return components[i].value > components[j].value })

	var totalVariance float64
	for _, c := range components {
		if c.value > 0 {
			totalVariance += c.value
		}
	}
	if totalVariance <= 0 {
		return PCAResult{Error: "no positive variance to decompose"}
	}

	explained := make([]float64, p)
	cumulative := make([]float64, p)
	var running float64
	nComponents90 := p
	found90 := false
	for i, c := range components {
		ratio := math.Max(c.value, 0) / totalVariance
		explained[i] = ratio
		running += ratio
		cumulative[i] = running
		if !found90 && running >= 0.9 {
			nComponents90 = i + 1
			found90 = true
		}
	}

	topN := 3
	if topN > p {
		topN = p
	}
	loadings := make(map[string]map[string]float64, topN)
	for i := 0; i < topN; i++ {
		row := make(map[string]float64, p)
		for j, name := range names {
			row[name] = components[i].vector[j]
		}
		loadings[pcName(i)] = row
	}

	return PCAResult{
		ExplainedVarianceRatio: explained,
		CumulativeVariance:     cumulative,
		NComponents90Percent:   nComponents90,
		ComponentLoadings:      loadings,
	}
}

func pcName(i int) string {
	return "PC" + strconv.Itoa(i+1)
}

// jacobiEigen computes eigenvalues and eigenvectors of a symmetric
// matrix a via the cyclic Jacobi rotation method, sufficient precision
// for the small (column-count-sized) matrices PCA here ever builds.
func jacobiEigen(a [][]float64) ([]float64, [][]float64) {
	n := len(a)
	m := make([][]float64, n)
	for i := range a {
		m[i] = append([]float64(nil), a[i]...)
	}
	v := make([][]float64, n)
	for i := range v {
		v[i] = make([]float64, n)
		v[i][i] = 1
	}

	const maxSweeps = 100
	for sweep := 0; sweep < maxSweeps; sweep++ {
		offDiag := 0.0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				offDiag += m[i][j] * m[i][j]
			}
		}
		if offDiag < 1e-12 {
			break
		}
		for p := 0; p < n; p++ {
			for q := p + 1; q < n; q++ {
				if math.Abs(m[p][q]) < 1e-15 {
					continue
				}
				theta := (m[q][q] - m[p][p]) / (2 * m[p][q])
				t := math.Copysign(1, theta) / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				c := 1 / math.Sqrt(t*t+1)
				s := t * c

				mpp, mqq, mpq := m[p][p], m[q][q], m[p][q]
				m[p][p] = c*c*mpp - 2*s*c*mpq + s*s*mqq
				m[q][q] = s*s*mpp + 2*s*c*mpq + c*c*mqq
				m[p][q] = 0
				m[q][p] = 0
				for i := 0; i < n; i++ {
					if i != p && i != q {
						mip, miq := m[i][p], m[i][q]
						m[i][p] = c*mip - s*miq
						m[p][i] = m[i][p]
						m[i][q] = s*mip + c*miq
						m[q][i] = m[i][q]
					}
				}
				for i := 0; i < n; i++ {
					vip, viq := v[i][p], v[i][q]
					v[i][p] = c*vip - s*viq
					v[i][q] = s*vip + c*viq
				}
			}
		}
	}

	eigenvalues := make([]float64, n)
	eigenvectors := make([][]float64, n)
	for i := 0; i < n; i++ {
		eigenvalues[i] = m[i][i]
		vec := make([]float64, n)
		for j := 0; j < n; j++ {
			vec[j] = v[j][i]
		}
		eigenvectors[i] = vec
	}
	return eigenvalues, eigenvectors
}
