package analytics

// clusterByCorrelation groups symbols with a greedy single pass: each
// unassigned symbol (in the given order) seeds a cluster and absorbs every
// later unassigned symbol whose correlation to the seed meets minCorrelation.
// Absorbed symbols never seed clusters of their own, so this is a cheap
// deterministic approximation rather than an optimal clustering.
// Pairs with mismatched or empty histories count as correlation 0.0 to keep
// the pass total.
func clusterByCorrelation(symbols []string, histories map[string][]float64, minCorrelation float64) [][]string {
	if len(symbols) < 2 {
		clusters := make([][]string, 0, len(symbols))
		for _, s := range symbols {
			clusters = append(clusters, []string{s})
		}
		return clusters
	}

	n := len(symbols)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1.0
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			prices1 := histories[symbols[i]]
			prices2 := histories[symbols[j]]
			if len(prices1) != len(prices2) || len(prices1) == 0 {
				continue
			}
			if corr := Correlation(prices1, prices2); corr != nil {
				matrix[i][j] = *corr
				matrix[j][i] = *corr
			}
		}
	}

	var clusters [][]string
	assigned := make([]bool, n)

	for i, seed := range symbols {
		if assigned[i] {
			continue
		}
		cluster := []string{seed}
		assigned[i] = true

		for j, candidate := range symbols {
			if !assigned[j] && matrix[i][j] >= minCorrelation {
				cluster = append(cluster, candidate)
				assigned[j] = true
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}
