package retriever

import (
	"multimodal-rag/internal/rag/storages/vectorstore"
)

// MaximalMarginalRelevance selects up to k candidate indices balancing query
// relevance against diversity. lambda 1 is pure relevance, 0 pure diversity.
func MaximalMarginalRelevance(query []float32, candidates [][]float32, lambda float64, k int) []int {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		relevance[i] = vectorstore.CosineSimilarity(query, c)
	}

	selected := make([]int, 0, k)
	remaining := make(map[int]struct{}, len(candidates))
	for i := range candidates {
		remaining[i] = struct{}{}
	}

	for len(selected) < k {
		best := -1
		bestScore := 0.0
		for i := range remaining {
			redundancy := 0.0
			for _, j := range selected {
				if sim := vectorstore.CosineSimilarity(candidates[i], candidates[j]); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*relevance[i] - (1-lambda)*redundancy
			if best == -1 || score > bestScore {
				best = i
				bestScore = score
			}
		}
		selected = append(selected, best)
		delete(remaining, best)
	}
	return selected
}
