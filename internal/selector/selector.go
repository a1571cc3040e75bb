package selector

import (
	"fmt"
	"math/rand"

	"trendscout/config"
	"trendscout/models"
)

// Selection is the outcome of one policy-driven pick: the subcategory to
// search, the sampled topics and the subcategory's allowed source domains.
type Selection struct {
	NumTrends   int
	Category    string
	Subcategory string
	Topics      []string
	URLs        []string
}

// Select locates the policy's active category, picks one subcategory
// uniformly at random, drops excluded topics and samples up to
// policy.NumTopics of the remainder without replacement. Selection is
// intentionally randomized per call; callers that need determinism seed rng.
func Select(tax models.Taxonomy, policy config.PolicyConfig, excluded []string, rng *rand.Rand) (Selection, error) {
	var active *models.Category
	for i := range tax.Categories {
		if tax.Categories[i].Name == policy.ActiveCategory {
			active = &tax.Categories[i]
			break
		}
	}
	if active == nil || len(active.Subcategories) == 0 {
		return Selection{}, fmt.Errorf("%w: %q", models.ErrCategoryNotFound, policy.ActiveCategory)
	}

	sub := active.Subcategories[rng.Intn(len(active.Subcategories))]

	excludedSet := make(map[string]struct{}, len(excluded))
	for _, ex := range excluded {
		excludedSet[ex] = struct{}{}
	}
	available := make([]string, 0, len(sub.Topics))
	for _, topic := range sub.Topics {
		if _, ok := excludedSet[topic]; !ok {
			available = append(available, topic)
		}
	}
	if len(available) == 0 {
		return Selection{}, fmt.Errorf("%w: subcategory %q, excluded %v", models.ErrTopicsExhausted, sub.Name, excluded)
	}

	sampleSize := policy.NumTopics
	if sampleSize > len(available) {
		sampleSize = len(available)
	}
	picked := make([]string, len(available))
	copy(picked, available)
	rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	picked = picked[:sampleSize]

	return Selection{
		NumTrends:   policy.NumTrends,
		Category:    policy.ActiveCategory,
		Subcategory: sub.Name,
		Topics:      picked,
		URLs:        sub.URLs,
	}, nil
}
