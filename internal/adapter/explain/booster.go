package explain

import (
	"github.com/rs/zerolog"
)

// Booster trains a small gradient-boosted regression ensemble per request
// and explains it with additive per-feature attributions. The ensemble is
// fitted on exactly the current batch and meant to reproduce the combiner
// formula faithfully: intentional overfitting, not generalization. Training
// is ephemeral; nothing is kept between calls.
type Booster struct {
	trees        int
	learningRate float64
	maxDepth     int
	minLeaf      int
	log          zerolog.Logger
}

// Config holds boosting hyperparameters. Deliberately tiny minimum leaf
// sizes: batches are top-k lists, often under ten rows.
type Config struct {
	Trees        int
	LearningRate float64
	MaxDepth     int
	MinLeaf      int
}

func NewBooster(cfg Config, log zerolog.Logger) *Booster {
	if cfg.Trees <= 0 {
		cfg.Trees = 100
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.1
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 5
	}
	if cfg.MinLeaf <= 0 {
		cfg.MinLeaf = 1
	}
	return &Booster{
		trees:        cfg.Trees,
		learningRate: cfg.LearningRate,
		maxDepth:     cfg.MaxDepth,
		minLeaf:      cfg.MinLeaf,
		log:          log.With().Str("component", "explain").Logger(),
	}
}

// Attribute fits the ensemble on the batch and returns one contribution map
// per row plus the shared baseline. For every row,
// baseline + sum(contributions) equals the ensemble's prediction; with the
// overfitted surrogate that prediction tracks the target combined score to
// within floating-point noise. An empty batch yields an empty result.
func (b *Booster) Attribute(names []string, rows [][]float64, targets []float64) ([]map[string]float64, float64, error) {
	if len(rows) == 0 {
		return []map[string]float64{}, 0, nil
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}

	base := mean(targets, idx)

	residuals := make([]float64, len(targets))
	for i, t := range targets {
		residuals[i] = t - base
	}

	forest := make([]*node, 0, b.trees)
	for m := 0; m < b.trees; m++ {
		tree := fitTree(rows, residuals, idx, 0, b.maxDepth, b.minLeaf)
		forest = append(forest, tree)
		for i, row := range rows {
			residuals[i] -= b.learningRate * tree.predict(row)
		}
	}

	// Baseline folds in each tree's root mean so that the per-feature
	// contributions are pure path effects.
	baseline := base
	for _, tree := range forest {
		baseline += b.learningRate * tree.value
	}

	out := make([]map[string]float64, len(rows))
	contribs := make([]float64, len(names))
	for i, row := range rows {
		for j := range contribs {
			contribs[j] = 0
		}
		for _, tree := range forest {
			steps := make([]float64, len(names))
			tree.attribute(row, steps)
			for j := range steps {
				contribs[j] += b.learningRate * steps[j]
			}
		}
		m := make(map[string]float64, len(names))
		for j, name := range names {
			m[name] = contribs[j]
		}
		out[i] = m
	}

	b.log.Debug().Int("batch", len(rows)).Int("trees", len(forest)).Msg("surrogate trained")
	return out, baseline, nil
}
