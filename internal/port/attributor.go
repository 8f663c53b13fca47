package port

// Attributor explains a batch of scored candidates. It fits an ephemeral
// surrogate on the batch and decomposes each prediction into additive
// per-feature contributions: baseline + sum(contribs[i]) equals the
// surrogate's prediction for row i.
type Attributor interface {
	// Attribute takes feature names, one row of feature values per
	// candidate, and the target (combined score) per candidate. It returns
	// one contribution map per row plus the shared baseline.
	Attribute(names []string, rows [][]float64, targets []float64) ([]map[string]float64, float64, error)
}
