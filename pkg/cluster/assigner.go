package cluster

// UnassignedLabel is the cluster label reported for players whose
// profile vector falls outside the training distance threshold, or who
// have no profile at all.
const UnassignedLabel = -1

// Assignment is the outcome of assigning one player to a cluster. The
// Assigned flag distinguishes a genuine nearest-centroid match from the
// unassigned fallback, so the aggregator can lower confidence instead
// of trusting a forced match.
type Assignment struct {
	Label    int     `json:"label"`
	Distance float64 `json:"distance"`
	Assigned bool    `json:"assigned"`
}

// Assigner holds frozen cluster centroids and the distance threshold
// beyond which a player is reported unassigned. Safe for unlimited
// concurrent reads; never mutated after fit.
type Assigner struct {
	Centroids [][]float64 `json:"centroids"`
	Threshold float64     `json:"threshold"`
}

// Assign returns the nearest centroid's label under Euclidean distance,
// ties broken by lowest cluster index. A vector farther than the fitted
// threshold from every centroid is reported unassigned rather than
// force-matched.
func (a *Assigner) Assign(vector []float64) Assignment {
	if len(a.Centroids) == 0 || len(vector) == 0 || len(vector) != len(a.Centroids[0]) {
		return Assignment{Label: UnassignedLabel}
	}
	label, dist := nearest(a.Centroids, vector)
	if dist > a.Threshold {
		return Assignment{Label: UnassignedLabel, Distance: dist}
	}
	return Assignment{Label: label, Distance: dist, Assigned: true}
}

// Similarity converts an assignment to a [0,1] score: 1 at the centroid,
// falling linearly to 0 at the threshold. Unassigned players score 0.
func (a *Assigner) Similarity(asg Assignment) float64 {
	if !asg.Assigned || a.Threshold <= 0 {
		return 0
	}
	sim := 1 - asg.Distance/a.Threshold
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
