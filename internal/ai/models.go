// README: Classification result type and the degraded uniform ranking.
package ai

// Result holds ranked labels with their matching scores. Labels and Scores
// have the same length and order; index 0 is the top-ranked label.
type Result struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// Top returns the highest-ranked label, or "" for an empty result.
func (r Result) Top() string {
	if len(r.Labels) == 0 {
		return ""
	}
	return r.Labels[0]
}

// TopScore returns the score of the highest-ranked label, or 0.
func (r Result) TopScore() float64 {
	if len(r.Scores) == 0 {
		return 0
	}
	return r.Scores[0]
}

// Uniform builds the fallback ranking used when the classification service
// is unreachable: every candidate in its original order with equal scores.
// Stage logic then still has a deterministic label to act on.
func Uniform(labels []string) Result {
	scores := make([]float64, len(labels))
	if n := len(labels); n > 0 {
		for i := range scores {
			scores[i] = 1 / float64(n)
		}
	}
	return Result{Labels: append([]string(nil), labels...), Scores: scores}
}
