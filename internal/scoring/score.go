package scoring

// Penalties added to the path length. Lower scores are better.
const (
	GaveUpPenalty      = 15
	CheatingPenalty    = 20
	InvalidPathPenalty = 10
)

// CreativeTerm scores "creative connections" in a path. The result is added to
// the score as is.
type CreativeTerm func(path []string) int

// NoCreativeBonus is the default CreativeTerm and always contributes 0.
func NoCreativeBonus([]string) int { return 0 }

// Scorer computes trial scores.
type Scorer struct {
	Creative CreativeTerm
}

// NewScorer returns a Scorer with the default creative term.
func NewScorer() Scorer {
	return Scorer{Creative: NoCreativeBonus}
}

// Score returns the score for path under outcome along with the creative term's
// contribution. The score is not clamped.
func (s Scorer) Score(path []string, o Outcome) (score, creative int) {
	if s.Creative != nil {
		creative = s.Creative(path)
	}
	return Score(len(path), o.GaveUp, o.Cheated, o.InvalidPath) + creative, creative
}

// Score is the additive scoring formula.
func Score(pathLength int, gaveUp, cheated, invalidPath bool) int {
	score := pathLength
	if gaveUp {
		score += GaveUpPenalty
	}
	if cheated {
		score += CheatingPenalty
	}
	if invalidPath {
		score += InvalidPathPenalty
	}
	return score
}
