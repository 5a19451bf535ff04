package scm

import (
	"fmt"

	"github.com/jimimvp/CausalProb/flow"
	"github.com/jimimvp/CausalProb/matrix"
	"github.com/jimimvp/CausalProb/params"
)

// ScorePolicy names how a node's exogenous score is produced.
type ScorePolicy string

const (
	// ScoreBase differentiates the shared base density (−u for a standard normal).
	ScoreBase ScorePolicy = "base"
	// ScoreZero reports a constant zero score.
	ScoreZero ScorePolicy = "zero"
)

// ParseScorePolicy maps a config string onto a ScorePolicy.
func ParseScorePolicy(s string) (ScorePolicy, error) {
	switch ScorePolicy(s) {
	case ScoreBase, ScoreZero:
		return ScorePolicy(s), nil
	case "":
		return ScoreBase, nil
	default:
		return "", fmt.Errorf("scm: unknown score policy %q", s)
	}
}

// BaseScore returns the score of f's base distribution. Flows that do not
// expose one fall back to the standard-normal score −u.
func BaseScore(f flow.Flow) ScoreFunc {
	if s, ok := f.(flow.Scorer); ok {
		return func(u *matrix.Dense, _ params.Set) (*matrix.Dense, error) {
			return s.BaseScore(u)
		}
	}

	return func(u *matrix.Dense, _ params.Set) (*matrix.Dense, error) {
		return matrix.Scale(u, -1)
	}
}

// ZeroScore returns zeros shaped like u.
func ZeroScore(u *matrix.Dense, _ params.Set) (*matrix.Dense, error) {
	if err := matrix.ValidateNotNil(u); err != nil {
		return nil, err
	}

	return matrix.NewDense(u.Rows(), u.Cols())
}

// ZeroCrossScore is the default ∂f/∂u cross term: zeros shaped like u.
func ZeroCrossScore(u, _ *matrix.Dense, theta params.Set) (*matrix.Dense, error) {
	return ZeroScore(u, theta)
}

func (p ScorePolicy) scoreFunc(f flow.Flow) ScoreFunc {
	if p == ScoreZero {
		return ZeroScore
	}

	return BaseScore(f)
}
