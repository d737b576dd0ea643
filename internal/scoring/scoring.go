// Package scoring turns a raw score and a snapshotted coefficient into
// the weighted score stored on a note. Arithmetic is fixed-point so
// repeated recomputation never drifts.
package scoring

import (
	"fmt"

	"github.com/shopspring/decimal"

	appErrors "github.com/noah-isme/notes-approval-api/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// WeightedScore normalises score to a 100-point scale and applies the
// subject coefficient, rounding half-to-even to two decimal places.
//
//	weighted = round((score / maxScore) * 100 * coefficient, 2)
func WeightedScore(score, maxScore, coefficient decimal.Decimal) (decimal.Decimal, error) {
	if maxScore.Sign() <= 0 {
		return decimal.Zero, appErrors.Clone(appErrors.ErrValidation, "max score must be positive")
	}
	if score.Sign() < 0 || score.GreaterThan(maxScore) {
		return decimal.Zero, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("score must be between 0 and %s", maxScore.String()))
	}
	if coefficient.Sign() <= 0 {
		return decimal.Zero, appErrors.Clone(appErrors.ErrValidation, "coefficient must be positive")
	}
	normalized := score.Div(maxScore).Mul(hundred)
	return normalized.Mul(coefficient).RoundBank(2), nil
}
