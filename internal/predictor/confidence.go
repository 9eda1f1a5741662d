package predictor

import (
	"fmt"
	"math"
)

// Normalize maps a raw up-probability to a direction and a confidence in
// the predicted direction. Probability 0.5 resolves to up with confidence
// 0.5. Non-finite or out-of-range probabilities are refused.
func Normalize(probUp float64) (predUp bool, confidence float64, err error) {
	if math.IsNaN(probUp) || math.IsInf(probUp, 0) || probUp < 0 || probUp > 1 {
		return false, 0, fmt.Errorf("invalid probability %v", probUp)
	}
	if probUp >= 0.5 {
		return true, probUp, nil
	}
	return false, 1 - probUp, nil
}
