package score

import (
	"fmt"
	"math"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/floats"
)

// ComputeEquality compares observation and prediction structurally and
// returns a boolean score.
func ComputeEquality(observation, prediction any) Score {
	return NewBoolean(cmp.Equal(observation, prediction))
}

// ComputeZ standardizes a point prediction against an observed
// distribution. The observation must carry "mean" and "std" entries; a
// missing or degenerate input yields an insufficient-data score rather
// than an error.
func ComputeZ(observation map[string]any, prediction any) Score {
	mean, ok := Numeric(observation["mean"])
	if !ok {
		return NewInsufficientData("observation has no numeric 'mean'")
	}
	std, ok := Numeric(observation["std"])
	if !ok {
		return NewInsufficientData("observation has no numeric 'std'")
	}
	if std <= 0 || math.IsNaN(std) {
		return NewInsufficientData(fmt.Sprintf("observation std %g is not positive", std))
	}
	pred, ok := predictionValue(prediction)
	if !ok {
		return NewInsufficientData("prediction has no numeric value")
	}
	z := (pred - mean) / std
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return NewInsufficientData("z statistic is not finite")
	}
	return Score{kind: KindZ, value: z}
}

// ComputeCohenD measures the standardized difference between an observed
// and a predicted distribution using a pooled standard deviation. When
// sample sizes are present in the inputs (key "n") the pooling is
// size-weighted; otherwise both samples weigh equally.
func ComputeCohenD(observation, prediction map[string]any) Score {
	obsMean, ok1 := Numeric(observation["mean"])
	obsStd, ok2 := Numeric(observation["std"])
	predMean, ok3 := Numeric(prediction["mean"])
	predStd, ok4 := Numeric(prediction["std"])
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return NewInsufficientData("both distributions need numeric 'mean' and 'std'")
	}

	var pooled float64
	obsN, hasObsN := Numeric(observation["n"])
	predN, hasPredN := Numeric(prediction["n"])
	if hasObsN && hasPredN && obsN > 1 && predN > 1 {
		pooled = math.Sqrt(((obsN-1)*obsStd*obsStd + (predN-1)*predStd*predStd) / (obsN + predN - 2))
	} else {
		pooled = math.Sqrt((obsStd*obsStd + predStd*predStd) / 2)
	}
	if pooled <= 0 || math.IsNaN(pooled) {
		return NewInsufficientData("pooled standard deviation is not positive")
	}
	d := (predMean - obsMean) / pooled
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return NewInsufficientData("effect size is not finite")
	}
	return Score{kind: KindCohenD, value: d}
}

// ComputeRatio divides prediction by observation. A negative ratio is a
// contract violation and surfaces as an InvalidScoreError.
func ComputeRatio(observation, prediction any) (Score, error) {
	obs, ok := predictionValue(observation)
	if !ok {
		return NewInsufficientData("observation has no numeric value"), nil
	}
	pred, ok := predictionValue(prediction)
	if !ok {
		return NewInsufficientData("prediction has no numeric value"), nil
	}
	if obs == 0 {
		return NewInsufficientData("observation value is zero"), nil
	}
	r := pred / obs
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return NewInsufficientData("ratio is not finite"), nil
	}
	return NewRatio(r)
}

// ComputeSumSquaredDiff returns the sum of squared differences between two
// equal-length series as a float score.
func ComputeSumSquaredDiff(observed, predicted []float64) (Score, error) {
	if len(observed) != len(predicted) {
		return Score{}, fmt.Errorf("series length mismatch: %d vs %d", len(observed), len(predicted))
	}
	if len(observed) == 0 {
		return NewInsufficientData("empty series"), nil
	}
	diff := make([]float64, len(observed))
	floats.SubTo(diff, predicted, observed)
	return NewFloat(floats.Dot(diff, diff)), nil
}

// Numeric coerces the common scalar representations that YAML and JSON
// decoding produce into a float64.
func Numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// predictionValue extracts a scalar from either a bare number or a
// distribution-shaped map, preferring "value" over "mean".
func predictionValue(v any) (float64, bool) {
	if n, ok := Numeric(v); ok {
		return n, true
	}
	if m, ok := v.(map[string]any); ok {
		if n, ok := Numeric(m["value"]); ok {
			return n, true
		}
		if n, ok := Numeric(m["mean"]); ok {
			return n, true
		}
	}
	return 0, false
}
