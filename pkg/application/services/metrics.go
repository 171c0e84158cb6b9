package services

import (
	"math"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// GiniCoefficient measures inequality of non-negative counts as
// sum|xi-xj| / (2 n² mean), rounded to 3 decimals. Fewer than two values or
// a zero mean give 0.
func GiniCoefficient(values []int) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	total := lo.Sum(values)
	if total == 0 {
		return 0
	}
	mean := float64(total) / float64(n)

	sumDiff := 0
	for _, xi := range values {
		for _, xj := range values {
			if xi > xj {
				sumDiff += xi - xj
			} else {
				sumDiff += xj - xi
			}
		}
	}
	return roundTo(float64(sumDiff)/(2*float64(n*n)*mean), 3)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func round1(v float64) float64 {
	return roundTo(v, 1)
}

// ratio returns num/den, or 0 when den is 0
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// percent returns num/den as a percentage rounded to one decimal, 0 when den is 0
func percent(num, den int) float64 {
	return round1(ratio(float64(num), float64(den)) * 100)
}

func average(sum float64, n int) float64 {
	return round1(ratio(sum, float64(n)))
}

// percentChange is the change from old to cur in percent, rounded to one
// decimal: 0 when both are zero and 100 when only old is zero.
func percentChange(cur, old decimal.Decimal) float64 {
	if old.IsZero() {
		if cur.IsZero() {
			return 0
		}
		return 100
	}
	change, _ := cur.Sub(old).Div(old).Mul(decimal.NewFromInt(100)).Round(1).Float64()
	return change
}
