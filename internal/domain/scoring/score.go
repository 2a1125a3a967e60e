package scoring

import "math"

const (
	MaxPoints = 100
	MinPoints = 10

	PenaltyPerExtraAttempt = 5.0
	PenaltyPerSecond       = 0.5
)

// Score returns the points awarded for a successful submission made on the
// given attempt number after elapsedSeconds on the problem page.
// The result is always within [MinPoints, MaxPoints] and never increases
// when either argument grows.
func Score(attempts, elapsedSeconds int) int {
	extra := attempts - 1
	if extra < 0 {
		extra = 0
	}
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}

	score := MaxPoints - float64(extra)*PenaltyPerExtraAttempt - float64(elapsedSeconds)*PenaltyPerSecond
	if score < MinPoints {
		score = MinPoints
	}
	if score > MaxPoints {
		score = MaxPoints
	}
	return int(math.Round(score))
}
