package oddsmath

// ComputeCLV computes closing-line value as a percentage for a bet taken at
// recommendationPrice against the market's final closingPrice (both decimal).
//
// CLV = ((1/implied(rec)) / (1/implied(close)) − 1) × 100, which reduces to
// (rec/close − 1) × 100. Positive means the bettor beat the closing price.
func ComputeCLV(recommendationPrice, closingPrice float64) float64 {
	if recommendationPrice <= 0 || closingPrice <= 0 {
		return 0
	}
	recFair := 1.0 / ImpliedProbability(recommendationPrice)
	closeFair := 1.0 / ImpliedProbability(closingPrice)
	return (recFair/closeFair - 1.0) * 100.0
}
