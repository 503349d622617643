// Package analytics computes settled-bet performance reports, the ground
// truth for whether recommended value converts into profit and closing
// line value.
package analytics

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/yourusername/sharpline/internal/models"
)

// SettledRecord pairs a settled bet with the price it was recommended at
type SettledRecord struct {
	Bet   *models.SettledBet
	Price float64
}

// Report summarizes realized performance over a settlement window
type Report struct {
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	TotalBets       int       `json:"total_bets"`
	WinningBets     int       `json:"winning_bets"`
	LosingBets      int       `json:"losing_bets"`
	PushedBets      int       `json:"pushed_bets"`
	WinRate         float64   `json:"win_rate"`
	TotalStaked     float64   `json:"total_staked"`
	NetProfit       float64   `json:"net_profit"`
	ROI             float64   `json:"roi"`
	ProfitFactor    float64   `json:"profit_factor"`
	Expectancy      float64   `json:"expectancy"`
	AverageWin      float64   `json:"average_win"`
	AverageLoss     float64   `json:"average_loss"`
	LargestWin      float64   `json:"largest_win"`
	LargestLoss     float64   `json:"largest_loss"`
	MaxDrawdown     float64   `json:"max_drawdown"`
	CLVTrackedBets  int       `json:"clv_tracked_bets"`
	AverageCLV      float64   `json:"average_clv"`
	CLVPositiveRate float64   `json:"clv_positive_rate"`
}

// ToJSON exports the report to JSON
func (r Report) ToJSON() string {
	data, _ := json.Marshal(r)
	return string(data)
}

// Calculate builds a report from settled records. Records are re-sorted by
// settlement time so the drawdown sequence does not depend on input order.
func Calculate(records []SettledRecord, start, end time.Time) Report {
	report := Report{StartDate: start, EndDate: end}
	if len(records) == 0 {
		return report
	}

	sorted := append([]SettledRecord{}, records...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Bet.SettledAt.Before(sorted[j].Bet.SettledAt)
	})

	profits := make([]float64, len(sorted))
	for i, rec := range sorted {
		profits[i] = rec.Bet.ProfitLoss(rec.Price)
		report.TotalStaked += rec.Bet.StakeUnits
		switch rec.Bet.Result {
		case models.BetResultWin:
			report.WinningBets++
		case models.BetResultLoss:
			report.LosingBets++
		case models.BetResultPush:
			report.PushedBets++
		}
	}

	report.TotalBets = len(sorted)
	report.WinRate = winRate(report.WinningBets, report.WinningBets+report.LosingBets)
	report.NetProfit = sum(profits)
	if report.TotalStaked > 0 {
		report.ROI = report.NetProfit / report.TotalStaked
	}
	report.ProfitFactor = profitFactor(profits)
	report.Expectancy = report.NetProfit / float64(report.TotalBets)
	report.AverageWin, report.AverageLoss, report.LargestWin, report.LargestLoss = winLossStats(profits)
	report.MaxDrawdown = maxDrawdown(profits)
	report.CLVTrackedBets, report.AverageCLV, report.CLVPositiveRate = clvStats(sorted)

	return report
}

func winRate(wins, decided int) float64 {
	if decided == 0 {
		return 0
	}
	return float64(wins) / float64(decided)
}

func profitFactor(profits []float64) float64 {
	grossProfit := 0.0
	grossLoss := 0.0
	for _, pl := range profits {
		if pl > 0 {
			grossProfit += pl
		} else {
			grossLoss += math.Abs(pl)
		}
	}
	if grossLoss == 0 {
		if grossProfit > 0 {
			return 999
		}
		return 0
	}
	return grossProfit / grossLoss
}

func winLossStats(profits []float64) (avgWin, avgLoss, largestWin, largestLoss float64) {
	wins := 0
	losses := 0
	winSum := 0.0
	lossSum := 0.0
	for _, pl := range profits {
		if pl > 0 {
			wins++
			winSum += pl
			if pl > largestWin {
				largestWin = pl
			}
		} else if pl < 0 {
			losses++
			lossSum += pl
			if pl < largestLoss {
				largestLoss = pl
			}
		}
	}
	if wins > 0 {
		avgWin = winSum / float64(wins)
	}
	if losses > 0 {
		avgLoss = lossSum / float64(losses)
	}
	return avgWin, avgLoss, largestWin, largestLoss
}

// maxDrawdown measures the deepest peak-to-trough fall of the cumulative
// profit curve, in stake units
func maxDrawdown(profits []float64) float64 {
	maxDD := 0.0
	peak := 0.0
	cumulative := 0.0
	for _, pl := range profits {
		cumulative += pl
		if cumulative > peak {
			peak = cumulative
		}
		drawdown := peak - cumulative
		if drawdown > maxDD {
			maxDD = drawdown
		}
	}
	return maxDD
}

func clvStats(records []SettledRecord) (tracked int, average float64, positiveRate float64) {
	clvSum := 0.0
	positive := 0
	for _, rec := range records {
		if !rec.Bet.HasCLV() {
			continue
		}
		tracked++
		clvSum += *rec.Bet.CLVPercentage
		if *rec.Bet.CLVPercentage > 0 {
			positive++
		}
	}
	if tracked == 0 {
		return 0, 0, 0
	}
	return tracked, clvSum / float64(tracked), float64(positive) / float64(tracked)
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
