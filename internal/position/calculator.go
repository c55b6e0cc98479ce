// Package position implements the forex trading calculators: position size,
// risk/reward, pip value and margin.
package position

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"fxlens/pkg/model"
)

// StandardLot is the number of base-currency units in one lot
const StandardLot = 100000

// ErrInvalidInput is returned for inputs no calculation can use
var ErrInvalidInput = errors.New("invalid calculator input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// money rounds to cents
func money(v decimal.Decimal) float64 {
	f, _ := v.Round(2).Float64()
	return f
}

// SizeResult is the outcome of a fixed-risk position size calculation
type SizeResult struct {
	Lots       float64 `json:"lots"`
	Units      int64   `json:"units"`
	RiskAmount float64 `json:"risk_amount"`
	// ActualRisk is what the rounded-down lot size actually risks
	ActualRisk float64 `json:"actual_risk"`
}

// PositionSize sizes a trade so that hitting a stop stopPips away loses
// riskPct percent of balance. pipValuePerLot is the account-currency value
// of one pip on one standard lot (10 for USD-quoted majors). Lots are
// rounded down to the nearest micro lot.
func PositionSize(balance, riskPct, stopPips, pipValuePerLot float64) (*SizeResult, error) {
	switch {
	case balance <= 0:
		return nil, invalid("balance must be positive")
	case riskPct <= 0 || riskPct > 100:
		return nil, invalid("risk percent must be in (0, 100]")
	case stopPips <= 0:
		return nil, invalid("stop distance must be positive")
	case pipValuePerLot <= 0:
		return nil, invalid("pip value must be positive")
	}

	risk := decimal.NewFromFloat(balance).Mul(decimal.NewFromFloat(riskPct)).Div(decimal.NewFromInt(100))
	perLot := decimal.NewFromFloat(stopPips).Mul(decimal.NewFromFloat(pipValuePerLot))
	lots := risk.Div(perLot).Truncate(2)

	return &SizeResult{
		Lots:       lots.InexactFloat64(),
		Units:      lots.Mul(decimal.NewFromInt(StandardLot)).IntPart(),
		RiskAmount: money(risk),
		ActualRisk: money(lots.Mul(perLot)),
	}, nil
}

// RiskRewardResult describes a planned trade in pips
type RiskRewardResult struct {
	Direction  model.Bias `json:"direction"`
	RiskPips   float64    `json:"risk_pips"`
	RewardPips float64    `json:"reward_pips"`
	Ratio      float64    `json:"ratio"`
	// Targets at 1R, 2R and 3R from the entry
	Targets [3]float64 `json:"targets"`
	// BreakevenWinRate is the win rate (percent) at which the trade pays for itself
	BreakevenWinRate float64 `json:"breakeven_win_rate"`
}

// RiskReward measures the stop and target distances of a trade. A stop
// below the entry means a long trade, above it a short one.
func RiskReward(pair model.Pair, entry, stop, target float64) (*RiskRewardResult, error) {
	if entry <= 0 || stop <= 0 || target <= 0 {
		return nil, invalid("prices must be positive")
	}
	if entry == stop {
		return nil, invalid("stop equals entry")
	}

	direction := model.Bullish
	sign := 1.0
	if stop > entry {
		direction = model.Bearish
		sign = -1
	}
	if (target-entry)*sign <= 0 {
		return nil, invalid("target is on the stop side of the entry")
	}

	pip := pair.PipSize()
	riskPips := roundTo(math.Abs(entry-stop)/pip, 1)
	rewardPips := roundTo(math.Abs(target-entry)/pip, 1)
	r := math.Abs(entry - stop)

	res := &RiskRewardResult{
		Direction:  direction,
		RiskPips:   riskPips,
		RewardPips: rewardPips,
		Ratio:      roundTo(math.Abs(target-entry)/r, 2),
	}
	for i := range res.Targets {
		res.Targets[i] = entry + sign*r*float64(i+1)
	}
	res.BreakevenWinRate = roundTo(100/(1+res.Ratio), 2)
	return res, nil
}

// PipValueResult is the value of one pip for a given trade size
type PipValueResult struct {
	Quote   float64 `json:"quote"`   // in the pair's quote currency
	Account float64 `json:"account"` // converted to the account currency
}

// PipValue prices one pip on lots of pair. quoteToAccount converts the
// quote currency into the account currency (1 when they match).
func PipValue(pair model.Pair, lots, quoteToAccount float64) (*PipValueResult, error) {
	if lots <= 0 {
		return nil, invalid("lots must be positive")
	}
	if quoteToAccount <= 0 {
		return nil, invalid("conversion rate must be positive")
	}

	units := decimal.NewFromFloat(lots).Mul(decimal.NewFromInt(StandardLot))
	quote := units.Mul(decimal.NewFromFloat(pair.PipSize()))

	return &PipValueResult{
		Quote:   money(quote),
		Account: money(quote.Mul(decimal.NewFromFloat(quoteToAccount))),
	}, nil
}

// MarginResult is the collateral a position ties up
type MarginResult struct {
	Notional float64 `json:"notional"`
	Required float64 `json:"required"`
	Leverage int     `json:"leverage"`
}

// Margin computes the margin for lots at leverage:1. baseToAccount converts
// the pair's base currency into the account currency.
func Margin(lots float64, leverage int, baseToAccount float64) (*MarginResult, error) {
	if lots <= 0 {
		return nil, invalid("lots must be positive")
	}
	if leverage < 1 {
		return nil, invalid("leverage must be at least 1")
	}
	if baseToAccount <= 0 {
		return nil, invalid("conversion rate must be positive")
	}

	notional := decimal.NewFromFloat(lots).
		Mul(decimal.NewFromInt(StandardLot)).
		Mul(decimal.NewFromFloat(baseToAccount))

	return &MarginResult{
		Notional: money(notional),
		Required: money(notional.Div(decimal.NewFromInt(int64(leverage)))),
		Leverage: leverage,
	}, nil
}

func roundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
