package indicator

import (
	"math"

	"fxlens/pkg/model"
)

// Bollinger defaults
const (
	DefaultBollingerPeriod = 20
	DefaultBollingerK      = 2.0
)

// BollingerResult holds the band series and the per-window deviation
type BollingerResult struct {
	Upper     model.Series `json:"upper"`
	Middle    model.Series `json:"middle"`
	Lower     model.Series `json:"lower"`
	StdDev    model.Series `json:"std_dev"`
	Bandwidth model.Series `json:"bandwidth"`
}

// Bollinger calculates Bollinger Bands: an SMA middle band with bands k
// population standard deviations above and below it. The first period-1
// positions of every series are undefined.
func Bollinger(prices []float64, period int, k float64) BollingerResult {
	n := len(prices)
	res := BollingerResult{
		Upper:     model.NewSeries(n),
		Middle:    model.NewSeries(n),
		Lower:     model.NewSeries(n),
		StdDev:    model.NewSeries(n),
		Bandwidth: model.NewSeries(n),
	}

	for j, ma := range SMA(prices, period) {
		i := j + period - 1
		window := prices[j : i+1]

		var sumSquares float64
		for _, p := range window {
			diff := p - ma
			sumSquares += diff * diff
		}
		std := math.Sqrt(sumSquares / float64(period))

		res.Middle[i] = ma
		res.StdDev[i] = std
		res.Upper[i] = ma + k*std
		res.Lower[i] = ma - k*std
		if ma != 0 {
			res.Bandwidth[i] = (res.Upper[i] - res.Lower[i]) / ma * 100
		}
	}
	return res
}

// BandPosition places a price relative to the bands
func BandPosition(price float64, upper, lower model.Value) string {
	switch {
	case upper.Defined() && price > upper.Float():
		return "Above"
	case lower.Defined() && price < lower.Float():
		return "Below"
	}
	return "Inside"
}
