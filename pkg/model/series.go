package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Series is an indicator series aligned index-for-index with its input.
// Positions inside the warm-up window are NaN and encode as JSON null.
type Series []float64

// NewSeries returns a series of length n with every position undefined
func NewSeries(n int) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

// Defined reports whether position i holds a value
func (s Series) Defined(i int) bool {
	return i >= 0 && i < len(s) && !math.IsNaN(s[i])
}

// Last returns the final value, NaN for an empty series
func (s Series) Last() Value {
	if len(s) == 0 {
		return Undefined()
	}
	return Value(s[len(s)-1])
}

// Valid returns the defined values in order
func (s Series) Valid() []float64 {
	out := make([]float64, 0, len(s))
	for _, v := range s {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// MarshalJSON encodes undefined positions as null
func (s Series) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(Value(v).appendJSON(nil))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes null positions as undefined
func (s *Series) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Series, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.NaN()
		} else {
			out[i] = *v
		}
	}
	*s = out
	return nil
}

// Value is a scalar summary that may be undefined (NaN, JSON null)
type Value float64

// Undefined returns the undefined value
func Undefined() Value {
	return Value(math.NaN())
}

// Defined reports whether v holds a number
func (v Value) Defined() bool {
	return !math.IsNaN(float64(v))
}

// Float returns v as float64
func (v Value) Float() float64 {
	return float64(v)
}

func (v Value) appendJSON(b []byte) []byte {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(b, "null"...)
	}
	return strconv.AppendFloat(b, f, 'g', -1, 64)
}

// MarshalJSON encodes NaN as null
func (v Value) MarshalJSON() ([]byte, error) {
	return v.appendJSON(nil), nil
}

// UnmarshalJSON decodes null as NaN
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Undefined()
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*v = Value(f)
	return nil
}

// ChartSeries groups every series a price chart can overlay
type ChartSeries struct {
	Close      Series `json:"close"`
	SMA20      Series `json:"sma20"`
	SMA50      Series `json:"sma50"`
	EMA20      Series `json:"ema20"`
	RSI        Series `json:"rsi"`
	StochK     Series `json:"stoch_k"`
	StochD     Series `json:"stoch_d"`
	MACD       Series `json:"macd"`
	MACDSignal Series `json:"macd_signal"`
	MACDHist   Series `json:"macd_hist"`
	BBUpper    Series `json:"bb_upper"`
	BBMiddle   Series `json:"bb_middle"`
	BBLower    Series `json:"bb_lower"`
}

// TechnicalAnalysis is the full indicator report for one pair
type TechnicalAnalysis struct {
	ID          string    `json:"id"`
	Pair        Pair      `json:"pair"`
	Source      string    `json:"source,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Samples     int       `json:"samples"`
	LastClose   float64   `json:"last_close"`

	RSI            float64 `json:"rsi"`
	RSISignal      string  `json:"rsi_signal"`
	StochK         Value   `json:"stoch_k"`
	StochD         Value   `json:"stoch_d"`
	StochSignal    string  `json:"stoch_signal"`
	MACD           Value   `json:"macd"`
	MACDSignalLine Value   `json:"macd_signal_line"`
	MACDHistogram  Value   `json:"macd_histogram"`
	MACDBias       Bias    `json:"macd_bias"`
	SMA20          Value   `json:"sma20"`
	SMA50          Value   `json:"sma50"`
	BBUpper        Value   `json:"bb_upper"`
	BBMiddle       Value   `json:"bb_middle"`
	BBLower        Value   `json:"bb_lower"`
	BBWidth        Value   `json:"bb_width"`
	BandPosition   string  `json:"band_position"`

	Pattern        Pattern `json:"pattern"`
	TrendDirection Bias    `json:"trend_direction"`
	TrendStrength  float64 `json:"trend_strength"`
	Signal         Signal  `json:"signal"`
	Levels         Levels  `json:"levels"`

	Series ChartSeries `json:"series"`
}
