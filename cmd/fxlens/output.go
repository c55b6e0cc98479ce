package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"fxlens/pkg/model"
)

func outputJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// priceDigits is the quoting precision: JPY pairs to 3 places, others to 5
func priceDigits(pair model.Pair) int {
	if pair.Quote == "JPY" {
		return 3
	}
	return 5
}

func fmtPrice(v float64, digits int) string {
	return fmt.Sprintf("%.*f", digits, v)
}

func fmtValue(v model.Value, digits int) string {
	if !v.Defined() {
		return "-"
	}
	return fmt.Sprintf("%.*f", digits, v.Float())
}

func outputAnalysis(w io.Writer, ta *model.TechnicalAnalysis) error {
	d := priceDigits(ta.Pair)

	fmt.Fprintf(w, "%s  %s  (%d candles, %s)\n\n", ta.Pair, fmtPrice(ta.LastClose, d), ta.Samples, ta.Source)

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Indicator", "Value", "Reading"}),
	)
	table.Append([]string{"RSI(14)", fmt.Sprintf("%.2f", ta.RSI), ta.RSISignal})
	table.Append([]string{"Stoch %K / %D", fmtValue(ta.StochK, 2) + " / " + fmtValue(ta.StochD, 2), ta.StochSignal})
	table.Append([]string{"MACD", fmtValue(ta.MACD, d+1), string(ta.MACDBias)})
	table.Append([]string{"MACD signal / hist", fmtValue(ta.MACDSignalLine, d+1) + " / " + fmtValue(ta.MACDHistogram, d+1), ""})
	table.Append([]string{"SMA20", fmtValue(ta.SMA20, d), ""})
	table.Append([]string{"SMA50", fmtValue(ta.SMA50, d), ""})
	table.Append([]string{"Bollinger upper", fmtValue(ta.BBUpper, d), ""})
	table.Append([]string{"Bollinger middle", fmtValue(ta.BBMiddle, d), ta.BandPosition})
	table.Append([]string{"Bollinger lower", fmtValue(ta.BBLower, d), ""})
	table.Append([]string{"Pattern", string(ta.Pattern.Name), string(ta.Pattern.Bias)})
	table.Append([]string{"Trend", string(ta.TrendDirection), fmt.Sprintf("strength %.1f", ta.TrendStrength)})
	table.Render()

	fmt.Fprintf(w, "\nSignal: %s\n", ta.Signal)
	l := ta.Levels
	fmt.Fprintf(w, "Support:    %s  %s  %s\n", fmtPrice(l.S1, d), fmtPrice(l.S2, d), fmtPrice(l.S3, d))
	fmt.Fprintf(w, "Resistance: %s  %s  %s\n", fmtPrice(l.R1, d), fmtPrice(l.R2, d), fmtPrice(l.R3, d))
	return nil
}

func outputScan(w io.Writer, result *model.ScanResult) error {
	if len(result.Results) == 0 {
		fmt.Fprintln(w, "No pairs analyzed.")
	} else {
		table := tablewriter.NewTable(w,
			tablewriter.WithHeader([]string{"Pair", "Close", "RSI", "MACD", "Trend", "Strength", "Pattern", "Signal"}),
		)
		for _, r := range result.Results {
			table.Append([]string{
				r.Pair.String(),
				fmtPrice(r.LastClose, priceDigits(r.Pair)),
				fmt.Sprintf("%.1f", r.RSI),
				string(r.MACDBias),
				string(r.TrendDirection),
				fmt.Sprintf("%.1f", r.TrendStrength),
				string(r.Pattern.Name),
				string(r.Signal),
			})
		}
		table.Render()
	}

	if len(result.Failures) > 0 {
		names := make([]string, 0, len(result.Failures))
		for name := range result.Failures {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(w, "\nFailed:")
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %s\n", name, result.Failures[name])
		}
	}

	fmt.Fprintf(w, "\nScanned %d pairs in %s\n", result.TotalScanned, result.ScanTime.Round(time.Millisecond))
	return nil
}

func outputRates(w io.Writer, base string, rates map[string]float64) error {
	codes := make([]string, 0, len(rates))
	for c := range rates {
		codes = append(codes, c)
	}
	sort.Strings(codes)

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Currency", "Per 1 " + base}),
	)
	for _, c := range codes {
		table.Append([]string{c, fmt.Sprintf("%.6f", rates[c])})
	}
	table.Render()
	return nil
}
