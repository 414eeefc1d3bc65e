package indicator

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Display labels. None of these feed back into signal logic.

// SignalLabel returns the human label for a composite signal.
func SignalLabel(s CompositeSignal) string {
	switch s {
	case SignalAbsoluteBuy:
		return "ABSOLUTE BUY"
	case SignalStrongBuy:
		return "STRONG BUY"
	case SignalBuyZone:
		return "BUY ZONE"
	case SignalTrendFlipBull:
		return "TREND FLIP BULL"
	case SignalTrendFlipBear:
		return "TREND FLIP BEAR"
	case SignalTop:
		return "TOP SIGNAL"
	default:
		return "NEUTRAL"
	}
}

// TrendLabel returns the human label for a trend state.
func TrendLabel(t TrendState) string {
	switch t {
	case TrendBull:
		return "BULLISH"
	case TrendBear:
		return "BEARISH"
	default:
		return "NO DATA"
	}
}

// SentimentLabel buckets a fear & greed value into six display classes.
func SentimentLabel(v *int) string {
	if v == nil {
		return "No Data"
	}
	switch {
	case *v <= 10:
		return "Extreme Fear"
	case *v <= 24:
		return "Fear"
	case *v <= 49:
		return "Neutral"
	case *v <= 74:
		return "Greed"
	case *v <= 89:
		return "High Greed"
	default:
		return "Extreme Greed"
	}
}

// ValuationLabel interprets a valuation score.
func ValuationLabel(v *float64) string {
	if v == nil {
		return "No Data"
	}
	switch s := *v; {
	case s <= 0.1:
		return "Extreme Undervalued (Capitulation)"
	case s <= 0.5:
		return "Undervalued"
	case s <= 1.0:
		return "Below Fair Value"
	case s <= 2.0:
		return "Fair Value"
	case s <= 3.0:
		return "Elevated"
	case s <= 4.0:
		return "High"
	case s <= 6.0:
		return "Very High (Caution)"
	default:
		return "Extreme (Top Territory)"
	}
}

// ProximityLabel interprets a cycle-top proximity percent.
func ProximityLabel(v *float64) string {
	if v == nil {
		return "No Data"
	}
	switch p := *v; {
	case p >= 100:
		return "FIRED - Cycle Top"
	case p >= 98:
		return "Imminent Top"
	case p >= 90:
		return "Warning Zone"
	case p >= 80:
		return "Elevated"
	case p >= 60:
		return "Neutral"
	default:
		return "Low Risk"
	}
}

// FormatUSD renders a price with thousands separators, e.g. "$126,200".
// Prices under 100 keep two decimals.
func FormatUSD(v float64) string {
	p := message.NewPrinter(language.English)
	if v < 100 && v > -100 {
		return p.Sprintf("$%.2f", v)
	}
	return p.Sprintf("$%.0f", v)
}

// FormatPercent renders a signed percent with one decimal, "N/A" when absent.
func FormatPercent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	sign := ""
	if *v > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.1f%%", sign, *v)
}
