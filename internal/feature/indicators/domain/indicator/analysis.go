package indicator

import (
	"fmt"
	"math"
)

// Trend classifies price relative to its short and long moving averages.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// Momentum classifies an oscillator reading.
type Momentum string

const (
	MomentumOverbought Momentum = "overbought"
	MomentumOversold   Momentum = "oversold"
	MomentumNeutral    Momentum = "neutral"
)

// Pattern is a single-bar candlestick pattern.
type Pattern string

const (
	PatternDoji         Pattern = "doji"
	PatternHammer       Pattern = "hammer"
	PatternShootingStar Pattern = "shooting_star"
)

// Action is the direction of a trading signal.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Signal is one reason to buy or sell.
type Signal struct {
	Action Action
	Reason string
}

// Thresholds used by Analyze.
const (
	rsiOverbought = 70.0
	rsiOversold   = 30.0
	rsiNeutral    = 50.0

	dojiBodyRatio     = 0.1
	reversalBodyRatio = 0.3
	reversalWickRatio = 0.6
)

// Summary is the at-a-glance technical read of the latest bar.
type Summary struct {
	Price           float64
	SMA20           float64
	SMA50           float64
	PriceVsSMA20Pct float64
	PriceVsSMA50Pct float64
	Trend           Trend

	RSI       float64
	RSISignal Momentum

	MACD          float64
	MACDSignal    float64
	MACDBullish   bool
	MACDCrossover Action // BUY on a bullish cross at the last bar, SELL on a bearish one, "" otherwise

	ATR    float64
	ATRPct float64

	Support    float64 // NaN when none was found
	Resistance float64 // NaN when none was found

	Patterns       []Pattern
	Signals        []Signal
	Recommendation Action
}

// Analyze summarises trend, momentum, volatility, key levels and candle
// patterns at the last bar. ok is false for an empty series.
//
// Undefined moving averages count as 0 and an undefined RSI counts as 50,
// so short histories degrade to a neutral read instead of failing.
func Analyze(series PriceSeries) (Summary, bool) {
	last, ok := series.Last()
	if !ok {
		return Summary{}, false
	}
	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	n := len(series)

	s := Summary{Price: last.Close}

	s.SMA20 = orDefault(SMA(closes, 20).At(n-1), 0)
	s.SMA50 = orDefault(SMA(closes, 50).At(n-1), 0)
	s.PriceVsSMA20Pct = pctAbove(s.Price, s.SMA20)
	s.PriceVsSMA50Pct = pctAbove(s.Price, s.SMA50)
	switch {
	case s.Price > s.SMA20 && s.SMA20 > s.SMA50:
		s.Trend = TrendBullish
	case s.Price < s.SMA20 && s.SMA20 < s.SMA50:
		s.Trend = TrendBearish
	default:
		s.Trend = TrendNeutral
	}

	s.RSI = orDefault(RSI(closes, 14).At(n-1), rsiNeutral)
	switch {
	case s.RSI > rsiOverbought:
		s.RSISignal = MomentumOverbought
	case s.RSI < rsiOversold:
		s.RSISignal = MomentumOversold
	default:
		s.RSISignal = MomentumNeutral
	}

	macd := MACD(closes, 12, 26, 9)
	s.MACD = macd.MACD.At(n - 1)
	s.MACDSignal = macd.Signal.At(n - 1)
	s.MACDBullish = s.MACD > s.MACDSignal
	if n >= 2 {
		prevMACD, prevSig := macd.MACD[n-2], macd.Signal[n-2]
		switch {
		case s.MACD > s.MACDSignal && prevMACD <= prevSig:
			s.MACDCrossover = ActionBuy
		case s.MACD < s.MACDSignal && prevMACD >= prevSig:
			s.MACDCrossover = ActionSell
		}
	}

	s.ATR = orDefault(ATR(highs, lows, closes, 14).At(n-1), 0)
	s.ATRPct = math.NaN()
	if s.Price != 0 {
		s.ATRPct = s.ATR / s.Price * 100
	}

	levels := SupportResistance(highs, lows, 20)
	s.Support, s.Resistance = math.NaN(), math.NaN()
	if len(levels.Support) > 0 {
		s.Support = levels.Support[0]
	}
	if len(levels.Resistance) > 0 {
		s.Resistance = levels.Resistance[0]
	}

	s.Patterns = DetectPatterns(last)
	s.Signals = signals(s)
	s.Recommendation = ActionHold
	if len(s.Signals) > 0 {
		s.Recommendation = s.Signals[0].Action
	}
	return s, true
}

// DetectPatterns checks one bar for doji, hammer and shooting star shapes.
func DetectPatterns(b Bar) []Pattern {
	patterns := []Pattern{}
	rng := b.High - b.Low
	body := math.Abs(b.Close - b.Open)

	if body < rng*dojiBodyRatio {
		patterns = append(patterns, PatternDoji)
	}
	if b.Close > b.Open && b.Close-b.Open < rng*reversalBodyRatio && b.Open-b.Low > rng*reversalWickRatio {
		patterns = append(patterns, PatternHammer)
	}
	if b.Open > b.Close && b.Open-b.Close < rng*reversalBodyRatio && b.High-b.Open > rng*reversalWickRatio {
		patterns = append(patterns, PatternShootingStar)
	}
	return patterns
}

func signals(s Summary) []Signal {
	out := []Signal{}
	switch s.Trend {
	case TrendBullish:
		out = append(out, Signal{Action: ActionBuy, Reason: "strong uptrend"})
	case TrendBearish:
		out = append(out, Signal{Action: ActionSell, Reason: "strong downtrend"})
	}
	switch s.RSISignal {
	case MomentumOversold:
		out = append(out, Signal{Action: ActionBuy, Reason: fmt.Sprintf("RSI oversold (%.1f)", s.RSI)})
	case MomentumOverbought:
		out = append(out, Signal{Action: ActionSell, Reason: fmt.Sprintf("RSI overbought (%.1f)", s.RSI)})
	}
	switch s.MACDCrossover {
	case ActionBuy:
		out = append(out, Signal{Action: ActionBuy, Reason: "MACD bullish crossover"})
	case ActionSell:
		out = append(out, Signal{Action: ActionSell, Reason: "MACD bearish crossover"})
	}
	return out
}

func orDefault(v, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	return v
}

// pctAbove returns how far price sits above ref in percent. A zero
// reference has no defined ratio.
func pctAbove(price, ref float64) float64 {
	if ref == 0 {
		return math.NaN()
	}
	return (price/ref - 1) * 100
}
