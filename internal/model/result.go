package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// AdviceClass is the first-class buy/hold/sell category. Downstream styling
// keys on this field instead of sniffing the localized advice text.
type AdviceClass string

const (
	AdviceBuy  AdviceClass = "buy"
	AdviceHold AdviceClass = "hold"
	AdviceSell AdviceClass = "sell"
)

// Confidence grades how much the result should be trusted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Sentiment score bands. These cut points are an external contract: the
// presentation layer classifies results by exactly these thresholds.
const (
	ScoreBuyThreshold  = 70
	ScoreSellThreshold = 40
)

// ClassifyScore maps a sentiment score onto its advice band.
func ClassifyScore(score int) AdviceClass {
	switch {
	case score >= ScoreBuyThreshold:
		return AdviceBuy
	case score <= ScoreSellThreshold:
		return AdviceSell
	default:
		return AdviceHold
	}
}

// PositionAdvice branches guidance by whether the reader already holds the
// stock. Both fields are always populated.
type PositionAdvice struct {
	NoPosition  string `json:"no_position"`
	HasPosition string `json:"has_position"`
}

// KeyedFields is an insertion-ordered string mapping. Some consumers join the
// values in key order, so serialization must be reproducible.
type KeyedFields struct {
	keys   []string
	values map[string]string
}

// Set appends the key on first use and overwrites the value on repeats.
func (f *KeyedFields) Set(key, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns the value for key and whether it was set.
func (f *KeyedFields) Get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (f *KeyedFields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of keys.
func (f *KeyedFields) Len() int { return len(f.keys) }

// MarshalJSON emits a JSON object whose members follow insertion order.
func (f KeyedFields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores the mapping. Member order follows the document.
func (f *KeyedFields) UnmarshalJSON(data []byte) error {
	f.keys = nil
	f.values = make(map[string]string)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return &json.UnmarshalTypeError{Value: "non-object", Type: nil}
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		var val string
		if err := dec.Decode(&val); err != nil {
			return err
		}
		f.Set(key, val)
	}
	_, err = dec.Token() // closing brace
	return err
}

// AnalysisResult is the pipeline's single output unit per stock. The schema is
// total: list and keyed fields may be empty but are never absent, and the
// renderers emit an explicit placeholder for empty ones.
type AnalysisResult struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Market Market `json:"market"`

	LatestClose float64 `json:"latest_close"`
	PctChange   float64 `json:"pct_change"` // latest bar vs previous close, percent

	SentimentScore  int         `json:"sentiment_score"` // 0-100
	AdviceClass     AdviceClass `json:"advice_class"`
	OperationAdvice string      `json:"operation_advice"` // localized label, consistent with AdviceClass
	TrendPrediction string      `json:"trend_prediction"`
	CoreLogic       string      `json:"core_logic"`

	KeySignals   []string `json:"key_signals"`
	RiskWarnings []string `json:"risk_warnings"`

	SniperStrategy   KeyedFields    `json:"sniper_strategy"`
	PositionAdvice   PositionAdvice `json:"position_advice"`
	PositionStrategy KeyedFields    `json:"position_strategy"`
	Checklist        []string       `json:"checklist"`

	Confidence Confidence `json:"confidence"`
	AnalyzedAt time.Time  `json:"analyzed_at"`
}

// Emoji returns the dashboard marker for the result's advice band.
func (r *AnalysisResult) Emoji() string {
	switch r.AdviceClass {
	case AdviceBuy:
		return "🟢"
	case AdviceSell:
		return "🔴"
	default:
		return "🟡"
	}
}

// MarketReviewResult aggregates one run's per-stock results into a
// market-level summary. It is recomputed each run, never stored independently.
type MarketReviewResult struct {
	Date         string   `json:"date"`
	Tone         string   `json:"tone"`
	AverageScore float64  `json:"average_score"`
	Advancers    int      `json:"advancers"`
	Decliners    int      `json:"decliners"`
	Flat         int      `json:"flat"`
	TopMovers    []string `json:"top_movers"`
	RiskThemes   []string `json:"risk_themes"`
	Analyzed     int      `json:"analyzed"`
	Excluded     int      `json:"excluded"` // stocks dropped from the aggregate after failing their pipeline
	GeneratedAt  time.Time `json:"generated_at"`
}
