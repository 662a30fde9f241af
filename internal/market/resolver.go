package market

import (
	"errors"
	"regexp"
	"strings"

	"StockScout/internal/model"
)

// ErrInvalidIdentifier is returned for an empty or whitespace-only code.
var ErrInvalidIdentifier = errors.New("empty stock code")

var (
	twDigitsRe = regexp.MustCompile(`^[0-9]{4,6}$`)
	usTickerRe = regexp.MustCompile(`^[A-Z]{1,5}(\.[A-Z])?$`)
)

// Resolve classifies a raw user-entered code into a market domain. It is a
// pure function: the same raw code always resolves identically.
//
// Priority order:
//  1. .TW / .TWO suffix  -> TW (the explicit suffix is authoritative)
//  2. 4-6 bare digits    -> TW (Taiwan tickers are numeric)
//  3. 1-5 letters, optional single-letter class suffix -> US
//  4. anything else      -> AUTO
func Resolve(raw string) (model.Identifier, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return model.Identifier{}, ErrInvalidIdentifier
	}

	id := model.Identifier{Raw: raw, Code: code}

	switch {
	case strings.HasSuffix(code, ".TW"), strings.HasSuffix(code, ".TWO"):
		id.Market = model.MarketTW
	case twDigitsRe.MatchString(code):
		id.Market = model.MarketTW
	case usTickerRe.MatchString(code):
		id.Market = model.MarketUS
	default:
		id.Market = model.MarketAuto
	}
	return id, nil
}
