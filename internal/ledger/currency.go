package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Currency is the closed set of supported currencies.
type Currency string

const (
	BTC Currency = "BTC"
	ETH Currency = "ETH"
)

// Currencies lists every supported currency.
var Currencies = []Currency{BTC, ETH}

// ErrUnsupportedCurrency is returned for any currency code outside the supported set.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// ErrInvalidAccountID is returned when an account id does not match its currency's format.
var ErrInvalidAccountID = errors.New("invalid account id")

// ParseCurrency maps a currency code to a Currency, case-insensitively.
func ParseCurrency(code string) (Currency, error) {
	switch c := Currency(strings.ToUpper(strings.TrimSpace(code))); c {
	case BTC, ETH:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, code)
	}
}

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	switch c {
	case BTC, ETH:
		return true
	default:
		return false
	}
}

func (c Currency) String() string { return string(c) }

// NormalizeAccountID validates an account identifier for the currency and
// returns its canonical form. Bitcoin addresses are 1-34 alphanumeric
// characters; Ethereum addresses are 40 hex characters, with an optional 0x
// prefix that is stripped and lower-cased.
func NormalizeAccountID(c Currency, id string) (string, error) {
	id = strings.TrimSpace(id)
	switch c {
	case BTC:
		if len(id) == 0 || len(id) > 34 {
			return "", fmt.Errorf("%w: bitcoin address must be 1-34 characters", ErrInvalidAccountID)
		}
		for _, r := range id {
			if !isAlphanumeric(r) {
				return "", fmt.Errorf("%w: bitcoin address must be alphanumeric", ErrInvalidAccountID)
			}
		}
		return id, nil
	case ETH:
		id = strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(id, "0x"), "0X"))
		if len(id) != 40 {
			return "", fmt.Errorf("%w: ethereum address must be 40 hex characters", ErrInvalidAccountID)
		}
		for _, r := range id {
			if !isHex(r) {
				return "", fmt.Errorf("%w: ethereum address must be hexadecimal", ErrInvalidAccountID)
			}
		}
		return id, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, string(c))
	}
}

func isAlphanumeric(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
}
