// Package dates normalizes the date formats that show up in imported CSVs so
// merges do not silently corrupt timestamps stored under a different layout.
package dates

import (
	"fmt"
	"time"
)

// Canonical is the single sortable layout used for every stored date value.
const Canonical = "2006-01-02 15:04:05"

// guessLadder is tried in order; the first layout that parses wins. Canonical
// comes first so already-normalized values stay stable.
var guessLadder = []string{
	Canonical,
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
	"01/02/2006 15:04",
	"01/02/2006",
	"2006/01/02",
	"02.01.2006 15:04:05",
	"02.01.2006",
	"2006.01.02",
	time.RFC3339,
}

// GuessFormat infers the layout of a sample date value. Returns ok=false when
// no known layout parses the sample.
func GuessFormat(sample string) (string, bool) {
	for _, layout := range guessLadder {
		if _, err := time.Parse(layout, sample); err == nil {
			return layout, true
		}
	}
	return "", false
}

// Reparse converts value into the canonical layout. It parses under format
// first and falls back to the canonical layout itself, so an incoming value
// that is already normalized survives whatever format the stored value has.
func Reparse(value, format string) (string, error) {
	t, err := time.Parse(format, value)
	if err != nil {
		t, err = time.Parse(Canonical, value)
		if err != nil {
			return "", fmt.Errorf("date %q matches neither %q nor the canonical layout", value, format)
		}
	}
	return t.Format(Canonical), nil
}
