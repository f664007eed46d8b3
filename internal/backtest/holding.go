package backtest

import (
	"fmt"
	"time"
)

// timestamp layouts accepted for trade dates, tried in order
var tradeTimeLayouts = []string{
	DateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// ParseTradeTime parses a trade timestamp. Values without a zone are UTC.
func ParseTradeTime(s string) (time.Time, error) {
	for _, layout := range tradeTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized trade time %q", s)
}

// HoldingPeriod returns the whole-day ceiling of the absolute distance
// between entry and exit.
func HoldingPeriod(entry, exit string) (int, error) {
	from, err := ParseTradeTime(entry)
	if err != nil {
		return 0, err
	}
	to, err := ParseTradeTime(exit)
	if err != nil {
		return 0, err
	}

	d := to.Sub(from)
	if d < 0 {
		d = -d
	}
	const day = 24 * time.Hour
	days := d / day
	if d%day != 0 {
		days++
	}
	return int(days), nil
}
