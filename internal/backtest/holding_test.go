package backtest

import "testing"

func TestHoldingPeriod(t *testing.T) {
	tests := []struct {
		entry, exit string
		want        int
	}{
		{"2023-01-01", "2023-01-03", 2},
		{"2023-01-01", "2023-01-01T12:00:00", 1},
		{"2023-01-01", "2023-01-01", 0},
		{"2023-01-03", "2023-01-01", 2},
		{"2023-01-01T00:00:00Z", "2023-01-02T00:00:01Z", 2},
		{"2023-01-01 09:30:00", "2023-01-01 16:00:00", 1},
		{"2023-03-01T00:00:00+05:00", "2023-03-01", 1},
		{"2023-12-31", "2024-03-01", 61},
	}

	for _, tt := range tests {
		got, err := HoldingPeriod(tt.entry, tt.exit)
		if err != nil {
			t.Errorf("HoldingPeriod(%q, %q) error: %v", tt.entry, tt.exit, err)
			continue
		}
		if got != tt.want {
			t.Errorf("HoldingPeriod(%q, %q) = %d, want %d", tt.entry, tt.exit, got, tt.want)
		}
	}
}

func TestHoldingPeriod_Invalid(t *testing.T) {
	if _, err := HoldingPeriod("yesterday", "2023-01-01"); err == nil {
		t.Error("expected error for unparseable entry")
	}
	if _, err := HoldingPeriod("2023-01-01", ""); err == nil {
		t.Error("expected error for empty exit")
	}
}
