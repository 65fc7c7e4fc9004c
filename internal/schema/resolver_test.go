package schema

import "testing"

func TestResolvePreferredBeatsSubstring(t *testing.T) {
	columns := []string{"report_date", "aave_supply_apy_v2", "borrow_rate"}

	col, ok := DateResolver().Resolve(columns)
	if !ok || col != "report_date" {
		t.Fatalf("date: expected report_date, got %q ok=%v", col, ok)
	}
	col, ok = SupplyResolver().Resolve(columns)
	if !ok || col != "aave_supply_apy_v2" {
		t.Fatalf("supply: expected aave_supply_apy_v2, got %q ok=%v", col, ok)
	}
	col, ok = BorrowResolver().Resolve(columns)
	if !ok || col != "borrow_rate" {
		t.Fatalf("borrow: expected borrow_rate, got %q ok=%v", col, ok)
	}
}

func TestSubstringShortestNameWins(t *testing.T) {
	columns := []string{"avg_supply_rate_variant", "supply_x"}
	col, ok := SupplyResolver().Resolve(columns)
	if !ok || col != "supply_x" {
		t.Fatalf("expected shortest match supply_x, got %q ok=%v", col, ok)
	}
}

func TestSubstringRequiresAllTerms(t *testing.T) {
	s := Substring{Terms: []string{"supply", "apy"}}
	if col, ok := s.Match([]string{"supply_rate", "borrow_apy"}); ok {
		t.Fatalf("expected no match, got %q", col)
	}
	if col, ok := s.Match([]string{"Supply_APY"}); !ok || col != "Supply_APY" {
		t.Fatalf("expected case-insensitive match, got %q ok=%v", col, ok)
	}
}

func TestDateFallback(t *testing.T) {
	col, ok := DateResolver().Resolve([]string{"trade_day", "value"})
	if !ok || col != "trade_day" {
		t.Fatalf("expected trade_day via day-suffix fallback, got %q ok=%v", col, ok)
	}
	col, ok = DateResolver().Resolve([]string{"settlement_date_utc", "value"})
	if !ok || col != "settlement_date_utc" {
		t.Fatalf("expected settlement_date_utc via date fallback, got %q ok=%v", col, ok)
	}
	if col, ok = DateResolver().Resolve([]string{"value", "rate"}); ok {
		t.Fatalf("expected no date column, got %q", col)
	}
}

func TestBorrowVariableFallback(t *testing.T) {
	col, ok := BorrowResolver().Resolve([]string{"day", "supply", "avg_variable_apr"})
	if !ok || col != "avg_variable_apr" {
		t.Fatalf("expected avg_variable_apr via variable fallback, got %q ok=%v", col, ok)
	}
}
