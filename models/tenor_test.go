package models

import "testing"

func TestTenorSeriesIDs(t *testing.T) {
	want := map[Tenor]string{
		Tenor6M:  "DGS6MO",
		Tenor2Y:  "DGS2",
		Tenor5Y:  "DGS5",
		Tenor10Y: "DGS10",
	}
	for _, tenor := range Tenors {
		if got := tenor.SeriesID(); got != want[tenor] {
			t.Fatalf("series id for %s: got %s, want %s", tenor, got, want[tenor])
		}
	}
}

func TestTenorColumnNames(t *testing.T) {
	if got := Tenor10Y.YieldColumn(); got != "yield_10y" {
		t.Fatalf("yield column: %s", got)
	}
	if got := Tenor6M.SupplySpreadColumn(); got != "supply_minus_yield_6m" {
		t.Fatalf("supply spread column: %s", got)
	}
	if got := Tenor2Y.BorrowSpreadColumn(); got != "borrow_minus_yield_2y" {
		t.Fatalf("borrow spread column: %s", got)
	}
}
