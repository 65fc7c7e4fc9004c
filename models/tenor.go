package models

// Tenor identifies one of the Treasury constant-maturity series tracked by
// the pipeline. The set is fixed: the yield fetcher, the reconciler and the
// spread calculator all iterate Tenors rather than building column names
// from strings.
type Tenor string

const (
	Tenor6M  Tenor = "6m"
	Tenor2Y  Tenor = "2y"
	Tenor5Y  Tenor = "5y"
	Tenor10Y Tenor = "10y"
)

// Tenors lists every tracked tenor in canonical column order.
var Tenors = []Tenor{Tenor6M, Tenor2Y, Tenor5Y, Tenor10Y}

var tenorSeries = map[Tenor]string{
	Tenor6M:  "DGS6MO",
	Tenor2Y:  "DGS2",
	Tenor5Y:  "DGS5",
	Tenor10Y: "DGS10",
}

// SeriesID returns the FRED series identifier for the tenor.
func (t Tenor) SeriesID() string {
	return tenorSeries[t]
}

// YieldColumn returns the canonical column name for the tenor's yield.
func (t Tenor) YieldColumn() string {
	return "yield_" + string(t)
}

// SupplySpreadColumn returns the canonical column name for the supply spread.
func (t Tenor) SupplySpreadColumn() string {
	return "supply_minus_yield_" + string(t)
}

// BorrowSpreadColumn returns the canonical column name for the borrow spread.
func (t Tenor) BorrowSpreadColumn() string {
	return "borrow_minus_yield_" + string(t)
}
