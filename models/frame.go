package models

import "time"

// RateObservation is one canonical day of Aave rates. Dates are midnight UTC
// with no time-of-day component; a nil rate means the source had no usable
// value for that day.
type RateObservation struct {
	Date      time.Time
	SupplyAPY *float64
	BorrowAPY *float64
}

// YieldObservation is one raw (date, value) point of a single Treasury
// series. Value is nil when the source reported its missing-data sentinel or
// an unparseable number.
type YieldObservation struct {
	Date  time.Time
	Value *float64
}

// YieldRow is one date of the wide yield frame, one optional value per
// tenor. Values are percentage points.
type YieldRow struct {
	Date     time.Time
	Yield6M  *float64
	Yield2Y  *float64
	Yield5Y  *float64
	Yield10Y *float64
}

// Yield returns the value for the given tenor.
func (r *YieldRow) Yield(t Tenor) *float64 {
	switch t {
	case Tenor6M:
		return r.Yield6M
	case Tenor2Y:
		return r.Yield2Y
	case Tenor5Y:
		return r.Yield5Y
	case Tenor10Y:
		return r.Yield10Y
	}
	return nil
}

// SetYield stores the value for the given tenor.
func (r *YieldRow) SetYield(t Tenor, v *float64) {
	switch t {
	case Tenor6M:
		r.Yield6M = v
	case Tenor2Y:
		r.Yield2Y = v
	case Tenor5Y:
		r.Yield5Y = v
	case Tenor10Y:
		r.Yield10Y = v
	}
}

// YieldFrame is the outer-joined wide frame of all tenors, sorted ascending
// by date with at most one row per date.
type YieldFrame []YieldRow

// JoinedRow is one date of the persisted artifact: both Aave rates, the four
// yields, and the eight derived spreads. Any field except Date may be
// missing.
type JoinedRow struct {
	Date time.Time

	SupplyAPY *float64
	BorrowAPY *float64

	Yield6M  *float64
	Yield2Y  *float64
	Yield5Y  *float64
	Yield10Y *float64

	SupplyMinus6M  *float64
	SupplyMinus2Y  *float64
	SupplyMinus5Y  *float64
	SupplyMinus10Y *float64

	BorrowMinus6M  *float64
	BorrowMinus2Y  *float64
	BorrowMinus5Y  *float64
	BorrowMinus10Y *float64
}

// Yield returns the yield value for the given tenor.
func (r *JoinedRow) Yield(t Tenor) *float64 {
	switch t {
	case Tenor6M:
		return r.Yield6M
	case Tenor2Y:
		return r.Yield2Y
	case Tenor5Y:
		return r.Yield5Y
	case Tenor10Y:
		return r.Yield10Y
	}
	return nil
}

// SetYield stores the yield value for the given tenor.
func (r *JoinedRow) SetYield(t Tenor, v *float64) {
	switch t {
	case Tenor6M:
		r.Yield6M = v
	case Tenor2Y:
		r.Yield2Y = v
	case Tenor5Y:
		r.Yield5Y = v
	case Tenor10Y:
		r.Yield10Y = v
	}
}

// SupplySpread returns the supply spread for the given tenor.
func (r *JoinedRow) SupplySpread(t Tenor) *float64 {
	switch t {
	case Tenor6M:
		return r.SupplyMinus6M
	case Tenor2Y:
		return r.SupplyMinus2Y
	case Tenor5Y:
		return r.SupplyMinus5Y
	case Tenor10Y:
		return r.SupplyMinus10Y
	}
	return nil
}

// SetSupplySpread stores the supply spread for the given tenor.
func (r *JoinedRow) SetSupplySpread(t Tenor, v *float64) {
	switch t {
	case Tenor6M:
		r.SupplyMinus6M = v
	case Tenor2Y:
		r.SupplyMinus2Y = v
	case Tenor5Y:
		r.SupplyMinus5Y = v
	case Tenor10Y:
		r.SupplyMinus10Y = v
	}
}

// BorrowSpread returns the borrow spread for the given tenor.
func (r *JoinedRow) BorrowSpread(t Tenor) *float64 {
	switch t {
	case Tenor6M:
		return r.BorrowMinus6M
	case Tenor2Y:
		return r.BorrowMinus2Y
	case Tenor5Y:
		return r.BorrowMinus5Y
	case Tenor10Y:
		return r.BorrowMinus10Y
	}
	return nil
}

// SetBorrowSpread stores the borrow spread for the given tenor.
func (r *JoinedRow) SetBorrowSpread(t Tenor, v *float64) {
	switch t {
	case Tenor6M:
		r.BorrowMinus6M = v
	case Tenor2Y:
		r.BorrowMinus2Y = v
	case Tenor5Y:
		r.BorrowMinus5Y = v
	case Tenor10Y:
		r.BorrowMinus10Y = v
	}
}

// JoinedFrame is the final artifact, one row per date in the rate series'
// range, sorted ascending.
type JoinedFrame []JoinedRow

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Float returns a pointer to v, for building optional values.
func Float(v float64) *float64 {
	return &v
}
