// Package processor joins the canonical rate and yield series onto a common
// calendar and derives spread columns.
package processor

import (
	"time"

	"github.com/dobbobalina2/Crypto-US-yields/logger"
	"github.com/dobbobalina2/Crypto-US-yields/models"
)

// Reconcile joins the rate series against the yield frame.
//
// In strict mode only dates present in both survive (inner join). In filled
// mode the yield frame is reindexed onto every calendar day of the rate
// series' range and forward-filled, then the rates are left-joined against
// it, so every rate date appears exactly once regardless of yield-calendar
// gaps. Bond yields are not published on weekends and holidays but are
// assumed constant until the next publication.
func Reconcile(rates []models.RateObservation, yields models.YieldFrame, fillGaps bool) models.JoinedFrame {
	log := logger.GetLogger().WithComponent("reconciler")

	byDate := make(map[time.Time]models.YieldRow, len(yields))
	for _, row := range yields {
		byDate[row.Date] = row
	}

	inner := innerJoin(rates, byDate)
	log.WithFields(logger.Fields{"rows": len(inner)}).Info("inner-joined rows")

	if !fillGaps {
		return inner
	}
	if len(rates) == 0 {
		return models.JoinedFrame{}
	}

	minDate, maxDate := rateRange(rates)
	filled := forwardFill(minDate, maxDate, yields)
	out := make(models.JoinedFrame, 0, len(rates))
	for _, rate := range rates {
		row := models.JoinedRow{
			Date:      rate.Date,
			SupplyAPY: rate.SupplyAPY,
			BorrowAPY: rate.BorrowAPY,
		}
		if yr, ok := filled[rate.Date]; ok {
			for _, tenor := range models.Tenors {
				row.SetYield(tenor, yr.Yield(tenor))
			}
		}
		out = append(out, row)
	}
	return out
}

func innerJoin(rates []models.RateObservation, byDate map[time.Time]models.YieldRow) models.JoinedFrame {
	out := models.JoinedFrame{}
	for _, rate := range rates {
		yr, ok := byDate[rate.Date]
		if !ok {
			continue
		}
		row := models.JoinedRow{
			Date:      rate.Date,
			SupplyAPY: rate.SupplyAPY,
			BorrowAPY: rate.BorrowAPY,
		}
		for _, tenor := range models.Tenors {
			row.SetYield(tenor, yr.Yield(tenor))
		}
		out = append(out, row)
	}
	return out
}

func rateRange(rates []models.RateObservation) (time.Time, time.Time) {
	min, max := rates[0].Date, rates[0].Date
	for _, r := range rates[1:] {
		if r.Date.Before(min) {
			min = r.Date
		}
		if r.Date.After(max) {
			max = r.Date
		}
	}
	return min, max
}

// forwardFill reindexes the yield frame onto the complete daily calendar
// from min to max inclusive, carrying each tenor's last known value through
// missing days. Days before a tenor's first observation stay missing; the
// fill cannot manufacture values it has never seen.
func forwardFill(min, max time.Time, yields models.YieldFrame) map[time.Time]models.YieldRow {
	byDate := make(map[time.Time]models.YieldRow, len(yields))
	for _, row := range yields {
		byDate[row.Date] = row
	}

	out := make(map[time.Time]models.YieldRow)
	carried := make(map[models.Tenor]*float64, len(models.Tenors))
	for day := min; !day.After(max); day = day.AddDate(0, 0, 1) {
		if src, ok := byDate[day]; ok {
			for _, tenor := range models.Tenors {
				if v := src.Yield(tenor); v != nil {
					carried[tenor] = v
				}
			}
		}
		row := models.YieldRow{Date: day}
		for _, tenor := range models.Tenors {
			row.SetYield(tenor, carried[tenor])
		}
		out[day] = row
	}
	return out
}
