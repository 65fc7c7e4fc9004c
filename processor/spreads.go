package processor

import "github.com/dobbobalina2/Crypto-US-yields/models"

// AddSpreads derives, for every tenor, the difference between each Aave rate
// and that tenor's yield. A spread is missing whenever either operand is
// missing; nothing is zero-filled.
func AddSpreads(frame models.JoinedFrame) models.JoinedFrame {
	out := make(models.JoinedFrame, len(frame))
	for i, row := range frame {
		for _, tenor := range models.Tenors {
			row.SetSupplySpread(tenor, diff(row.SupplyAPY, row.Yield(tenor)))
			row.SetBorrowSpread(tenor, diff(row.BorrowAPY, row.Yield(tenor)))
		}
		out[i] = row
	}
	return out
}

func diff(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	d := *a - *b
	return &d
}
