package earning

import (
	"github.com/pendakian/trip-service/internal/core/datamodel/earning"
	"github.com/pendakian/trip-service/internal/core/datamodel/withdrawal"
)

// Balance is the derived financial position of a guide. AvailableBalance is
// clamped at zero so data drift can never surface a negative balance.
type Balance struct {
	TotalEarnings      int64 `json:"total_earnings"`
	WithdrawnAmount    int64 `json:"withdrawn_amount"`
	PendingWithdrawals int64 `json:"pending_withdrawals"`
	AvailableBalance   int64 `json:"available_balance"`
}

type OverviewResponse struct {
	Balance     Balance                       `json:"balance"`
	Earnings    []*earning.GuideEarning       `json:"earnings"`
	Withdrawals []*withdrawal.GuideWithdrawal `json:"withdrawals"`
}
