package payment

import (
	"fmt"
	"time"

	"github.com/pendakian/trip-service/internal/core/datamodel/gateway"
	"github.com/pendakian/trip-service/internal/core/datamodel/payment"
)

// MapGatewayStatus translates the processor's transaction status vocabulary
// into the internal payment status. The second return value is false for
// statuses outside the known vocabulary; callers must treat those as no-ops.
func MapGatewayStatus(txnStatus string) (string, bool) {
	switch txnStatus {
	case gateway.TxnStatusSettlement, gateway.TxnStatusCapture, gateway.TxnStatusSuccess:
		return payment.StatusPaid, true
	case gateway.TxnStatusPending:
		return payment.StatusPending, true
	case gateway.TxnStatusDeny, gateway.TxnStatusCancel, gateway.TxnStatusFailure:
		return payment.StatusFailed, true
	case gateway.TxnStatusExpire:
		return payment.StatusExpired, true
	}
	return "", false
}

// GenerateInvoiceNumber builds the merchant order identifier sent to the
// gateway. The unix timestamp keeps retried checkouts for the same booking
// distinguishable on the gateway side.
func GenerateInvoiceNumber(bookingID int64, now time.Time) string {
	return fmt.Sprintf("INV-%d-%d", now.Unix(), bookingID)
}
