package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/pendakian/trip-service/internal"
	"github.com/pendakian/trip-service/internal/core/datamodel/payment"
	paymentPkg "github.com/pendakian/trip-service/internal/payment"
	"github.com/pendakian/trip-service/internal/transport"
)

type stubPaymentService struct {
	notifications []*paymentPkg.GatewayNotification
	notifyErr     error
	verifyResp    *paymentPkg.PaymentStatusResponse
	verifyErr     error
}

func (s *stubPaymentService) HandleNotification(ctx context.Context, notif *paymentPkg.GatewayNotification) error {
	s.notifications = append(s.notifications, notif)
	return s.notifyErr
}

func (s *stubPaymentService) VerifyStatus(ctx context.Context, orderID string) (*paymentPkg.PaymentStatusResponse, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return s.verifyResp, nil
}

func (s *stubPaymentService) GetByBookingID(bookingID int64) (*payment.Payment, error) {
	return nil, errors.New("not implemented")
}

var _ = Describe("WebhookHandler", func() {
	var (
		handler *paymentPkg.WebhookHandler
		service *stubPaymentService
	)

	BeforeEach(func() {
		service = &stubPaymentService{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler = paymentPkg.NewWebhookHandler(transport.NewBaseHandler(logger), service, logger)
	})

	post := func(path string, body interface{}) *httptest.ResponseRecorder {
		payload, err := json.Marshal(body)
		Expect(err).ToNot(HaveOccurred())
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		switch path {
		case "/api/v1/payments/callback":
			handler.HandleCallback(rec, req)
		case "/api/v1/payments/return":
			handler.HandleReturn(rec, req)
		}
		return rec
	}

	Describe("HandleCallback", func() {
		It("acknowledges a processed callback", func() {
			rec := post("/api/v1/payments/callback", map[string]string{
				"order_id":           "INV-1-7",
				"transaction_id":     "txn-1",
				"transaction_status": "settlement",
			})

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(service.notifications).To(HaveLen(1))
			Expect(service.notifications[0].OrderID).To(Equal("INV-1-7"))
		})

		It("returns 404 for a callback that can never match", func() {
			service.notifyErr = apperrors.ErrPaymentNotFound

			rec := post("/api/v1/payments/callback", map[string]string{
				"order_id":           "unknown",
				"transaction_status": "settlement",
			})

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 500 so the gateway retries on processing failures", func() {
			service.notifyErr = errors.New("db down")

			rec := post("/api/v1/payments/callback", map[string]string{
				"order_id":           "INV-1-7",
				"transaction_status": "settlement",
			})

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		})

		It("rejects a callback without a transaction status", func() {
			rec := post("/api/v1/payments/callback", map[string]string{
				"order_id": "INV-1-7",
			})

			Expect(rec.Code).To(BeNumerically(">=", 400))
			Expect(service.notifications).To(BeEmpty())
		})
	})

	Describe("HandleReturn", func() {
		It("reports the reconciled payment state", func() {
			service.verifyResp = &paymentPkg.PaymentStatusResponse{
				BookingID: 7,
				Status:    payment.StatusPaid,
			}

			rec := post("/api/v1/payments/return", map[string]string{"order_id": "INV-1-7"})
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp paymentPkg.PaymentStatusResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Status).To(Equal(payment.StatusPaid))
		})

		It("requires an order id", func() {
			rec := post("/api/v1/payments/return", map[string]string{})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
