package postgres

import (
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pendakian/trip-service/internal/core/datamodel/withdrawal"
)

func TestWithdrawalRepository(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Withdrawal Repository Suite")
}

var _ = ginkgo.Describe("WithdrawalRepository", func() {
	var repo *WithdrawalRepository

	ginkgo.BeforeEach(func() {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		err = db.AutoMigrate(&withdrawal.GuideWithdrawal{})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		repo = NewWithdrawalRepository(db)
	})

	createPending := func(guideID, amount int64) *withdrawal.GuideWithdrawal {
		w := &withdrawal.GuideWithdrawal{
			GuideID:       guideID,
			Amount:        amount,
			Status:        withdrawal.StatusPending,
			BankName:      "BCA",
			AccountNumber: "1234567890",
			AccountName:   "Bayu Aji",
		}
		err := repo.Create(w)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(w.ID).To(gomega.BeNumerically(">", 0))
		gomega.Expect(w.CreatedAt).ToNot(gomega.BeZero())
		return w
	}

	ginkgo.Describe("state transitions", func() {
		ginkgo.It("walks pending through processing to processed", func() {
			w := createPending(5, 500000)

			err := repo.MarkProcessing(w.ID, "po-1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			found, _ := repo.GetByID(w.ID)
			gomega.Expect(found.Status).To(gomega.Equal(withdrawal.StatusProcessing))
			gomega.Expect(*found.TransactionID).To(gomega.Equal("po-1"))

			err = repo.MarkProcessed(w.ID, time.Now().UTC(), nil, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			found, _ = repo.GetByID(w.ID)
			gomega.Expect(found.Status).To(gomega.Equal(withdrawal.StatusProcessed))
			gomega.Expect(found.ProcessedAt).ToNot(gomega.BeNil())
		})

		ginkgo.It("does not move a processed withdrawal again", func() {
			w := createPending(5, 500000)
			gomega.Expect(repo.MarkProcessing(w.ID, "po-1")).To(gomega.Succeed())
			gomega.Expect(repo.MarkProcessed(w.ID, time.Now().UTC(), nil, nil)).To(gomega.Succeed())

			gomega.Expect(repo.MarkFailed(w.ID, "late failure")).To(gomega.Succeed())

			found, _ := repo.GetByID(w.ID)
			gomega.Expect(found.Status).To(gomega.Equal(withdrawal.StatusProcessed))
		})

		ginkgo.It("only rejects from pending", func() {
			w := createPending(5, 500000)
			gomega.Expect(repo.MarkProcessing(w.ID, "po-1")).To(gomega.Succeed())

			gomega.Expect(repo.MarkRejected(w.ID, time.Now().UTC(), 42, "too late")).To(gomega.Succeed())

			found, _ := repo.GetByID(w.ID)
			gomega.Expect(found.Status).To(gomega.Equal(withdrawal.StatusProcessing))
		})

		ginkgo.It("records admin details when processed manually", func() {
			w := createPending(5, 500000)
			adminID := int64(42)
			reference := "TRF/2026/08/001"

			err := repo.MarkProcessed(w.ID, time.Now().UTC(), &adminID, &reference)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			found, _ := repo.GetByID(w.ID)
			gomega.Expect(*found.ProcessedBy).To(gomega.Equal(adminID))
			gomega.Expect(*found.ReferenceNumber).To(gomega.Equal(reference))
		})
	})

	ginkgo.Describe("ledger sums", func() {
		ginkgo.It("splits processed and reserved amounts", func() {
			processed := createPending(5, 600000)
			gomega.Expect(repo.MarkProcessing(processed.ID, "po-1")).To(gomega.Succeed())
			gomega.Expect(repo.MarkProcessed(processed.ID, time.Now().UTC(), nil, nil)).To(gomega.Succeed())

			inFlight := createPending(5, 150000)
			gomega.Expect(repo.MarkProcessing(inFlight.ID, "po-2")).To(gomega.Succeed())

			createPending(5, 50000)

			failed := createPending(5, 900000)
			gomega.Expect(repo.MarkFailed(failed.ID, "payout rejected")).To(gomega.Succeed())

			createPending(6, 999999)

			got, err := repo.SumProcessedByGuide(5)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(got).To(gomega.Equal(int64(600000)))

			got, err = repo.SumReservedByGuide(5)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(got).To(gomega.Equal(int64(200000)))
		})
	})

	ginkgo.Describe("ListByStatus", func() {
		ginkgo.It("returns only rows in the given status", func() {
			createPending(5, 100000)
			createPending(6, 200000)
			processing := createPending(7, 300000)
			gomega.Expect(repo.MarkProcessing(processing.ID, "po-1")).To(gomega.Succeed())

			pending, err := repo.ListByStatus(withdrawal.StatusPending)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(pending).To(gomega.HaveLen(2))
		})
	})
})
