package warranty

import (
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Zikrig/garantee-datamatrix/internal/receipt"
	"github.com/Zikrig/garantee-datamatrix/internal/scanning"
)

var _ = Describe("BoltDB", func() {
	var (
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("warranties", func() {
		var warranty *Warranty

		BeforeEach(func() {
			warranty = &Warranty{
				ID:           "a1b2c3d4",
				CustomerID:   "42",
				Code:         ourCode,
				ReceiptItems: []receipt.Item{{Name: "Товар", Quantity: 2, Amount: 398}},
				StartDate:    time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
				EndDate:      time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
				CreatedAt:    time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC),
			}
			Expect(db.SaveWarranty(warranty)).To(Succeed())
		})

		It("should read a saved warranty back", func() {
			saved, err := db.GetWarranty("a1b2c3d4")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Code).To(Equal(ourCode))
			Expect(saved.ReceiptItems).To(Equal(warranty.ReceiptItems))
			Expect(saved.EndDate.Equal(warranty.EndDate)).To(BeTrue())
		})

		It("should list warranties", func() {
			Expect(db.SaveWarranty(&Warranty{ID: "second"})).To(Succeed())
			warranties, err := db.ListWarranties()
			Expect(err).NotTo(HaveOccurred())
			Expect(warranties).To(HaveLen(2))
		})

		It("should return ErrNotFound for unknown IDs", func() {
			_, err := db.GetWarranty("missing")
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		})

		It("should delete a warranty", func() {
			Expect(db.DeleteWarranty("a1b2c3d4")).To(Succeed())
			_, err := db.GetWarranty("a1b2c3d4")
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		})

		It("should refuse to delete an unknown warranty", func() {
			err := db.DeleteWarranty("missing")
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		})
	})

	Describe("scans", func() {
		It("should store code scans", func() {
			Expect(db.SaveCodeScan(&CodeScan{ID: "s1", Codes: []string{ourCode}, Outcome: scanning.Ours})).To(Succeed())
			scan, err := db.GetCodeScan("s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(scan.Outcome).To(Equal(scanning.Ours))
			Expect(scan.Codes).To(Equal([]string{ourCode}))
		})

		It("should store receipt scans", func() {
			Expect(db.SaveReceiptScan(&ReceiptScan{ID: "r1", Date: "15.03.2024"})).To(Succeed())
			scan, err := db.GetReceiptScan("r1")
			Expect(err).NotTo(HaveOccurred())
			Expect(scan.Date).To(Equal("15.03.2024"))
		})

		It("should keep scans apart from warranties", func() {
			Expect(db.SaveCodeScan(&CodeScan{ID: "shared"})).To(Succeed())
			_, err := db.GetWarranty("shared")
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		})
	})

	Describe("reopening", func() {
		It("should keep data across restarts", func() {
			Expect(db.SaveWarranty(&Warranty{ID: "persisted"})).To(Succeed())
			Expect(db.Close()).To(Succeed())

			var err error
			db, err = NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())
			_, err = db.GetWarranty("persisted")
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
