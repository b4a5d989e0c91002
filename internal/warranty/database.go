package warranty

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	warrantyBucket = "warranties"
	codeBucket     = "codes"
	receiptBucket  = "receipts"
)

// DB defines the interface for database operations
type DB interface {
	// SaveWarranty inserts or replaces a warranty
	SaveWarranty(w *Warranty) error

	// GetWarranty retrieves a warranty by ID
	GetWarranty(id string) (*Warranty, error)

	// ListWarranties returns all warranties
	ListWarranties() ([]*Warranty, error)

	// DeleteWarranty removes a warranty
	DeleteWarranty(id string) error

	// SaveCodeScan records an accepted code scan
	SaveCodeScan(scan *CodeScan) error

	// GetCodeScan retrieves a code scan by ID
	GetCodeScan(id string) (*CodeScan, error)

	// SaveReceiptScan records a parsed receipt
	SaveReceiptScan(scan *ReceiptScan) error

	// GetReceiptScan retrieves a receipt scan by ID
	GetReceiptScan(id string) (*ReceiptScan, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{warrantyBucket, codeBucket, receiptBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func put[T any](b *BoltDB, bucket, id string, v *T) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshaling %s record: %w", bucket, err)
		}
		return tx.Bucket([]byte(bucket)).Put([]byte(id), data)
	})
}

func get[T any](b *BoltDB, bucket, id string) (*T, error) {
	var v *T
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucket)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%s record %s: %w", bucket, id, ErrNotFound)
		}
		return json.Unmarshal(data, &v)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (b *BoltDB) SaveWarranty(w *Warranty) error {
	return put(b, warrantyBucket, w.ID, w)
}

func (b *BoltDB) GetWarranty(id string) (*Warranty, error) {
	return get[Warranty](b, warrantyBucket, id)
}

func (b *BoltDB) ListWarranties() ([]*Warranty, error) {
	warranties := make([]*Warranty, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(warrantyBucket)).ForEach(func(k, v []byte) error {
			var w Warranty
			if err := json.Unmarshal(v, &w); err != nil {
				return fmt.Errorf("unmarshaling warranty: %w", err)
			}
			warranties = append(warranties, &w)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return warranties, nil
}

func (b *BoltDB) DeleteWarranty(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(warrantyBucket))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("warranty %s: %w", id, ErrNotFound)
		}
		return bucket.Delete([]byte(id))
	})
}

func (b *BoltDB) SaveCodeScan(scan *CodeScan) error {
	return put(b, codeBucket, scan.ID, scan)
}

func (b *BoltDB) GetCodeScan(id string) (*CodeScan, error) {
	return get[CodeScan](b, codeBucket, id)
}

func (b *BoltDB) SaveReceiptScan(scan *ReceiptScan) error {
	return put(b, receiptBucket, scan.ID, scan)
}

func (b *BoltDB) GetReceiptScan(id string) (*ReceiptScan, error) {
	return get[ReceiptScan](b, receiptBucket, id)
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
