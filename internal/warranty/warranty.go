// Package warranty registers product warranties from scanned codes and receipts.
package warranty

import (
	"errors"
	"time"

	"github.com/Zikrig/garantee-datamatrix/internal/receipt"
	"github.com/Zikrig/garantee-datamatrix/internal/scanning"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")
	// ErrCodeTooShort is returned for manually entered codes under MinCodeLength characters
	ErrCodeTooShort = errors.New("code is too short")
	// ErrInvalidRequest is returned for incomplete or inconsistent warranty requests
	ErrInvalidRequest = errors.New("invalid warranty request")
)

// MinCodeLength is the shortest code accepted by manual entry
const MinCodeLength = 10

// Warranty is a registered one year warranty
type Warranty struct {
	ID           string         `json:"id"`
	CustomerID   string         `json:"customer_id"`
	Code         string         `json:"code"`
	CodeFile     string         `json:"code_file,omitempty"`
	ReceiptFile  string         `json:"receipt_file,omitempty"`
	SKU          string         `json:"sku,omitempty"`
	ReceiptDate  string         `json:"receipt_date,omitempty"`
	DateSource   string         `json:"date_source,omitempty"` // "receipt" or "assist"
	ReceiptText  string         `json:"receipt_text,omitempty"`
	ReceiptItems []receipt.Item `json:"receipt_items,omitempty"`
	StartDate    time.Time      `json:"start_date"`
	EndDate      time.Time      `json:"end_date"`
	CreatedAt    time.Time      `json:"created_at"`
}

// CodeScan is the result of scanning a product photo
type CodeScan struct {
	ID        string           `json:"id"`
	Filename  string           `json:"filename,omitempty"`
	Codes     []string         `json:"codes"`
	Outcome   scanning.Outcome `json:"outcome"`
	ScannedAt time.Time        `json:"scanned_at"`
}

// ReceiptScan is the result of parsing a receipt PDF
type ReceiptScan struct {
	ID         string         `json:"id"`
	Filename   string         `json:"filename"`
	Date       string         `json:"date"`
	DateSource string         `json:"date_source,omitempty"`
	Items      []receipt.Item `json:"items"`
	Rendered   string         `json:"rendered"`
	RawText    string         `json:"raw_text"`
	ScannedAt  time.Time      `json:"scanned_at"`
}

// CreateRequest registers a warranty. The code comes from an accepted scan or from manual entry.
type CreateRequest struct {
	CustomerID    string `json:"customer_id"`
	CodeScanID    string `json:"code_scan_id,omitempty"`
	Code          string `json:"code,omitempty"`
	ReceiptScanID string `json:"receipt_scan_id,omitempty"`
	SKU           string `json:"sku,omitempty"`
}
