package warranty

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Zikrig/garantee-datamatrix/internal/assist"
	"github.com/Zikrig/garantee-datamatrix/internal/dispatch"
	"github.com/Zikrig/garantee-datamatrix/internal/receipt"
	"github.com/Zikrig/garantee-datamatrix/internal/scanning"
)

// IDGenerator generates unique IDs for records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// CodeExtractor finds product codes in a photo. It gives up between attempts once ctx is done.
type CodeExtractor interface {
	ExtractCodesContext(ctx context.Context, data []byte) []string
}

// ReceiptParser reads a receipt PDF
type ReceiptParser interface {
	ParseBytes(data []byte) (*receipt.Data, error)
}

// ReceiptParserFunc adapts a function to ReceiptParser
type ReceiptParserFunc func(data []byte) (*receipt.Data, error)

func (f ReceiptParserFunc) ParseBytes(data []byte) (*receipt.Data, error) {
	return f(data)
}

// defaultIDGenerator uses the first eight hex digits of a random UUID
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()[:8]
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Config holds the settings read once at startup
type Config struct {
	// Tokens mark codes issued for our products
	Tokens []string
	// ScanTimeout bounds how long a request waits for an extraction
	ScanTimeout time.Duration
	// Assist is consulted for receipts without a readable date. May be nil.
	Assist assist.Reader
}

// Service handles warranty operations
type Service struct {
	db          DB
	storage     Storage
	pool        *dispatch.Pool
	extractor   CodeExtractor
	parser      ReceiptParser
	cfg         Config
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with the receipt engine, default ID generator and time source
func NewService(db DB, storage Storage, pool *dispatch.Pool, extractor CodeExtractor, cfg Config) *Service {
	return NewServiceWithDeps(db, storage, pool, extractor, ReceiptParserFunc(receipt.ParseBytes), cfg,
		&defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, pool *dispatch.Pool, extractor CodeExtractor, parser ReceiptParser,
	cfg Config, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		pool:        pool,
		extractor:   extractor,
		parser:      parser,
		cfg:         cfg,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}\s\-_]`)
	spaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename, fallback string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = unsafeChars.ReplaceAllString(base, "")
	base = spaces.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")

	if utf8.RuneCountInString(base) > 50 {
		base = string([]rune(base)[:50])
	}
	if base == "" {
		base = fallback
	}
	if unsafeChars.MatchString(strings.TrimPrefix(ext, ".")) {
		ext = ""
	}
	return base + ext
}

func (s *Service) scanContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.ScanTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.ScanTimeout)
	}
	return context.WithCancel(ctx)
}

// ScanCode stores a product photo and looks for our DataMatrix code on it.
// Not finding a code, or finding only foreign ones, is a result and not an error.
func (s *Service) ScanCode(ctx context.Context, filename string, data []byte) (*CodeScan, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_code_%s", id, sanitizeFilename(filename, "photo")), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	ctx, cancel := s.scanContext(ctx)
	defer cancel()

	codes, err := dispatch.Run(ctx, s.pool, func() []string {
		return s.extractor.ExtractCodesContext(ctx, data)
	})
	if err == nil && ctx.Err() != nil {
		// the sweep was cut short, so an empty result means nothing
		err = fmt.Errorf("waiting for task: %w", ctx.Err())
	}
	if err != nil {
		slog.Error("Failed to scan code", "filename", filename, "file_size", len(data), "error", err)
		s.removeFile(savedPath)
		return nil, fmt.Errorf("scanning code: %w", err)
	}

	scan := &CodeScan{
		ID:        id,
		Codes:     codes,
		Outcome:   scanning.Classify(codes, s.cfg.Tokens),
		ScannedAt: now,
	}
	slog.Info("Code scanned", "id", id, "outcome", scan.Outcome, "codes", len(codes))

	if scan.Outcome != scanning.Ours {
		s.removeFile(savedPath)
		return scan, nil
	}

	scan.Filename = savedPath
	if err := s.db.SaveCodeScan(scan); err != nil {
		s.removeFile(savedPath)
		return nil, fmt.Errorf("saving code scan: %w", err)
	}
	return scan, nil
}

type parsedReceipt struct {
	data *receipt.Data
	err  error
}

// ScanReceipt stores a receipt PDF and reads its date and items
func (s *Service) ScanReceipt(ctx context.Context, filename string, data []byte) (*ReceiptScan, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_receipt_%s", id, sanitizeFilename(filename, "receipt")), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	scanCtx, cancel := s.scanContext(ctx)
	defer cancel()

	parsed, err := dispatch.Run(scanCtx, s.pool, func() parsedReceipt {
		d, err := s.parser.ParseBytes(data)
		return parsedReceipt{data: d, err: err}
	})
	if err == nil {
		err = parsed.err
	}
	if err != nil {
		slog.Error("Failed to parse receipt", "filename", filename, "file_size", len(data), "error", err)
		s.removeFile(savedPath)
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}

	scan := &ReceiptScan{
		ID:        id,
		Filename:  savedPath,
		Date:      parsed.data.Date,
		Items:     parsed.data.Items,
		Rendered:  receipt.RenderItems(parsed.data.Items),
		RawText:   parsed.data.RawText,
		ScannedAt: now,
	}
	if scan.Date != "" {
		scan.DateSource = "receipt"
	} else if s.cfg.Assist != nil {
		s.askAssist(ctx, scan, data)
	}

	if err := s.db.SaveReceiptScan(scan); err != nil {
		s.removeFile(savedPath)
		return nil, fmt.Errorf("saving receipt scan: %w", err)
	}

	slog.Info("Receipt scanned", "id", id, "date", scan.Date, "date_source", scan.DateSource, "items", len(scan.Items))
	return scan, nil
}

func (s *Service) askAssist(ctx context.Context, scan *ReceiptScan, data []byte) {
	hint, err := s.cfg.Assist.ReadReceipt(ctx, data)
	if err != nil {
		slog.Warn("Receipt assist failed", "id", scan.ID, "error", err)
		return
	}
	if hint.Date != "" {
		scan.Date = hint.Date
		scan.DateSource = "assist"
	}
}

var startDateFormats = []string{
	"02.01.2006",
	"02.01.06",
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
}

// startDate parses a receipt date, falling back to the start of today
func startDate(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	for _, format := range startDateFormats {
		if d, err := time.ParseInLocation(format, raw, now.Location()); err == nil {
			return d
		}
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// CreateWarranty registers a one year warranty starting at the purchase date
func (s *Service) CreateWarranty(req CreateRequest) (*Warranty, error) {
	if strings.TrimSpace(req.CustomerID) == "" {
		return nil, fmt.Errorf("customer id is required: %w", ErrInvalidRequest)
	}

	now := s.timeSource.Now()
	w := &Warranty{
		ID:         s.idGenerator.Generate(),
		CustomerID: strings.TrimSpace(req.CustomerID),
		SKU:        strings.TrimSpace(req.SKU),
		CreatedAt:  now,
	}

	switch {
	case req.CodeScanID != "":
		scan, err := s.db.GetCodeScan(req.CodeScanID)
		if err != nil {
			return nil, fmt.Errorf("getting code scan: %w", err)
		}
		if scan.Outcome != scanning.Ours || len(scan.Codes) == 0 {
			return nil, fmt.Errorf("code scan %s was not accepted: %w", scan.ID, ErrInvalidRequest)
		}
		w.Code = s.ourCode(scan.Codes)
		w.CodeFile = scan.Filename
	default:
		code := strings.TrimSpace(req.Code)
		if code == "" {
			return nil, fmt.Errorf("code or code scan is required: %w", ErrInvalidRequest)
		}
		if utf8.RuneCountInString(code) < MinCodeLength {
			return nil, ErrCodeTooShort
		}
		w.Code = code
	}

	if req.ReceiptScanID != "" {
		rs, err := s.db.GetReceiptScan(req.ReceiptScanID)
		if err != nil {
			return nil, fmt.Errorf("getting receipt scan: %w", err)
		}
		w.ReceiptFile = rs.Filename
		w.ReceiptDate = rs.Date
		w.DateSource = rs.DateSource
		w.ReceiptText = rs.RawText
		w.ReceiptItems = rs.Items
	}

	w.StartDate = startDate(w.ReceiptDate, now)
	w.EndDate = w.StartDate.AddDate(1, 0, 0)

	if err := s.db.SaveWarranty(w); err != nil {
		return nil, fmt.Errorf("saving warranty: %w", err)
	}
	slog.Info("Warranty created", "id", w.ID, "customer_id", w.CustomerID, "start", w.StartDate.Format(time.DateOnly))
	return w, nil
}

// ourCode prefers the first code carrying one of our tokens
func (s *Service) ourCode(codes []string) string {
	for _, c := range codes {
		if scanning.IsOurs([]string{c}, s.cfg.Tokens) {
			return c
		}
	}
	return codes[0]
}

// GetWarranty retrieves a warranty by ID
func (s *Service) GetWarranty(id string) (*Warranty, error) {
	w, err := s.db.GetWarranty(id)
	if err != nil {
		return nil, fmt.Errorf("getting warranty: %w", err)
	}
	return w, nil
}

// ReceiptFile returns the stored receipt PDF of a warranty
func (s *Service) ReceiptFile(id string) ([]byte, error) {
	w, err := s.db.GetWarranty(id)
	if err != nil {
		return nil, fmt.Errorf("getting warranty: %w", err)
	}
	if w.ReceiptFile == "" {
		return nil, fmt.Errorf("receipt of warranty %s: %w", id, ErrNotFound)
	}
	data, err := s.storage.Get(w.ReceiptFile)
	if err != nil {
		return nil, fmt.Errorf("reading receipt file: %w", err)
	}
	return data, nil
}

// Workers reports how many scan workers are busy and how many there are
func (s *Service) Workers() (busy, size int) {
	return s.pool.Running(), s.pool.Cap()
}

// ListWarranties returns the warranties of one customer, or all when customerID is empty, newest first
func (s *Service) ListWarranties(customerID string) ([]*Warranty, error) {
	all, err := s.db.ListWarranties()
	if err != nil {
		return nil, fmt.Errorf("listing warranties: %w", err)
	}

	warranties := make([]*Warranty, 0, len(all))
	for _, w := range all {
		if customerID == "" || w.CustomerID == customerID {
			warranties = append(warranties, w)
		}
	}
	slices.SortStableFunc(warranties, func(a, b *Warranty) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return warranties, nil
}

// DeleteWarranty removes a warranty and its files
func (s *Service) DeleteWarranty(id string) error {
	w, err := s.db.GetWarranty(id)
	if err != nil {
		return fmt.Errorf("getting warranty for deletion: %w", err)
	}

	for _, f := range []string{w.CodeFile, w.ReceiptFile} {
		if f != "" {
			s.removeFile(f)
		}
	}

	if err := s.db.DeleteWarranty(id); err != nil {
		return fmt.Errorf("deleting warranty from database: %w", err)
	}
	return nil
}

// removeFile logs storage failures and carries on
func (s *Service) removeFile(path string) {
	if err := s.storage.Delete(path); err != nil {
		slog.Warn("Failed to delete file", "filename", path, "error", err)
	}
}
