package invoices

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/errs"
	"github.com/aura-webinar/storefront/pkg/storage"
)

var (
	// ErrNotInvoiceable is returned for orders that are unpaid or free.
	ErrNotInvoiceable = errs.WithKind(errs.Validation, "invoice is only available for completed paid orders")
	// ErrArchiveDisabled is returned when a download link is asked for without object storage.
	ErrArchiveDisabled = errs.WithKind(errs.NotFound, "invoice archive is not configured")
)

// OrderStore reads orders and assigns invoice numbers.
type OrderStore interface {
	Get(ctx context.Context, kind string, id uuid.UUID) (*models.Order, error)
	GetForUser(ctx context.Context, kind string, id, userID uuid.UUID) (*models.Order, error)
	AssignInvoiceNumber(ctx context.Context, kind string, id uuid.UUID, number string) (string, error)
}

// Archive stores rendered invoices.
type Archive interface {
	InvoicesBucket() string
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, contentLength int64, publicRead bool) (string, error)
	Exists(ctx context.Context, bucket, key string) (bool, error)
	GeneratePresignedDownloadURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
	PresignExpire() time.Duration
}

// Config holds invoice settings.
type Config struct {
	Prefix   string
	Currency string
	Seller   Seller
}

// Document is a rendered invoice.
type Document struct {
	Number   string
	Filename string
	PDF      []byte
}

// Service produces invoices.
type Service struct {
	orders  OrderStore
	archive Archive
	cfg     Config
	now     func() time.Time
	logger  *zap.Logger
}

// NewService creates an invoice service. archive may be nil.
func NewService(orders OrderStore, archive Archive, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "INV"
	}
	return &Service{orders: orders, archive: archive, cfg: cfg, now: time.Now, logger: logger}
}

// ForUser renders the invoice of an order owned by userID.
func (s *Service) ForUser(ctx context.Context, kind string, id, userID uuid.UUID) (*Document, error) {
	o, err := s.orders.GetForUser(ctx, kind, id, userID)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, o)
}

// ForAdmin renders the invoice of any order.
func (s *Service) ForAdmin(ctx context.Context, kind string, id uuid.UUID) (*Document, error) {
	o, err := s.orders.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, o)
}

// Link returns a time-limited download URL for an archived invoice,
// rendering and archiving it first if needed.
func (s *Service) Link(ctx context.Context, kind string, id uuid.UUID) (string, error) {
	if s.archive == nil {
		return "", ErrArchiveDisabled
	}
	o, err := s.orders.Get(ctx, kind, id)
	if err != nil {
		return "", err
	}
	if !Invoiceable(o) {
		return "", ErrNotInvoiceable
	}
	bucket, key := s.archive.InvoicesBucket(), storage.InvoiceKey(kind, id.String())
	ok, err := s.archive.Exists(ctx, bucket, key)
	if err != nil {
		return "", errs.Wrap(err, "check invoice archive")
	}
	if !ok {
		doc, err := s.document(ctx, o)
		if err != nil {
			return "", err
		}
		if err := s.store(ctx, kind, id, doc); err != nil {
			return "", err
		}
	}
	return s.archive.GeneratePresignedDownloadURL(ctx, bucket, key, s.archive.PresignExpire())
}

// build renders the invoice and archives it when storage is configured.
// Archive failures are logged; the caller still gets the PDF.
func (s *Service) build(ctx context.Context, o *models.Order) (*Document, error) {
	doc, err := s.document(ctx, o)
	if err != nil {
		return nil, err
	}
	if s.archive != nil {
		if err := s.store(ctx, o.Kind, o.ID, doc); err != nil {
			s.logger.Warn("archive invoice failed", zap.String("invoice", doc.Number), zap.Error(err))
		}
	}
	return doc, nil
}

func (s *Service) document(ctx context.Context, o *models.Order) (*Document, error) {
	if !Invoiceable(o) {
		return nil, ErrNotInvoiceable
	}
	number := o.InvoiceNumber
	if number == "" {
		at := s.now()
		if o.CompletedAt != nil {
			at = *o.CompletedAt
		}
		stored, err := s.orders.AssignInvoiceNumber(ctx, o.Kind, o.ID, NumberFor(s.cfg.Prefix, o.ID, at))
		if err != nil {
			return nil, errs.Wrap(err, "assign invoice number")
		}
		number = stored
		o.InvoiceNumber = stored
	}

	pdf, err := Render(FromOrder(o, number, s.cfg.Seller, s.cfg.Currency))
	if err != nil {
		return nil, err
	}
	return &Document{Number: number, Filename: number + ".pdf", PDF: pdf}, nil
}

func (s *Service) store(ctx context.Context, kind string, id uuid.UUID, doc *Document) error {
	key := storage.InvoiceKey(kind, id.String())
	if _, err := s.archive.Upload(ctx, s.archive.InvoicesBucket(), key, "application/pdf", bytes.NewReader(doc.PDF), int64(len(doc.PDF)), false); err != nil {
		return errs.Wrap(err, "archive invoice")
	}
	return nil
}
