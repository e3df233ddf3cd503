package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SidharthK2/polymarket-agent/internal/domain"
)

// OrderArchiveSource is the read slice of the order journal the archiver
// needs. The Postgres journal satisfies it through ListRecent with an Until
// filter.
type OrderArchiveSource interface {
	ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.OrderRecord, error)
}

// AuditArchiveSource is the read slice of the audit log the archiver needs.
type AuditArchiveSource interface {
	List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error)
}

// ArchiveImpl implements domain.Archiver by exporting old journal and audit
// rows as JSONL objects in cold storage. Deletion from the primary store is
// deliberately a separate step, run only after the archive is verified.
type ArchiveImpl struct {
	writer domain.BlobWriter
	orders OrderArchiveSource
	audit  AuditArchiveSource
}

// NewArchiver creates an ArchiveImpl.
func NewArchiver(writer domain.BlobWriter, orders OrderArchiveSource, audit AuditArchiveSource) *ArchiveImpl {
	return &ArchiveImpl{writer: writer, orders: orders, audit: audit}
}

// ArchiveOrders exports every journal row created before the cutoff to
// archive/orders/YYYY-MM.jsonl and returns the exported count.
func (a *ArchiveImpl) ArchiveOrders(ctx context.Context, before time.Time) (int64, error) {
	recs, err := a.orders.ListRecent(ctx, domain.ListOpts{Until: &before})
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive orders query: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(recs)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive orders marshal: %w", err)
	}

	path := archivePath("orders", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive orders upload: %w", err)
	}

	return int64(len(recs)), nil
}

// ArchiveAudit exports every audit entry created before the cutoff to
// archive/audit/YYYY-MM.jsonl and returns the exported count.
func (a *ArchiveImpl) ArchiveAudit(ctx context.Context, before time.Time) (int64, error) {
	entries, err := a.audit.List(ctx, domain.ListOpts{Until: &before})
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive audit query: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(entries)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive audit marshal: %w", err)
	}

	path := archivePath("audit", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive audit upload: %w", err)
	}

	return int64(len(entries)), nil
}

// archivePath builds the object key for an archive file, partitioned by the
// year-month of the cutoff.
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
