package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"finassist/internal/extract"
	"finassist/internal/model"
	"finassist/internal/storage"
)

var tracer = otel.Tracer("finassist/internal/service")

// Upload is a document received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Ingested is the outcome of processing one Upload.
type Ingested struct {
	Fields model.ExtractedFields
	// Key is the object-store key of the archived upload, nil when archiving is disabled.
	Key *string
}

// Ingestor turns uploads into extracted fields and keeps a copy of the uploaded file.
type Ingestor struct {
	conv    extract.Converter
	store   storage.Storage
	timeout time.Duration
	log     *zap.Logger
}

// NewIngestor builds an Ingestor. store may be nil to disable archiving.
func NewIngestor(conv extract.Converter, store storage.Storage, timeout time.Duration, log *zap.Logger) *Ingestor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingestor{conv: conv, store: store, timeout: timeout, log: log}
}

// Ingest processes up on behalf of userID. Conversion runs under the configured
// timeout and any conversion failure is reported as extract.ErrExtractionFailure.
func (i *Ingestor) Ingest(ctx context.Context, userID string, up *Upload) (*Ingested, error) {
	ctx, span := tracer.Start(ctx, "ingest.document", trace.WithAttributes(
		attribute.String("document.content_type", up.ContentType),
		attribute.Int("document.size", len(up.Data)),
	))
	defer span.End()

	cctx, cancel := context.WithTimeout(ctx, i.timeout)
	text, err := i.conv.ToText(cctx, up.Data, up.ContentType)
	cancel()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "conversion failed")
		return nil, fmt.Errorf("%w: %v", extract.ErrExtractionFailure, err)
	}

	res := &Ingested{Fields: extract.Parse(text)}
	if mode := res.Fields.IncomeMode; mode != nil {
		span.SetAttributes(attribute.String("document.income_mode", *mode))
	}

	if i.store == nil {
		return res, nil
	}
	key := storage.DocumentKey(userID, up.Filename)
	_, err = i.store.Put(ctx, key, bytes.NewReader(up.Data), storage.PutObjectOptions{
		Size:        int64(len(up.Data)),
		ContentType: up.ContentType,
		Metadata:    map[string]string{"original-filename": up.Filename},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "archive failed")
		return nil, fmt.Errorf("archive document: %w", err)
	}
	res.Key = &key
	return res, nil
}

// Discard removes an archived object whose owning write did not happen.
// Failures are logged; the caller already has an error to return.
func (i *Ingestor) Discard(ctx context.Context, key *string) {
	if i.store == nil || key == nil {
		return
	}
	if err := i.store.Delete(context.WithoutCancel(ctx), *key); err != nil {
		i.log.Warn("document_discard_failed", zap.String("key", *key), zap.Error(err))
	}
}
