package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/b2bconvert/internal/logging"
	"github.com/google/uuid"
)

// UnknownVendor names the stored vendor for rows whose manufacturer could not
// be resolved.
const UnknownVendor = "Unknown Vendor"

// DefaultConversionTimeout bounds a single conversion when none is configured.
const DefaultConversionTimeout = 2 * time.Minute

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Timeout  time.Duration
	SpoolDir string
	Limiter  *ConversionLimiter
}

// Service is the entry point used by the HTTP handlers and the CLI. It adds
// concurrency limits, deadlines, spooling, storage and logging around a
// Converter.
type Service struct {
	converter *Converter
	store     ProductStore
	limiter   *ConversionLimiter
	timeout   time.Duration
	spoolDir  string
}

// NewService creates a Service. store may be nil, in which case Import and
// ExportProducts return ErrStoreUnavailable.
func NewService(converter *Converter, store ProductStore, opts ServiceOptions) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultConversionTimeout
	}
	if opts.Limiter == nil {
		opts.Limiter = NewConversionLimiter(0, 0)
	}
	return &Service{
		converter: converter,
		store:     store,
		limiter:   opts.Limiter,
		timeout:   opts.Timeout,
		spoolDir:  opts.SpoolDir,
	}
}

// Limiter exposes the conversion limiter for health checks and shutdown.
func (s *Service) Limiter() *ConversionLimiter {
	return s.limiter
}

// run holds a limiter slot and a deadline around fn.
func (s *Service) run(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.limiter.Do(ctx, func() error { return fn(ctx) })
}

// Preview converts r and returns the first rows with whole-file counts.
func (s *Service) Preview(ctx context.Context, r io.Reader, opts Options) (*PreviewResult, error) {
	logger := logging.ForConversion(ctx, "preview", opts.FileName)

	var res *PreviewResult
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.converter.Preview(ctx, r, opts)
		return err
	})
	if err != nil {
		logger.Warn("preview failed", "error", err)
		return nil, err
	}

	logger.Info("preview built",
		"already_b2b", res.AlreadyB2B,
		"rows", res.TotalRows,
		"warnings", res.Warnings.Count,
	)
	logShadowed(logger, res.Mapping)
	return res, nil
}

// ConvertedFile is a finished conversion waiting to be sent. Close must be
// called to release the spool.
type ConvertedFile struct {
	Summary *Summary
	spool   *Spool
}

// WriteTo streams the converted CSV to w.
func (f *ConvertedFile) WriteTo(w io.Writer) (int64, error) {
	return f.spool.WriteTo(w)
}

// Size returns the converted file size in bytes.
func (f *ConvertedFile) Size() (int64, error) {
	return f.spool.Size()
}

// Close releases the spool file.
func (f *ConvertedFile) Close() error {
	return f.spool.Close()
}

// Convert produces the full canonical CSV for r. The result is staged on disk
// and only returned once every row has been written; on any error the staged
// file is removed and nothing is returned.
func (s *Service) Convert(ctx context.Context, r io.Reader, opts Options) (*ConvertedFile, error) {
	logger := logging.ForConversion(ctx, "convert", opts.FileName)

	spool, err := NewSpool(s.spoolDir)
	if err != nil {
		return nil, err
	}

	var sum *Summary
	err = s.run(ctx, func(ctx context.Context) error {
		var err error
		sum, err = s.converter.Convert(ctx, r, opts, spool)
		return err
	})
	if err != nil {
		spool.Close()
		logger.Warn("conversion failed", "error", err)
		return nil, err
	}

	logger.Info("conversion finished",
		"already_b2b", sum.AlreadyB2B,
		"rows", sum.TotalRows,
		"warnings", sum.Warnings.Count,
		"encoding", sum.Encoding,
		"bytes", sum.BytesRead,
		"duration", sum.Duration,
	)
	logShadowed(logger, sum.Mapping)
	return &ConvertedFile{Summary: sum, spool: spool}, nil
}

// Import converts r and stores it as one batch. A row whose manufacturer and
// SKU reappear later in the file is replaced by the later row and counted in
// Merged rather than Imported.
func (s *Service) Import(ctx context.Context, r io.Reader, opts Options) (*ImportResult, error) {
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	logger := logging.ForConversion(ctx, "import", opts.FileName)

	var result *ImportResult
	err := s.run(ctx, func(ctx context.Context) error {
		rows, sum, err := s.converter.Collect(ctx, r, opts)
		if err != nil {
			return err
		}

		batch := ImportBatch{
			ID:         uuid.New(),
			FileName:   opts.FileName,
			AlreadyB2B: sum.AlreadyB2B,
			Warnings:   sum.Warnings.Count,
			Meta:       RequestMetadataFromContext(ctx),
			CreatedAt:  time.Now().UTC(),
		}
		for i := range rows {
			if strings.TrimSpace(rows[i].Manufacturer) == "" {
				rows[i].Manufacturer = UnknownVendor
			}
		}

		unique := collapseDuplicates(rows)

		imported, err := s.store.ImportRows(ctx, batch, unique)
		if err != nil {
			return fmt.Errorf("store batch %s: %w", batch.ID, err)
		}
		result = &ImportResult{
			BatchID:    batch.ID,
			Imported:   imported,
			Merged:     len(rows) - len(unique),
			AlreadyB2B: sum.AlreadyB2B,
			Warnings:   sum.Warnings.Count,
		}
		logShadowed(logger, sum.Mapping)
		return nil
	})
	if err != nil {
		logger.Warn("import failed", "error", err)
		return nil, err
	}

	logger.Info("import stored",
		"batch_id", result.BatchID,
		"imported", result.Imported,
		"merged", result.Merged,
		"warnings", result.Warnings,
	)
	return result, nil
}

// ExportProducts returns every stored product.
func (s *Service) ExportProducts(ctx context.Context) ([]StoredProduct, error) {
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	for i := range products {
		if products[i].Currency == "" {
			products[i].Currency = DefaultCurrency
		}
	}
	return products, nil
}

// logShadowed reports columns dropped by the mapping tie-break. Their values
// never reach the output, so they are logged at warn level.
func logShadowed(logger *slog.Logger, m MappingReport) {
	for _, sh := range m.Shadowed {
		logger.Warn("column ignored by mapping tie-break",
			"column", sh.Header,
			"index", sh.Index,
			"target", sh.Target,
			"winner", sh.Winner,
		)
	}
}
