// Package batch renders lists of certificate records for preview and
// export.
package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"

	"github.com/youruser/certapp/internal/award"
	"github.com/youruser/certapp/internal/metrics"
)

// ErrEmptyBatch is returned when there is nothing to render.
var ErrEmptyBatch = errors.New("no winners to render")

// Compositor renders a single certificate.
type Compositor interface {
	Render(ctx context.Context, rec award.Record, hue int) (*image.NRGBA, error)
}

// Labeler maps tiers to display labels used in file names.
type Labeler interface {
	Label(award.Tier) string
}

// File is one exported certificate.
type File struct {
	Name string
	Data []byte
}

// Renderer drives the compositor over a batch. It stops at the first
// failing record; no placeholder is produced for it.
type Renderer struct {
	comp    Compositor
	labels  Labeler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewRenderer(comp Compositor, labels Labeler, logger *slog.Logger, m *metrics.Metrics) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{comp: comp, labels: labels, logger: logger, metrics: m}
}

func (r *Renderer) render(ctx context.Context, rec award.Record, hue int, mode string) (*image.NRGBA, error) {
	start := time.Now()
	img, err := r.comp.Render(ctx, rec, hue)
	r.metrics.ObserveRender(mode, start, err)
	if err != nil {
		r.logger.Error("render failed", "mode", mode, "category", rec.Category, "tier", rec.Tier, "name", rec.Name, "error", err)
		return nil, fmt.Errorf("render %s: %w", r.FileName(rec), err)
	}
	return img, nil
}

// Preview renders the record at index.
func (r *Renderer) Preview(ctx context.Context, recs []award.Record, index, hue int) (*image.NRGBA, error) {
	if len(recs) == 0 {
		return nil, ErrEmptyBatch
	}
	if index < 0 || index >= len(recs) {
		return nil, fmt.Errorf("preview index %d out of range [0,%d)", index, len(recs))
	}
	return r.render(ctx, recs[index], hue, "preview")
}

// RenderBatch renders every record in input order.
func (r *Renderer) RenderBatch(ctx context.Context, recs []award.Record, hue int) ([]*image.NRGBA, error) {
	if len(recs) == 0 {
		return nil, ErrEmptyBatch
	}
	out := make([]*image.NRGBA, 0, len(recs))
	for _, rec := range recs {
		img, err := r.render(ctx, rec, hue, "batch")
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

// Export renders records one at a time, encodes each as PNG and hands it
// to emit. Records are processed strictly in order.
func (r *Renderer) Export(ctx context.Context, recs []award.Record, hue int, emit func(File) error) error {
	if len(recs) == 0 {
		return ErrEmptyBatch
	}
	start := time.Now()
	defer r.metrics.ObserveExport(start)

	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := r.render(ctx, rec, hue, "export")
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return fmt.Errorf("encode %s: %w", r.FileName(rec), err)
		}
		if err := emit(File{Name: r.FileName(rec), Data: buf.Bytes()}); err != nil {
			return err
		}
		r.logger.Debug("certificate exported", "index", i, "file", r.FileName(rec))
	}
	r.logger.Info("export finished", "count", len(recs), "elapsed", time.Since(start))
	return nil
}

// ExportAll collects the output of Export.
func (r *Renderer) ExportAll(ctx context.Context, recs []award.Record, hue int) ([]File, error) {
	files := make([]File, 0, len(recs))
	err := r.Export(ctx, recs, hue, func(f File) error {
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// FileName is "{category}-{tier label}-{name}.png". Two winners with the
// same name in one tier get the same file name.
func (r *Renderer) FileName(rec award.Record) string {
	return FileName(rec, r.labels.Label(rec.Tier))
}

func FileName(rec award.Record, tierLabel string) string {
	return rec.Category + "-" + tierLabel + "-" + rec.Name + ".png"
}
