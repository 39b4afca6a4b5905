// Package scanner enumerates a user's Slides presentations and resolves
// their thumbnails on a bounded worker pool, reporting progress as it goes.
package scanner

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"chomikai/internal/google"
	"chomikai/internal/logging"
	"chomikai/internal/telemetry"
)

// Progress is a snapshot of how far a scan has advanced.
type Progress struct {
	Percent   float64 `json:"percent"`
	Processed int     `json:"processed"`
	Total     int     `json:"total"`
}

// ReportFunc receives progress snapshots in completion order.
// It is always invoked from a single goroutine.
type ReportFunc func(Progress)

// Lister enumerates presentations.
type Lister interface {
	ListPresentations(ctx context.Context) ([]google.Presentation, error)
}

// ThumbnailFetcher resolves the first-slide thumbnail URL for a presentation.
type ThumbnailFetcher interface {
	FirstSlideThumbnail(ctx context.Context, presentationID, size string) (string, error)
}

// Scanner runs presentation scans against the Google APIs.
type Scanner struct {
	lister        Lister
	thumbnails    ThumbnailFetcher
	workers       int
	thumbnailSize string
}

// New creates a scanner. workers bounds the concurrent thumbnail fetches.
func New(lister Lister, thumbnails ThumbnailFetcher, workers int, thumbnailSize string) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		lister:        lister,
		thumbnails:    thumbnails,
		workers:       workers,
		thumbnailSize: thumbnailSize,
	}
}

// Scan lists all presentations, resolves their thumbnails concurrently and
// returns them in listing order. report is called once before the pool runs
// (0% when files exist, 100% when there are none) and once per completed
// presentation. A failed thumbnail fetch leaves the URL empty and does not
// abort the scan. Cancelling ctx stops the scan.
func (s *Scanner) Scan(ctx context.Context, report ReportFunc) ([]google.Presentation, error) {
	ctx, span := telemetry.StartSpan(ctx, "scanner.Scan")
	defer span.End()

	presentations, err := s.lister.ListPresentations(ctx)
	if err != nil {
		return nil, err
	}

	total := len(presentations)
	span.SetAttributes(attribute.Int("scan.total", total))

	if total == 0 {
		report(Progress{Percent: 100, Processed: 0, Total: 0})
		return presentations, nil
	}
	report(Progress{Percent: 0, Processed: 0, Total: total})

	jobs := make(chan int)
	done := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				s.fetchThumbnail(ctx, &presentations[idx])
				select {
				case done <- idx:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range presentations {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	processed := 0
	for range done {
		processed++
		report(Progress{
			Percent:   float64(processed) / float64(total) * 100,
			Processed: processed,
			Total:     total,
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return presentations, nil
}

// fetchThumbnail resolves the thumbnail for one presentation in place.
func (s *Scanner) fetchThumbnail(ctx context.Context, p *google.Presentation) {
	ctx, span := telemetry.StartSpan(ctx, "scanner.fetchThumbnail")
	defer span.End()
	span.SetAttributes(attribute.String("presentation.id", p.ID))

	if p.ID == "" {
		logging.Warnf("Presentation without ID in Drive listing, skipping thumbnail")
		return
	}

	url, err := s.thumbnails.FirstSlideThumbnail(ctx, p.ID, s.thumbnailSize)
	if err != nil {
		logging.Errorf("Failed to fetch thumbnail for presentation %s: %v", p.ID, err)
		return
	}
	p.ThumbnailURL = url
}
