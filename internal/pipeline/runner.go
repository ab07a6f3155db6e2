package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgallion1/regsplit/internal/chunker"
	"github.com/dgallion1/regsplit/internal/compose"
	"github.com/dgallion1/regsplit/internal/config"
	"github.com/dgallion1/regsplit/internal/document"
	"github.com/dgallion1/regsplit/internal/manifest"
	"github.com/dgallion1/regsplit/internal/marker"
	"github.com/dgallion1/regsplit/internal/pdfdoc"
	"github.com/dgallion1/regsplit/internal/render"
	"github.com/dgallion1/regsplit/internal/selector"
	"github.com/dgallion1/regsplit/internal/storage"
	"golang.org/x/sync/errgroup"
)

// Options controls how one request renders its groups.
type Options struct {
	Selection   selector.Policy
	Composition compose.Policy
	DPI         float64
	Quality     int
	MaxWidth    int // 0 keeps the natural width
	Concurrency int
}

// DefaultOptions derives request options from config. Invalid policy names
// fall back to the zero policy; Validate rejects them at startup.
func DefaultOptions(cfg config.Config) Options {
	sel, _ := selector.ParsePolicy(cfg.DefaultSelection)
	comp, _ := compose.ParsePolicy(cfg.DefaultComposition)
	return Options{
		Selection:   sel,
		Composition: comp,
		DPI:         cfg.RenderDPI,
		Quality:     cfg.JPEGQuality,
		MaxWidth:    cfg.MaxImageWidth,
		Concurrency: cfg.MaxConcurrentGroups,
	}
}

// Progress receives pipeline state changes. Job implements it.
type Progress interface {
	SetStatus(status JobStatus, phase string)
	SetTotalGroups(n int)
	IncrGroupsDone()
}

type nopProgress struct{}

func (nopProgress) SetStatus(JobStatus, string) {}
func (nopProgress) SetTotalGroups(int)          {}
func (nopProgress) IncrGroupsDone()             {}

// Runner turns one PDF into stored per-student composites and a manifest.
type Runner struct {
	opener   pdfdoc.Opener
	matcher  marker.Matcher
	store    storage.Store
	builder  *manifest.Builder
	stats    *Stats
	log      *slog.Logger
	defaults Options
}

// NewRunner builds a Runner whose defaults, marker mode and public base URL
// come from cfg.
func NewRunner(cfg config.Config, opener pdfdoc.Opener, store storage.Store, log *slog.Logger) *Runner {
	mode, _ := marker.ParseMode(cfg.MarkerMode)
	return &Runner{
		opener:   opener,
		matcher:  marker.New(mode),
		store:    store,
		builder:  manifest.NewBuilder(cfg.PublicBaseURL),
		stats:    NewStats(time.Hour),
		log:      log,
		defaults: DefaultOptions(cfg),
	}
}

// Defaults returns the options used when a request does not override them.
func (r *Runner) Defaults() Options { return r.defaults }

// Stats returns the counters updated by every Run.
func (r *Runner) Stats() *Stats { return r.stats }

// Store returns the backend composites are written to.
func (r *Runner) Store() storage.Store { return r.store }

// Builder exposes the manifest builder so callers can resolve public URLs.
func (r *Runner) Builder() *manifest.Builder { return r.builder }

// Run processes data end to end. On error no manifest is returned and files
// written by this call are removed.
func (r *Runner) Run(ctx context.Context, data []byte, opts Options, progress Progress) (*manifest.Manifest, error) {
	if progress == nil {
		progress = nopProgress{}
	}
	start := time.Now()
	m, rendered, err := r.run(ctx, data, r.fill(opts), progress)
	r.stats.Record(time.Since(start), m, rendered, err)
	return m, err
}

func (r *Runner) fill(opts Options) Options {
	if opts.DPI <= 0 {
		opts.DPI = r.defaults.DPI
	}
	if opts.Quality <= 0 {
		opts.Quality = r.defaults.Quality
	}
	if opts.MaxWidth < 0 {
		opts.MaxWidth = 0
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = r.defaults.Concurrency
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return opts
}

func (r *Runner) run(ctx context.Context, data []byte, opts Options, progress Progress) (*manifest.Manifest, int64, error) {
	progress.SetStatus(StatusExtracting, "extracting text")
	doc, err := r.opener.Open(data)
	if err != nil {
		return nil, 0, &Error{Kind: KindMalformedInput, Err: err}
	}
	defer doc.Close()

	n := doc.NumPages()
	if n == 0 {
		return nil, 0, &Error{Kind: KindMalformedInput, Err: errors.New("document has no pages")}
	}

	pages := make([]document.PageText, 0, n)
	for i := range n {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		text, err := doc.Text(i)
		if err != nil {
			r.log.Warn("text extraction failed, treating page as blank", "page", i, "error", err)
			text = ""
		}
		pages = append(pages, document.PageText{Index: i, Text: text})
	}

	res := chunker.Chunk(pages, r.matcher)
	if len(res.Orphans) > 0 {
		r.log.Warn("pages outside any registration group", "pages", res.Orphans)
	}
	r.log.Info("chunked document", "pages", n, "groups", len(res.Groups), "orphans", len(res.Orphans))
	if len(res.Groups) == 0 {
		r.log.Info("no registration markers found")
		return manifest.New(nil, res.Orphans), 0, nil
	}

	progress.SetTotalGroups(len(res.Groups))
	progress.SetStatus(StatusRendering, "rendering groups")

	records := make([]manifest.Record, len(res.Groups))
	var rendered atomic.Int64
	var (
		savedMu sync.Mutex
		saved   []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, grp := range res.Groups {
		g.Go(func() error {
			rec, pagesRendered, err := r.processGroup(gctx, doc, grp, opts)
			rendered.Add(int64(pagesRendered))
			if err != nil {
				return err
			}
			savedMu.Lock()
			saved = append(saved, rec.Filename)
			savedMu.Unlock()
			records[i] = rec
			progress.IncrGroupsDone()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.cleanup(context.WithoutCancel(ctx), saved)
		return nil, rendered.Load(), err
	}
	return manifest.New(records, res.Orphans), rendered.Load(), nil
}

func (r *Runner) processGroup(ctx context.Context, doc pdfdoc.Document, grp document.Group, opts Options) (manifest.Record, int, error) {
	log := r.log.With("reg_no", grp.RegistrationNumber)

	selected := selector.Select(grp.Pages, opts.Selection)
	images, err := render.Render(ctx, doc, selected, opts.DPI)
	if err != nil {
		var pe *render.PageError
		if errors.As(err, &pe) {
			return manifest.Record{}, 0, &Error{Kind: KindRasterization, Err: fmt.Errorf("group %s: %w", grp.RegistrationNumber, err)}
		}
		return manifest.Record{}, 0, err
	}

	img, err := compose.Compose(images, opts.Composition)
	if err != nil {
		return manifest.Record{}, len(images), &Error{Kind: KindEncoding, Err: fmt.Errorf("compose %s: %w", grp.RegistrationNumber, err)}
	}
	img = compose.Fit(img, opts.MaxWidth)

	var buf bytes.Buffer
	if err := compose.EncodeJPEG(&buf, img, opts.Quality); err != nil {
		return manifest.Record{}, len(images), &Error{Kind: KindEncoding, Err: fmt.Errorf("encode %s: %w", grp.RegistrationNumber, err)}
	}

	rec := r.builder.Build(document.Composite{
		RegistrationNumber: grp.RegistrationNumber,
		Image:              img,
		PagesProcessed:     len(selected),
		TotalPages:         len(grp.Pages),
	})
	if err := r.store.Save(ctx, rec.Filename, buf.Bytes()); err != nil {
		return manifest.Record{}, len(images), &Error{Kind: KindStorage, Err: fmt.Errorf("save %s: %w", rec.Filename, err)}
	}

	log.Debug("stored composite", "file", rec.Filename, "pages", len(selected), "bytes", buf.Len())
	return rec, len(images), nil
}

// cleanup removes files written before a failure. Errors are logged only.
func (r *Runner) cleanup(ctx context.Context, names []string) {
	for _, name := range names {
		if err := r.store.Delete(ctx, name); err != nil && !errors.Is(err, storage.ErrNotFound) {
			r.log.Warn("cleanup failed", "file", name, "error", err)
		}
	}
}
