// Orchestrates the crop pipeline: regions are processed by a bounded
// worker pool, image fetches are deduplicated by resolved URL with at
// most one in flight each, and per-region failures never abort the
// run. The only fatal error is a document that does not parse.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Eryk-dev/svg-crop-api/crop"
	"github.com/Eryk-dev/svg-crop-api/svgclip"
	"github.com/Eryk-dev/svg-crop-api/svgpath"
	"github.com/Eryk-dev/svg-crop-api/svgraster"
)

// Fetcher is the external capability resolving image URLs to decoded
// pixel buffers. Implementations must be safe for concurrent use.
type Fetcher interface {
	FetchImage(ctx context.Context, url string) (image.Image, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (image.Image, error)

func (f FetcherFunc) FetchImage(ctx context.Context, url string) (image.Image, error) {
	return f(ctx, url)
}

// CroppedResult is the output for one successful region.
type CroppedResult struct {
	Index int    // ordinal in extraction order, fixes archive member names
	ID    string // clipPath definition id

	ImageBytes []byte // encoded in the requested format
	MaskBytes  []byte // always a lossless grayscale png

	Bounds image.Rectangle // bounding box in source image pixel space
	Format crop.Format
}

// Result collects every region outcome of one run.
type Result struct {
	Results        []CroppedResult
	RegionFailures []RegionFailure
	ImageFailures  []ImageFailure

	ImagesFetched int
	RegionsTotal  int
}

// Success reports whether the run produced at least one crop, or the
// document legitimately contained zero regions.
func (r *Result) Success() bool {
	return r.RegionsTotal == 0 || len(r.Results) > 0
}

const (
	defaultWorkers      = 4
	defaultFetchTimeout = 30 * time.Second
)

// Pipeline turns a parsed document into cropped images and masks.
// A Pipeline is stateless across runs and safe for concurrent use.
type Pipeline struct {
	fetcher      Fetcher
	workers      int
	tolerance    float64
	fetchTimeout time.Duration
	jpegQuality  int
	log          zerolog.Logger
}

// New builds a Pipeline around the given fetch capability.
func New(fetcher Fetcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:      fetcher,
		workers:      defaultWorkers,
		tolerance:    svgraster.DefaultTolerance,
		fetchTimeout: defaultFetchTimeout,
		jpegQuality:  crop.DefaultJPEGQuality,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads the SVG document. A failure here is fatal to the run;
// everything after parsing degrades per region instead.
func Parse(stream io.Reader, baseURL string) (*svgclip.Document, error) {
	doc, err := svgclip.ReadDocument(stream, baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing svg document: %w", err)
	}
	return doc, nil
}

// imageCache guarantees at most one in-flight fetch per URL and
// exactly one fetch per URL per run.
type imageCache struct {
	fetcher Fetcher
	group   singleflight.Group

	mu   sync.Mutex
	done map[string]imageEntry
}

type imageEntry struct {
	img image.Image
	err error
}

func (c *imageCache) get(ctx context.Context, url string) (image.Image, error) {
	c.mu.Lock()
	if e, ok := c.done[url]; ok {
		c.mu.Unlock()
		return e.img, e.err
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(url, func() (interface{}, error) {
		img, err := c.fetcher.FetchImage(ctx, url)
		c.mu.Lock()
		c.done[url] = imageEntry{img: img, err: err}
		c.mu.Unlock()
		return img, err
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// failures returns the outcome per distinct URL, in first-seen order.
func (c *imageCache) outcomes(urls []string) (fetched int, failures []ImageFailure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range urls {
		e, ok := c.done[u]
		if !ok {
			continue
		}
		if e.err != nil {
			failures = append(failures, ImageFailure{URL: u, Err: e.err})
		} else {
			fetched++
		}
	}
	return fetched, failures
}

// Run processes every region of doc and assembles the final result.
// It blocks until all regions have either produced a crop or been
// recorded as failed.
func (p *Pipeline) Run(ctx context.Context, doc *svgclip.Document, format crop.Format) *Result {
	res := &Result{RegionsTotal: len(doc.Regions)}
	cache := &imageCache{fetcher: p.fetcher, done: make(map[string]imageEntry)}

	// distinct URLs in first-seen order, for the final accounting
	var urls []string
	seen := make(map[string]bool)
	for _, r := range doc.Regions {
		if r.Image != nil && !seen[r.Image.Href] {
			seen[r.Image.Href] = true
			urls = append(urls, r.Image.Href)
		}
	}

	// one timeout bounds the whole fetch phase; regions whose image
	// already arrived are unaffected when it fires
	fetchCtx, cancelFetch := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancelFetch()

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(p.workers)
	for _, region := range doc.Regions {
		region := region
		g.Go(func() error {
			outcome, failure := p.processRegion(fetchCtx, cache, region, format)
			mu.Lock()
			if failure != nil {
				res.RegionFailures = append(res.RegionFailures, *failure)
			} else {
				res.Results = append(res.Results, *outcome)
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait() // the join: no result is reported before every region settled

	sort.Slice(res.Results, func(i, j int) bool { return res.Results[i].Index < res.Results[j].Index })
	sort.Slice(res.RegionFailures, func(i, j int) bool { return res.RegionFailures[i].Index < res.RegionFailures[j].Index })
	res.ImagesFetched, res.ImageFailures = cache.outcomes(urls)

	p.log.Info().
		Int("regions_total", res.RegionsTotal).
		Int("regions_cropped", len(res.Results)).
		Int("regions_failed", len(res.RegionFailures)).
		Int("images_fetched", res.ImagesFetched).
		Msg("pipeline run complete")
	return res
}

func (p *Pipeline) processRegion(ctx context.Context, cache *imageCache, region *svgclip.Region, format crop.Format) (*CroppedResult, *RegionFailure) {
	fail := func(kind Kind, err error) (*CroppedResult, *RegionFailure) {
		p.log.Debug().Int("region", region.Index).Str("id", region.ID).
			Stringer("kind", kind).Err(err).Msg("region skipped")
		return nil, &RegionFailure{Index: region.Index, ID: region.ID, Kind: kind, Err: err}
	}

	if region.Err != nil {
		if errors.Is(region.Err, svgpath.ErrSingularMatrix) {
			return fail(TransformError, region.Err)
		}
		return fail(ClipGeometryError, region.Err)
	}

	img, err := cache.get(ctx, region.Image.Href)
	if err != nil {
		return fail(ImageFetchError, err)
	}

	// fold the intrinsic-pixel to placement-unit scale, known only
	// now that the image is decoded
	bounds := img.Bounds()
	placeW, placeH := region.Image.Width, region.Image.Height
	if placeW <= 0 {
		placeW = float64(bounds.Dx())
	}
	if placeH <= 0 {
		placeH = float64(bounds.Dy())
	}
	toPixels := svgpath.Identity.
		Scale(float64(bounds.Dx())/placeW, float64(bounds.Dy())/placeH).
		Mult(region.ToImage)

	mask, err := svgraster.Rasterize(region.Path, region.FillRule, toPixels, bounds.Dx(), bounds.Dy(), p.tolerance)
	if err != nil {
		if errors.Is(err, svgpath.ErrSingularMatrix) {
			return fail(TransformError, err)
		}
		return fail(ClipGeometryError, err)
	}

	imageBytes, maskBytes, err := crop.Apply(img, mask, format, p.jpegQuality)
	if err != nil {
		return fail(ClipGeometryError, err)
	}

	return &CroppedResult{
		Index:      region.Index,
		ID:         region.ID,
		ImageBytes: imageBytes,
		MaskBytes:  maskBytes,
		Bounds:     mask.Rect,
		Format:     format,
	}, nil
}
