package pipeline

import (
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers bounds how many regions are processed concurrently.
// Values below one keep the default.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n >= 1 {
			p.workers = n
		}
	}
}

// WithFlatteningTolerance sets the maximum curve flattening error,
// in target image pixels.
func WithFlatteningTolerance(tol float64) Option {
	return func(p *Pipeline) {
		if tol > 0 {
			p.tolerance = tol
		}
	}
}

// WithFetchTimeout bounds the whole image fetch phase. Fetches still
// pending at the deadline fail their dependent regions only.
func WithFetchTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.fetchTimeout = d
		}
	}
}

// WithJPEGQuality sets the quality used for jpeg output.
func WithJPEGQuality(q int) Option {
	return func(p *Pipeline) {
		if q > 0 && q <= 100 {
			p.jpegQuality = q
		}
	}
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}
