package profile

import "github.com/ardnew/tagmount/pkg"

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`

// Profiler selects a profiling mode and the directory receiving its output.
type Profiler struct {
	Mode  string
	Path  string
	Quiet bool
}

// Option configures a [Profiler].
type Option = pkg.Option[Profiler]

// WithMode sets the profiling mode, one of [Modes].
func WithMode(mode string) Option {
	return func(p Profiler) Profiler {
		p.Mode = mode

		return p
	}
}

// WithPath sets the output directory.
func WithPath(path string) Option {
	return func(p Profiler) Profiler {
		p.Path = path

		return p
	}
}

// WithQuiet suppresses the profiler's own log messages.
func WithQuiet(quiet bool) Option {
	return func(p Profiler) Profiler {
		p.Quiet = quiet

		return p
	}
}

// New returns a [Profiler] configured by opts.
func New(opts ...Option) Profiler {
	return pkg.Apply(Profiler{}, opts...)
}

// Stopper stops a running profiler and flushes its output.
type Stopper interface{ Stop() }

// Start starts profiling. Without a mode, with an unknown mode, or when
// built without the pprof tag, Start returns a Stopper that does nothing.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
