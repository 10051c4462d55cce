package assembly

import "log"

type config struct {
	noMatrixResult bool
	forceInit      bool
	logger         *log.Logger
}

// Option configures a sparse assembler at construction.
type Option func(*config)

// NoMatrixResult makes Finalize return an all-zero matrix of the correct
// shape while the accumulated triplets stay in the buffer.
func NoMatrixResult(on bool) Option {
	return func(c *config) { c.noMatrixResult = on }
}

// ForceInit makes every Start re-size the triplet buffer to the requested
// capacity, instead of only the first one.
func ForceInit(on bool) Option {
	return func(c *config) { c.forceInit = on }
}

// WithLogger reports buffer growth events.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

func newConfig(opts []Option) (c config) {
	for _, opt := range opts {
		opt(&c)
	}
	return
}
