package timber

type options struct {
	categories  []string
	concurrency int
	timeOrigin  *float64
}

// Option configures a Timber instance.
type Option func(*options)

// WithCategories keeps only events whose category list names one of cats.
// Default: every category.
func WithCategories(cats ...string) Option {
	return func(o *options) {
		o.categories = cats
	}
}

// WithConcurrency bounds how many traces TasksBatch analyzes at once.
// Default: 4.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithTimeOrigin fixes the time origin in microseconds. Default: the
// first main-thread event of each trace.
func WithTimeOrigin(us float64) Option {
	return func(o *options) {
		o.timeOrigin = &us
	}
}

func defaultOptions() options {
	return options{concurrency: 4}
}
