package cv

// Region detector options
type Option func(*detectorOptions)

type detectorOptions struct {
	roi           Roi
	step          int
	bucketSize    int
	minBucketHits int
}

// WithRoi limits the scan to a region
func WithRoi(r Roi) Option {
	return func(opts *detectorOptions) {
		opts.roi = r
	}
}

// WithStep sets the sampling stride in pixels
func WithStep(step int) Option {
	return func(opts *detectorOptions) {
		opts.step = step
	}
}

// WithBucketSize sets the bucket edge length in pixels
func WithBucketSize(size int) Option {
	return func(opts *detectorOptions) {
		opts.bucketSize = size
	}
}

// WithMinBucketHits sets how many samples a bucket needs to count as filled
func WithMinBucketHits(hits int) Option {
	return func(opts *detectorOptions) {
		opts.minBucketHits = hits
	}
}

func applyOptions(defaults detectorOptions, opts []Option) detectorOptions {
	for _, opt := range opts {
		opt(&defaults)
	}
	defaults.step = max(1, defaults.step)
	defaults.bucketSize = max(defaults.step, defaults.bucketSize)
	defaults.minBucketHits = max(1, defaults.minBucketHits)
	return defaults
}
