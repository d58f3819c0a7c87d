package logging

import "strings"

// ProgressSampler thins progress lines for logs that are not redrawn in
// place. It emits when the percentage crosses a bucket boundary or the
// category changes.
type ProgressSampler struct {
	bucketSize   int
	lastCategory string
	lastBucket   int
}

// NewProgressSampler constructs a sampler with the given bucket width in
// percent (default 25).
func NewProgressSampler(bucketSize int) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 25
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress update should be logged.
func (s *ProgressSampler) ShouldLog(percent int, category string) bool {
	if s == nil {
		return true
	}
	category = strings.TrimSpace(category)
	emit := false
	if category != s.lastCategory {
		s.lastCategory = category
		s.lastBucket = -1
	}
	if percent < 0 {
		return false
	}
	if percent > 100 {
		percent = 100
	}
	if bucket := percent / s.bucketSize; bucket > s.lastBucket {
		s.lastBucket = bucket
		emit = true
	}
	return emit
}

// Reset clears the sampler state between invocations.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastCategory = ""
	s.lastBucket = -1
}
