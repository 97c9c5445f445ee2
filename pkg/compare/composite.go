package compare

import (
	"context"
)

// CompositeComparator performs multi-stage comparison
// Stage 1: Quick size check
// Stage 2: Optional hash verification if enabled
type CompositeComparator struct {
	useHash  bool
	sizeComp *SizeComparator
	hashComp *HashComparator
}

// NewCompositeComparator creates a smart comparator
// If useHash is true, performs hash verification when sizes match
// If false, considers files identical when sizes match
func NewCompositeComparator(useHash bool, bufferSize int) *CompositeComparator {
	var hashComp *HashComparator
	if useHash {
		hashComp = NewHashComparator(bufferSize)
	}
	return &CompositeComparator{
		useHash:  useHash,
		sizeComp: NewSizeComparator(),
		hashComp: hashComp,
	}
}

// Compare performs intelligent comparison
func (c *CompositeComparator) Compare(ctx context.Context, source, dest Target) (*Comparison, error) {
	// Stage 1: metadata only
	cmp, err := c.sizeComp.Compare(ctx, source, dest)
	if err != nil || cmp.Result != Same {
		return cmp, err
	}

	// Stage 2: If sizes match, do we need hash verification?
	if !c.useHash {
		cmp.Reason = "sizes match (hash check disabled)"
		return cmp, nil
	}
	return c.hashComp.Compare(ctx, source, dest)
}

// SetReaderWrapper sets a function to wrap readers (e.g., for rate limiting)
func (c *CompositeComparator) SetReaderWrapper(wrapper ReaderWrapper) {
	if c.hashComp != nil {
		c.hashComp.SetReaderWrapper(wrapper)
	}
}

// Name returns the comparator name
func (c *CompositeComparator) Name() string {
	if c.useHash {
		return "composite-hash"
	}
	return "composite-fast"
}
