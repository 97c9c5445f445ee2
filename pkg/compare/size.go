package compare

import (
	"context"
	"fmt"

	"github.com/sdejongh/ftpvault/pkg/storage"
)

// SizeComparator compares files by size only. File names are not compared:
// a copy may legitimately be stored under another name.
type SizeComparator struct{}

// NewSizeComparator creates a new size comparator
func NewSizeComparator() *SizeComparator {
	return &SizeComparator{}
}

// Compare compares the sizes reported by both backends
func (c *SizeComparator) Compare(ctx context.Context, source, dest Target) (*Comparison, error) {
	sourceInfo, destInfo, cmp, err := statBoth(ctx, source, dest)
	if cmp != nil || err != nil {
		return cmp, err
	}

	if sourceInfo.SizeInBytes != destInfo.SizeInBytes {
		return newComparison(source, dest, Different,
			fmt.Sprintf("file sizes differ (%d != %d)", sourceInfo.SizeInBytes, destInfo.SizeInBytes)), nil
	}
	return newComparison(source, dest, Same, "sizes match"), nil
}

// Name returns the comparator name
func (c *SizeComparator) Name() string {
	return "size"
}

// statBoth fetches metadata of both sides. A missing file yields a
// comparison instead of an error; other failures are returned.
func statBoth(ctx context.Context, source, dest Target) (src, dst *storage.FileDescription, cmp *Comparison, err error) {
	src, err = source.Storage.Stat(ctx, source.Conn)
	if storage.KindOf(err) == storage.KindNotFound {
		return nil, nil, newComparison(source, dest, SourceMissing, "source file does not exist"), nil
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to stat source file: %w", err)
	}

	dst, err = dest.Storage.Stat(ctx, dest.Conn)
	if storage.KindOf(err) == storage.KindNotFound {
		return nil, nil, newComparison(source, dest, DestMissing, "destination file does not exist"), nil
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to stat destination file: %w", err)
	}
	return src, dst, nil, nil
}
