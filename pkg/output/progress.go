package output

import (
	"io"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"
)

// Progress shows a byte progress bar for one transfer. A disabled Progress
// passes streams through untouched, so callers never need to check.
type Progress struct {
	bar *pb.ProgressBar
}

// NewProgress creates a bar of total bytes on w. The bar is only drawn when
// enabled is set and w is a terminal; total <= 0 shows a counter without
// percentage.
func NewProgress(w io.Writer, total int64, enabled bool) *Progress {
	if !enabled || !IsTerminal(w) {
		return &Progress{}
	}

	bar := pb.New64(total).
		SetTemplate(pb.Full).
		SetWriter(w).
		SetRefreshRate(200 * time.Millisecond).
		Set(pb.Bytes, true)
	if total <= 0 {
		bar.SetTemplate(pb.Simple)
	}
	return &Progress{bar: bar.Start()}
}

// Enabled reports whether a bar is drawn
func (p *Progress) Enabled() bool {
	return p.bar != nil
}

// Reader counts bytes read through r
func (p *Progress) Reader(r io.Reader) io.Reader {
	if p.bar == nil {
		return r
	}
	return p.bar.NewProxyReader(r)
}

// Finish draws the final state and releases the terminal line
func (p *Progress) Finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
