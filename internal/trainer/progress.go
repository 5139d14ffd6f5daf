package trainer

import (
	"fmt"
	"io"
	"strings"
)

const progressWidth = 40

// Progress draws a single-line console progress bar:
//
//	epoch 3 [==============>                         ]  36% loss=0.4172
type Progress struct {
	w     io.Writer
	label string
	total int
}

// NewProgress creates a bar for total steps. A nil writer disables output.
func NewProgress(w io.Writer, label string, total int) *Progress {
	return &Progress{w: w, label: label, total: total}
}

// Update redraws the bar after done of total steps.
func (p *Progress) Update(done int, loss float32) {
	if p.w == nil || p.total <= 0 {
		return
	}
	if done > p.total {
		done = p.total
	}
	filled := done * progressWidth / p.total

	var bar strings.Builder
	bar.WriteString(strings.Repeat("=", filled))
	if filled < progressWidth {
		bar.WriteByte('>')
		bar.WriteString(strings.Repeat(" ", progressWidth-filled-1))
	}
	fmt.Fprintf(p.w, "\r%s [%s] %3d%% loss=%.4f", p.label, bar.String(), done*100/p.total, loss)
}

// Finish ends the progress line.
func (p *Progress) Finish() {
	if p.w == nil || p.total <= 0 {
		return
	}
	fmt.Fprintln(p.w)
}
