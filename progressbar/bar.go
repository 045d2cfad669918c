package progressbar

import (
	"errors"
	"fmt"
	"strings"
)

// Bar represents the progress bar to be displayed
type Bar struct {
	completed int
	failed    int
	total     int
}

// UpdateBar adds the given value to the progress bar, please enter a positive integer
func (b *Bar) UpdateBar(add int) (bar string, err error) {
	if add < 0 {
		return "", errors.New("this is not a valid positive integer")
	}

	b.completed += add
	if b.completed > b.total {
		b.completed = b.total
	}
	return b.String(), nil
}

// Fail counts one finished step as failed and returns the redrawn bar
func (b *Bar) Fail() string {
	b.failed++
	bar, _ := b.UpdateBar(1)
	return bar
}

// String renders the bar on a single, carriage-return prefixed line
func (b *Bar) String() string {
	suffix := fmt.Sprintf("(%d / %d)", b.completed, b.total)
	if b.failed > 0 {
		suffix = fmt.Sprintf("(%d / %d, %d failed)", b.completed, b.total, b.failed)
	}

	if b.completed >= b.total {
		return fmt.Sprintf("\r[%s] %s", strings.Repeat("=", b.total), suffix)
	}
	return fmt.Sprintf("\r[%s>%s] %s", strings.Repeat("=", b.completed), strings.Repeat(" ", b.total-b.completed-1), suffix)
}

// New creates a progressbar of given length and returns it
func New(length int) *Bar {
	if length < 0 {
		length = 0
	}
	return &Bar{total: length}
}

// Done ends the progress bar
func (b *Bar) Done() (bar string) {
	b.completed = b.total
	return b.String()
}
