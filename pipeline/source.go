package pipeline

import (
	"context"

	"github.com/LdDl/abandoned-go/mot"
	"github.com/pkg/errors"
)

var (
	// ErrSourceOpen is returned (wrapped) when frame source can't be opened
	ErrSourceOpen = errors.New("can't open frame source")
	// ErrFrameOrder is returned (wrapped) when frame indices are not strictly increasing
	ErrFrameOrder = errors.New("frame indices must be strictly increasing")
)

// Frame is a single frame worth of candidate boxes
type Frame struct {
	Index int
	Boxes []mot.Rectangle
}

// FrameSource produces frames in increasing index order.
// Next returns io.EOF when the stream is over.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}
