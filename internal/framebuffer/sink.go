package framebuffer

import "github.com/zsiec/viewport/internal/media"

// Format describes the stream a producer is about to deliver: the
// dimensions of the first frame.
type Format struct {
	Width  int
	Height int
}

// FrameSink receives decoded frames from a producer. The decoder side
// depends only on this interface, never on display or window internals;
// any consumer of decoded frames implements it.
//
// Open is called once with the stream format before the first Push.
// Close signals end of stream; no Push follows it.
type FrameSink interface {
	Open(format Format) error
	Push(frame *media.Frame) error
	Close()
}
