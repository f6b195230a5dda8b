package media

import "time"

// FramePool hands out scratch frames and reuses their buffers when the
// requested format and size match a previous allocation.
//
// The pool is not safe for concurrent use.
type FramePool struct {
	free []*VideoFrame
	max  int
}

// NewFramePool creates a pool keeping at most max idle frames.
func NewFramePool(max int) *FramePool {
	if max < 1 {
		max = 1
	}
	return &FramePool{max: max}
}

// CreateFrame returns a frame of the given format and size, reusing an
// idle one when possible. The returned frame keeps its old pixel contents.
func (p *FramePool) CreateFrame(format PixelFormat, size Size, timestamp time.Duration) (*VideoFrame, error) {
	for i, f := range p.free {
		if f.Format == format && f.CodedSize == size {
			p.free = append(p.free[:i], p.free[i+1:]...)
			f.Timestamp = timestamp
			f.Metadata = Metadata{}
			return f, nil
		}
	}
	return NewFrame(format, size, timestamp)
}

// Release returns a frame to the pool. The oldest idle frame is dropped
// once the pool is full.
func (p *FramePool) Release(f *VideoFrame) {
	if f == nil || f.GpuBuffer != nil {
		return
	}
	if p.max == 0 {
		p.max = 1
	}
	if len(p.free) >= p.max {
		p.free = p.free[1:]
	}
	p.free = append(p.free, f)
}

// Len returns the number of idle frames.
func (p *FramePool) Len() int {
	return len(p.free)
}
