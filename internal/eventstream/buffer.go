package eventstream

// frameBuffer accumulates upstream bytes and releases them from the front as
// complete frames are consumed. Consumed space is reclaimed by sliding the
// live region back to the start of the backing array before the next append
// grows it, so growth stays amortized linear even for pathological chunk
// sizes.
type frameBuffer struct {
	buf   []byte
	start int
}

func (b *frameBuffer) write(p []byte) {
	if b.start == len(b.buf) {
		// Fully drained, reuse the backing array from the top.
		b.buf = b.buf[:0]
		b.start = 0
	} else if b.start > 0 && len(b.buf)+len(p) > cap(b.buf) {
		// Would reallocate: compact first so append only grows for live bytes.
		n := copy(b.buf, b.buf[b.start:])
		b.buf = b.buf[:n]
		b.start = 0
	}
	b.buf = append(b.buf, p...)
}

func (b *frameBuffer) len() int {
	return len(b.buf) - b.start
}

func (b *frameBuffer) bytes() []byte {
	return b.buf[b.start:]
}

// consume advances past the first n buffered bytes and returns them. The
// returned slice aliases the internal buffer and is only valid until the next
// write.
func (b *frameBuffer) consume(n int) []byte {
	p := b.buf[b.start : b.start+n]
	b.start += n
	return p
}
