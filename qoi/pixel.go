package qoi

// Pixel is one RGBA value. Three channel images carry A = 255.
type Pixel struct {
	R, G, B, A uint8
}

// startPixel is the implicit previous pixel before the first one.
var startPixel = Pixel{A: 255}

func (p Pixel) hash() uint8 {
	return uint8((3*int(p.R) + 5*int(p.G) + 7*int(p.B) + 11*int(p.A)) % cacheSize)
}

// cache recalls the last pixel written for each hash value. Slots are plain
// values, so storing into one slot is never visible through another.
type cache [cacheSize]Pixel

func (c *cache) lookup(h uint8) Pixel {
	return c[h&(cacheSize-1)]
}

func (c *cache) store(h uint8, p Pixel) {
	c[h&(cacheSize-1)] = p
}

// runTracker counts repeats of the previous pixel. The counter stays in
// [0, maxRun).
type runTracker struct {
	n int
}

// extend adds one pixel to the open run and reports whether the run is full.
func (r *runTracker) extend() bool {
	r.n++
	return r.n == maxRun
}

// flush appends a RUN opcode for the open run, if any, and resets it.
func (r *runTracker) flush(buf []byte) []byte {
	if r.n == 0 {
		return buf
	}
	buf = append(buf, opRun|uint8(r.n-1))
	r.n = 0
	return buf
}

// wrap folds any signed difference into [-128, 127] modulo 256.
func wrap(v int) int {
	return (v%256+384)%256 - 128
}

// wrapDelta is the signed distance from prev to cur on the 8 bit circle.
func wrapDelta(cur, prev uint8) int {
	return wrap(int(cur) - int(prev))
}
