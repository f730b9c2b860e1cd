package qoi

import (
	"fmt"
)

type encoder struct {
	pix      []byte
	channels int
	buf      []byte
	index    cache
	prev     Pixel
	run      runTracker
}

func (e *encoder) pixelAt(i int) Pixel {
	off := i * e.channels
	if e.channels == 3 {
		return Pixel{e.pix[off], e.pix[off+1], e.pix[off+2], 255}
	}
	return Pixel{e.pix[off], e.pix[off+1], e.pix[off+2], e.pix[off+3]}
}

func (e *encoder) encodeBody(n int) {
	for i := 0; i < n; i++ {
		px := e.pixelAt(i)
		if px == e.prev {
			if e.run.extend() {
				e.buf = e.run.flush(e.buf)
			}
			continue
		}
		e.buf = e.run.flush(e.buf)
		e.encodePixel(px)
		e.prev = px
	}
	e.buf = e.run.flush(e.buf)
}

// encodePixel emits the first opcode in the chain INDEX, RGBA, DIFF, LUMA,
// RGB that can describe px.
func (e *encoder) encodePixel(px Pixel) {
	h := px.hash()
	if e.index.lookup(h) == px {
		e.buf = append(e.buf, opIndex|h)
		return
	}
	e.index.store(h, px)

	if px.A != e.prev.A {
		e.buf = append(e.buf, opRGBA, px.R, px.G, px.B, px.A)
		return
	}

	vr := wrapDelta(px.R, e.prev.R)
	vg := wrapDelta(px.G, e.prev.G)
	vb := wrapDelta(px.B, e.prev.B)
	vgR := wrap(vr - vg)
	vgB := wrap(vb - vg)

	switch {
	case vr >= -2 && vr <= 1 && vg >= -2 && vg <= 1 && vb >= -2 && vb <= 1:
		e.buf = append(e.buf, opDiff|uint8(vr+2)<<4|uint8(vg+2)<<2|uint8(vb+2))
	case vg >= -32 && vg <= 31 && vgR >= -8 && vgR <= 7 && vgB >= -8 && vgB <= 7:
		e.buf = append(e.buf, opLuma|uint8(vg+32), uint8(vgR+8)<<4|uint8(vgB+8))
	default:
		e.buf = append(e.buf, opRGB, px.R, px.G, px.B)
	}
}

// Encode encodes a packed, row-major pixel buffer with d.Channels bytes per
// pixel into a new frame. The returned slice is owned by the caller.
func Encode(pix []byte, d Desc) ([]byte, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	n := d.pixels()
	if want := n * int(d.Channels); len(pix) != want {
		return nil, fmt.Errorf("%w: %dx%dx%d needs %d bytes, got %d",
			ErrInvalidDimensions, d.Width, d.Height, d.Channels, want, len(pix))
	}

	e := encoder{
		pix:      pix,
		channels: int(d.Channels),
		prev:     startPixel,
	}
	// room for the header, the end marker and a guess at the body
	e.buf = make([]byte, 0, headerSize+n+len(endMarker))
	e.buf = appendHeader(e.buf, d)
	e.encodeBody(n)
	e.buf = append(e.buf, endMarker[:]...)
	return e.buf, nil
}
