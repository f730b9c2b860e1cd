package qoi

import (
	"fmt"
)

type decoder struct {
	body  []byte
	pos   int
	index cache
	px    Pixel
	run   int
	stats *Stats
}

// take returns the next n bytes of the opcode stream.
func (d *decoder) take(n int) ([]byte, error) {
	if len(d.body)-d.pos < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d", ErrTruncatedStream, n, headerSize+d.pos)
	}
	b := d.body[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// next reconstructs the next pixel in stream order.
func (d *decoder) next() (Pixel, error) {
	if d.run > 0 {
		d.run--
		return d.px, nil
	}

	b, err := d.take(1)
	if err != nil {
		return Pixel{}, err
	}
	b1 := b[0]
	op := opOf(b1)
	d.stats.countOp(op)

	switch op {
	case OpIndex:
		d.px = d.index.lookup(b1 & mask6)
		return d.px, nil
	case OpRun:
		d.run = int(b1 & mask6)
		return d.px, nil
	case OpRGB:
		rgb, err := d.take(3)
		if err != nil {
			return Pixel{}, err
		}
		d.px.R, d.px.G, d.px.B = rgb[0], rgb[1], rgb[2]
	case OpRGBA:
		rgba, err := d.take(4)
		if err != nil {
			return Pixel{}, err
		}
		d.px = Pixel{rgba[0], rgba[1], rgba[2], rgba[3]}
	case OpDiff:
		d.px.R += (b1>>4)&mask2 - 2
		d.px.G += (b1>>2)&mask2 - 2
		d.px.B += b1&mask2 - 2
	case OpLuma:
		b2, err := d.take(1)
		if err != nil {
			return Pixel{}, err
		}
		vg := b1&mask6 - 32
		d.px.R += vg - 8 + (b2[0]>>4)&mask4
		d.px.G += vg
		d.px.B += vg - 8 + b2[0]&mask4
	}

	h := d.px.hash()
	d.index.store(h, d.px)
	d.stats.countSlot(h)
	return d.px, nil
}

// Decode decodes a frame into a packed pixel buffer laid out with the
// channel count stored in its header.
func Decode(data []byte) ([]byte, Desc, error) {
	return decodeFrame(data, 0, nil)
}

// DecodeChannels decodes a frame into a packed pixel buffer with the given
// channel count, 3 or 4. Zero keeps the channel count of the header. Frames
// without alpha decode with A = 255.
func DecodeChannels(data []byte, channels uint8) ([]byte, Desc, error) {
	return decodeFrame(data, channels, nil)
}

func decodeFrame(data []byte, channels uint8, stats *Stats) ([]byte, Desc, error) {
	desc, err := DecodeHeader(data)
	if err != nil {
		return nil, Desc{}, err
	}
	if channels == 0 {
		channels = desc.Channels
	} else if err := checkChannels(channels); err != nil {
		return nil, Desc{}, err
	}

	end := max(len(data)-len(endMarker), headerSize)
	d := decoder{
		body:  data[headerSize:end],
		px:    startPixel,
		stats: stats,
	}

	// a single opcode byte covers at most maxRun pixels
	n := desc.pixels()
	if len(d.body)*maxRun < n {
		return nil, Desc{}, fmt.Errorf("%w: %d bytes cannot hold %d pixels", ErrTruncatedStream, len(d.body), n)
	}

	c := int(channels)
	pix := make([]byte, n*c)
	for i := 0; i < len(pix); i += c {
		px, err := d.next()
		if err != nil {
			return nil, Desc{}, err
		}
		pix[i+0] = px.R
		pix[i+1] = px.G
		pix[i+2] = px.B
		if c == 4 {
			pix[i+3] = px.A
		}
	}

	if rest := len(d.body) - d.pos; rest > 0 {
		return nil, Desc{}, fmt.Errorf("%w: %d bytes after last pixel", ErrInvalidTrailer, rest)
	}
	if err := checkTrailer(data[end:]); err != nil {
		return nil, Desc{}, err
	}

	if stats != nil {
		stats.Desc = desc
		stats.Pixels = n
		stats.Bytes = len(data)
	}
	return pix, desc, nil
}
