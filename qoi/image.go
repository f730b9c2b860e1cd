package qoi

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"golang.org/x/image/draw"
)

// Options tune EncodeImage.
type Options struct {
	// Channels is 3 or 4. Zero picks 3 for opaque images and 4 otherwise.
	Channels   uint8
	Colorspace Colorspace
}

// DecodeImage reads a whole frame from r and returns it as an *image.NRGBA.
func DecodeImage(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	pix, d, err := DecodeChannels(data, 4)
	if err != nil {
		return nil, err
	}
	return &image.NRGBA{
		Pix:    pix,
		Stride: 4 * int(d.Width),
		Rect:   image.Rect(0, 0, int(d.Width), int(d.Height)),
	}, nil
}

// DecodeConfig reads only the header from r.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h := make([]byte, headerSize)
	if _, err := io.ReadFull(r, h); err != nil {
		return image.Config{}, fmt.Errorf("%w: %w", ErrTruncatedStream, err)
	}
	d, err := DecodeHeader(h)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(d.Width),
		Height:     int(d.Height),
	}, nil
}

// EncodeImage writes m to w as a frame. Any image may be encoded; images
// that are not *image.NRGBA are converted first, which is lossy for color
// models with more than 8 bits per channel.
func EncodeImage(w io.Writer, m image.Image, o *Options) error {
	var opts Options
	if o != nil {
		opts = *o
	}

	img := toNRGBA(m)
	if opts.Channels == 0 {
		opts.Channels = 4
		if img.Opaque() {
			opts.Channels = 3
		}
	}
	b := img.Bounds()
	d := Desc{
		Width:      uint32(b.Dx()),
		Height:     uint32(b.Dy()),
		Channels:   opts.Channels,
		Colorspace: opts.Colorspace,
	}

	data, err := Encode(packPixels(img, int(d.Channels)), d)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// toNRGBA returns m as an *image.NRGBA whose bounds start at the origin and
// whose rows are packed.
func toNRGBA(m image.Image) *image.NRGBA {
	b := m.Bounds()
	src, ok := m.(*image.NRGBA)
	if ok && b.Min == (image.Point{}) && src.Stride == 4*b.Dx() {
		return src
	}

	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if ok {
		// copy rows so fully transparent pixels keep their color
		for y := range b.Dy() {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(img.Pix[y*img.Stride:(y+1)*img.Stride], src.Pix[off:off+4*b.Dx()])
		}
		return img
	}
	draw.Draw(img, img.Rect, m, b.Min, draw.Src)
	return img
}

// packPixels returns the pixels of img with the given channel count.
func packPixels(img *image.NRGBA, channels int) []byte {
	if channels == 4 {
		return img.Pix
	}
	n := len(img.Pix) / 4
	pix := make([]byte, 0, n*channels)
	for i := 0; i < len(img.Pix); i += 4 {
		pix = append(pix, img.Pix[i], img.Pix[i+1], img.Pix[i+2])
	}
	return pix
}
