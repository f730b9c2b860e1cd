// Package qoi implements a lossless codec for 8 bit RGB and RGBA pixel
// buffers in the "Quite OK Image" format.
//
// A frame is a 14 byte header, a stream of opcodes and an 8 byte end marker.
// Each opcode describes one or more pixels relative to the previous pixel or
// to a 64 slot cache of recently seen pixels.
package qoi

import (
	"errors"
	"image"
)

const (
	/*
		400 million pixels, the same guard as the reference implementation.
		Worst case is 5 bytes per pixel, which keeps a frame below 2GB.
	*/
	maxPixels = 400_000_000

	// Magic is the 4 byte signature every frame starts with.
	Magic = "qoif"

	headerSize = 14
	cacheSize  = 64
	maxRun     = 62
)

var endMarker = [8]byte{0, 0, 0, 0, 0, 0, 0, 1}

var (
	ErrInvalidHeader       = errors.New("qoi: invalid header")
	ErrTruncatedStream     = errors.New("qoi: truncated stream")
	ErrInvalidTrailer      = errors.New("qoi: invalid end marker")
	ErrInvalidChannelCount = errors.New("qoi: invalid channel count")
	ErrInvalidDimensions   = errors.New("qoi: invalid image dimensions")
)

// Colorspace is stored in the header as a tag. The codec never interprets it.
type Colorspace uint8

const (
	// SRGB is sRGB with linear alpha.
	SRGB Colorspace = 0
	// Linear means all channels are linear.
	Linear Colorspace = 1
)

func (c Colorspace) String() string {
	switch c {
	case SRGB:
		return "srgb"
	case Linear:
		return "linear"
	}
	return "unknown"
}

func init() {
	image.RegisterFormat("qoi", Magic, DecodeImage, DecodeConfig)
}
