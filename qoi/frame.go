package qoi

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Desc describes a frame: its dimensions, the channel count of the pixel
// buffer it was encoded from and the colorspace tag.
type Desc struct {
	Width      uint32
	Height     uint32
	Channels   uint8
	Colorspace Colorspace
}

func (d Desc) pixels() int {
	return int(d.Width) * int(d.Height)
}

func checkChannels(c uint8) error {
	if c != 3 && c != 4 {
		return fmt.Errorf("%w: %d", ErrInvalidChannelCount, c)
	}
	return nil
}

func (d Desc) validate() error {
	if err := checkChannels(d.Channels); err != nil {
		return err
	}
	if d.Colorspace > Linear {
		return fmt.Errorf("%w: colorspace %d", ErrInvalidHeader, d.Colorspace)
	}
	if d.Width == 0 || d.Height == 0 || uint64(d.Width)*uint64(d.Height) > maxPixels {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, d.Width, d.Height)
	}
	return nil
}

func appendHeader(buf []byte, d Desc) []byte {
	buf = append(buf, Magic...)
	buf = binary.BigEndian.AppendUint32(buf, d.Width)
	buf = binary.BigEndian.AppendUint32(buf, d.Height)
	return append(buf, d.Channels, uint8(d.Colorspace))
}

// DecodeHeader parses and validates the header at the start of data.
func DecodeHeader(data []byte) (Desc, error) {
	if len(data) < headerSize {
		return Desc{}, fmt.Errorf("%w: %d header bytes", ErrTruncatedStream, len(data))
	}
	if string(data[:4]) != Magic {
		return Desc{}, fmt.Errorf("%w: magic %q", ErrInvalidHeader, data[:4])
	}

	d := Desc{
		Width:      binary.BigEndian.Uint32(data[4:8]),
		Height:     binary.BigEndian.Uint32(data[8:12]),
		Channels:   data[12],
		Colorspace: Colorspace(data[13]),
	}
	if err := d.validate(); err != nil {
		// every header defect is reported as an invalid header on decode
		return Desc{}, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	return d, nil
}

func checkTrailer(rest []byte) error {
	if !bytes.Equal(rest, endMarker[:]) {
		return fmt.Errorf("%w: % x", ErrInvalidTrailer, rest)
	}
	return nil
}
