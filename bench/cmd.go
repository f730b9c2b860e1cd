// Package bench compares in-process PNG and QOI encode/decode timings and
// sizes for a set of images.
package bench

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"qoiconv/qoi"
)

var ErrMismatch = errors.New("qoi round trip differs from source")

type CLICmd struct {
	Files []string `arg:"" type:"existingfile" help:"Images to benchmark"`
	Runs  int      `help:"Repetitions per image, timings are averaged" default:"1"`
}

func (c *CLICmd) Validate() error {
	if c.Runs < 1 {
		return fmt.Errorf("invalid run count: %d", c.Runs)
	}
	return nil
}

// Timing is the average cost of one codec on one image.
type Timing struct {
	Encode time.Duration
	Decode time.Duration
	Size   int
}

func (t *Timing) add(o Timing) {
	t.Encode += o.Encode
	t.Decode += o.Decode
	t.Size += o.Size
}

type Result struct {
	Pixels int
	PNG    Timing
	QOI    Timing
	Stats  qoi.Stats
}

// Measure encodes and decodes img runs times with both codecs and checks
// that QOI returns the exact pixels.
func Measure(img image.Image, runs int) (Result, error) {
	runs = max(runs, 1)
	b := img.Bounds()
	src := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(src, src.Rect, img, b.Min, draw.Src)

	res := Result{Pixels: b.Dx() * b.Dy()}
	var pngData, qoiData bytes.Buffer
	var qoiImg image.Image
	for range runs {
		pngData.Reset()
		start := time.Now()
		if err := png.Encode(&pngData, src); err != nil {
			return Result{}, fmt.Errorf("png encode: %w", err)
		}
		res.PNG.Encode += time.Since(start)

		start = time.Now()
		if _, err := png.Decode(bytes.NewReader(pngData.Bytes())); err != nil {
			return Result{}, fmt.Errorf("png decode: %w", err)
		}
		res.PNG.Decode += time.Since(start)

		qoiData.Reset()
		start = time.Now()
		if err := qoi.EncodeImage(&qoiData, src, &qoi.Options{Channels: 4}); err != nil {
			return Result{}, fmt.Errorf("qoi encode: %w", err)
		}
		res.QOI.Encode += time.Since(start)

		var err error
		start = time.Now()
		if qoiImg, err = qoi.DecodeImage(bytes.NewReader(qoiData.Bytes())); err != nil {
			return Result{}, fmt.Errorf("qoi decode: %w", err)
		}
		res.QOI.Decode += time.Since(start)
	}

	if !bytes.Equal(qoiImg.(*image.NRGBA).Pix, src.Pix) {
		return Result{}, ErrMismatch
	}

	n := time.Duration(runs)
	res.PNG.Encode /= n
	res.PNG.Decode /= n
	res.QOI.Encode /= n
	res.QOI.Decode /= n
	res.PNG.Size = pngData.Len()
	res.QOI.Size = qoiData.Len()

	stats, err := qoi.Inspect(qoiData.Bytes())
	if err != nil {
		return Result{}, err
	}
	res.Stats = stats
	return res, nil
}

func decodeFile(name string) (image.Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("could not open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %w", err)
	}
	return img, nil
}

func logResult(logger *slog.Logger, res Result) {
	for _, c := range []struct {
		name string
		t    Timing
	}{{"png", res.PNG}, {"qoi", res.QOI}} {
		logger.Info("timing", "codec", c.name,
			"encode", c.t.Encode, "decode", c.t.Decode, "size", c.t.Size,
			"bytes_per_pixel", float64(c.t.Size)/float64(max(res.Pixels, 1)))
	}

	ops := make([]any, 0, 2*len(res.Stats.Ops))
	for op, count := range res.Stats.Ops {
		ops = append(ops, qoi.Op(op).String(), count)
	}
	logger.Debug("opcodes", ops...)
}

func (c *CLICmd) Run() error {
	var total Result
	var errCount int
	for _, name := range c.Files {
		logger := slog.Default().With("file", name)

		img, err := decodeFile(name)
		if err != nil {
			errCount++
			logger.Error("could not read image", "error", err)
			continue
		}

		res, err := Measure(img, c.Runs)
		if err != nil {
			errCount++
			logger.Error("could not benchmark image", "error", err)
			continue
		}
		logResult(logger, res)

		total.Pixels += res.Pixels
		total.PNG.add(res.PNG)
		total.QOI.add(res.QOI)
	}

	if measured := len(c.Files) - errCount; measured > 1 {
		logResult(slog.Default().With("file", "total", "images", measured), total)
	}

	if errCount > 0 {
		return fmt.Errorf("error processing %d files", errCount)
	}
	return nil
}
