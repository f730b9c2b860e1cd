// Package convert turns images of any registered format into QOI frames and
// QOI frames back into common formats.
package convert

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"

	"qoiconv/qoi"
)

// File decodes src and writes it to destDir in format outType. It returns
// the destination path, or "" when src already is in the requested format.
func File(logger *slog.Logger, src, destDir, outType string, opts *qoi.Options, force bool) (string, error) {
	imgFile, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("could not open image: %w", err)
	}
	defer func() {
		if closeErr := imgFile.Close(); closeErr != nil {
			logger.Error("could not close image", "error", closeErr)
		}
	}()

	img, imgType, err := image.Decode(imgFile)
	if err != nil {
		return "", fmt.Errorf("could not decode image: %w", err)
	}
	if imgType == outType {
		logger.Debug("already converted", "format", imgType)
		return "", nil
	}

	dest := DestName(src, destDir, outType)
	if !force {
		if err := checkDest(dest); err != nil {
			return "", err
		}
	}

	logger.Debug("encoding", "from", imgType, "to", outType,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	if err := save(img, outType, dest, opts); err != nil {
		return "", err
	}
	return dest, nil
}

// DestName is the path src converts to in destDir.
func DestName(src, destDir, outType string) string {
	name := filepath.Base(src)
	return filepath.Join(destDir, fmt.Sprintf("%s.%s", strings.TrimSuffix(name, filepath.Ext(name)), outType))
}

func checkDest(dest string) error {
	destFileInfo, err := os.Stat(dest)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cannot stat destination file %q: %w", dest, err)
		}
		return nil
	}
	return fmt.Errorf("destination file already exists: %q", destFileInfo.Name())
}

// save encodes into a temporary file next to dest and renames it into place
// once everything was written.
func save(img image.Image, outType, dest string, opts *qoi.Options) (err error) {
	destDir, destName := filepath.Split(dest)

	outFile, err := os.CreateTemp(destDir, destName+".*")
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", destName, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil && err == nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", destName, defErr)
		}
		if defErr := outFile.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", destName, defErr)
		}

		if canRename && err == nil {
			if defErr := os.Rename(outFile.Name(), dest); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", destName, defErr)
			}
		}
		if err != nil {
			os.Remove(outFile.Name())
		}
	}()

	switch outType {
	case "qoi":
		if err = qoi.EncodeImage(outFile, img, opts); err != nil {
			return fmt.Errorf("could not encode QOI destination %q: %w", destName, err)
		}
	case "png":
		enc := png.Encoder{
			CompressionLevel: png.BestCompression,
			BufferPool:       pngPool,
		}
		if err = enc.Encode(outFile, img); err != nil {
			return fmt.Errorf("could not encode PNG destination %q: %w", destName, err)
		}
	case "bmp":
		if err = bmp.Encode(outFile, img); err != nil {
			return fmt.Errorf("could not encode BMP destination %q: %w", destName, err)
		}
	case "tiff":
		if err = tiff.Encode(outFile, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
			return fmt.Errorf("could not encode TIFF destination %q: %w", destName, err)
		}
	default:
		return fmt.Errorf("unsupported output format: %s", outType)
	}

	canRename = true
	return err
}

type pngEncoderBufferPool struct {
	pool sync.Pool
}

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	return p.pool.Get().(*png.EncoderBuffer)
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngPool = &pngEncoderBufferPool{
	pool: sync.Pool{
		New: func() any {
			return &png.EncoderBuffer{}
		},
	},
}
