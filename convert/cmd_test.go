package convert

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"qoiconv/config"
	"qoiconv/parallel"
	"qoiconv/qoi"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func readImage(t *testing.T, path string) (image.Image, string) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	return img, format
}

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 7), uint8(y * 3), 100, uint8(255 - x)})
		}
	}
	return img
}

func assertSamePixels(t *testing.T, want, got image.Image) {
	t.Helper()
	if want.Bounds() != got.Bounds() {
		t.Fatalf("bounds %v, want %v", got.Bounds(), want.Bounds())
	}
	b := want.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			wc := color.NRGBAModel.Convert(want.At(x, y))
			gc := color.NRGBAModel.Convert(got.At(x, y))
			if wc != gc {
				t.Fatalf("pixel (%d, %d) = %+v, want %+v", x, y, gc, wc)
			}
		}
	}
}

func run(t *testing.T, cmd *CLICmd) error {
	t.Helper()
	if err := cmd.Validate(nil); err != nil {
		t.Fatal(err)
	}
	pool := parallel.Start(2)
	return cmd.Run(pool.Submit, pool.Wait, config.Default())
}

func TestConvertFolder(t *testing.T) {
	scan := t.TempDir()
	imgs := map[string]*image.NRGBA{
		"a.png": testImage(9, 4),
		"b.png": testImage(1, 1),
	}
	for name, img := range imgs {
		writePNG(t, filepath.Join(scan, name), img)
	}

	cmd := &CLICmd{Scan: scan, Dest: "out", To: "qoi"}
	if err := run(t, cmd); err != nil {
		t.Fatal(err)
	}

	for name, want := range imgs {
		got, format := readImage(t, DestName(name, filepath.Join(scan, "out"), "qoi"))
		if format != "qoi" {
			t.Fatalf("%s: format %q", name, format)
		}
		assertSamePixels(t, want, got)
	}

	back := &CLICmd{Scan: filepath.Join(scan, "out"), Dest: filepath.Join(scan, "back"), To: "png"}
	if err := run(t, back); err != nil {
		t.Fatal(err)
	}
	got, format := readImage(t, filepath.Join(scan, "back", "a.png"))
	if format != "png" {
		t.Fatalf("format %q", format)
	}
	assertSamePixels(t, imgs["a.png"], got)
}

func TestConvertRefusesExisting(t *testing.T) {
	scan := t.TempDir()
	writePNG(t, filepath.Join(scan, "a.png"), testImage(2, 2))

	cmd := &CLICmd{Scan: scan, Dest: "out", To: "qoi"}
	if err := run(t, cmd); err != nil {
		t.Fatal(err)
	}
	if err := run(t, &CLICmd{Scan: scan, Dest: "out", To: "qoi"}); err == nil {
		t.Fatal("expected an error for an existing destination")
	}
	if err := run(t, &CLICmd{Scan: scan, Dest: "out", To: "qoi", Force: true}); err != nil {
		t.Fatal(err)
	}
}

func TestConvertBadFile(t *testing.T) {
	scan := t.TempDir()
	if err := os.WriteFile(filepath.Join(scan, "junk.png"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := run(t, &CLICmd{Scan: scan, Dest: "out", To: "qoi"}); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := os.Stat(filepath.Join(scan, "out", "junk.qoi")); err == nil {
		t.Fatal("destination written for undecodable input")
	}
}

func TestConvertOptions(t *testing.T) {
	scan := t.TempDir()
	writePNG(t, filepath.Join(scan, "a.png"), image.NewGray(image.Rect(0, 0, 3, 3)))

	cmd := &CLICmd{Scan: scan, Dest: "out", To: "qoi", Channels: 4, Colorspace: "linear"}
	if err := run(t, cmd); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(scan, "out", "a.qoi"))
	if err != nil {
		t.Fatal(err)
	}
	d, err := qoi.DecodeHeader(data)
	if err != nil {
		t.Fatal(err)
	}
	if d.Channels != 4 || d.Colorspace != qoi.Linear {
		t.Fatalf("desc %+v", d)
	}
}

func TestValidate(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	for name, cmd := range map[string]*CLICmd{
		"scan is a file": {Scan: file, Dest: "out"},
		"bad channels":   {Scan: t.TempDir(), Dest: "out", Channels: 2},
	} {
		t.Run(name, func(t *testing.T) {
			if err := cmd.Validate(nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
