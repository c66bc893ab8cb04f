package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// ImageFormat is a lossless export encoding.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatBMP  ImageFormat = "bmp"
	FormatTIFF ImageFormat = "tiff"
)

// ExportFormat picks the encoding from path's extension.
func ExportFormat(path string) (ImageFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".bmp":
		return FormatBMP, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	}
	return "", fmt.Errorf("%w: %q (use .png, .bmp or .tiff)", ErrUnsupportedFormat, filepath.Ext(path))
}

// FlipRows returns a copy of an RGBA pixel buffer with its rows in reverse
// order, converting between bottom-up GPU readback and top-down image files.
func FlipRows(pix []byte, width, height int) []byte {
	stride := width * 4
	out := make([]byte, len(pix))
	for y := 0; y < height; y++ {
		src := pix[y*stride : (y+1)*stride]
		copy(out[(height-1-y)*stride:], src)
	}
	return out
}

// EncodeImage writes top-down RGBA pixels as an opaque image. Alpha is
// forced to 255 so the encoders emit RGB.
func EncodeImage(w io.Writer, pix []byte, width, height int, format ImageFormat) error {
	if len(pix) != width*height*4 {
		return fmt.Errorf("encode: have %d bytes for %dx%d", len(pix), width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}

	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// WriteImage encodes top-down RGBA pixels into path. The image is encoded
// into a temporary file next to path and renamed over it, so a failed export
// leaves any existing file untouched.
func WriteImage(path string, pix []byte, width, height int) (err error) {
	format, err := ExportFormat(path)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err := EncodeImage(f, pix, width, height, format); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := f.Chmod(0o644); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
