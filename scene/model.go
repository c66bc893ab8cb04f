package scene

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"golang.org/x/image/draw"

	// Extra decoders for textures that are not PNG/JPEG.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Model is a parsed, validated glTF asset with every image decoded to
// straight-alpha RGBA8.
// The renderer treats it as read-only.
type Model struct {
	Path string
	Doc  *gltf.Document
	// Images is index-aligned with Doc.Images.
	Images []*image.NRGBA
}

// Load opens a .gltf or .glb file, validates its index graph and decodes
// all referenced images.
func Load(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	if err := Validate(doc); err != nil {
		return nil, fmt.Errorf("gltf %q: %w", path, err)
	}

	images, err := decodeImages(doc, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("gltf %q: %w", path, err)
	}
	return &Model{Path: path, Doc: doc, Images: images}, nil
}

// NewModel wraps an in-memory document. images must be index-aligned with
// doc.Images.
func NewModel(doc *gltf.Document, images []*image.NRGBA) (*Model, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}
	if len(images) != len(doc.Images) {
		return nil, fmt.Errorf("%w: %d images decoded for %d declared", ErrInvalidModel, len(images), len(doc.Images))
	}
	return &Model{Doc: doc, Images: images}, nil
}

func decodeImages(doc *gltf.Document, dir string) ([]*image.NRGBA, error) {
	images := make([]*image.NRGBA, len(doc.Images))
	for i, img := range doc.Images {
		if img == nil {
			continue
		}
		raw, err := imageBytes(doc, img, dir)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		decoded, err := DecodeImage(raw)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		images[i] = decoded
	}
	return images, nil
}

func imageBytes(doc *gltf.Document, img *gltf.Image, dir string) ([]byte, error) {
	switch {
	case img.BufferView != nil:
		return modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
	case img.IsEmbeddedResource():
		return img.MarshalData()
	case img.URI != "":
		name, err := url.PathUnescape(img.URI)
		if err != nil {
			name = img.URI
		}
		return os.ReadFile(filepath.Join(dir, name))
	}
	return nil, fmt.Errorf("no uri or buffer view")
}

// DecodeImage decodes PNG, JPEG, WebP, BMP or TIFF bytes into a
// non-premultiplied RGBA8 image whose first row is the top of the picture.
// Color channels are kept as authored even where alpha is below 255.
func DecodeImage(data []byte) (*image.NRGBA, error) {
	if !filetype.IsImage(data) {
		kind, _ := filetype.Match(data)
		return nil, fmt.Errorf("unsupported image payload (detected %q)", kind.MIME.Value)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		// 8-bit PNGs with alpha already decode to straight RGBA8.
		return n, nil
	}
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out, nil
}
