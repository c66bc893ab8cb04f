package scene

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 1, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(0, 1, color.NRGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeImageKeepsTopRowFirst(t *testing.T) {
	img, err := DecodeImage(pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1, 2), img.Bounds())
	assert.Equal(t, []uint8{255, 0, 0, 255}, img.Pix[0:4])
	assert.Equal(t, []uint8{0, 0, 255, 255}, img.Pix[4:8])
}

func TestDecodeImageKeepsStraightAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 128})
	src.Set(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	img, err := DecodeImage(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []uint8{200, 100, 50, 128}, img.Pix[0:4])
	assert.Equal(t, []uint8{10, 20, 30, 0}, img.Pix[4:8])
}

func TestDecodeImageRejectsNonImage(t *testing.T) {
	_, err := DecodeImage([]byte("definitely not a picture"))
	assert.Error(t, err)
}

func TestLoadResolvesImages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "red.png"), pngBytes(t), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.bin"), triangleDoc().Buffers[0].Data, 0o644))
	path := filepath.Join(dir, "tri.gltf")
	require.NoError(t, os.WriteFile(path, []byte(triangleGLTF), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	require.Len(t, m.Images, 1)
	assert.Equal(t, 2, m.Images[0].Bounds().Dy())
	assert.Len(t, m.Doc.Nodes, 1)
}

const triangleGLTF = `{
  "asset": {"version": "2.0"},
  "buffers": [{"uri": "tri.bin", "byteLength": 36}],
  "bufferViews": [{"buffer": 0, "byteLength": 36}],
  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
  "nodes": [{"mesh": 0}],
  "scenes": [{"nodes": [0]}],
  "scene": 0,
  "images": [{"uri": "red.png"}],
  "textures": [{"source": 0}]
}`

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.gltf"))
	assert.Error(t, err)
}
