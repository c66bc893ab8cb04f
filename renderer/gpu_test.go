//go:build gpu

package renderer

import (
	"encoding/binary"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gltf-viewer/scene"
	"gltf-viewer/settings"
)

// upperQuadModel is a white quad covering the upper part of the view from
// the test camera. Its primitive has no material.
func upperQuadModel(t *testing.T) *scene.Model {
	var data []byte
	f32 := func(vs ...float32) {
		for _, v := range vs {
			data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
		}
	}
	f32(-5, 0.2, 0, 5, 0.2, 0, 5, 5, 0, -5, 5, 0) // positions
	f32(0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1)       // normals
	for _, i := range []uint16{0, 1, 2, 0, 2, 3} {
		data = binary.LittleEndian.AppendUint16(data, i)
	}

	mesh := 0
	doc := &gltf.Document{
		Buffers: []*gltf.Buffer{{ByteLength: len(data), Data: data}},
		BufferViews: []*gltf.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 96},
			{Buffer: 0, ByteOffset: 96, ByteLength: 12},
		},
		Accessors: []*gltf.Accessor{
			{BufferView: gltf.Index(0), Count: 4, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorVec3},
			{BufferView: gltf.Index(0), ByteOffset: 48, Count: 4, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorVec3},
			{BufferView: gltf.Index(1), Count: 6, ComponentType: gltf.ComponentUshort, Type: gltf.AccessorScalar},
		},
		Meshes: []*gltf.Mesh{{Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{gltf.POSITION: 0, gltf.NORMAL: 1},
			Indices:    gltf.Index(2),
		}}}},
		Nodes:  []*gltf.Node{{Mesh: &mesh, Rotation: [4]float64{0, 0, 0, 1}, Scale: [3]float64{1, 1, 1}}},
		Scenes: []*gltf.Scene{{Nodes: []int{0}}},
		Scene:  gltf.Index(0),
	}
	m, err := scene.NewModel(doc, nil)
	require.NoError(t, err)
	return m
}

func withViewer(t *testing.T, fn func(v *Viewer)) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	cam := scene.NewCamera(mgl32.Vec3{0, 0, 3}, mgl32.Vec3{}, scene.WorldUp)
	v, err := NewViewer(upperQuadModel(t), Config{
		Width:  64,
		Height: 48,
		Camera: &cam,
		Params: settings.Defaults(),
		Hidden: true,
		Logger: slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)
	defer v.Close()
	fn(v)
}

func exportWith(t *testing.T, v *Viewer, p settings.RenderParams) []byte {
	v.SetParams(p)
	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, v.Export(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestExportIsDeterministic(t *testing.T) {
	withViewer(t, func(v *Viewer) {
		p := settings.Defaults()
		assert.Equal(t, exportWith(t, v, p), exportWith(t, v, p))
	})
}

func TestSSAOOffMatchesZeroIntensity(t *testing.T) {
	withViewer(t, func(v *Viewer) {
		off := settings.Defaults()
		off.SSAO.Enabled = false
		zero := settings.Defaults()
		zero.SSAO.Intensity = 0
		assert.Equal(t, exportWith(t, v, off), exportWith(t, v, zero))
	})
}

func TestBloomOffMatchesPlainShading(t *testing.T) {
	withViewer(t, func(v *Viewer) {
		off := settings.Defaults()
		off.Bloom.Enabled = false
		zero := settings.Defaults()
		zero.Bloom.Intensity = 0
		assert.Equal(t, exportWith(t, v, off), exportWith(t, v, zero))
	})
}

func TestExportTopRowIsImageTop(t *testing.T) {
	withViewer(t, func(v *Viewer) {
		p := settings.Defaults()
		p.Display.Channel = settings.Diffuse
		v.SetParams(p)

		path := filepath.Join(t.TempDir(), "diffuse.png")
		require.NoError(t, v.Export(path))
		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		img, err := png.Decode(f)
		require.NoError(t, err)

		b := img.Bounds()
		r, g, bl, _ := img.At(b.Dx()/2, 0).RGBA()
		assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, bl}, "top row shows the quad")
		r, g, bl, _ = img.At(b.Dx()/2, b.Dy()-1).RGBA()
		assert.Equal(t, []uint32{0, 0, 0}, []uint32{r, g, bl}, "bottom row is empty")
	})
}
