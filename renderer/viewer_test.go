package renderer

import (
	"log/slog"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gltf-viewer/internal/opengl"
	"gltf-viewer/scene"
	"gltf-viewer/settings"
)

// testViewer has no window or pipeline; it exercises parameter handling only.
func testViewer() *Viewer {
	v := &Viewer{
		logger:     slog.New(slog.DiscardHandler),
		controller: scene.NewController(scene.FirstPerson, 1),
		sceneSize:  2,
		params:     settings.Defaults(),
	}
	v.controller.SetCamera(scene.NewCamera(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, scene.WorldUp))
	return v
}

func TestSetParamsSwapsControllerKeepingCamera(t *testing.T) {
	v := testViewer()
	cam := v.Camera()

	p := v.Params()
	p.Camera.Mode = settings.TrackballCamera
	v.SetParams(p)

	assert.Equal(t, scene.Trackball, v.ControllerKind())
	assert.Equal(t, cam, v.Camera())
}

func TestSetParamsClampsAndNotifies(t *testing.T) {
	v := testViewer()
	var seen []settings.RenderParams
	v.OnParamsChange(func(p settings.RenderParams) { seen = append(seen, p) })

	p := v.Params()
	p.SSAO.KernelSize = 500
	v.SetParams(p)

	assert.Equal(t, settings.MaxKernelSize, v.Params().SSAO.KernelSize)
	require.Len(t, seen, 1)
	assert.Equal(t, v.Params(), seen[0])
}

func TestApplyUpdatesDrainsWithoutBlocking(t *testing.T) {
	v := testViewer()
	updates := make(chan settings.RenderParams, 2)
	patches := make(chan []byte, 3)
	v.WatchParams(updates)
	v.AcceptPatches(patches)

	p := settings.Defaults()
	p.Bloom.Quality = 2
	updates <- p
	patches <- []byte(`{"ssao":{"enabled":false}}`)
	patches <- []byte(`not json`)
	patches <- []byte(`{"bloom":{"exposure":1.5}}`)

	v.applyUpdates()

	got := v.Params()
	assert.Equal(t, 2, got.Bloom.Quality)
	assert.False(t, got.SSAO.Enabled)
	assert.InDelta(t, 1.5, got.Bloom.Exposure, 1e-6)

	// Nothing pending: returns immediately.
	v.applyUpdates()
	assert.Equal(t, got, v.Params())
}

func TestApplyUpdatesForgetsClosedChannels(t *testing.T) {
	v := testViewer()
	updates := make(chan settings.RenderParams)
	patches := make(chan []byte)
	v.WatchParams(updates)
	v.AcceptPatches(patches)
	close(updates)
	close(patches)

	v.applyUpdates()
	assert.Nil(t, v.paramUpdates[0])
	assert.Nil(t, v.patches)
}

func TestChannelAttachment(t *testing.T) {
	want := map[settings.DebugChannel]int{
		settings.Position:                opengl.GPosition,
		settings.Normal:                  opengl.GNormal,
		settings.Diffuse:                 opengl.GDiffuse,
		settings.OcclusionMetalRoughness: opengl.GOcclusionMetalRoughness,
		settings.Emissive:                opengl.GEmissive,
	}
	for ch, attachment := range want {
		got, ok := channelAttachment(ch)
		assert.True(t, ok, ch.String())
		assert.Equal(t, attachment, got, ch.String())
	}
	_, ok := channelAttachment(settings.Beauty)
	assert.False(t, ok)
	_, ok = channelAttachment(settings.Depth)
	assert.False(t, ok)
}

func TestFrameParamConversion(t *testing.T) {
	p := settings.Defaults()
	p.Light.Color = [3]float32{1, 0.5, 0.25}
	p.Light.Intensity = 2
	p.Bloom.Threshold = 0.8
	p.Bloom.Tint = [3]float32{0.1, 0.2, 0.3}

	s := shadingParams(p, mgl32.Ident4())
	assert.Equal(t, mgl32.Vec3{2, 1, 0.5}, s.LightIntensity)
	assert.Equal(t, float32(0.8), s.BloomThreshold)

	c := compositeParams(p.Bloom, false)
	assert.False(t, c.UseBloom)
	assert.Equal(t, mgl32.Vec3{0.1, 0.2, 0.3}, c.BloomTint)
	assert.Equal(t, p.Bloom.Exposure, c.Exposure)
}
