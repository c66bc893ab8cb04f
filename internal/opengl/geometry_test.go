package opengl

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gltf-viewer/settings"
)

type recordedDraw struct {
	vao       uint32
	call      DrawCall
	modelView mgl32.Mat4
	normal    mgl32.Mat4
	textures  map[uint32]uint32
	floats    map[string]float32
	vec3s     map[string]mgl32.Vec3
	vec4s     map[string]mgl32.Vec4
}

// recordingBackend snapshots uniform and texture state at every draw.
type recordingBackend struct {
	textures map[uint32]uint32
	floats   map[string]float32
	vec3s    map[string]mgl32.Vec3
	vec4s    map[string]mgl32.Vec4
	mats     map[string]mgl32.Mat4
	draws    []recordedDraw
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{
		textures: map[uint32]uint32{},
		floats:   map[string]float32{},
		vec3s:    map[string]mgl32.Vec3{},
		vec4s:    map[string]mgl32.Vec4{},
		mats:     map[string]mgl32.Mat4{},
	}
}

func (r *recordingBackend) SetInt(string, int32) {}
func (r *recordingBackend) SetFloat(name string, v float32) { r.floats[name] = v }
func (r *recordingBackend) SetVec3(name string, v mgl32.Vec3) { r.vec3s[name] = v }
func (r *recordingBackend) SetVec4(name string, v mgl32.Vec4) { r.vec4s[name] = v }
func (r *recordingBackend) SetMat4(name string, m mgl32.Mat4) { r.mats[name] = m }
func (r *recordingBackend) BindTexture(unit, tex uint32) { r.textures[unit] = tex }

func (r *recordingBackend) Draw(vao uint32, call DrawCall) {
	d := recordedDraw{
		vao:       vao,
		call:      call,
		modelView: r.mats["uModelViewMatrix"],
		normal:    r.mats["uNormalMatrix"],
		textures:  map[uint32]uint32{},
		floats:    map[string]float32{},
		vec3s:     map[string]mgl32.Vec3{},
		vec4s:     map[string]mgl32.Vec4{},
	}
	for k, v := range r.textures {
		d.textures[k] = v
	}
	for k, v := range r.floats {
		d.floats[k] = v
	}
	for k, v := range r.vec3s {
		d.vec3s[k] = v
	}
	for k, v := range r.vec4s {
		d.vec4s[k] = v
	}
	r.draws = append(r.draws, d)
}

func allTextures() settings.Textures {
	return settings.Textures{BaseColor: true, MetallicRoughness: true, Emissive: true, Occlusion: true}
}

func TestDrawSceneVisitsSharedNodePerPath(t *testing.T) {
	doc := sceneDoc()
	be := newRecordingBackend()

	drawn := drawScene(be, doc, fakeResources(doc), []int{0}, mgl32.Ident4(), mgl32.Ident4(), allTextures())
	require.Equal(t, 5, drawn)
	require.Len(t, be.draws, 5)

	vaos := make([]uint32, len(be.draws))
	for i, d := range be.draws {
		vaos[i] = d.vao
	}
	assert.Equal(t, []uint32{100, 101, 100, 101, 102}, vaos)

	assert.Equal(t, mgl32.Vec3{1, 0, 0}, be.draws[0].modelView.Col(3).Vec3())
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, be.draws[2].modelView.Col(3).Vec3())
	assert.Equal(t, mgl32.Vec3{0, 0, 5}, be.draws[4].modelView.Col(3).Vec3())
}

func TestDrawSceneAppliesView(t *testing.T) {
	doc := sceneDoc()
	be := newRecordingBackend()
	view := mgl32.Translate3D(0, 0, -10)

	drawScene(be, doc, fakeResources(doc), []int{4}, view, mgl32.Ident4(), allTextures())
	require.Len(t, be.draws, 1)
	assert.Equal(t, mgl32.Vec3{0, 0, -5}, be.draws[0].modelView.Col(3).Vec3())
}

func TestDrawSceneNormalMatrixPerDraw(t *testing.T) {
	doc := sceneDoc()
	be := newRecordingBackend()
	view := mgl32.HomogRotate3DY(0.5).Mul4(mgl32.Scale3D(2, 1, 0.5)).Mul4(mgl32.Translate3D(0, 0, -10))

	drawScene(be, doc, fakeResources(doc), []int{0}, view, mgl32.Ident4(), allTextures())
	require.Len(t, be.draws, 5)

	for i, d := range be.draws {
		want := d.modelView.Inv().Transpose()
		assert.True(t, d.normal.ApproxEqualThreshold(want, 1e-5), "draw %d: got %v want %v", i, d.normal, want)
	}
	// The shared node is reached through two parents with different transforms.
	assert.False(t, be.draws[0].normal.ApproxEqualThreshold(be.draws[2].normal, 1e-5))
}

func TestMaterialBinding(t *testing.T) {
	doc := sceneDoc()
	be := newRecordingBackend()
	drawScene(be, doc, fakeResources(doc), []int{0}, mgl32.Ident4(), mgl32.Ident4(), allTextures())

	textured := be.draws[0]
	assert.Equal(t, uint32(10), textured.textures[BaseColorUnit])
	assert.Equal(t, uint32(1), textured.textures[MetallicRoughnessUnit])
	assert.Equal(t, uint32(11), textured.textures[EmissiveUnit])
	assert.Equal(t, uint32(10), textured.textures[OcclusionUnit])
	assert.Equal(t, mgl32.Vec4{0.5, 0.25, 1, 1}, textured.vec4s["uBaseColorFactor"])
	assert.InDelta(t, 0.2, textured.floats["uMetallicFactor"], 1e-6)
	assert.InDelta(t, 0.7, textured.floats["uRoughnessFactor"], 1e-6)
	assert.InDelta(t, 0.5, textured.floats["uOcclusionStrength"], 1e-6)
	assert.Equal(t, mgl32.Vec3{1, 0.5, 0}, textured.vec3s["uEmissiveFactor"])

	// The second primitive has no material.
	plain := be.draws[1]
	for unit := BaseColorUnit; unit <= OcclusionUnit; unit++ {
		assert.Equal(t, uint32(1), plain.textures[unit], "unit %d", unit)
	}
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, plain.vec4s["uBaseColorFactor"])
	assert.Equal(t, float32(1), plain.floats["uMetallicFactor"])
	assert.Equal(t, float32(1), plain.floats["uRoughnessFactor"])
	assert.Equal(t, float32(1), plain.floats["uOcclusionStrength"])
	assert.Equal(t, mgl32.Vec3{}, plain.vec3s["uEmissiveFactor"])
}

func TestResolveMaterialTogglesKeepFactors(t *testing.T) {
	doc := sceneDoc()
	res := fakeResources(doc)
	prim := doc.Meshes[0].Primitives[0]

	b := ResolveMaterial(doc, res.Textures, res.White, prim, settings.Textures{})
	assert.Equal(t, res.White, b.BaseColorTexture)
	assert.Equal(t, res.White, b.EmissiveTexture)
	assert.Equal(t, res.White, b.OcclusionTexture)
	assert.Equal(t, mgl32.Vec4{0.5, 0.25, 1, 1}, b.BaseColorFactor)
	assert.Equal(t, mgl32.Vec3{1, 0.5, 0}, b.EmissiveFactor)
}

func TestResolveMaterialMissingTextureObject(t *testing.T) {
	doc := sceneDoc()
	res := fakeResources(doc)
	res.Textures[0] = 0

	b := ResolveMaterial(doc, res.Textures, res.White, doc.Meshes[0].Primitives[0], allTextures())
	assert.Equal(t, res.White, b.BaseColorTexture)
	assert.Equal(t, uint32(11), b.EmissiveTexture)
}
