package opengl

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"

	"gltf-viewer/scene"
	"gltf-viewer/settings"
)

const geometryVertSrc = `
#version 410 core
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec2 aTexCoords;

uniform mat4 uModelViewProjMatrix;
uniform mat4 uModelViewMatrix;
uniform mat4 uNormalMatrix;

out vec3 vViewSpacePosition;
out vec3 vViewSpaceNormal;
out vec2 vTexCoords;

void main() {
    vViewSpacePosition = vec3(uModelViewMatrix * vec4(aPosition, 1.0));
    vViewSpaceNormal   = vec3(uNormalMatrix * vec4(aNormal, 0.0));
    vTexCoords         = aTexCoords;
    gl_Position        = uModelViewProjMatrix * vec4(aPosition, 1.0);
}
` + "\x00"

// geometryFragSrc writes material attributes into the five G-buffer targets.
// Base color and emissive textures are sRGB encoded.
const geometryFragSrc = `
#version 410 core
in vec3 vViewSpacePosition;
in vec3 vViewSpaceNormal;
in vec2 vTexCoords;

uniform vec4      uBaseColorFactor;
uniform sampler2D uBaseColorTexture;
uniform float     uMetallicFactor;
uniform float     uRoughnessFactor;
uniform sampler2D uMetallicRoughnessTexture;
uniform vec3      uEmissiveFactor;
uniform sampler2D uEmissiveTexture;
uniform float     uOcclusionStrength;
uniform sampler2D uOcclusionTexture;

layout(location = 0) out vec3 fPosition;
layout(location = 1) out vec3 fNormal;
layout(location = 2) out vec3 fDiffuse;
layout(location = 3) out vec3 fOcclusionMetalRoughness;
layout(location = 4) out vec3 fEmissive;

vec3 srgbToLinear(vec3 c) {
    return pow(c, vec3(2.2));
}

void main() {
    fPosition = vViewSpacePosition;

    // Primitives without normals get a camera-facing one.
    float len2 = dot(vViewSpaceNormal, vViewSpaceNormal);
    fNormal = len2 > 0.0 ? vViewSpaceNormal * inversesqrt(len2) : vec3(0.0, 0.0, 1.0);

    vec4 base = texture(uBaseColorTexture, vTexCoords);
    fDiffuse = srgbToLinear(base.rgb) * uBaseColorFactor.rgb;

    // glTF packs roughness in G and metalness in B.
    vec4 mr = texture(uMetallicRoughnessTexture, vTexCoords);
    float occlusion = mix(1.0, texture(uOcclusionTexture, vTexCoords).r, uOcclusionStrength);
    fOcclusionMetalRoughness = vec3(occlusion, uMetallicFactor * mr.b, uRoughnessFactor * mr.g);

    fEmissive = srgbToLinear(texture(uEmissiveTexture, vTexCoords).rgb) * uEmissiveFactor;
}
` + "\x00"

// geometryBackend is the GPU surface the scene walk draws through.
type geometryBackend interface {
	UniformSetter
	BindTexture(unit, tex uint32)
	Draw(vao uint32, call DrawCall)
}

// glGeometryBackend draws through the geometry program.
type glGeometryBackend struct {
	*Program
}

func (glGeometryBackend) BindTexture(unit, tex uint32) {
	bindTexture(unit, tex)
}

func (glGeometryBackend) Draw(vao uint32, c DrawCall) {
	gl.BindVertexArray(vao)
	if c.Indexed {
		gl.DrawElementsWithOffset(c.Mode, c.Count, c.IndexType, c.Offset)
	} else {
		gl.DrawArrays(c.Mode, 0, c.Count)
	}
}

// ── Pass ─────────────────────────────────────────────────────────────────────

// GeometryPass rasterizes the scene into the G-buffer.
type GeometryPass struct {
	prog *Program
}

// NewGeometryPass compiles the G-buffer program and binds its four material
// samplers to their fixed texture units.
func NewGeometryPass() (*GeometryPass, error) {
	prog, err := NewProgram("geometry", geometryVertSrc, geometryFragSrc)
	if err != nil {
		return nil, err
	}
	prog.Use()
	prog.SetInt("uBaseColorTexture", int32(BaseColorUnit))
	prog.SetInt("uMetallicRoughnessTexture", int32(MetallicRoughnessUnit))
	prog.SetInt("uEmissiveTexture", int32(EmissiveUnit))
	prog.SetInt("uOcclusionTexture", int32(OcclusionUnit))
	return &GeometryPass{prog: prog}, nil
}

// Run clears the G-buffer and draws every node reachable from roots.
func (g *GeometryPass) Run(t *Targets, doc *gltf.Document, res *SceneResources, roots []int, view, proj mgl32.Mat4, toggles settings.Textures) int {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.GBuffer.FBO)
	gl.Viewport(0, 0, t.Width, t.Height)
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.DEPTH_TEST)

	g.prog.Use()
	drawn := drawScene(glGeometryBackend{g.prog}, doc, res, roots, view, proj, toggles)

	gl.BindVertexArray(0)
	gl.Disable(gl.DEPTH_TEST)
	return drawn
}

// Delete frees the program.
func (g *GeometryPass) Delete() {
	g.prog.Delete()
}

// ── Scene walk ───────────────────────────────────────────────────────────────

// drawScene walks the node forest and issues one draw per primitive of every
// mesh node, once per path to that node. It returns the number of draws.
func drawScene(be geometryBackend, doc *gltf.Document, res *SceneResources, roots []int, view, proj mgl32.Mat4, toggles settings.Textures) int {
	drawn := 0
	scene.Walk(doc, roots, func(idx int, model mgl32.Mat4) {
		node := doc.Nodes[idx]
		if node.Mesh == nil {
			return
		}
		modelView := view.Mul4(model)
		be.SetMat4("uModelViewMatrix", modelView)
		be.SetMat4("uModelViewProjMatrix", proj.Mul4(modelView))
		be.SetMat4("uNormalMatrix", modelView.Inv().Transpose())

		mesh := doc.Meshes[*node.Mesh]
		rng := res.Ranges[*node.Mesh]
		for pi, prim := range mesh.Primitives {
			call, ok := PrimitiveDrawCall(doc, prim)
			if !ok {
				continue
			}
			applyMaterial(be, ResolveMaterial(doc, res.Textures, res.White, prim, toggles))
			be.Draw(res.VAOs[rng.Begin+pi], call)
			drawn++
		}
	})
	return drawn
}
