package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// ── Shaders ──────────────────────────────────────────────────────────────────

// compositeFragSrc adds the blurred bloom to the HDR color, tone maps with an
// exponential curve and gamma encodes.
const compositeFragSrc = `
#version 410 core
in  vec2 vUV;
out vec4 fColor;

uniform sampler2D uScene;
uniform sampler2D uBloom;
uniform bool  uUseBloom;
uniform bool  uBloomOnly;
uniform vec3  uBloomTint;
uniform float uBloomIntensity;
uniform float uExposure;

void main() {
    vec3 hdr = texelFetch(uScene, ivec2(gl_FragCoord.xy), 0).rgb;
    if (uUseBloom) {
        vec3 bloom = texture(uBloom, vUV).rgb * uBloomTint * uBloomIntensity;
        hdr = uBloomOnly ? bloom : hdr + bloom;
    }
    vec3 mapped = vec3(1.0) - exp(-hdr * uExposure);
    fColor = vec4(pow(mapped, vec3(1.0 / 2.2)), 1.0);
}
` + "\x00"

// depthFragSrc shows linear depth as gray, normalized by the far plane.
const depthFragSrc = `
#version 410 core
in  vec2 vUV;
out vec4 fColor;

uniform sampler2D uDepth;
uniform float uNear;
uniform float uFar;

void main() {
    float d = texelFetch(uDepth, ivec2(gl_FragCoord.xy), 0).r;
    float z = d * 2.0 - 1.0;
    float linear = (2.0 * uNear * uFar) / (uFar + uNear - z * (uFar - uNear));
    fColor = vec4(vec3(linear / uFar), 1.0);
}
` + "\x00"

// CompositeParams controls the final tone-mapping pass.
type CompositeParams struct {
	UseBloom       bool // add the bloom texture; ignored when it is 0
	BloomOnly      bool // show the bloom contribution alone
	BloomTint      mgl32.Vec3
	BloomIntensity float32
	Exposure       float32 // scale applied before 1 - exp(-x)
}

// DisplayStage puts a finished image into a destination framebuffer, either
// the composite of the HDR target or a raw debug channel.
type DisplayStage struct {
	composite *Program // tone mapping and gamma
	depth     *Program // linearized depth as gray
	screen    *screenTriangle
}

// NewDisplayStage compiles the composite and depth programs. Raw channels
// need no program; they are blitted.
func NewDisplayStage() (*DisplayStage, error) {
	composite, err := NewProgram("composite", fullscreenVertSrc, compositeFragSrc)
	if err != nil {
		return nil, err
	}
	depth, err := NewProgram("depth display", fullscreenVertSrc, depthFragSrc)
	if err != nil {
		composite.Delete()
		return nil, err
	}
	composite.Use()
	composite.SetInt("uScene", 0)
	composite.SetInt("uBloom", 1)
	depth.Use()
	depth.SetInt("uDepth", 0)
	return &DisplayStage{composite: composite, depth: depth, screen: newScreenTriangle()}, nil
}

// Composite tone maps t.HDR.Color, optionally adding the bloom texture, into
// the framebuffer dst.
func (d *DisplayStage) Composite(t *Targets, bloomTex uint32, dst uint32, p CompositeParams) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, dst)
	gl.Viewport(0, 0, t.Width, t.Height)
	d.composite.Use()
	bindTexture(0, t.HDR.Color)
	bindTexture(1, bloomTex)
	d.composite.SetBool("uUseBloom", p.UseBloom && bloomTex != 0)
	d.composite.SetBool("uBloomOnly", p.BloomOnly)
	d.composite.SetVec3("uBloomTint", p.BloomTint)
	d.composite.SetFloat("uBloomIntensity", p.BloomIntensity)
	d.composite.SetFloat("uExposure", p.Exposure)
	d.screen.draw()
}

// ShowChannel copies one raw G-buffer attachment into dst.
func (d *DisplayStage) ShowChannel(t *Targets, attachment int, dst uint32) error {
	if attachment < 0 || attachment >= GBufferColorCount {
		return fmt.Errorf("g-buffer attachment %d out of range", attachment)
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, t.GBuffer.FBO)
	gl.ReadBuffer(uint32(gl.COLOR_ATTACHMENT0 + attachment))
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, dst)
	gl.BlitFramebuffer(0, 0, t.Width, t.Height, 0, 0, t.Width, t.Height, gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	return nil
}

// ShowDepth draws the G-buffer depth into dst as linear gray.
func (d *DisplayStage) ShowDepth(t *Targets, dst uint32, near, far float32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, dst)
	gl.Viewport(0, 0, t.Width, t.Height)
	d.depth.Use()
	bindTexture(0, t.GBuffer.Depth)
	d.depth.SetFloat("uNear", near)
	d.depth.SetFloat("uFar", far)
	d.screen.draw()
}

// Delete frees both programs.
func (d *DisplayStage) Delete() {
	d.screen.delete()
	d.depth.Delete()
	d.composite.Delete()
}

// ── Export target ────────────────────────────────────────────────────────────

// OutputTarget is an 8-bit offscreen framebuffer used for image export.
type OutputTarget struct {
	FBO    uint32
	Color  uint32
	Depth  uint32
	Width  int32
	Height int32
}

// NewOutputTarget allocates an RGBA8 color and 24-bit depth framebuffer of
// the given size.
func NewOutputTarget(width, height int) (*OutputTarget, error) {
	o := &OutputTarget{Width: int32(width), Height: int32(height)}
	gl.GenFramebuffers(1, &o.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, o.FBO)

	gl.GenRenderbuffers(1, &o.Color)
	gl.BindRenderbuffer(gl.RENDERBUFFER, o.Color)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.RGBA8, o.Width, o.Height)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, o.Color)

	gl.GenRenderbuffers(1, &o.Depth)
	gl.BindRenderbuffer(gl.RENDERBUFFER, o.Depth)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, o.Width, o.Height)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, o.Depth)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	if err := checkFramebuffer("output"); err != nil {
		o.Delete()
		return nil, err
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return o, nil
}

// Delete frees the framebuffer and its renderbuffers. It is safe on a
// partially built target.
func (o *OutputTarget) Delete() {
	if o.FBO != 0 {
		gl.DeleteFramebuffers(1, &o.FBO)
		o.FBO = 0
	}
	for _, rb := range []*uint32{&o.Color, &o.Depth} {
		if *rb != 0 {
			gl.DeleteRenderbuffers(1, rb)
			*rb = 0
		}
	}
}

// ReadPixels returns the RGBA8 contents of fbo's first color attachment,
// bottom row first.
func ReadPixels(fbo uint32, width, height int) []byte {
	pixels := make([]byte, width*height*4)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fbo)
	if fbo != 0 {
		gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	return pixels
}
