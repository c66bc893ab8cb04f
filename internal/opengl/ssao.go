package opengl

import (
	"math/rand"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	SSAOKernelSize = 64
	ssaoKernelSeed = 42
	ssaoNoiseSeed  = 123
	ssaoNoiseSize  = 4
)

// ── Shaders ──────────────────────────────────────────────────────────────────

// ssaoFragSrc estimates hemisphere occlusion from the view-space position and
// normal G-buffer channels. Background pixels (zero normal) are fully visible
// and never occlude their neighbors.
const ssaoFragSrc = `
#version 410 core
in  vec2 vUV;
out float fVisibility;

uniform sampler2D uGPosition;
uniform sampler2D uGNormal;
uniform sampler2D uNoise;
uniform vec3  uSamples[64];
uniform int   uKernelSize;
uniform float uRadius;
uniform float uBias;
uniform float uIntensity;
uniform mat4  uProjection;
uniform vec2  uNoiseScale;

void main() {
    vec3 position = texture(uGPosition, vUV).xyz;
    vec3 normal   = texture(uGNormal, vUV).xyz;
    if (dot(normal, normal) == 0.0) {
        fVisibility = 1.0;
        return;
    }
    normal = normalize(normal);

    // Gram-Schmidt a tiled random vector into a tangent basis around the normal.
    vec3 rnd       = texture(uNoise, vUV * uNoiseScale).xyz;
    vec3 tangent   = normalize(rnd - normal * dot(rnd, normal));
    vec3 bitangent = cross(normal, tangent);
    mat3 TBN       = mat3(tangent, bitangent, normal);

    float occlusion = 0.0;
    for (int i = 0; i < uKernelSize; ++i) {
        vec3 samplePos = position + TBN * uSamples[i] * uRadius;

        vec4 offset = uProjection * vec4(samplePos, 1.0);
        offset.xy  /= offset.w;
        offset.xy   = offset.xy * 0.5 + 0.5;

        // Background texels have no geometry to occlude with.
        vec3 sampleNormal = texture(uGNormal, offset.xy).xyz;
        if (dot(sampleNormal, sampleNormal) == 0.0) {
            continue;
        }
        float sampleDepth = texture(uGPosition, offset.xy).z;
        // Range check fades out occluders far from the fragment.
        float rangeCheck = smoothstep(0.0, 1.0, uRadius / max(abs(position.z - sampleDepth), 1e-4));
        occlusion += (sampleDepth >= samplePos.z + uBias ? 1.0 : 0.0) * rangeCheck;
    }
    fVisibility = clamp(1.0 - uIntensity * occlusion / float(uKernelSize), 0.0, 1.0);
}
` + "\x00"

// ssaoBlurFragSrc averages a 4x4 block, matching the noise tile size.
const ssaoBlurFragSrc = `
#version 410 core
in  vec2 vUV;
out float fVisibility;

uniform sampler2D uInput;

void main() {
    vec2 texel = 1.0 / vec2(textureSize(uInput, 0));
    float result = 0.0;
    for (int x = -2; x < 2; ++x) {
        for (int y = -2; y < 2; ++y) {
            result += texture(uInput, vUV + vec2(float(x), float(y)) * texel).r;
        }
    }
    fVisibility = result / 16.0;
}
` + "\x00"

// ── Kernel & noise ───────────────────────────────────────────────────────────

// GenerateSSAOKernel returns n sample offsets in the +Z hemisphere. Sample i
// has length lerp(0.1, 1, (i/n)^2), so samples cluster near the origin.
func GenerateSSAOKernel(n int, seed int64) []mgl32.Vec3 {
	rng := rand.New(rand.NewSource(seed))
	kernel := make([]mgl32.Vec3, n)
	for i := range kernel {
		var v mgl32.Vec3
		for v.Len() < 1e-4 {
			v = mgl32.Vec3{
				rng.Float32()*2 - 1,
				rng.Float32()*2 - 1,
				rng.Float32(),
			}
		}
		t := float32(i) / float32(n)
		scale := 0.1 + 0.9*t*t
		kernel[i] = v.Normalize().Mul(scale)
	}
	return kernel
}

// GenerateSSAONoise returns 16 random rotation vectors in the XY plane.
func GenerateSSAONoise(seed int64) []mgl32.Vec3 {
	rng := rand.New(rand.NewSource(seed))
	noise := make([]mgl32.Vec3, ssaoNoiseSize*ssaoNoiseSize)
	for i := range noise {
		var v mgl32.Vec3
		for v.Len() < 1e-3 {
			v = mgl32.Vec3{rng.Float32()*2 - 1, rng.Float32()*2 - 1, 0}
		}
		noise[i] = v
	}
	return noise
}

// ── Stage ────────────────────────────────────────────────────────────────────

// SSAOStage owns the occlusion and blur programs and the immutable kernel and
// noise data.
type SSAOStage struct {
	ssaoProg *Program // hemisphere occlusion, writes SSAORaw
	blurProg *Program // 4x4 box blur, writes SSAOBlur
	noiseTex uint32   // 4x4 RGB32F rotation vectors, tiled with REPEAT
	screen   *screenTriangle
}

// NewSSAOStage compiles both programs and uploads the kernel (seed 42) and
// the noise texture (seed 123). Neither changes afterwards.
func NewSSAOStage() (*SSAOStage, error) {
	ssaoProg, err := NewProgram("ssao", fullscreenVertSrc, ssaoFragSrc)
	if err != nil {
		return nil, err
	}
	blurProg, err := NewProgram("ssao blur", fullscreenVertSrc, ssaoBlurFragSrc)
	if err != nil {
		ssaoProg.Delete()
		return nil, err
	}

	s := &SSAOStage{ssaoProg: ssaoProg, blurProg: blurProg, screen: newScreenTriangle()}

	ssaoProg.Use()
	ssaoProg.SetInt("uGPosition", 0)
	ssaoProg.SetInt("uGNormal", 1)
	ssaoProg.SetInt("uNoise", 2)
	ssaoProg.SetVec3Array("uSamples", GenerateSSAOKernel(SSAOKernelSize, ssaoKernelSeed))

	blurProg.Use()
	blurProg.SetInt("uInput", 0)

	noise := GenerateSSAONoise(ssaoNoiseSeed)
	gl.GenTextures(1, &s.noiseTex)
	gl.BindTexture(gl.TEXTURE_2D, s.noiseTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB32F, ssaoNoiseSize, ssaoNoiseSize, 0, gl.RGB, gl.FLOAT, gl.Ptr(&noise[0][0]))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return s, nil
}

// ── Render passes ────────────────────────────────────────────────────────────

// SSAOParams are the per-frame occlusion settings.
type SSAOParams struct {
	KernelSize int     // clamped to [1, 64]
	Radius     float32 // view-space hemisphere radius
	Bias       float32 // depth bias against self-occlusion
	Intensity  float32 // 0 leaves every pixel fully visible
}

// Occlusion writes raw visibility into t.SSAORaw.
func (s *SSAOStage) Occlusion(t *Targets, proj mgl32.Mat4, p SSAOParams) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.SSAORaw.FBO)
	gl.Viewport(0, 0, t.Width, t.Height)

	s.ssaoProg.Use()
	bindTexture(0, t.GBuffer.Color[GPosition])
	bindTexture(1, t.GBuffer.Color[GNormal])
	bindTexture(2, s.noiseTex)
	s.ssaoProg.SetInt("uKernelSize", int32(max(1, min(SSAOKernelSize, p.KernelSize))))
	s.ssaoProg.SetFloat("uRadius", p.Radius)
	s.ssaoProg.SetFloat("uBias", p.Bias)
	s.ssaoProg.SetFloat("uIntensity", p.Intensity)
	s.ssaoProg.SetMat4("uProjection", proj)
	s.ssaoProg.SetVec2("uNoiseScale", mgl32.Vec2{
		float32(t.Width) / ssaoNoiseSize,
		float32(t.Height) / ssaoNoiseSize,
	})
	s.screen.draw()
}

// Blur smooths t.SSAORaw into t.SSAOBlur.
func (s *SSAOStage) Blur(t *Targets) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.SSAOBlur.FBO)
	gl.Viewport(0, 0, t.Width, t.Height)
	s.blurProg.Use()
	bindTexture(0, t.SSAORaw.Tex)
	s.screen.draw()
}

// ClearVisible fills t.SSAOBlur with full visibility so shading can always
// sample it.
func (s *SSAOStage) ClearVisible(t *Targets) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.SSAOBlur.FBO)
	gl.Viewport(0, 0, t.Width, t.Height)
	gl.ClearColor(1, 1, 1, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// Delete frees the noise texture and both programs.
func (s *SSAOStage) Delete() {
	deleteTextures(s.noiseTex)
	s.noiseTex = 0
	s.screen.delete()
	s.blurProg.Delete()
	s.ssaoProg.Delete()
}
