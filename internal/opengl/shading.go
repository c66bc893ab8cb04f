package opengl

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// shadingFragSrc evaluates one directional light with the glTF
// metallic-roughness BRDF, applies material and screen-space occlusion, adds
// emission and splits out pixels brighter than the bloom threshold.
const shadingFragSrc = `
#version 410 core
in vec2 vUV;

uniform sampler2D uGPosition;
uniform sampler2D uGNormal;
uniform sampler2D uGDiffuse;
uniform sampler2D uGOcclusionMetalRoughness;
uniform sampler2D uGEmissive;
uniform sampler2D uVisibility;

uniform vec3  uLightDirection; // view space, toward the light
uniform vec3  uLightIntensity;
uniform float uBloomThreshold;

layout(location = 0) out vec4 fColor;
layout(location = 1) out vec4 fBright;

const float PI = 3.14159265359;
const vec3  DIELECTRIC_SPECULAR = vec3(0.04);

void main() {
    ivec2 coord = ivec2(gl_FragCoord.xy);
    vec3 N = texelFetch(uGNormal, coord, 0).xyz;
    if (dot(N, N) == 0.0) {
        fColor  = vec4(0.0, 0.0, 0.0, 1.0);
        fBright = vec4(0.0, 0.0, 0.0, 1.0);
        return;
    }
    N = normalize(N);

    vec3 position  = texelFetch(uGPosition, coord, 0).xyz;
    vec3 baseColor = texelFetch(uGDiffuse, coord, 0).rgb;
    vec3 omr       = texelFetch(uGOcclusionMetalRoughness, coord, 0).rgb;
    vec3 emissive  = texelFetch(uGEmissive, coord, 0).rgb;
    float visibility = texelFetch(uVisibility, coord, 0).r;

    float metallic  = omr.g;
    float roughness = omr.b;

    vec3 V = normalize(-position);
    vec3 L = normalize(uLightDirection);
    vec3 H = normalize(L + V);

    vec3 cDiff = mix(baseColor * (1.0 - DIELECTRIC_SPECULAR.r), vec3(0.0), metallic);
    vec3 F0    = mix(DIELECTRIC_SPECULAR, baseColor, metallic);
    float alpha  = roughness * roughness;
    float alpha2 = alpha * alpha;

    float NdotL = clamp(dot(N, L), 0.0, 1.0);
    float NdotV = clamp(dot(N, V), 0.0, 1.0);
    float NdotH = clamp(dot(N, H), 0.0, 1.0);
    float VdotH = clamp(dot(V, H), 0.0, 1.0);

    vec3 F = F0 + (vec3(1.0) - F0) * pow(1.0 - VdotH, 5.0);

    float visDenom = NdotL * sqrt(NdotV * NdotV * (1.0 - alpha2) + alpha2)
                   + NdotV * sqrt(NdotL * NdotL * (1.0 - alpha2) + alpha2);
    float Vis = visDenom > 0.0 ? 0.5 / visDenom : 0.0;

    float dDenom = NdotH * NdotH * (alpha2 - 1.0) + 1.0;
    float D = alpha2 / max(PI * dDenom * dDenom, 1e-8);

    vec3 diffuse  = (vec3(1.0) - F) * cDiff / PI;
    vec3 specular = F * Vis * D;

    vec3 color = (diffuse + specular) * uLightIntensity * NdotL;
    color *= omr.r * visibility;
    color += emissive;

    fColor = vec4(color, 1.0);
    float luminance = dot(color, vec3(0.2126, 0.7152, 0.0722));
    fBright = luminance > uBloomThreshold ? vec4(color, 1.0) : vec4(0.0, 0.0, 0.0, 1.0);
}
` + "\x00"

// ShadingPass lights the G-buffer into the HDR target.
type ShadingPass struct {
	prog   *Program // directional light, writes color and bright
	screen *screenTriangle
}

// NewShadingPass compiles the lighting program. G-buffer channel i is read
// from unit i and the blurred visibility from the unit after them.
func NewShadingPass() (*ShadingPass, error) {
	prog, err := NewProgram("shading", fullscreenVertSrc, shadingFragSrc)
	if err != nil {
		return nil, err
	}
	prog.Use()
	prog.SetInt("uGPosition", GPosition)
	prog.SetInt("uGNormal", GNormal)
	prog.SetInt("uGDiffuse", GDiffuse)
	prog.SetInt("uGOcclusionMetalRoughness", GOcclusionMetalRoughness)
	prog.SetInt("uGEmissive", GEmissive)
	prog.SetInt("uVisibility", GBufferColorCount)
	return &ShadingPass{prog: prog, screen: newScreenTriangle()}, nil
}

// ShadingParams are the per-frame lighting inputs.
type ShadingParams struct {
	LightDirection mgl32.Vec3 // view space, toward the light
	LightIntensity mgl32.Vec3 // color times intensity
	BloomThreshold float32    // luminance above which a pixel seeds bloom
}

// Run shades every pixel of t.HDR from the G-buffer and t.SSAOBlur.
func (s *ShadingPass) Run(t *Targets, p ShadingParams) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.HDR.FBO)
	gl.Viewport(0, 0, t.Width, t.Height)

	s.prog.Use()
	for i, tex := range t.GBuffer.Color {
		bindTexture(uint32(i), tex)
	}
	bindTexture(GBufferColorCount, t.SSAOBlur.Tex)
	s.prog.SetVec3("uLightDirection", p.LightDirection)
	s.prog.SetVec3("uLightIntensity", p.LightIntensity)
	s.prog.SetFloat("uBloomThreshold", p.BloomThreshold)
	s.screen.draw()
}

// Delete frees the program and its screen triangle.
func (s *ShadingPass) Delete() {
	s.screen.delete()
	s.prog.Delete()
}
