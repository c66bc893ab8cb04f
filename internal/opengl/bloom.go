package opengl

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// ── Shaders ──────────────────────────────────────────────────────────────────

// bloomBlurFragSrc is one axis of a separable Gaussian, evaluated on every mip
// level from 0 to uMaxLod and averaged, which widens the glow cheaply.
const bloomBlurFragSrc = `
#version 410 core
in  vec2 vUV;
out vec4 fColor;

uniform sampler2D uInput;
uniform bool uHorizontal;
uniform int  uMaxLod;

const float WEIGHTS[5] = float[](0.227027, 0.1945946, 0.1216216, 0.054054, 0.016216);

void main() {
    vec3 result = vec3(0.0);
    for (int lod = 0; lod <= uMaxLod; ++lod) {
        vec2 texel = 1.0 / vec2(textureSize(uInput, lod));
        vec2 dir   = uHorizontal ? vec2(texel.x, 0.0) : vec2(0.0, texel.y);
        vec3 sum   = textureLod(uInput, vUV, float(lod)).rgb * WEIGHTS[0];
        for (int i = 1; i < 5; ++i) {
            sum += textureLod(uInput, vUV + dir * float(i), float(lod)).rgb * WEIGHTS[i];
            sum += textureLod(uInput, vUV - dir * float(i), float(lod)).rgb * WEIGHTS[i];
        }
        result += sum;
    }
    fColor = vec4(result / float(uMaxLod + 1), 1.0);
}
` + "\x00"

// BloomStage runs the ping-pong blur chain over the bright-pixel texture.
type BloomStage struct {
	prog   *Program // separable blur, one axis per pass
	screen *screenTriangle
}

// NewBloomStage compiles the blur program.
func NewBloomStage() (*BloomStage, error) {
	prog, err := NewProgram("bloom blur", fullscreenVertSrc, bloomBlurFragSrc)
	if err != nil {
		return nil, err
	}
	prog.Use()
	prog.SetInt("uInput", 0)
	return &BloomStage{prog: prog, screen: newScreenTriangle()}, nil
}

// ── Blur chain ───────────────────────────────────────────────────────────────

// BlurPlan lists the ping-pong targets written by each of the 2*quality
// passes, alternating horizontal and vertical. Pass 0 reads the bright
// texture; pass i reads the target written by pass i-1.
func BlurPlan(quality int) []int {
	plan := make([]int, 2*max(quality, 0))
	for i := range plan {
		plan[i] = i % 2
	}
	return plan
}

// Run blurs t.HDR.Bright and returns the texture holding the result. With
// quality 0 the bright texture itself is returned.
func (b *BloomStage) Run(t *Targets, quality, maxLod int) uint32 {
	gl.BindTexture(gl.TEXTURE_2D, t.HDR.Bright)
	gl.GenerateMipmap(gl.TEXTURE_2D)

	lod := int32(max(0, min(maxLod, int(t.Levels)-1)))
	src := t.HDR.Bright

	b.prog.Use()
	b.prog.SetInt("uMaxLod", lod)
	gl.Viewport(0, 0, t.Width, t.Height)
	for i, dst := range BlurPlan(quality) {
		target := t.Bloom[dst]
		gl.BindFramebuffer(gl.FRAMEBUFFER, target.FBO)
		b.prog.SetBool("uHorizontal", i%2 == 0)
		bindTexture(0, src)
		b.screen.draw()

		gl.BindTexture(gl.TEXTURE_2D, target.Tex)
		gl.GenerateMipmap(gl.TEXTURE_2D)
		src = target.Tex
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return src
}

// Delete frees the program and its screen triangle.
func (b *BloomStage) Delete() {
	b.screen.delete()
	b.prog.Delete()
}
