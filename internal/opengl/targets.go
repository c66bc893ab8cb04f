package opengl

import (
	"errors"
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// ErrIncompleteFramebuffer wraps any framebuffer status other than complete.
var ErrIncompleteFramebuffer = errors.New("framebuffer incomplete")

// G-buffer color attachments, in draw-buffer order.
const (
	GPosition = iota
	GNormal
	GDiffuse
	GOcclusionMetalRoughness
	GEmissive
	GBufferColorCount
)

// GBuffer is the geometry pass output: five RGB32F channels and a 32-bit
// float depth texture.
type GBuffer struct {
	FBO   uint32
	Color [GBufferColorCount]uint32 // indexed by GPosition..GEmissive
	Depth uint32
}

// colorTarget is a framebuffer with one color texture.
type colorTarget struct {
	FBO uint32
	Tex uint32
}

// HDRTarget receives the shading pass: full color and the bright-pixel
// bloom seed.
type HDRTarget struct {
	FBO    uint32
	Color  uint32
	Bright uint32
}

// Targets holds every viewport-sized attachment. They are created and
// destroyed together so their sizes always agree.
type Targets struct {
	Width, Height int32

	GBuffer  GBuffer
	SSAORaw  colorTarget
	SSAOBlur colorTarget
	HDR      HDRTarget
	Bloom    [2]colorTarget
	// Levels is the mip count of the bright and bloom textures.
	Levels int32
}

// NewTargets allocates all viewport-sized render targets. On error nothing
// is leaked.
func NewTargets(width, height int) (*Targets, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render targets: invalid size %dx%d", width, height)
	}
	t := &Targets{Width: int32(width), Height: int32(height), Levels: mipLevels(width, height)}
	if err := t.alloc(); err != nil {
		t.Delete()
		return nil, err
	}
	return t, nil
}

// alloc creates every target in turn, stopping at the first incomplete
// framebuffer. The caller deletes whatever was created.
func (t *Targets) alloc() error {
	// G-buffer: five float color targets plus a depth texture.
	gl.GenFramebuffers(1, &t.GBuffer.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.GBuffer.FBO)
	drawBuffers := make([]uint32, GBufferColorCount)
	for i := range t.GBuffer.Color {
		t.GBuffer.Color[i] = newTexture(t.Width, t.Height, gl.RGB32F, gl.RGB, gl.NEAREST, 1)
		attachment := uint32(gl.COLOR_ATTACHMENT0 + i)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, attachment, gl.TEXTURE_2D, t.GBuffer.Color[i], 0)
		drawBuffers[i] = attachment
	}
	t.GBuffer.Depth = newDepthTexture(t.Width, t.Height)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, t.GBuffer.Depth, 0)
	gl.DrawBuffers(int32(len(drawBuffers)), &drawBuffers[0])
	if err := checkFramebuffer("g-buffer"); err != nil {
		return err
	}

	var err error
	if t.SSAORaw, err = newColorTarget("ssao", t.Width, t.Height, gl.R32F, gl.RED, gl.NEAREST, 1); err != nil {
		return err
	}
	if t.SSAOBlur, err = newColorTarget("ssao blur", t.Width, t.Height, gl.R32F, gl.RED, gl.NEAREST, 1); err != nil {
		return err
	}

	gl.GenFramebuffers(1, &t.HDR.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.HDR.FBO)
	t.HDR.Color = newTexture(t.Width, t.Height, gl.RGBA32F, gl.RGBA, gl.NEAREST, 1)
	t.HDR.Bright = newTexture(t.Width, t.Height, gl.RGBA32F, gl.RGBA, gl.LINEAR_MIPMAP_LINEAR, t.Levels)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.HDR.Color, 0)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT1, gl.TEXTURE_2D, t.HDR.Bright, 0)
	hdrBuffers := []uint32{gl.COLOR_ATTACHMENT0, gl.COLOR_ATTACHMENT1}
	gl.DrawBuffers(2, &hdrBuffers[0])
	if err := checkFramebuffer("hdr"); err != nil {
		return err
	}

	for i := range t.Bloom {
		name := fmt.Sprintf("bloom %d", i)
		if t.Bloom[i], err = newColorTarget(name, t.Width, t.Height, gl.RGBA32F, gl.RGBA, gl.LINEAR_MIPMAP_LINEAR, t.Levels); err != nil {
			return err
		}
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

// Delete frees every attachment. It is safe on a partially built Targets.
func (t *Targets) Delete() {
	fbos := []*uint32{&t.GBuffer.FBO, &t.SSAORaw.FBO, &t.SSAOBlur.FBO, &t.HDR.FBO, &t.Bloom[0].FBO, &t.Bloom[1].FBO}
	for _, f := range fbos {
		if *f != 0 {
			gl.DeleteFramebuffers(1, f)
			*f = 0
		}
	}
	deleteTextures(t.GBuffer.Color[:]...)
	deleteTextures(t.GBuffer.Depth, t.SSAORaw.Tex, t.SSAOBlur.Tex, t.HDR.Color, t.HDR.Bright, t.Bloom[0].Tex, t.Bloom[1].Tex)
	t.GBuffer = GBuffer{}
	t.SSAORaw, t.SSAOBlur = colorTarget{}, colorTarget{}
	t.HDR = HDRTarget{}
	t.Bloom = [2]colorTarget{}
}

// mipLevels is the length of a full mip chain for a width x height texture.
func mipLevels(width, height int) int32 {
	n := max(width, height)
	levels := int32(1)
	for n > 1 {
		n /= 2
		levels++
	}
	return levels
}

func newTexture(w, h int32, internalFormat int32, format uint32, minFilter int32, levels int32) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat, w, h, 0, format, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter)
	magFilter := int32(gl.LINEAR)
	if minFilter == gl.NEAREST {
		magFilter = gl.NEAREST
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, magFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, levels-1)
	if levels > 1 {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

func newDepthTexture(w, h int32) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT32F, w, h, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

func newColorTarget(name string, w, h int32, internalFormat int32, format uint32, minFilter int32, levels int32) (colorTarget, error) {
	var c colorTarget
	c.Tex = newTexture(w, h, internalFormat, format, minFilter, levels)
	gl.GenFramebuffers(1, &c.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, c.FBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, c.Tex, 0)
	if err := checkFramebuffer(name); err != nil {
		return c, err
	}
	return c, nil
}

func checkFramebuffer(name string) error {
	if st := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); st != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return fmt.Errorf("%s: %w (0x%X)", name, ErrIncompleteFramebuffer, st)
	}
	return nil
}
