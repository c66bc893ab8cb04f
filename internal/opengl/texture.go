package opengl

import (
	"fmt"
	"image"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/qmuntal/gltf"
)

// SamplerParams are the GL texture parameters derived from a glTF sampler.
type SamplerParams struct {
	MinFilter int32
	MagFilter int32
	WrapS     int32
	WrapT     int32
	// Mipmaps is set when MinFilter reads mip levels.
	Mipmaps bool
}

// DefaultSamplerParams is used for textures without a sampler: linear
// filtering, repeat wrapping, no mipmaps.
func DefaultSamplerParams() SamplerParams {
	return SamplerParams{
		MinFilter: gl.LINEAR,
		MagFilter: gl.LINEAR,
		WrapS:     gl.REPEAT,
		WrapT:     gl.REPEAT,
	}
}

func samplerParams(s *gltf.Sampler) SamplerParams {
	p := DefaultSamplerParams()
	if s == nil {
		return p
	}
	switch s.MinFilter {
	case gltf.MinNearest:
		p.MinFilter = gl.NEAREST
	case gltf.MinLinear:
		p.MinFilter = gl.LINEAR
	case gltf.MinNearestMipMapNearest:
		p.MinFilter = gl.NEAREST_MIPMAP_NEAREST
	case gltf.MinLinearMipMapNearest:
		p.MinFilter = gl.LINEAR_MIPMAP_NEAREST
	case gltf.MinNearestMipMapLinear:
		p.MinFilter = gl.NEAREST_MIPMAP_LINEAR
	case gltf.MinLinearMipMapLinear:
		p.MinFilter = gl.LINEAR_MIPMAP_LINEAR
	}
	switch s.MagFilter {
	case gltf.MagNearest:
		p.MagFilter = gl.NEAREST
	case gltf.MagLinear:
		p.MagFilter = gl.LINEAR
	}
	p.WrapS = wrapMode(s.WrapS)
	p.WrapT = wrapMode(s.WrapT)

	switch p.MinFilter {
	case gl.NEAREST_MIPMAP_NEAREST, gl.LINEAR_MIPMAP_NEAREST,
		gl.NEAREST_MIPMAP_LINEAR, gl.LINEAR_MIPMAP_LINEAR:
		p.Mipmaps = true
	}
	return p
}

func wrapMode(w gltf.WrappingMode) int32 {
	switch w {
	case gltf.WrapClampToEdge:
		return gl.CLAMP_TO_EDGE
	case gltf.WrapMirroredRepeat:
		return gl.MIRRORED_REPEAT
	}
	return gl.REPEAT
}

// UploadRGBA creates an RGBA8 texture from the straight-alpha img. Row 0 of
// img becomes t = 0, which matches glTF's top-left texture coordinate origin.
func UploadRGBA(img *image.NRGBA, p SamplerParams) (uint32, error) {
	if img == nil || len(img.Pix) == 0 {
		return 0, fmt.Errorf("empty image")
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	pix := img.Pix
	if img.Stride != 4*w {
		pix = make([]uint8, 0, 4*w*h)
		for y := 0; y < h; y++ {
			row := img.Pix[y*img.Stride:]
			pix = append(pix, row[:4*w]...)
		}
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, p.MinFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, p.MagFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, p.WrapS)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, p.WrapT)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	if p.Mipmaps {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id, nil
}

// NewWhiteTexture is the 1x1 stand-in for any missing material texture.
func NewWhiteTexture() uint32 {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	copy(img.Pix, []uint8{255, 255, 255, 255})
	id, _ := UploadRGBA(img, DefaultSamplerParams())
	return id
}

func deleteTextures(ids ...uint32) {
	for _, id := range ids {
		if id != 0 {
			gl.DeleteTextures(1, &id)
		}
	}
}
