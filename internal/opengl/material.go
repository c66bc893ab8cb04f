package opengl

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"

	"gltf-viewer/settings"
)

// Texture units used by the geometry pass.
const (
	BaseColorUnit uint32 = iota
	MetallicRoughnessUnit
	EmissiveUnit
	OcclusionUnit
)

// MaterialBinding is the resolved per-draw material state.
type MaterialBinding struct {
	BaseColorFactor      mgl32.Vec4
	BaseColorTexture     uint32
	MetallicFactor       float32
	RoughnessFactor      float32
	MetallicRoughnessTex uint32
	EmissiveFactor       mgl32.Vec3
	EmissiveTexture      uint32
	OcclusionStrength    float32
	OcclusionTexture     uint32
}

// DefaultMaterial is used by primitives without a material: white textures,
// unit base color, metallic and roughness, no emission.
func DefaultMaterial(white uint32) MaterialBinding {
	return MaterialBinding{
		BaseColorFactor:      mgl32.Vec4{1, 1, 1, 1},
		BaseColorTexture:     white,
		MetallicFactor:       1,
		RoughnessFactor:      1,
		MetallicRoughnessTex: white,
		EmissiveFactor:       mgl32.Vec3{0, 0, 0},
		EmissiveTexture:      white,
		OcclusionStrength:    1,
		OcclusionTexture:     white,
	}
}

// ResolveMaterial picks the factors and texture objects for prim. Disabled
// texture channels and missing textures fall back to white; factors are kept.
func ResolveMaterial(doc *gltf.Document, textures []uint32, white uint32, prim *gltf.Primitive, toggles settings.Textures) MaterialBinding {
	b := DefaultMaterial(white)
	if prim.Material == nil {
		return b
	}
	mat := doc.Materials[*prim.Material]

	pick := func(enabled bool, idx int) uint32 {
		if !enabled || idx < 0 || idx >= len(textures) || textures[idx] == 0 {
			return white
		}
		return textures[idx]
	}

	if pbr := mat.PBRMetallicRoughness; pbr != nil {
		f := pbr.BaseColorFactorOrDefault()
		b.BaseColorFactor = mgl32.Vec4{float32(f[0]), float32(f[1]), float32(f[2]), float32(f[3])}
		b.MetallicFactor = float32(pbr.MetallicFactorOrDefault())
		b.RoughnessFactor = float32(pbr.RoughnessFactorOrDefault())
		if pbr.BaseColorTexture != nil {
			b.BaseColorTexture = pick(toggles.BaseColor, pbr.BaseColorTexture.Index)
		}
		if pbr.MetallicRoughnessTexture != nil {
			b.MetallicRoughnessTex = pick(toggles.MetallicRoughness, pbr.MetallicRoughnessTexture.Index)
		}
	}

	b.EmissiveFactor = mgl32.Vec3{float32(mat.EmissiveFactor[0]), float32(mat.EmissiveFactor[1]), float32(mat.EmissiveFactor[2])}
	if mat.EmissiveTexture != nil {
		b.EmissiveTexture = pick(toggles.Emissive, mat.EmissiveTexture.Index)
	}

	if occ := mat.OcclusionTexture; occ != nil && occ.Index != nil {
		b.OcclusionTexture = pick(toggles.Occlusion, *occ.Index)
		b.OcclusionStrength = float32(occ.StrengthOrDefault())
	}
	return b
}

// applyMaterial writes b through the geometry program's uniforms and binds
// its textures to their units.
func applyMaterial(be geometryBackend, b MaterialBinding) {
	be.BindTexture(BaseColorUnit, b.BaseColorTexture)
	be.SetVec4("uBaseColorFactor", b.BaseColorFactor)

	be.BindTexture(MetallicRoughnessUnit, b.MetallicRoughnessTex)
	be.SetFloat("uMetallicFactor", b.MetallicFactor)
	be.SetFloat("uRoughnessFactor", b.RoughnessFactor)

	be.BindTexture(EmissiveUnit, b.EmissiveTexture)
	be.SetVec3("uEmissiveFactor", b.EmissiveFactor)

	be.BindTexture(OcclusionUnit, b.OcclusionTexture)
	be.SetFloat("uOcclusionStrength", b.OcclusionStrength)
}
