package scene

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
)

// ErrInvalidModel marks a document whose index graph cannot be rendered safely.
var ErrInvalidModel = errors.New("invalid model")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidModel, fmt.Sprintf(format, args...))
}

// Validate checks that every index in doc resolves, that accessor byte ranges
// fit in their buffers and that the node graph has no cycles. Shared children
// (a node reachable along several paths) are allowed.
func Validate(doc *gltf.Document) error {
	if doc == nil {
		return invalid("nil document")
	}
	if err := validateBuffers(doc); err != nil {
		return err
	}
	if err := validateAccessors(doc); err != nil {
		return err
	}
	if err := validateMeshes(doc); err != nil {
		return err
	}
	if err := validateTextures(doc); err != nil {
		return err
	}
	if err := validateNodes(doc); err != nil {
		return err
	}
	if doc.Scene != nil && (*doc.Scene < 0 || *doc.Scene >= len(doc.Scenes)) {
		return invalid("default scene %d out of range", *doc.Scene)
	}
	for si, s := range doc.Scenes {
		for _, n := range s.Nodes {
			if n < 0 || n >= len(doc.Nodes) {
				return invalid("scene %d: root node %d out of range", si, n)
			}
		}
	}
	return nil
}

func validateBuffers(doc *gltf.Document) error {
	for i, bv := range doc.BufferViews {
		if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
			return invalid("buffer view %d: buffer %d out of range", i, bv.Buffer)
		}
		size := len(doc.Buffers[bv.Buffer].Data)
		if bv.ByteOffset+bv.ByteLength > size {
			return invalid("buffer view %d: bytes [%d, %d) exceed buffer of %d bytes",
				i, bv.ByteOffset, bv.ByteOffset+bv.ByteLength, size)
		}
	}
	return nil
}

func validateAccessors(doc *gltf.Document) error {
	for i, acc := range doc.Accessors {
		if acc.BufferView == nil {
			continue
		}
		if *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
			return invalid("accessor %d: buffer view %d out of range", i, *acc.BufferView)
		}
		if acc.Count == 0 {
			continue
		}
		bv := doc.BufferViews[*acc.BufferView]
		elem := ComponentSize(acc.ComponentType) * ComponentCount(acc.Type)
		if elem == 0 {
			return invalid("accessor %d: unknown component layout", i)
		}
		stride := bv.ByteStride
		if stride == 0 {
			stride = elem
		}
		end := acc.ByteOffset + (acc.Count-1)*stride + elem
		if end > bv.ByteLength {
			return invalid("accessor %d: needs %d bytes of buffer view %d which has %d",
				i, end, *acc.BufferView, bv.ByteLength)
		}
	}
	return nil
}

func validateMeshes(doc *gltf.Document) error {
	checkAccessor := func(mi, pi, idx int, what string) error {
		if idx < 0 || idx >= len(doc.Accessors) {
			return invalid("mesh %d primitive %d: %s accessor %d out of range", mi, pi, what, idx)
		}
		return nil
	}
	for mi, mesh := range doc.Meshes {
		for pi, prim := range mesh.Primitives {
			for name, idx := range prim.Attributes {
				if err := checkAccessor(mi, pi, idx, name); err != nil {
					return err
				}
			}
			if prim.Indices != nil {
				if err := checkAccessor(mi, pi, *prim.Indices, "index"); err != nil {
					return err
				}
			}
			if prim.Material != nil && (*prim.Material < 0 || *prim.Material >= len(doc.Materials)) {
				return invalid("mesh %d primitive %d: material %d out of range", mi, pi, *prim.Material)
			}
		}
	}
	return nil
}

// validateTextures only checks indices that are present. A texture without a
// source is reported by the GPU resource builder.
func validateTextures(doc *gltf.Document) error {
	for i, tex := range doc.Textures {
		if tex.Source != nil && (*tex.Source < 0 || *tex.Source >= len(doc.Images)) {
			return invalid("texture %d: image %d out of range", i, *tex.Source)
		}
		if tex.Sampler != nil && (*tex.Sampler < 0 || *tex.Sampler >= len(doc.Samplers)) {
			return invalid("texture %d: sampler %d out of range", i, *tex.Sampler)
		}
	}
	for i, img := range doc.Images {
		if img.BufferView != nil && (*img.BufferView < 0 || *img.BufferView >= len(doc.BufferViews)) {
			return invalid("image %d: buffer view %d out of range", i, *img.BufferView)
		}
	}
	check := func(mi, idx int, slot string) error {
		if idx < 0 || idx >= len(doc.Textures) {
			return invalid("material %d: %s texture %d out of range", mi, slot, idx)
		}
		return nil
	}
	for mi, m := range doc.Materials {
		if pbr := m.PBRMetallicRoughness; pbr != nil {
			if pbr.BaseColorTexture != nil {
				if err := check(mi, pbr.BaseColorTexture.Index, "base color"); err != nil {
					return err
				}
			}
			if pbr.MetallicRoughnessTexture != nil {
				if err := check(mi, pbr.MetallicRoughnessTexture.Index, "metallic-roughness"); err != nil {
					return err
				}
			}
		}
		if m.EmissiveTexture != nil {
			if err := check(mi, m.EmissiveTexture.Index, "emissive"); err != nil {
				return err
			}
		}
		if m.OcclusionTexture != nil && m.OcclusionTexture.Index != nil {
			if err := check(mi, *m.OcclusionTexture.Index, "occlusion"); err != nil {
				return err
			}
		}
		if m.NormalTexture != nil && m.NormalTexture.Index != nil {
			if err := check(mi, *m.NormalTexture.Index, "normal"); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateNodes checks child and mesh indices and rejects cycles with a
// three-colour depth-first search.
func validateNodes(doc *gltf.Document) error {
	for i, n := range doc.Nodes {
		if n.Mesh != nil && (*n.Mesh < 0 || *n.Mesh >= len(doc.Meshes)) {
			return invalid("node %d: mesh %d out of range", i, *n.Mesh)
		}
		for _, c := range n.Children {
			if c < 0 || c >= len(doc.Nodes) {
				return invalid("node %d: child %d out of range", i, c)
			}
		}
	}

	const (
		white = iota
		grey
		black
	)
	colour := make([]uint8, len(doc.Nodes))
	var visit func(i int) error
	visit = func(i int) error {
		switch colour[i] {
		case grey:
			return invalid("node graph has a cycle through node %d", i)
		case black:
			return nil
		}
		colour[i] = grey
		for _, c := range doc.Nodes[i].Children {
			if err := visit(c); err != nil {
				return err
			}
		}
		colour[i] = black
		return nil
	}
	for i := range doc.Nodes {
		if err := visit(i); err != nil {
			return err
		}
	}
	return nil
}

// ComponentSize returns the byte size of one accessor component.
func ComponentSize(c gltf.ComponentType) int {
	switch c {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	case gltf.ComponentUint, gltf.ComponentFloat:
		return 4
	}
	return 0
}

// ComponentCount returns the number of components of an accessor element.
func ComponentCount(t gltf.AccessorType) int {
	switch t {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4, gltf.AccessorMat2:
		return 4
	case gltf.AccessorMat3:
		return 9
	case gltf.AccessorMat4:
		return 16
	}
	return 0
}
