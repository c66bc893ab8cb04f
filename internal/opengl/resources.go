package opengl

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/qmuntal/gltf"

	"gltf-viewer/scene"
)

// ErrMissingImage is returned when a texture has no decoded source image.
var ErrMissingImage = errors.New("texture has no source image")

// Fixed vertex attribute slots shared with the geometry shader.
const (
	PositionSlot uint32 = 0
	NormalSlot   uint32 = 1
	TexCoordSlot uint32 = 2
)

var attributeSlots = []struct {
	name string
	slot uint32
}{
	{gltf.POSITION, PositionSlot},
	{gltf.NORMAL, NormalSlot},
	{gltf.TEXCOORD_0, TexCoordSlot},
}

// ── Layout ───────────────────────────────────────────────────────────────────

// VAORange is the half-open range [Begin, Begin+Count) of VAOs holding one
// mesh's primitives.
type VAORange struct {
	Begin int
	Count int
}

// VAORanges assigns each mesh a contiguous range, in mesh order. Together
// the ranges tile [0, total primitives).
func VAORanges(doc *gltf.Document) []VAORange {
	ranges := make([]VAORange, len(doc.Meshes))
	next := 0
	for i, mesh := range doc.Meshes {
		ranges[i] = VAORange{Begin: next, Count: len(mesh.Primitives)}
		next += len(mesh.Primitives)
	}
	return ranges
}

// attribBinding describes one glVertexAttribPointer call.
type attribBinding struct {
	Slot       uint32
	Buffer     int // source glTF buffer index
	Size       int32
	Type       uint32
	Normalized bool
	Stride     int32
	Offset     uintptr
}

// vertexLayout lists the attribute bindings for prim. Attributes that are
// absent, or have no buffer view, leave their slot disabled.
func vertexLayout(doc *gltf.Document, prim *gltf.Primitive) []attribBinding {
	var out []attribBinding
	for _, a := range attributeSlots {
		idx, ok := prim.Attributes[a.name]
		if !ok {
			continue
		}
		acc := doc.Accessors[idx]
		if acc.BufferView == nil {
			continue
		}
		bv := doc.BufferViews[*acc.BufferView]
		out = append(out, attribBinding{
			Slot:       a.slot,
			Buffer:     bv.Buffer,
			Size:       int32(scene.ComponentCount(acc.Type)),
			Type:       glComponentType(acc.ComponentType),
			Normalized: acc.Normalized,
			Stride:     int32(bv.ByteStride),
			Offset:     uintptr(acc.ByteOffset + bv.ByteOffset),
		})
	}
	return out
}

func glComponentType(c gltf.ComponentType) uint32 {
	switch c {
	case gltf.ComponentByte:
		return gl.BYTE
	case gltf.ComponentUbyte:
		return gl.UNSIGNED_BYTE
	case gltf.ComponentShort:
		return gl.SHORT
	case gltf.ComponentUshort:
		return gl.UNSIGNED_SHORT
	case gltf.ComponentUint:
		return gl.UNSIGNED_INT
	}
	return gl.FLOAT
}

func glPrimitiveMode(m gltf.PrimitiveMode) uint32 {
	switch m {
	case gltf.PrimitivePoints:
		return gl.POINTS
	case gltf.PrimitiveLines:
		return gl.LINES
	case gltf.PrimitiveLineLoop:
		return gl.LINE_LOOP
	case gltf.PrimitiveLineStrip:
		return gl.LINE_STRIP
	case gltf.PrimitiveTriangleStrip:
		return gl.TRIANGLE_STRIP
	case gltf.PrimitiveTriangleFan:
		return gl.TRIANGLE_FAN
	}
	return gl.TRIANGLES
}

// DrawCall is everything needed to issue one primitive's draw.
type DrawCall struct {
	Mode      uint32
	Indexed   bool
	Count     int32
	IndexType uint32
	Offset    uintptr
}

// PrimitiveDrawCall builds the draw for prim: indexed when it has an index
// accessor, otherwise sized by its POSITION accessor (or the first attribute
// by name when POSITION is absent). ok is false when there is nothing to draw.
func PrimitiveDrawCall(doc *gltf.Document, prim *gltf.Primitive) (call DrawCall, ok bool) {
	call.Mode = glPrimitiveMode(prim.Mode)
	if prim.Indices != nil {
		acc := doc.Accessors[*prim.Indices]
		if acc.BufferView == nil || acc.Count == 0 {
			return call, false
		}
		bv := doc.BufferViews[*acc.BufferView]
		call.Indexed = true
		call.Count = int32(acc.Count)
		call.IndexType = glComponentType(acc.ComponentType)
		call.Offset = uintptr(acc.ByteOffset + bv.ByteOffset)
		return call, true
	}

	idx, found := prim.Attributes[gltf.POSITION]
	if !found {
		names := make([]string, 0, len(prim.Attributes))
		for name := range prim.Attributes {
			names = append(names, name)
		}
		if len(names) == 0 {
			return call, false
		}
		sort.Strings(names)
		idx = prim.Attributes[names[0]]
	}
	call.Count = int32(doc.Accessors[idx].Count)
	return call, call.Count > 0
}

// ── Scene resources ──────────────────────────────────────────────────────────

// SceneResources are the GPU objects derived from a model. They are built
// once and never modified.
type SceneResources struct {
	Buffers []uint32
	VAOs    []uint32
	Ranges  []VAORange
	// Textures is index-aligned with the document's textures.
	Textures []uint32
	White    uint32
}

// BuildSceneResources uploads buffers verbatim, creates one VAO per primitive
// and one texture per glTF texture. A texture whose image is absent is an
// error; primitives without materials are handled at draw time.
func BuildSceneResources(m *scene.Model, logger *slog.Logger) (*SceneResources, error) {
	doc := m.Doc
	r := &SceneResources{}

	if err := r.buildTextures(m); err != nil {
		r.Delete()
		return nil, err
	}
	r.White = NewWhiteTexture()

	r.Buffers = make([]uint32, len(doc.Buffers))
	for i, buf := range doc.Buffers {
		gl.GenBuffers(1, &r.Buffers[i])
		gl.BindBuffer(gl.ARRAY_BUFFER, r.Buffers[i])
		if len(buf.Data) > 0 {
			gl.BufferData(gl.ARRAY_BUFFER, len(buf.Data), gl.Ptr(buf.Data), gl.STATIC_DRAW)
		}
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	r.Ranges = VAORanges(doc)
	total := 0
	for _, rg := range r.Ranges {
		total += rg.Count
	}
	r.VAOs = make([]uint32, total)
	if total > 0 {
		gl.GenVertexArrays(int32(total), &r.VAOs[0])
	}

	for mi, mesh := range doc.Meshes {
		for pi, prim := range mesh.Primitives {
			gl.BindVertexArray(r.VAOs[r.Ranges[mi].Begin+pi])
			layout := vertexLayout(doc, prim)
			if len(layout) == 0 {
				logger.Warn("primitive has no bound attributes", "mesh", mi, "primitive", pi)
			}
			for _, a := range layout {
				gl.EnableVertexAttribArray(a.Slot)
				gl.BindBuffer(gl.ARRAY_BUFFER, r.Buffers[a.Buffer])
				gl.VertexAttribPointerWithOffset(a.Slot, a.Size, a.Type, a.Normalized, a.Stride, a.Offset)
			}
			if prim.Indices != nil {
				acc := doc.Accessors[*prim.Indices]
				if acc.BufferView != nil {
					bv := doc.BufferViews[*acc.BufferView]
					gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.Buffers[bv.Buffer])
				}
			}
		}
	}
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	logger.Debug("scene resources built",
		"buffers", len(r.Buffers), "vaos", len(r.VAOs), "textures", len(r.Textures))
	return r, nil
}

func (r *SceneResources) buildTextures(m *scene.Model) error {
	doc := m.Doc
	r.Textures = make([]uint32, len(doc.Textures))
	for i, tex := range doc.Textures {
		if tex.Source == nil || *tex.Source >= len(m.Images) || m.Images[*tex.Source] == nil {
			return fmt.Errorf("texture %d: %w", i, ErrMissingImage)
		}
		var sampler *gltf.Sampler
		if tex.Sampler != nil {
			sampler = doc.Samplers[*tex.Sampler]
		}
		id, err := UploadRGBA(m.Images[*tex.Source], samplerParams(sampler))
		if err != nil {
			return fmt.Errorf("texture %d: %w", i, err)
		}
		r.Textures[i] = id
	}
	return nil
}

// Delete releases everything, in reverse creation order.
func (r *SceneResources) Delete() {
	if len(r.VAOs) > 0 {
		gl.DeleteVertexArrays(int32(len(r.VAOs)), &r.VAOs[0])
		r.VAOs = nil
	}
	if len(r.Buffers) > 0 {
		gl.DeleteBuffers(int32(len(r.Buffers)), &r.Buffers[0])
		r.Buffers = nil
	}
	deleteTextures(r.White)
	r.White = 0
	deleteTextures(r.Textures...)
	r.Textures = nil
}
