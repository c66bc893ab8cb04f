package opengl

import (
	"github.com/qmuntal/gltf"
)

func node(x, y, z float64, children ...int) *gltf.Node {
	return &gltf.Node{
		Translation: [3]float64{x, y, z},
		Rotation:    [4]float64{0, 0, 0, 1},
		Scale:       [3]float64{1, 1, 1},
		Children:    children,
	}
}

// sceneDoc has two meshes. Mesh 0 has an indexed primitive with a material
// and an unindexed one without; mesh 1 has one unindexed primitive. Node 3 is
// shared by nodes 1 and 2.
func sceneDoc() *gltf.Document {
	mesh0, mesh1 := 0, 1
	shared := node(0, 0, 0)
	shared.Mesh = &mesh0
	leaf := node(0, 0, 5)
	leaf.Mesh = &mesh1
	return &gltf.Document{
		Buffers: []*gltf.Buffer{{ByteLength: 256}},
		BufferViews: []*gltf.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 96, ByteStride: 32},
			{Buffer: 0, ByteOffset: 128, ByteLength: 12},
		},
		Accessors: []*gltf.Accessor{
			{BufferView: gltf.Index(0), Count: 3, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorVec3},
			{BufferView: gltf.Index(0), ByteOffset: 12, Count: 3, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorVec3},
			{BufferView: gltf.Index(0), ByteOffset: 24, Count: 3, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorVec2},
			{BufferView: gltf.Index(1), ByteOffset: 4, Count: 3, ComponentType: gltf.ComponentUshort, Type: gltf.AccessorScalar},
		},
		Meshes: []*gltf.Mesh{
			{Primitives: []*gltf.Primitive{
				{
					Attributes: map[string]int{gltf.POSITION: 0, gltf.NORMAL: 1, gltf.TEXCOORD_0: 2},
					Indices:    gltf.Index(3),
					Material:   gltf.Index(0),
				},
				{Attributes: map[string]int{gltf.POSITION: 0}},
			}},
			{Primitives: []*gltf.Primitive{
				{Attributes: map[string]int{gltf.POSITION: 0}, Mode: gltf.PrimitiveLines},
			}},
		},
		Materials: []*gltf.Material{{
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor:  &[4]float64{0.5, 0.25, 1, 1},
				MetallicFactor:   f64(0.2),
				RoughnessFactor:  f64(0.7),
				BaseColorTexture: &gltf.TextureInfo{Index: 0},
			},
			EmissiveFactor:   [3]float64{1, 0.5, 0},
			EmissiveTexture:  &gltf.TextureInfo{Index: 1},
			OcclusionTexture: &gltf.OcclusionTexture{Index: gltf.Index(0), Strength: f64(0.5)},
		}},
		Textures: []*gltf.Texture{{Source: gltf.Index(0)}, {Source: gltf.Index(0)}},
		Images:   []*gltf.Image{{URI: "a.png"}},
		Nodes: []*gltf.Node{
			node(0, 0, 0, 1, 2, 4),
			node(1, 0, 0, 3),
			node(0, 1, 0, 3),
			shared,
			leaf,
		},
		Scenes: []*gltf.Scene{{Nodes: []int{0}}},
		Scene:  gltf.Index(0),
	}
}

// fakeResources stands in for GPU objects: VAO i is 100+i, texture i is
// 10+i and the white texture is 1.
func fakeResources(doc *gltf.Document) *SceneResources {
	ranges := VAORanges(doc)
	total := 0
	for _, r := range ranges {
		total += r.Count
	}
	vaos := make([]uint32, total)
	for i := range vaos {
		vaos[i] = uint32(100 + i)
	}
	textures := make([]uint32, len(doc.Textures))
	for i := range textures {
		textures[i] = uint32(10 + i)
	}
	return &SceneResources{VAOs: vaos, Ranges: ranges, Textures: textures, White: 1}
}

func f64(v float64) *float64 { return &v }
