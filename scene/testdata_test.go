package scene

import (
	"encoding/binary"
	"math"

	"github.com/qmuntal/gltf"
)

func translated(x, y, z float64, children ...int) *gltf.Node {
	return &gltf.Node{
		Translation: [3]float64{x, y, z},
		Rotation:    [4]float64{0, 0, 0, 1},
		Scale:       [3]float64{1, 1, 1},
		Children:    children,
	}
}

func floatBytes(vals ...float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

// triangleDoc is one node carrying one mesh with a single unindexed triangle.
func triangleDoc() *gltf.Document {
	data := floatBytes(0, 0, 0, 1, 0, 0, 0, 1, 0)
	mesh := 0
	root := translated(0, 0, 0)
	root.Mesh = &mesh
	return &gltf.Document{
		Buffers:     []*gltf.Buffer{{ByteLength: len(data), Data: data}},
		BufferViews: []*gltf.BufferView{{Buffer: 0, ByteLength: len(data)}},
		Accessors: []*gltf.Accessor{{
			BufferView:    gltf.Index(0),
			Count:         3,
			ComponentType: gltf.ComponentFloat,
			Type:          gltf.AccessorVec3,
		}},
		Meshes: []*gltf.Mesh{{Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{gltf.POSITION: 0},
		}}}},
		Nodes:  []*gltf.Node{root},
		Scenes: []*gltf.Scene{{Nodes: []int{0}}},
		Scene:  gltf.Index(0),
	}
}

// diamondDoc: 0 -> {1, 2}, 1 -> 3, 2 -> 3, where 3 carries the mesh.
func diamondDoc() *gltf.Document {
	doc := triangleDoc()
	mesh := 0
	shared := translated(0, 0, 0)
	shared.Mesh = &mesh
	doc.Nodes = []*gltf.Node{
		translated(0, 0, 0, 1, 2),
		translated(1, 0, 0, 3),
		translated(0, 1, 0, 3),
		shared,
	}
	return doc
}
