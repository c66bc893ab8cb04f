package scene

import (
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(doc *gltf.Document)
		wantErr bool
	}{
		{"triangle", func(doc *gltf.Document) {}, false},
		{"shared child", func(doc *gltf.Document) {
			*doc = *diamondDoc()
		}, false},
		{"cycle", func(doc *gltf.Document) {
			*doc = *diamondDoc()
			doc.Nodes[3].Children = []int{0}
		}, true},
		{"self loop", func(doc *gltf.Document) {
			doc.Nodes[0].Children = []int{0}
		}, true},
		{"dangling child", func(doc *gltf.Document) {
			doc.Nodes[0].Children = []int{7}
		}, true},
		{"dangling mesh", func(doc *gltf.Document) {
			doc.Nodes[0].Mesh = gltf.Index(4)
		}, true},
		{"dangling material", func(doc *gltf.Document) {
			doc.Meshes[0].Primitives[0].Material = gltf.Index(0)
		}, true},
		{"accessor past buffer view", func(doc *gltf.Document) {
			doc.Accessors[0].Count = 4
		}, true},
		{"buffer view past buffer", func(doc *gltf.Document) {
			doc.BufferViews[0].ByteOffset = 4
		}, true},
		{"strided accessor fits", func(doc *gltf.Document) {
			doc.BufferViews[0].ByteStride = 16
			doc.Accessors[0].Count = 2
		}, false},
		{"bad default scene", func(doc *gltf.Document) {
			doc.Scene = gltf.Index(2)
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := triangleDoc()
			tt.mutate(doc)
			err := Validate(doc)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidModel)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestComponentLayout(t *testing.T) {
	assert.Equal(t, 2, ComponentSize(gltf.ComponentUshort))
	assert.Equal(t, 4, ComponentSize(gltf.ComponentFloat))
	assert.Equal(t, 3, ComponentCount(gltf.AccessorVec3))
	assert.Equal(t, 16, ComponentCount(gltf.AccessorMat4))
}
