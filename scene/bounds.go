package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Bounds is a world-space axis-aligned box. The zero value is not empty; use
// EmptyBounds.
type Bounds struct {
	Min, Max mgl32.Vec3
}

func EmptyBounds() Bounds {
	inf := math32.Inf(1)
	return Bounds{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

func (b Bounds) Valid() bool {
	return b.Min.X() <= b.Max.X() && b.Min.Y() <= b.Max.Y() && b.Min.Z() <= b.Max.Z()
}

func (b *Bounds) Extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
}

func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b Bounds) Diagonal() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Size is the diagonal length, or 100 when the scene has no drawable
// geometry or collapses to a point.
func (b Bounds) Size() float32 {
	if !b.Valid() {
		return 100
	}
	d := b.Diagonal().Len()
	if d == 0 {
		return 100
	}
	return d
}

// ComputeBounds transforms every position of every drawn primitive into world
// space and returns the enclosing box.
func ComputeBounds(m *Model) Bounds {
	b := EmptyBounds()
	doc := m.Doc
	var scratch [][3]float32
	Walk(doc, RootNodes(doc), func(idx int, model mgl32.Mat4) {
		node := doc.Nodes[idx]
		if node.Mesh == nil {
			return
		}
		for _, prim := range doc.Meshes[*node.Mesh].Primitives {
			pos, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			acc := doc.Accessors[pos]
			if acc.BufferView == nil {
				continue
			}
			var err error
			scratch, err = modeler.ReadPosition(doc, acc, scratch[:0])
			if err != nil {
				continue
			}
			for _, p := range scratch {
				w := model.Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1})
				b.Extend(w.Vec3())
			}
		}
	})
	return b
}
