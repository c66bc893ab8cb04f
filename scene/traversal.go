package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// LocalMatrix returns the node's local transform: its explicit matrix when one
// is set, otherwise T * R * S.
func LocalMatrix(n *gltf.Node) mgl32.Mat4 {
	if n.Matrix != identityMatrix && n.Matrix != ([16]float64{}) {
		var m mgl32.Mat4
		for i, v := range n.Matrix {
			m[i] = float32(v)
		}
		return m
	}

	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()

	translate := mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2]))
	rotate := mgl32.Ident4()
	q := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	if q.Len() > 0 {
		rotate = q.Normalize().Mat4()
	}
	scale := mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2]))
	return translate.Mul4(rotate).Mul4(scale)
}

// RootNodes returns the root list of the default scene. Without a default
// scene the first scene is used, and without any scene every parentless node
// is a root.
func RootNodes(doc *gltf.Document) []int {
	switch {
	case doc.Scene != nil:
		return doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		return doc.Scenes[0].Nodes
	}

	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			hasParent[c] = true
		}
	}
	var roots []int
	for i, p := range hasParent {
		if !p {
			roots = append(roots, i)
		}
	}
	return roots
}

// Visitor receives a node index and its accumulated model matrix. A node that
// is shared by several parents is visited once per path.
type Visitor func(node int, model mgl32.Mat4)

// Walk visits every node reachable from roots depth-first, parents before
// children. The graph must be acyclic, which Validate guarantees.
func Walk(doc *gltf.Document, roots []int, visit Visitor) {
	for _, root := range roots {
		walkNode(doc, root, mgl32.Ident4(), visit)
	}
}

func walkNode(doc *gltf.Document, idx int, parent mgl32.Mat4, visit Visitor) {
	node := doc.Nodes[idx]
	model := parent.Mul4(LocalMatrix(node))
	visit(idx, model)
	for _, child := range node.Children {
		walkNode(doc, child, model, visit)
	}
}
