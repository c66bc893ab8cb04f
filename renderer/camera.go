package renderer

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"gltf-viewer/settings"
)

const fieldOfView = 70 // degrees

// Projection is the perspective projection for a scene of the given size
// (bounding box diagonal). The near and far planes scale with the scene.
func Projection(sceneSize float32, width, height int) (proj mgl32.Mat4, near, far float32) {
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	near = 0.001 * sceneSize
	far = 1.5 * sceneSize
	return mgl32.Perspective(mgl32.DegToRad(fieldOfView), aspect, near, far), near, far
}

// LightDirection is the view-space direction toward the light. A camera light
// shines along the view direction; a spherical light is fixed in world space
// at polar angle Theta from +Y and azimuth Phi.
func LightDirection(l settings.Light, view mgl32.Mat4) mgl32.Vec3 {
	if l.Source != settings.LightSpherical {
		return mgl32.Vec3{0, 0, 1}
	}
	sinTheta, cosTheta := math32.Sincos(l.Theta)
	sinPhi, cosPhi := math32.Sincos(l.Phi)
	world := mgl32.Vec4{sinTheta * cosPhi, cosTheta, sinTheta * sinPhi, 0}
	dir := view.Mul4x1(world).Vec3()
	if dir.Len() == 0 {
		return mgl32.Vec3{0, 0, 1}
	}
	return dir.Normalize()
}
