package scene

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// WorldUp is the up axis used by default cameras and the trackball.
var WorldUp = mgl32.Vec3{0, 1, 0}

// Camera is a look-at camera. Center is the point looked at; its distance to
// Eye is preserved by local rotations.
type Camera struct {
	Eye    mgl32.Vec3
	Center mgl32.Vec3
	Up     mgl32.Vec3
}

func NewCamera(eye, center, up mgl32.Vec3) Camera {
	return Camera{Eye: eye, Center: center, Up: up}
}

func (c Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Center, c.Up)
}

// Front is the normalized view direction.
func (c Camera) Front() mgl32.Vec3 {
	return c.Center.Sub(c.Eye).Normalize()
}

// Left points to the camera's left, perpendicular to Up and Front.
func (c Camera) Left() mgl32.Vec3 {
	return c.Up.Cross(c.Front()).Normalize()
}

// MoveLocal translates eye and center together along left, up and front.
func (c *Camera) MoveLocal(left, up, front float32) {
	t := c.Left().Mul(left).Add(c.Up.Normalize().Mul(up)).Add(c.Front().Mul(front))
	c.Eye = c.Eye.Add(t)
	c.Center = c.Center.Add(t)
}

// RotateLocal rolls around the view direction, tilts around the left axis and
// pans around the up axis, in that order. Angles are in radians.
func (c *Camera) RotateLocal(roll, tilt, pan float32) {
	front := c.Center.Sub(c.Eye)

	if roll != 0 {
		c.Up = mgl32.QuatRotate(roll, front.Normalize()).Rotate(c.Up)
	}
	if tilt != 0 {
		q := mgl32.QuatRotate(tilt, c.Left())
		front = q.Rotate(front)
		c.Up = q.Rotate(c.Up)
	}
	if pan != 0 {
		front = mgl32.QuatRotate(pan, c.Up.Normalize()).Rotate(front)
	}
	c.Center = c.Eye.Add(front)
}

// RotateWorld rotates the view direction and up vector around a world axis.
func (c *Camera) RotateWorld(angle float32, axis mgl32.Vec3) {
	q := mgl32.QuatRotate(angle, axis.Normalize())
	c.Center = c.Eye.Add(q.Rotate(c.Center.Sub(c.Eye)))
	c.Up = q.Rotate(c.Up)
}

// LookAtArgs formats the camera as a --lookat flag that ParseLookAt accepts.
func (c Camera) LookAtArgs() string {
	vals := []float32{
		c.Eye[0], c.Eye[1], c.Eye[2],
		c.Center[0], c.Center[1], c.Center[2],
		c.Up[0], c.Up[1], c.Up[2],
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return "--lookat " + strings.Join(parts, ",")
}

// ParseLookAt parses "ex,ey,ez,cx,cy,cz,ux,uy,uz".
func ParseLookAt(s string) (Camera, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 9 {
		return Camera{}, fmt.Errorf("lookat: want 9 comma-separated numbers, got %d", len(fields))
	}
	var v [9]float32
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
		if err != nil {
			return Camera{}, fmt.Errorf("lookat: value %d: %w", i, err)
		}
		v[i] = float32(x)
	}
	cam := Camera{
		Eye:    mgl32.Vec3{v[0], v[1], v[2]},
		Center: mgl32.Vec3{v[3], v[4], v[5]},
		Up:     mgl32.Vec3{v[6], v[7], v[8]},
	}
	if cam.Eye.ApproxEqual(cam.Center) {
		return Camera{}, fmt.Errorf("lookat: eye and center coincide")
	}
	if cam.Up.Len() == 0 {
		return Camera{}, fmt.Errorf("lookat: zero up vector")
	}
	return cam, nil
}

// DefaultCamera frames b. When the box has depth the eye sits one diagonal
// away from the center, otherwise it is moved sideways along diag x up.
func DefaultCamera(b Bounds) Camera {
	if !b.Valid() {
		return Camera{Eye: mgl32.Vec3{0, 0, 0}, Center: mgl32.Vec3{0, 0, -1}, Up: WorldUp}
	}
	center := b.Center()
	diag := b.Diagonal()
	var eye mgl32.Vec3
	if diag.Z() > 0 {
		eye = center.Add(diag)
	} else {
		eye = center.Add(diag.Cross(WorldUp).Mul(2))
	}
	if eye.ApproxEqual(center) {
		eye = center.Add(mgl32.Vec3{0, 0, 1})
	}
	return Camera{Eye: eye, Center: center, Up: WorldUp}
}
