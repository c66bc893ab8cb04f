package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"gltf-viewer/core"
)

// Input is the subset of window state controllers read. core.Window
// satisfies it.
type Input interface {
	IsKeyPressed(key int) bool
	IsMouseButtonPressed(button int) bool
	GetCursorPos() (float64, float64)
}

type ControllerKind int

const (
	FirstPerson ControllerKind = iota
	Trackball
)

func (k ControllerKind) String() string {
	switch k {
	case FirstPerson:
		return "first-person"
	case Trackball:
		return "trackball"
	}
	return "unknown"
}

// Controller turns input into camera motion.
type Controller interface {
	Kind() ControllerKind
	Camera() Camera
	SetCamera(Camera)
	// Update advances by dt seconds and reports whether the camera changed.
	Update(in Input, dt float32) bool
}

// radians per pixel of mouse drag
const mouseSensitivity = 0.01

func NewController(kind ControllerKind, speed float32) Controller {
	if kind == Trackball {
		return &TrackballController{Speed: speed}
	}
	return &FirstPersonController{Speed: speed}
}

// SwapController returns a controller of the requested kind looking through
// cur's camera. Drag state is not carried over.
func SwapController(cur Controller, kind ControllerKind, speed float32) Controller {
	next := NewController(kind, speed)
	next.SetCamera(cur.Camera())
	return next
}

// drag tracks the cursor while a mouse button is held.
type drag struct {
	active bool
	x, y   float64
}

// delta returns the cursor motion since the last call while button is held.
func (d *drag) delta(in Input, button int) (float32, float32, bool) {
	if !in.IsMouseButtonPressed(button) {
		d.active = false
		return 0, 0, false
	}
	x, y := in.GetCursorPos()
	if !d.active {
		d.active = true
		d.x, d.y = x, y
		return 0, 0, false
	}
	dx, dy := float32(x-d.x), float32(y-d.y)
	d.x, d.y = x, y
	return dx, dy, dx != 0 || dy != 0
}

// FirstPersonController flies the camera: WASD moves, Up/Down (or PageUp/
// PageDown) raise and lower, Q/E roll, left-drag looks around.
type FirstPersonController struct {
	Speed  float32
	camera Camera
	mouse  drag
}

func (c *FirstPersonController) Kind() ControllerKind { return FirstPerson }
func (c *FirstPersonController) Camera() Camera       { return c.camera }
func (c *FirstPersonController) SetCamera(cam Camera) {
	c.camera = cam
	c.mouse = drag{}
}

func (c *FirstPersonController) Update(in Input, dt float32) bool {
	step := c.Speed * dt
	var left, up, front, roll float32

	if in.IsKeyPressed(core.KeyW) {
		front += step
	}
	if in.IsKeyPressed(core.KeyS) {
		front -= step
	}
	if in.IsKeyPressed(core.KeyA) {
		left += step
	}
	if in.IsKeyPressed(core.KeyD) {
		left -= step
	}
	if in.IsKeyPressed(core.KeyUp) || in.IsKeyPressed(core.KeyPageUp) {
		up += step
	}
	if in.IsKeyPressed(core.KeyDown) || in.IsKeyPressed(core.KeyPageDown) {
		up -= step
	}
	if in.IsKeyPressed(core.KeyQ) {
		roll -= dt
	}
	if in.IsKeyPressed(core.KeyE) {
		roll += dt
	}

	moved := left != 0 || up != 0 || front != 0 || roll != 0
	if moved {
		c.camera.MoveLocal(left, up, front)
	}

	dx, dy, dragged := c.mouse.delta(in, core.MouseButtonLeft)
	if dragged || roll != 0 {
		c.camera.RotateLocal(roll, dy*mouseSensitivity, -dx*mouseSensitivity)
		moved = true
	}
	return moved
}

// TrackballController orbits around the camera center. Left-drag rotates,
// shift+left-drag pans, ctrl+left-drag (or W/S) zooms without crossing the
// center.
type TrackballController struct {
	Speed  float32
	camera Camera
	mouse  drag
}

func (c *TrackballController) Kind() ControllerKind { return Trackball }
func (c *TrackballController) Camera() Camera       { return c.camera }
func (c *TrackballController) SetCamera(cam Camera) {
	c.camera = cam
	c.mouse = drag{}
}

func (c *TrackballController) Update(in Input, dt float32) bool {
	moved := false
	if in.IsKeyPressed(core.KeyW) {
		moved = c.zoom(c.Speed*dt) || moved
	}
	if in.IsKeyPressed(core.KeyS) {
		moved = c.zoom(-c.Speed*dt) || moved
	}

	dx, dy, dragged := c.mouse.delta(in, core.MouseButtonLeft)
	if !dragged {
		return moved
	}

	switch {
	case in.IsKeyPressed(core.KeyLeftShift):
		scale := c.Speed * 0.001
		c.camera.MoveLocal(dx*scale, dy*scale, 0)
		return true
	case in.IsKeyPressed(core.KeyLeftControl):
		c.zoom(-dy * c.Speed * 0.001)
		return true
	}
	c.Orbit(-dx*mouseSensitivity, -dy*mouseSensitivity)
	return true
}

// Orbit rotates the eye around the center: longitude around the world up
// axis, then latitude around the camera's left axis.
func (c *TrackballController) Orbit(longitude, latitude float32) {
	depth := c.camera.Eye.Sub(c.camera.Center)
	depth = mgl32.QuatRotate(longitude, WorldUp).Rotate(depth)

	left := WorldUp.Cross(depth.Mul(-1)).Normalize()
	// Stop short of the poles so the view never flips over.
	tilted := mgl32.QuatRotate(latitude, left).Rotate(depth)
	if cos := tilted.Normalize().Dot(WorldUp); math32.Abs(cos) < 0.999 {
		depth = tilted
	}

	c.camera.Eye = c.camera.Center.Add(depth)
	c.camera.Up = WorldUp
}

// zoom moves the eye toward the center by offset, never reaching it.
func (c *TrackballController) zoom(offset float32) bool {
	if offset == 0 {
		return false
	}
	toCenter := c.camera.Center.Sub(c.camera.Eye)
	dist := toCenter.Len()
	if offset > 0 {
		offset = math32.Min(offset, dist*0.99)
	}
	c.camera.Eye = c.camera.Eye.Add(toCenter.Normalize().Mul(offset))
	return true
}
