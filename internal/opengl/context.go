package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// Init loads the GL function pointers for the current context and returns the
// driver's version string. It must run after the window context is current.
func Init() (string, error) {
	if err := gl.Init(); err != nil {
		return "", fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	gl.DepthFunc(gl.LESS)
	return gl.GoStr(gl.GetString(gl.VERSION)), nil
}
