package opengl

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// fullscreenVertSrc draws one oversized triangle from gl_VertexID; no vertex
// buffer is bound.
const fullscreenVertSrc = `
#version 410 core
out vec2 vUV;
void main() {
    const vec2 pos[3] = vec2[3](
        vec2(-1.0, -1.0),
        vec2( 3.0, -1.0),
        vec2(-1.0,  3.0)
    );
    gl_Position = vec4(pos[gl_VertexID], 0.0, 1.0);
    vUV         = pos[gl_VertexID] * 0.5 + 0.5;
}
` + "\x00"

// screenTriangle owns the empty VAO core profile requires for attribute-less
// draws.
type screenTriangle struct {
	vao uint32
}

func newScreenTriangle() *screenTriangle {
	t := &screenTriangle{}
	gl.GenVertexArrays(1, &t.vao)
	return t
}

func (t *screenTriangle) draw() {
	gl.BindVertexArray(t.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
}

func (t *screenTriangle) delete() {
	if t.vao != 0 {
		gl.DeleteVertexArrays(1, &t.vao)
		t.vao = 0
	}
}

func bindTexture(unit uint32, tex uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, tex)
}
