// Package opengl provides an OpenGL 4.1 backend for the glyphcache
// package: atlas texture storage, sub-rectangle uploads, and batched
// quad drawing of instance records.
package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/go-theft-auto/glyphcache"
)

// vertex is the GPU vertex layout for glyph quads.
// Memory layout matches the vertex attribute setup below.
type vertex struct {
	Pos      [3]float32 // Position (x, y, z)
	TexCoord [2]float32 // Atlas coordinates (u, v)
	Color    uint32     // RGBA packed color
}

// Renderer implements glyph drawing using OpenGL. It owns the GL-side
// atlas texture; EnsureAtlas keeps it sized to the cache's atlas and
// UploadAtlas applies the cache's flush commands.
type Renderer struct {
	shader   uint32
	vao, vbo uint32
	ebo      uint32
	atlasTex uint32
	projLoc  int32
	texLoc   int32
	width    int
	height   int

	atlasW, atlasH int

	// Scratch buffers reused across frames.
	verts []vertex
	idx   []uint32
}

// Vertex shader source
const vertexShaderSource = `
#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec2 aTexCoord;
layout (location = 2) in vec4 aColor;

out vec2 TexCoord;
out vec4 Color;

uniform mat4 projection;

void main() {
    gl_Position = projection * vec4(aPos, 1.0);
    TexCoord = aTexCoord;
    Color = aColor;
}
` + "\x00"

// Fragment shader source
// The atlas is alpha-only coverage: the R channel is alpha, the vertex
// color supplies RGB.
const fragmentShaderSource = `
#version 410 core
in vec2 TexCoord;
in vec4 Color;

out vec4 FragColor;

uniform sampler2D atlasTexture;

void main() {
    float coverage = texture(atlasTexture, TexCoord).r;
    FragColor = vec4(Color.rgb, Color.a * coverage);
}
` + "\x00"

// NewRenderer creates a new OpenGL glyph renderer. Width and height are
// the initial viewport size in pixels.
func NewRenderer(width, height int) (*Renderer, error) {
	r := &Renderer{
		width:  width,
		height: height,
	}

	// Create shader program
	var err error
	r.shader, err = createShaderProgram(vertexShaderSource, fragmentShaderSource)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader: %w", err)
	}

	// Get uniform locations
	r.projLoc = gl.GetUniformLocation(r.shader, gl.Str("projection\x00"))
	r.texLoc = gl.GetUniformLocation(r.shader, gl.Str("atlasTexture\x00"))

	// Create VAO
	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	// Create VBO
	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)

	// Create EBO
	gl.GenBuffers(1, &r.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)

	// Vertex layout: Pos (3 floats) + TexCoord (2 floats) + Color (1 uint32)
	stride := int32(unsafe.Sizeof(vertex{}))

	// Position attribute
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)

	// TexCoord attribute
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride, unsafe.Offsetof(vertex{}.TexCoord))
	gl.EnableVertexAttribArray(1)

	// Color attribute (normalized uint8x4)
	gl.VertexAttribPointerWithOffset(2, 4, gl.UNSIGNED_BYTE, true, stride, unsafe.Offsetof(vertex{}.Color))
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)

	return r, nil
}

// AtlasTextureID returns the OpenGL texture ID of the glyph atlas, or 0
// before the first EnsureAtlas call.
func (r *Renderer) AtlasTextureID() uint32 {
	return r.atlasTex
}

// Resize updates the viewport size.
func (r *Renderer) Resize(width, height int) {
	r.width = width
	r.height = height
}

// EnsureAtlas (re)creates the GL atlas texture whenever the cache's
// atlas dimensions change: on first use and after ResizeAtlas or
// growth. Recreation leaves the texture blank; the cache's next Flush
// carries the repacked content.
func (r *Renderer) EnsureAtlas(width, height int) {
	if r.atlasTex != 0 && width == r.atlasW && height == r.atlasH {
		return
	}
	if r.atlasTex != 0 {
		gl.DeleteTextures(1, &r.atlasTex)
	}

	gl.GenTextures(1, &r.atlasTex)
	gl.BindTexture(gl.TEXTURE_2D, r.atlasTex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R8, int32(width), int32(height), 0,
		gl.RED, gl.UNSIGNED_BYTE, nil)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	r.atlasW, r.atlasH = width, height
}

// UploadAtlas applies the cache's flushed upload commands to the GL
// atlas texture, one TexSubImage2D per coalesced rectangle.
func (r *Renderer) UploadAtlas(uploads []glyphcache.Upload) {
	if len(uploads) == 0 || r.atlasTex == 0 {
		return
	}
	gl.BindTexture(gl.TEXTURE_2D, r.atlasTex)
	// Upload rows are tightly packed, not 4-byte aligned.
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	for _, up := range uploads {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0,
			int32(up.Rect.X), int32(up.Rect.Y),
			int32(up.Rect.W), int32(up.Rect.H),
			gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(up.Pixels))
	}
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// Draw expands the instance records into textured quads and submits
// them as a single draw call. Record order is preserved (paint order).
func (r *Renderer) Draw(records []glyphcache.InstanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	if r.atlasTex == 0 {
		return fmt.Errorf("opengl: draw before EnsureAtlas")
	}

	r.verts = r.verts[:0]
	r.idx = r.idx[:0]
	for _, rec := range records {
		base := uint32(len(r.verts))
		x0, y0 := rec.Dst.X, rec.Dst.Y
		x1, y1 := rec.Dst.X+rec.Dst.W, rec.Dst.Y+rec.Dst.H
		u0, v0 := rec.UV.X, rec.UV.Y
		u1, v1 := rec.UV.X+rec.UV.W, rec.UV.Y+rec.UV.H

		r.verts = append(r.verts,
			vertex{Pos: [3]float32{x0, y0, rec.Z}, TexCoord: [2]float32{u0, v0}, Color: rec.Color},
			vertex{Pos: [3]float32{x1, y0, rec.Z}, TexCoord: [2]float32{u1, v0}, Color: rec.Color},
			vertex{Pos: [3]float32{x1, y1, rec.Z}, TexCoord: [2]float32{u1, v1}, Color: rec.Color},
			vertex{Pos: [3]float32{x0, y1, rec.Z}, TexCoord: [2]float32{u0, v1}, Color: rec.Color},
		)
		r.idx = append(r.idx, base, base+1, base+2, base, base+2, base+3)
	}

	// Save GL state
	var lastProgram int32
	var lastBlendSrc, lastBlendDst int32
	var blendEnabled, depthEnabled, cullEnabled bool

	gl.GetIntegerv(gl.CURRENT_PROGRAM, &lastProgram)
	gl.GetIntegerv(gl.BLEND_SRC_ALPHA, &lastBlendSrc)
	gl.GetIntegerv(gl.BLEND_DST_ALPHA, &lastBlendDst)
	blendEnabled = gl.IsEnabled(gl.BLEND)
	depthEnabled = gl.IsEnabled(gl.DEPTH_TEST)
	cullEnabled = gl.IsEnabled(gl.CULL_FACE)

	// Setup render state
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.DEPTH_TEST)

	// Use shader
	gl.UseProgram(r.shader)

	// Set projection matrix (orthographic)
	proj := orthoMatrix(0, float32(r.width), float32(r.height), 0, -1, 1)
	gl.UniformMatrix4fv(r.projLoc, 1, false, &proj[0])

	// Bind the atlas
	gl.ActiveTexture(gl.TEXTURE0)
	gl.Uniform1i(r.texLoc, 0)
	gl.BindTexture(gl.TEXTURE_2D, r.atlasTex)

	// Bind VAO and upload data
	gl.BindVertexArray(r.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(r.verts)*int(unsafe.Sizeof(vertex{})),
		gl.Ptr(r.verts), gl.STREAM_DRAW)

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(r.idx)*4,
		gl.Ptr(r.idx), gl.STREAM_DRAW)

	gl.DrawElements(gl.TRIANGLES, int32(len(r.idx)), gl.UNSIGNED_INT, nil)

	// Restore GL state
	gl.UseProgram(uint32(lastProgram))
	gl.BlendFunc(uint32(lastBlendSrc), uint32(lastBlendDst))

	if blendEnabled {
		gl.Enable(gl.BLEND)
	} else {
		gl.Disable(gl.BLEND)
	}
	if depthEnabled {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	if cullEnabled {
		gl.Enable(gl.CULL_FACE)
	} else {
		gl.Disable(gl.CULL_FACE)
	}

	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return nil
}

// Delete releases OpenGL resources.
func (r *Renderer) Delete() {
	if r.atlasTex != 0 {
		gl.DeleteTextures(1, &r.atlasTex)
	}
	if r.ebo != 0 {
		gl.DeleteBuffers(1, &r.ebo)
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.shader != 0 {
		gl.DeleteProgram(r.shader)
	}
}

// createShaderProgram compiles and links a shader program.
func createShaderProgram(vertexSource, fragmentSource string) (uint32, error) {
	// Compile vertex shader
	vertexShader := gl.CreateShader(gl.VERTEX_SHADER)
	csource, free := gl.Strs(vertexSource)
	gl.ShaderSource(vertexShader, 1, csource, nil)
	free()
	gl.CompileShader(vertexShader)

	var status int32
	gl.GetShaderiv(vertexShader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(vertexShader, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetShaderInfoLog(vertexShader, logLength, nil, &log[0])
		return 0, fmt.Errorf("vertex shader compilation failed: %s", string(log))
	}

	// Compile fragment shader
	fragmentShader := gl.CreateShader(gl.FRAGMENT_SHADER)
	csource, free = gl.Strs(fragmentSource)
	gl.ShaderSource(fragmentShader, 1, csource, nil)
	free()
	gl.CompileShader(fragmentShader)

	gl.GetShaderiv(fragmentShader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(fragmentShader, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetShaderInfoLog(fragmentShader, logLength, nil, &log[0])
		return 0, fmt.Errorf("fragment shader compilation failed: %s", string(log))
	}

	// Link program
	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetProgramInfoLog(program, logLength, nil, &log[0])
		return 0, fmt.Errorf("shader program linking failed: %s", string(log))
	}

	// Cleanup shaders (they're linked into the program now)
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	return program, nil
}

// orthoMatrix creates an orthographic projection matrix.
func orthoMatrix(left, right, bottom, top, near, far float32) [16]float32 {
	return [16]float32{
		2 / (right - left), 0, 0, 0,
		0, 2 / (top - bottom), 0, 0,
		0, 0, -2 / (far - near), 0,
		-(right + left) / (right - left), -(top + bottom) / (top - bottom), -(far + near) / (far - near), 1,
	}
}
