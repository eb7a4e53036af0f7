// Example renders live text through the glyph atlas cache.
//
// Usage:
//
//	go run ./example/ path/to/font.ttf
//
// The example creates a GLFW window, lays out two lines of text with a
// per-frame counter (so the cache keeps seeing a few new glyph keys),
// resolves them through the cache, uploads the flushed atlas regions,
// and draws the instance records in one draw call per frame.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/go-theft-auto/glyphcache"
	"github.com/go-theft-auto/glyphcache/backend/opengl"
	"github.com/go-theft-auto/glyphcache/raster"
)

const (
	windowWidth  = 800
	windowHeight = 600
	windowTitle  = "glyphcache example"
	fontScale    = 24
)

func init() {
	// GLFW must run on the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: %s path/to/font.ttf", os.Args[0])
	}
	fontData, err := os.ReadFile(os.Args[1])
	if err != nil {
		return fmt.Errorf("read font: %w", err)
	}

	// Initialize GLFW.
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1) // vsync

	// Initialize OpenGL.
	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w", err)
	}

	// Font, cache, and GPU backend.
	ras := raster.New()
	fontID, err := ras.AddFont(fontData)
	if err != nil {
		return err
	}

	brush := glyphcache.New(ras,
		glyphcache.WithAtlasSize(256, 256),
		glyphcache.WithPadding(1),
		glyphcache.WithGrowth(2048, 2048))

	renderer, err := opengl.NewRenderer(windowWidth, windowHeight)
	if err != nil {
		return fmt.Errorf("glyph renderer: %w", err)
	}
	defer renderer.Delete()

	// Main loop.
	for frame := uint64(1); !window.ShouldClose(); frame++ {
		glfw.PollEvents()

		w, h := window.GetFramebufferSize()
		gl.Viewport(0, 0, int32(w), int32(h))
		renderer.Resize(w, h)
		gl.ClearColor(0.12, 0.12, 0.14, 1.0)
		gl.Clear(gl.COLOR_BUFFER_BIT)

		var glyphs []glyphcache.PositionedGlyph
		glyphs = layoutLine(ras, fontID, "The quick brown fox jumps over the lazy dog.",
			glyphcache.Vec2{X: 20, Y: 60}, glyphcache.ColorWhite, glyphs)
		glyphs = layoutLine(ras, fontID, fmt.Sprintf("frame %d", frame),
			glyphcache.Vec2{X: 20, Y: 100}, glyphcache.RGBA(255, 210, 80, 255), glyphs)

		records, err := brush.ResolveFrame(frame, glyphs)
		if err != nil {
			return fmt.Errorf("resolve frame %d: %w", frame, err)
		}

		aw, ah := brush.AtlasSize()
		renderer.EnsureAtlas(aw, ah)
		renderer.UploadAtlas(brush.Flush())
		if err := renderer.Draw(records); err != nil {
			return err
		}
		glyphcache.ReleaseInstances(records)

		window.SwapBuffers()
	}

	return nil
}

// layoutLine is a deliberately naive layout collaborator: left to
// right, advance only, no kerning or shaping. Pen positions keep their
// fractional part through the subpixel bucket.
func layoutLine(ras *raster.OpenType, fontID glyphcache.FontID, text string,
	origin glyphcache.Vec2, color uint32, dst []glyphcache.PositionedGlyph) []glyphcache.PositionedGlyph {

	pen := origin.X
	for _, ch := range text {
		m, err := ras.Metrics(fontID, fontScale, ch)
		if err != nil {
			continue // unknown rune, skip it
		}
		x := pen + m.BearingX
		dst = append(dst, glyphcache.PositionedGlyph{
			Key: glyphcache.GlyphKey{
				Font:     fontID,
				Glyph:    uint32(ch),
				ScalePx:  fontScale,
				Subpixel: glyphcache.SubpixelBucket(x),
			},
			Pos:   glyphcache.Vec2{X: float32(int(x)), Y: origin.Y - m.BearingY},
			Color: color,
		})
		pen += m.Advance
	}
	return dst
}
