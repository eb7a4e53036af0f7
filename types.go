package glyphcache

// Vec2 represents a 2D vector for positions and sizes.
type Vec2 struct {
	X, Y float32
}

// Add returns the sum of two vectors.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Rect represents a screen-space rectangle with position and size.
type Rect struct {
	X, Y float32 // Top-left position
	W, H float32 // Width and height
}

// Intersects returns true if two rectangles overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.X+other.W && r.X+r.W > other.X &&
		r.Y < other.Y+other.H && r.Y+r.H > other.Y
}

// AtlasRect is an integer pixel rectangle within the atlas texture.
type AtlasRect struct {
	X, Y int
	W, H int
}

// Empty returns true if the rectangle covers no pixels.
func (r AtlasRect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Intersects returns true if two atlas rectangles overlap.
func (r AtlasRect) Intersects(other AtlasRect) bool {
	return r.X < other.X+other.W && r.X+r.W > other.X &&
		r.Y < other.Y+other.H && r.Y+r.H > other.Y
}

// Union returns the bounding rectangle of two atlas rectangles.
func (r AtlasRect) Union(other AtlasRect) AtlasRect {
	x0, y0 := min(r.X, other.X), min(r.Y, other.Y)
	x1 := max(r.X+r.W, other.X+other.W)
	y1 := max(r.Y+r.H, other.Y+other.H)
	return AtlasRect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// FontID identifies a font registered with the Rasterizer.
type FontID uint32

// SubpixelBuckets is the number of horizontal subpixel buckets a glyph
// key distinguishes. Pen positions whose fractional parts fall into the
// same bucket share one cached bitmap.
const SubpixelBuckets = 4

// SubpixelBucket quantizes the fractional part of a horizontal pen
// position into a GlyphKey subpixel bucket.
func SubpixelBucket(x float32) uint8 {
	frac := x - float32(int(x))
	if frac < 0 {
		frac += 1
	}
	return uint8(frac*SubpixelBuckets) % SubpixelBuckets
}

// GlyphKey identifies a unique rasterized glyph appearance. Two keys
// are equal exactly when their cached bitmaps are interchangeable.
//
// Glyph is opaque to this package; the injected Rasterizer defines its
// meaning (the raster package interprets it as a rune).
type GlyphKey struct {
	Font     FontID
	Glyph    uint32
	ScalePx  uint16 // Pixel size the glyph is rasterized at
	Subpixel uint8  // Horizontal subpixel bucket, see SubpixelBucket
}

// AtlasSlot is a generation-tagged rectangle handle into the atlas.
// The slot is only valid while Generation matches the cache's current
// generation; a full clear or resize invalidates all issued slots.
//
// Whitespace glyphs get a zero-size slot: cached, but nothing to draw.
type AtlasSlot struct {
	Rect       AtlasRect
	Generation uint64
}

// PositionedGlyph is one glyph placed by the layout collaborator.
// Slice order encodes paint order; the pipeline never reorders it.
type PositionedGlyph struct {
	Key   GlyphKey
	Pos   Vec2    // Top-left of the glyph quad in screen pixels
	Z     float32 // Depth for depth-tested pipelines
	Color uint32  // Packed RGBA, see RGBA
}

// InstanceRecord is one GPU-ready glyph quad: screen placement, the
// normalized atlas UV rectangle, and color. The GPU backend expands
// each record into a textured quad.
type InstanceRecord struct {
	Dst   Rect // Screen quad in pixels
	UV    Rect // Atlas texture rectangle, normalized [0,1]
	Z     float32
	Color uint32
}

// Color constants (RGBA packed as 0xAABBGGRR for OpenGL compatibility)
const (
	ColorWhite uint32 = 0xFFFFFFFF
	ColorBlack uint32 = 0xFF000000
)

// RGBA creates a packed color from individual components (0-255).
func RGBA(r, g, b, a uint8) uint32 {
	return uint32(a)<<24 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
}
