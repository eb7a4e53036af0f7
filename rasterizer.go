package glyphcache

// Bitmap is a single-channel coverage bitmap produced by a Rasterizer.
// Pixels holds Width*Height bytes in row-major order: 0 means no
// coverage, 255 full coverage. A zero-size bitmap is valid and means
// the glyph has no visible ink (whitespace).
type Bitmap struct {
	Width, Height int
	Pixels        []byte
}

// Rasterizer is the interface for glyph bitmap production. It abstracts
// font rasterization so different implementations can be injected: the
// raster package for real fonts, deterministic fakes for tests.
//
// The cache package does not depend on any concrete font
// implementation. Applications construct a Rasterizer and hand it to
// New.
type Rasterizer interface {
	// Rasterize renders the glyph identified by key into a coverage
	// bitmap. It returns an error if the font/glyph combination cannot
	// be rendered; the cache wraps that in a RasterizeError and the
	// glyph is skipped for the frame.
	Rasterize(key GlyphKey) (Bitmap, error)
}
