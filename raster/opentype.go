// Package raster provides the production glyphcache.Rasterizer, backed
// by golang.org/x/image/font/opentype. It interprets GlyphKey.Glyph as
// a rune.
package raster

import (
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/go-theft-auto/glyphcache"
)

// OpenType rasterizes glyphs from registered OpenType/TrueType fonts.
// Faces are cached per (font, scale) pair, since face construction is
// far more expensive than a glyph draw.
//
// Not safe for concurrent use; the cache layer above is single-writer
// anyway.
type OpenType struct {
	fonts  map[glyphcache.FontID]*sfnt.Font
	faces  map[faceKey]font.Face
	nextID glyphcache.FontID
}

type faceKey struct {
	font  glyphcache.FontID
	scale uint16
}

// New creates an empty rasterizer. Register fonts with AddFont.
func New() *OpenType {
	return &OpenType{
		fonts: make(map[glyphcache.FontID]*sfnt.Font),
		faces: make(map[faceKey]font.Face),
	}
}

// AddFont parses TTF/OTF data and registers it, returning the FontID to
// use in glyph keys.
func (r *OpenType) AddFont(data []byte) (glyphcache.FontID, error) {
	ft, err := opentype.Parse(data)
	if err != nil {
		return 0, fmt.Errorf("raster: parse font: %w", err)
	}
	id := r.nextID
	r.nextID++
	r.fonts[id] = ft
	return id, nil
}

// Rasterize implements glyphcache.Rasterizer. The glyph is drawn at the
// key's subpixel offset so neighboring buckets get distinct coverage. A
// glyph with no ink (whitespace) returns a zero-size bitmap and no
// error.
func (r *OpenType) Rasterize(key glyphcache.GlyphKey) (glyphcache.Bitmap, error) {
	face, err := r.face(key.Font, key.ScalePx)
	if err != nil {
		return glyphcache.Bitmap{}, err
	}

	ch := rune(key.Glyph)
	dot := fixed.Point26_6{X: subpixelOffset(key.Subpixel)}
	dr, mask, maskp, _, ok := face.Glyph(dot, ch)
	if !ok {
		return glyphcache.Bitmap{}, fmt.Errorf("raster: no glyph for %q", ch)
	}
	if dr.Empty() {
		return glyphcache.Bitmap{}, nil
	}

	dst := image.NewAlpha(image.Rect(0, 0, dr.Dx(), dr.Dy()))
	draw.Draw(dst, dst.Bounds(), mask, maskp, draw.Src)
	return glyphcache.Bitmap{Width: dr.Dx(), Height: dr.Dy(), Pixels: dst.Pix}, nil
}

// GlyphMetrics holds the layout measurements for one glyph at one
// scale, in pixels.
type GlyphMetrics struct {
	Advance  float32
	BearingX float32 // Left side bearing
	BearingY float32 // Distance from baseline up to the glyph top
}

// Metrics measures a glyph for layout. The top-left position to pass
// the cache for a pen at (penX, baselineY) is
// (penX + BearingX, baselineY - BearingY).
func (r *OpenType) Metrics(id glyphcache.FontID, scale uint16, ch rune) (GlyphMetrics, error) {
	face, err := r.face(id, scale)
	if err != nil {
		return GlyphMetrics{}, err
	}
	bounds, advance, ok := face.GlyphBounds(ch)
	if !ok {
		return GlyphMetrics{}, fmt.Errorf("raster: no glyph for %q", ch)
	}
	return GlyphMetrics{
		Advance:  fixedToFloat(advance),
		BearingX: fixedToFloat(bounds.Min.X),
		BearingY: -fixedToFloat(bounds.Min.Y),
	}, nil
}

// LineMetrics returns the face ascent and line height in pixels.
func (r *OpenType) LineMetrics(id glyphcache.FontID, scale uint16) (ascent, lineHeight float32, err error) {
	face, err := r.face(id, scale)
	if err != nil {
		return 0, 0, err
	}
	m := face.Metrics()
	return fixedToFloat(m.Ascent), fixedToFloat(m.Height), nil
}

func (r *OpenType) face(id glyphcache.FontID, scale uint16) (font.Face, error) {
	key := faceKey{font: id, scale: scale}
	if face, ok := r.faces[key]; ok {
		return face, nil
	}
	ft, ok := r.fonts[id]
	if !ok {
		return nil, fmt.Errorf("raster: unknown font %d", id)
	}
	if scale == 0 {
		return nil, fmt.Errorf("raster: zero scale for font %d", id)
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size: float64(scale), DPI: 72, Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("raster: new face (font %d, scale %d): %w", id, scale, err)
	}
	r.faces[key] = face
	return face, nil
}

// subpixelOffset converts a bucket index into the fractional pen offset
// the bucket stands for, in 26.6 fixed point.
func subpixelOffset(bucket uint8) fixed.Int26_6 {
	return fixed.Int26_6(bucket) * (64 / glyphcache.SubpixelBuckets)
}

func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
