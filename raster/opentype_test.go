package raster_test

import (
	"bytes"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/go-theft-auto/glyphcache"
	"github.com/go-theft-auto/glyphcache/raster"
)

func newTestRasterizer(t *testing.T) (*raster.OpenType, glyphcache.FontID) {
	t.Helper()
	r := raster.New()
	id, err := r.AddFont(goregular.TTF)
	if err != nil {
		t.Fatalf("AddFont: %v", err)
	}
	return r, id
}

func TestRasterizeProducesCoverage(t *testing.T) {
	r, id := newTestRasterizer(t)

	bm, err := r.Rasterize(glyphcache.GlyphKey{Font: id, Glyph: 'A', ScalePx: 24})
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if bm.Width <= 0 || bm.Height <= 0 {
		t.Fatalf("empty bitmap for 'A': %dx%d", bm.Width, bm.Height)
	}
	if len(bm.Pixels) != bm.Width*bm.Height {
		t.Fatalf("pixels = %d bytes, want %d", len(bm.Pixels), bm.Width*bm.Height)
	}

	covered := false
	for _, p := range bm.Pixels {
		if p > 0 {
			covered = true
			break
		}
	}
	if !covered {
		t.Error("'A' rasterized with no coverage at all")
	}
}

func TestRasterizeDeterministic(t *testing.T) {
	r, id := newTestRasterizer(t)
	k := glyphcache.GlyphKey{Font: id, Glyph: 'g', ScalePx: 16, Subpixel: 2}

	a, err := r.Rasterize(k)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := r.Rasterize(k)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if a.Width != b.Width || a.Height != b.Height || !bytes.Equal(a.Pixels, b.Pixels) {
		t.Error("same key produced different bitmaps")
	}
}

func TestRasterizeWhitespace(t *testing.T) {
	r, id := newTestRasterizer(t)

	bm, err := r.Rasterize(glyphcache.GlyphKey{Font: id, Glyph: ' ', ScalePx: 24})
	if err != nil {
		t.Fatalf("Rasterize(' '): %v", err)
	}
	if bm.Width != 0 || bm.Height != 0 {
		t.Errorf("space should have no ink, got %dx%d", bm.Width, bm.Height)
	}
}

func TestRasterizeUnknownFont(t *testing.T) {
	r := raster.New()
	_, err := r.Rasterize(glyphcache.GlyphKey{Font: 42, Glyph: 'A', ScalePx: 16})
	if err == nil {
		t.Fatal("expected error for unregistered font")
	}
}

func TestMetrics(t *testing.T) {
	r, id := newTestRasterizer(t)

	m, err := r.Metrics(id, 24, 'H')
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if m.Advance <= 0 {
		t.Errorf("advance = %v, want > 0", m.Advance)
	}
	if m.BearingY <= 0 {
		t.Errorf("bearingY = %v, want > 0 (cap height above baseline)", m.BearingY)
	}

	ascent, lineHeight, err := r.LineMetrics(id, 24)
	if err != nil {
		t.Fatalf("LineMetrics: %v", err)
	}
	if ascent <= 0 || lineHeight < ascent {
		t.Errorf("ascent = %v, lineHeight = %v", ascent, lineHeight)
	}
}

func TestRasterizeWorksWithCache(t *testing.T) {
	r, id := newTestRasterizer(t)
	brush := glyphcache.New(r, glyphcache.WithAtlasSize(256, 256), glyphcache.WithPadding(1))

	text := "Sphinx of black quartz"
	var glyphs []glyphcache.PositionedGlyph
	x := float32(10)
	for _, ch := range text {
		m, err := r.Metrics(id, 18, ch)
		if err != nil {
			t.Fatalf("Metrics(%q): %v", ch, err)
		}
		glyphs = append(glyphs, glyphcache.PositionedGlyph{
			Key: glyphcache.GlyphKey{
				Font: id, Glyph: uint32(ch), ScalePx: 18,
				Subpixel: glyphcache.SubpixelBucket(x + m.BearingX),
			},
			Pos:   glyphcache.Vec2{X: x + m.BearingX, Y: 40 - m.BearingY},
			Color: glyphcache.ColorWhite,
		})
		x += m.Advance
	}

	records, err := brush.ResolveFrame(1, glyphs)
	if err != nil {
		t.Fatalf("ResolveFrame: %v", err)
	}
	// Spaces produce no records; everything else does.
	wantDrawable := len(text) - 3
	if len(records) != wantDrawable {
		t.Errorf("records = %d, want %d", len(records), wantDrawable)
	}
	if uploads := brush.Flush(); len(uploads) == 0 {
		t.Error("expected atlas uploads for the first frame")
	}
	glyphcache.ReleaseInstances(records)
}
