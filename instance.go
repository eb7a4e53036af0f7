package glyphcache

import "sync"

// ResolvedGlyph pairs a positioned glyph with its atlas slot for the
// current generation.
type ResolvedGlyph struct {
	Glyph PositionedGlyph
	Slot  AtlasSlot
}

// instancePool reuses instance buffers across frames. Frame output is
// rebuilt from scratch every frame, so without reuse every frame would
// allocate a fresh slice.
var instancePool = sync.Pool{
	New: func() any {
		records := make([]InstanceRecord, 0, 1024)
		return &records
	},
}

// ReleaseInstances returns a slice obtained from Build (or
// Brush.ResolveFrame) to the pool for reuse. The slice must not be used
// afterward.
func ReleaseInstances(records []InstanceRecord) {
	if records == nil {
		return
	}
	records = records[:0]
	instancePool.Put(&records)
}

// InstanceBuilder converts resolved glyphs into GPU instance records.
// It is a pure transformation: deterministic given its inputs, no
// caching, no GPU interaction, and input order is preserved. The
// layout collaborator's order encodes paint order, and reordering
// would corrupt alpha blending of overlapping glyphs.
type InstanceBuilder struct{}

// Build emits one record per drawable glyph: the screen quad at the
// glyph's position sized by its atlas rectangle, the UV rectangle
// normalized by the atlas dimensions, and position/color passed
// through unchanged. Zero-size slots (whitespace) produce no record.
// With a non-nil clip, records outside it are dropped and straddling
// records are trimmed UV-proportionally.
func (InstanceBuilder) Build(resolved []ResolvedGlyph, atlasWidth, atlasHeight int, clip *Rect) []InstanceRecord {
	out := (*instancePool.Get().(*[]InstanceRecord))[:0]
	uw := 1 / float32(atlasWidth)
	uh := 1 / float32(atlasHeight)

	for _, rg := range resolved {
		r := rg.Slot.Rect
		if r.Empty() {
			continue
		}
		dst := Rect{X: rg.Glyph.Pos.X, Y: rg.Glyph.Pos.Y, W: float32(r.W), H: float32(r.H)}
		uv := Rect{X: float32(r.X) * uw, Y: float32(r.Y) * uh, W: float32(r.W) * uw, H: float32(r.H) * uh}
		if clip != nil {
			var visible bool
			dst, uv, visible = clipQuad(dst, uv, *clip)
			if !visible {
				continue
			}
		}
		out = append(out, InstanceRecord{Dst: dst, UV: uv, Z: rg.Glyph.Z, Color: rg.Glyph.Color})
	}
	return out
}

// clipQuad trims dst to bounds and shrinks uv by the same proportions,
// preserving texel density across the cut. visible=false when the quad
// lies entirely outside bounds.
func clipQuad(dst, uv, bounds Rect) (Rect, Rect, bool) {
	x0, y0 := dst.X, dst.Y
	x1, y1 := dst.X+dst.W, dst.Y+dst.H
	bx1, by1 := bounds.X+bounds.W, bounds.Y+bounds.H
	if x0 >= bx1 || y0 >= by1 || x1 <= bounds.X || y1 <= bounds.Y {
		return Rect{}, Rect{}, false
	}

	u0, v0 := uv.X, uv.Y
	u1, v1 := uv.X+uv.W, uv.Y+uv.H
	if x0 < bounds.X {
		u0 += uv.W * (bounds.X - x0) / dst.W
		x0 = bounds.X
	}
	if y0 < bounds.Y {
		v0 += uv.H * (bounds.Y - y0) / dst.H
		y0 = bounds.Y
	}
	if x1 > bx1 {
		u1 -= uv.W * (x1 - bx1) / dst.W
		x1 = bx1
	}
	if y1 > by1 {
		v1 -= uv.H * (y1 - by1) / dst.H
		y1 = by1
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0},
		Rect{X: u0, Y: v0, W: u1 - u0, H: v1 - v0},
		true
}
