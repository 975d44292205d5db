// Package colorspace holds the RGB to YUV coefficient sets uploaded to the
// ColorMatrix uniform block.
package colorspace

import (
	"encoding/binary"
	"log/slog"
	"math"

	"github.com/richinsley/gpunv12/shader"
)

// Standard is a colorspace code as used by libswscale (SWS_CS_*).
type Standard int

const (
	ITU709    Standard = 1
	FCC       Standard = 4
	ITU601    Standard = 5
	SMPTE170M Standard = 5
	SMPTE240M Standard = 7
	BT2020    Standard = 9
)

// Range selects between limited (studio) and full (pc) quantization. Zero is
// limited; any other value is full.
type Range int

const (
	Limited Range = 0
	Full    Range = 1
)

// Color is one entry of the coefficient table.
type Color struct {
	VecY    [4]float32
	VecU    [4]float32
	VecV    [4]float32
	RangeY  [2]float32
	RangeUV [2]float32
}

func makeColor(cr, cb, uMax, vMax, addY, addUV float32, rangeY, rangeUV [2]float32) Color {
	cg := 1 - cr - cb
	crI := 1 - cr
	cbI := 1 - cb

	shiftY := rangeY[0] / 256
	shiftUV := rangeUV[0] / 256
	scaleY := (rangeY[1] - rangeY[0]) / 256
	scaleUV := (rangeUV[1] - rangeUV[0]) / 256

	return Color{
		VecY:    [4]float32{cr, cg, cb, addY},
		VecU:    [4]float32{-(cr * uMax / cbI), -(cg * uMax / cbI), uMax, addUV},
		VecV:    [4]float32{vMax, -(cg * vMax / crI), -(cb * vMax / crI), addUV},
		RangeY:  [2]float32{scaleY, shiftY},
		RangeUV: [2]float32{scaleUV, shiftUV},
	}
}

// Colors holds limited and full range pairs: BT.601 at 0 and 1, BT.709 at 2 and 3.
var Colors = [4]Color{
	makeColor(0.299, 0.114, 0.436, 0.615, 0.0625, 0.5, [2]float32{16, 235}, [2]float32{16, 240}),
	makeColor(0.299, 0.114, 0.5, 0.5, 0, 0.5, [2]float32{0, 255}, [2]float32{0, 255}),
	makeColor(0.2126, 0.0722, 0.436, 0.615, 0.0625, 0.5, [2]float32{16, 235}, [2]float32{16, 240}),
	makeColor(0.2126, 0.0722, 0.5, 0.5, 0, 0.5, [2]float32{0, 255}, [2]float32{0, 255}),
}

// Index returns the table entry for standard and rng. Unsupported standards,
// BT.2020 included, fall back to BT.601 with a warning.
func Index(standard Standard, rng Range) int {
	var i int
	switch standard {
	case ITU601:
		i = 0
	case ITU709:
		i = 2
	default:
		slog.Warn("colorspace not yet supported, switching to default", "colorspace", int(standard))
		i = 0
	}
	if rng != Limited {
		i++
	}
	return i
}

// Select returns the coefficients for standard and rng.
func Select(standard Standard, rng Range) Color {
	return Colors[Index(standard, rng)]
}

// Member names in the ColorMatrix block, in upload order.
var MemberNames = [5]string{"color_vec_y", "color_vec_u", "color_vec_v", "range_y", "range_uv"}

// Members returns c as ColorMatrix block members in native byte order.
func (c Color) Members() []shader.Member {
	values := [5][]float32{c.VecY[:], c.VecU[:], c.VecV[:], c.RangeY[:], c.RangeUV[:]}
	m := make([]shader.Member, len(values))
	for i, v := range values {
		m[i] = shader.Member{Name: MemberNames[i], Value: floatBytes(v)}
	}
	return m
}

// Black returns the normalized luma and chroma the shaders produce for black.
func (c Color) Black() (y, uv float32) {
	return c.VecY[3]*c.RangeY[0] + c.RangeY[1], c.VecU[3]*c.RangeUV[0] + c.RangeUV[1]
}

func floatBytes(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.NativeEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}
