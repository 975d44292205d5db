package renderer

import "fmt"

// Geometry places an input frame inside a target of another size, keeping its
// aspect ratio and centering it.
type Geometry struct {
	InWidth, InHeight         int
	TargetWidth, TargetHeight int
	OutWidth, OutHeight       int
	OffsetX, OffsetY          int
}

// Fit scales in by min(targetWidth/inWidth, targetHeight/inHeight). The
// comparison and the scaled sizes use integer arithmetic so an exact fit on
// one axis is never lost to rounding.
func Fit(inWidth, inHeight, targetWidth, targetHeight int) (Geometry, error) {
	if inWidth <= 0 || inHeight <= 0 || targetWidth <= 0 || targetHeight <= 0 {
		return Geometry{}, fmt.Errorf("invalid geometry: input %dx%d, target %dx%d",
			inWidth, inHeight, targetWidth, targetHeight)
	}
	g := Geometry{
		InWidth:      inWidth,
		InHeight:     inHeight,
		TargetWidth:  targetWidth,
		TargetHeight: targetHeight,
	}
	iw, ih := int64(inWidth), int64(inHeight)
	tw, th := int64(targetWidth), int64(targetHeight)
	if tw*ih <= th*iw {
		g.OutWidth = targetWidth
		g.OutHeight = int(ih * tw / iw)
	} else {
		g.OutWidth = int(iw * th / ih)
		g.OutHeight = targetHeight
	}
	g.OffsetX = (targetWidth - g.OutWidth) / 2
	g.OffsetY = (targetHeight - g.OutHeight) / 2
	return g, nil
}

// Scale returns the applied scale factor.
func (g Geometry) Scale() float64 {
	return min(float64(g.TargetWidth)/float64(g.InWidth), float64(g.TargetHeight)/float64(g.InHeight))
}

// Viewport returns x, y, width and height for pass i. Pass 1 writes the chroma
// plane at half resolution.
func (g Geometry) Viewport(pass int) [4]int32 {
	d := pass + 1
	return [4]int32{
		int32(g.OffsetX / d),
		int32(g.OffsetY / d),
		int32(g.OutWidth / d),
		int32(g.OutHeight / d),
	}
}
