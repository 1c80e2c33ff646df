package certificate

import "golang.org/x/image/font"

// MeasureText returns the ink width of s in whole pixels.
func MeasureText(face font.Face, s string) int {
	bounds, _ := font.BoundString(face, s)
	return (bounds.Max.X - bounds.Min.X).Ceil()
}

// CenterX is floor((imageWidth - textWidth) / 2). It goes negative when the text is
// wider than the image.
func CenterX(imageWidth, textWidth int) int {
	d := imageWidth - textWidth
	if d >= 0 {
		return d / 2
	}
	return -((-d + 1) / 2)
}
