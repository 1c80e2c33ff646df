package certificate

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

type faceSet struct {
	name  font.Face
	label font.Face
	score font.Face
	date  font.Face

	fallback bool
}

func (f faceSet) Close() {
	for _, face := range []font.Face{f.name, f.label, f.score, f.date} {
		if face != nil {
			_ = face.Close()
		}
	}
}

func fallbackFaces() faceSet {
	face := basicfont.Face7x13
	return faceSet{name: face, label: face, score: face, date: face, fallback: true}
}

// loadFaces never fails: any problem with the font file degrades to the built-in face.
func (r *Renderer) loadFaces(layout Layout) faceSet {
	faces, err := parseFaces(r.fontPath, layout)
	if err != nil {
		r.logger.Warn("certificate font unavailable, using fallback face",
			zap.String("font_path", r.fontPath),
			zap.String("variant", layout.Variant.String()),
			zap.Error(err),
		)
		return fallbackFaces()
	}
	return faces
}

func parseFaces(path string, layout Layout) (faceSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return faceSet{}, fmt.Errorf("read font: %w", err)
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return faceSet{}, fmt.Errorf("parse font: %w", err)
	}

	var faces faceSet
	sizes := []struct {
		dst  *font.Face
		size float64
	}{
		{&faces.name, layout.NameSize},
		{&faces.label, layout.LabelSize},
		{&faces.score, layout.ScoreSize},
		{&faces.date, layout.DateSize},
	}
	for _, s := range sizes {
		// DPI 72 makes the point size equal to the pixel size of the template design.
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    s.size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			faces.Close()
			return faceSet{}, fmt.Errorf("build face size %.0f: %w", s.size, err)
		}
		*s.dst = face
	}
	return faces, nil
}
