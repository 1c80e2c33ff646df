package certificate

import (
	"image"

	"ilfen-assessment/internal/domain"
)

// RegionMode says how a cleared region is placed relative to the template width.
type RegionMode int

const (
	// RegionFixed uses X0..X1 as absolute columns.
	RegionFixed RegionMode = iota
	// RegionInset spans from X0 to width-X1.
	RegionInset
	// RegionCentered spans from width/2-X0 to width/2+X1.
	RegionCentered
)

// Region is a rectangle with inclusive corners, the way the template was designed.
type Region struct {
	Mode   RegionMode
	X0, X1 int
	Y0, Y1 int
}

// Resolve returns the half-open rectangle covering the region on an image of the given width.
func (r Region) Resolve(width int) image.Rectangle {
	x0, x1 := r.X0, r.X1
	switch r.Mode {
	case RegionInset:
		x1 = width - r.X1
	case RegionCentered:
		x0 = width/2 - r.X0
		x1 = width/2 + r.X1
	}
	return image.Rect(x0, r.Y0, x1+1, r.Y1+1)
}

// DateSource selects which timestamp is printed on the certificate.
type DateSource int

const (
	DateFromResult DateSource = iota
	DateFromSessionStart
)

// Layout holds everything that differs between the certificate variants.
type Layout struct {
	Variant      domain.Variant
	TemplatePath string
	OutputDir    string
	FilePrefix   string

	NameSize  float64
	LabelSize float64
	ScoreSize float64
	DateSize  float64

	NameArea  Region
	ScoreArea Region
	DateArea  Region

	NameTop         int
	CaptionTop      int
	ScoreCaptionTop int
	ScoreTop        int
	DateAnchor      image.Point
	DateSource      DateSource
}

const (
	ParticipationCaption = "على المشاركة في اختبار السمات الريادية"
	ScoreCaption         = "والحصول على درجة"
	dateLayout           = "2006/01/02"
	fileTimeLayout       = "20060102_150405"
)

// AdultLayout is the gold frame certificate.
func AdultLayout(templatePath string) Layout {
	return Layout{
		Variant:         domain.VariantAdult,
		TemplatePath:    templatePath,
		OutputDir:       "certificates",
		FilePrefix:      "",
		NameSize:        70,
		LabelSize:       24,
		ScoreSize:       40,
		DateSize:        22,
		NameArea:        Region{Mode: RegionInset, X0: 80, X1: 80, Y0: 310, Y1: 430},
		ScoreArea:       Region{Mode: RegionCentered, X0: 220, X1: 220, Y0: 430, Y1: 520},
		DateArea:        Region{Mode: RegionFixed, X0: 100, X1: 370, Y0: 680, Y1: 750},
		NameTop:         310,
		CaptionTop:      430,
		ScoreCaptionTop: 460,
		ScoreTop:        490,
		DateAnchor:      image.Pt(160, 695),
		DateSource:      DateFromResult,
	}
}

// JuniorLayout is the colorful certificate; it prints the session start date.
func JuniorLayout(templatePath string) Layout {
	l := AdultLayout(templatePath)
	l.Variant = domain.VariantJunior
	l.OutputDir = "certificates/junior"
	l.FilePrefix = "junior_"
	l.DateSize = 20
	l.ScoreArea = Region{Mode: RegionCentered, X0: 260, X1: 260, Y0: 430, Y1: 550}
	l.DateAnchor = image.Pt(160, 680)
	l.DateSource = DateFromSessionStart
	return l
}

// DefaultLayouts builds the layout table for both variants.
func DefaultLayouts(adultTemplate, juniorTemplate string) map[domain.Variant]Layout {
	return map[domain.Variant]Layout{
		domain.VariantAdult:  AdultLayout(adultTemplate),
		domain.VariantJunior: JuniorLayout(juniorTemplate),
	}
}
