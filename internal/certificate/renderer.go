package certificate

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"ilfen-assessment/internal/domain"
)

var (
	ErrTemplateNotFound = errors.New("certificate template not found")
	ErrTemplateInvalid  = errors.New("certificate template could not be decoded")
	ErrUnknownLayout    = errors.New("no certificate layout for variant")
	ErrInvalidRequest   = errors.New("invalid certificate request")
)

const maxNameAttempts = 100

var (
	colorBlack = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	colorGold  = color.NRGBA{R: 255, G: 192, B: 0, A: 255}
	colorWhite = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Request is the data printed on one certificate.
type Request struct {
	RegistrationID   string
	RegistrantName   string
	Result           domain.FinalResult
	SessionStartedAt time.Time
}

// Renderer compone el certificado sobre la plantilla de cada variante y lo guarda en disco.
type Renderer struct {
	mediaRoot string
	fontPath  string
	layouts   map[domain.Variant]Layout
	logger    *zap.Logger
	now       func() time.Time
}

func NewRenderer(logger *zap.Logger, mediaRoot, fontPath string, layouts map[domain.Variant]Layout) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		mediaRoot: mediaRoot,
		fontPath:  fontPath,
		layouts:   layouts,
		logger:    logger,
		now:       time.Now,
	}
}

// Layout returns the layout registered for the variant.
func (r *Renderer) Layout(variant domain.Variant) (Layout, error) {
	layout, ok := r.layouts[variant]
	if !ok {
		return Layout{}, fmt.Errorf("%w: %s", ErrUnknownLayout, variant)
	}
	return layout, nil
}

// AbsPath resolves a stored certificate path against the media root.
func (r *Renderer) AbsPath(relPath string) string {
	return filepath.Join(r.mediaRoot, filepath.FromSlash(relPath))
}

// Render draws the certificate and returns its path relative to the media root, using
// forward slashes. Every call writes a new file.
func (r *Renderer) Render(variant domain.Variant, req Request) (string, error) {
	layout, err := r.Layout(variant)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(req.RegistrationID) == "" || strings.ContainsAny(req.RegistrationID, `/\.`) {
		return "", fmt.Errorf("%w: registration id %q", ErrInvalidRequest, req.RegistrationID)
	}

	base, err := loadTemplate(layout.TemplatePath)
	if err != nil {
		return "", err
	}

	faces := r.loadFaces(layout)
	defer faces.Close()

	img := r.compose(base, layout, faces, req)

	dir := filepath.Join(r.mediaRoot, filepath.FromSlash(layout.OutputDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create certificates dir: %w", err)
	}
	stem := fmt.Sprintf("%scertificate_%s_%s", layout.FilePrefix, req.RegistrationID, r.now().Format(fileTimeLayout))
	filename, err := writePNG(dir, stem, img)
	if err != nil {
		return "", err
	}

	relPath := filepath.ToSlash(filepath.Join(filepath.FromSlash(layout.OutputDir), filename))
	r.logger.Info("certificate rendered",
		zap.String("variant", variant.String()),
		zap.String("registration_id", req.RegistrationID),
		zap.String("path", relPath),
		zap.Bool("fallback_font", faces.fallback),
	)
	return relPath, nil
}

func (r *Renderer) compose(base *image.NRGBA, layout Layout, faces faceSet, req Request) *image.NRGBA {
	width := base.Bounds().Dx()
	overlay := image.NewNRGBA(base.Bounds())

	// Blank out the zones where the template carries placeholder text.
	white := image.NewUniform(colorWhite)
	for _, region := range []Region{layout.NameArea, layout.ScoreArea, layout.DateArea} {
		draw.Draw(overlay, region.Resolve(width), white, image.Point{}, draw.Src)
	}

	drawCentered(overlay, faces.name, req.RegistrantName, layout.NameTop, colorBlack)
	drawCentered(overlay, faces.label, ParticipationCaption, layout.CaptionTop, colorBlack)
	drawCentered(overlay, faces.label, ScoreCaption, layout.ScoreCaptionTop, colorBlack)
	drawCentered(overlay, faces.score, fmt.Sprintf("%d%%", req.Result.RoundedScore()), layout.ScoreTop, colorGold)

	if date, ok := r.certificateDate(layout, req); ok {
		drawText(overlay, faces.date, date.Format(dateLayout), layout.DateAnchor.X, layout.DateAnchor.Y, colorBlack)
	}

	draw.Draw(base, base.Bounds(), overlay, image.Point{}, draw.Over)
	// Same as dropping the alpha band: the template colors are kept as they are.
	for i := 3; i < len(base.Pix); i += 4 {
		base.Pix[i] = 0xff
	}
	return base
}

func (r *Renderer) certificateDate(layout Layout, req Request) (time.Time, bool) {
	switch layout.DateSource {
	case DateFromSessionStart:
		return req.SessionStartedAt, !req.SessionStartedAt.IsZero()
	default:
		if req.Result.CreatedAt.IsZero() {
			return r.now(), true
		}
		return req.Result.CreatedAt, true
	}
}

// TextOrigin returns where s starts when centered on an image of the given width.
func TextOrigin(face font.Face, s string, imageWidth int) int {
	return CenterX(imageWidth, MeasureText(face, s))
}

func drawCentered(dst draw.Image, face font.Face, s string, top int, c color.Color) {
	if s == "" {
		return
	}
	drawText(dst, face, s, TextOrigin(face, s, dst.Bounds().Dx()), top, c)
}

// drawText places s with its ascender line at top.
func drawText(dst draw.Image, face font.Face, s string, x, top int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(top) + face.Metrics().Ascent},
	}
	d.DrawString(s)
}

func loadTemplate(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return nil, fmt.Errorf("open certificate template: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateInvalid, err)
	}
	b := src.Bounds()
	base := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(base, base.Bounds(), src, b.Min, draw.Src)
	return base, nil
}

// writePNG creates dir/stem.png, or dir/stem_N.png when an earlier render in the same
// second already took the name. Existing files are never overwritten.
func writePNG(dir, stem string, img image.Image) (string, error) {
	for n := 0; n < maxNameAttempts; n++ {
		name := stem + ".png"
		if n > 0 {
			name = fmt.Sprintf("%s_%d.png", stem, n)
		}
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create certificate file: %w", err)
		}
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(f, img); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("encode certificate: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close certificate file: %w", err)
		}
		return name, nil
	}
	return "", fmt.Errorf("create certificate file: no free name for %s", stem)
}
