package labels

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

const (
	labelFontFamily    = "LabelFont"
	fallbackFontFamily = "Helvetica"
)

// ErrNoPages is returned for an empty layout; fpdf would emit a blank page.
var ErrNoPages = errors.New("label document has no pages")

// WarningCode classifies non-fatal rendering problems.
type WarningCode string

// WarnFontFallback means no configured font could be loaded and a core face was used.
const WarnFontFallback WarningCode = "font_fallback"

// Warning is a non-fatal rendering problem surfaced to the caller.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

// DefaultFontPaths lists the script-capable fonts searched for by default.
func DefaultFontPaths() []string {
	return []string{
		"fonts/NotoSansThai-Regular.ttf",
		"NotoSansThai-Regular.ttf",
		"fonts/THSarabunNew.ttf",
		"THSarabunNew.ttf",
	}
}

// PDFWriter serializes laid-out pages into a PDF document.
type PDFWriter struct {
	fontPaths []string
	logger    *zap.Logger
}

// NewPDFWriter builds a writer that tries fontPaths in order.
func NewPDFWriter(fontPaths []string, logger *zap.Logger) *PDFWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFWriter{fontPaths: fontPaths, logger: logger}
}

// Write renders pages onto grid-sized pages and writes the PDF to out.
// Font problems are reported as warnings; only document errors fail the call.
func (w *PDFWriter) Write(out io.Writer, pages []Page, grid Grid, style Style) ([]Warning, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: grid.PageWidth, Ht: grid.PageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)

	family, translate, warnings := w.loadFont(pdf)

	images := make(map[string]string)
	for _, page := range pages {
		pdf.AddPage()
		pdf.SetFont(family, "", style.FontSize)
		for _, cell := range page.Cells {
			if err := w.drawCell(pdf, cell, style, translate, images); err != nil {
				return warnings, err
			}
		}
	}

	if err := pdf.Output(out); err != nil {
		return warnings, fmt.Errorf("write pdf: %w", err)
	}
	return warnings, nil
}

// Render is a convenience wrapper returning the PDF bytes.
func (w *PDFWriter) Render(pages []Page, grid Grid, style Style) ([]byte, []Warning, error) {
	var buf bytes.Buffer
	warnings, err := w.Write(&buf, pages, grid, style)
	if err != nil {
		return nil, warnings, err
	}
	return buf.Bytes(), warnings, nil
}

func (w *PDFWriter) loadFont(pdf *fpdf.Fpdf) (string, func(string) string, []Warning) {
	var tried []string
	for _, path := range w.fontPaths {
		if path == "" {
			continue
		}
		tried = append(tried, path)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		pdf.AddUTF8Font(labelFontFamily, "", path)
		if pdf.Err() {
			w.logger.Warn("label font rejected", zap.String("path", path), zap.Error(pdf.Error()))
			pdf.ClearError()
			continue
		}
		w.logger.Debug("label font loaded", zap.String("path", path))
		return labelFontFamily, func(s string) string { return s }, nil
	}

	warning := Warning{
		Code:    WarnFontFallback,
		Message: fmt.Sprintf("no usable label font among [%s]; falling back to %s, unsupported characters are replaced", strings.Join(tried, ", "), fallbackFontFamily),
	}
	w.logger.Warn("label font fallback", zap.Strings("tried", tried), zap.String("fallback", fallbackFontFamily))
	return fallbackFontFamily, pdf.UnicodeTranslatorFromDescriptor(""), []Warning{warning}
}

func (w *PDFWriter) drawCell(pdf *fpdf.Fpdf, cell Cell, style Style, translate func(string) string, images map[string]string) error {
	if cell.Border {
		pdf.SetDrawColor(170, 170, 170)
		pdf.Rect(cell.Frame.X, cell.Frame.Y, cell.Frame.W, cell.Frame.H, "D")
	}

	pdf.SetXY(cell.TextBox.X, cell.TextBox.Y)
	pdf.MultiCell(cell.TextBox.W, style.LineHeight, translate(strings.Join(cell.Lines, "\n")), "", "L", false)

	if cell.QR.Payload != "" {
		name, err := registerQR(pdf, cell.QR.Payload, images)
		if err != nil {
			return err
		}
		box := cell.QR.Box
		pdf.ImageOptions(name, box.X, box.Y, box.W, box.H, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	if pdf.Err() {
		return fmt.Errorf("draw label %d: %w", cell.Record, pdf.Error())
	}
	return nil
}

func registerQR(pdf *fpdf.Fpdf, payload string, images map[string]string) (string, error) {
	if name, ok := images[payload]; ok {
		return name, nil
	}
	code, err := EncodeQR(payload)
	if err != nil {
		return "", err
	}
	png, err := code.PNG()
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("qr-%d", len(images))
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	if pdf.Err() {
		return "", fmt.Errorf("register qr image: %w", pdf.Error())
	}
	images[payload] = name
	return name, nil
}
