// Package labels tiles label records over a paginated grid of fixed-size cells
// and serializes the result to PDF.
//
// Layout is a pure function of the records and the grid. All measurements are
// in a single linear unit (millimeters by convention). The engine does not
// check that the grid fits the page; off-page placement is the caller's
// concern.
package labels

import (
	"errors"
	"fmt"

	"github.com/mamadbah2/assettracker/internal/domain/models"
)

// ErrInvalidGrid indicates a grid that cannot assign cells.
var ErrInvalidGrid = errors.New("invalid label grid")

// Grid describes page and cell geometry.
type Grid struct {
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
	Margin     float64 `json:"margin"`
	CellWidth  float64 `json:"cell_width"`
	CellHeight float64 `json:"cell_height"`
	Columns    int     `json:"columns_per_row"`
	Rows       int     `json:"rows_per_page"`
}

// DefaultGrid is an A4 sheet of 3x8 labels of 62x29 mm.
func DefaultGrid() Grid {
	return Grid{
		PageWidth:  210,
		PageHeight: 297,
		Margin:     5,
		CellWidth:  62,
		CellHeight: 29,
		Columns:    3,
		Rows:       8,
	}
}

// Validate rejects grids that cannot place a single cell.
func (g Grid) Validate() error {
	switch {
	case g.Columns < 1:
		return fmt.Errorf("%w: columns per row must be >= 1, got %d", ErrInvalidGrid, g.Columns)
	case g.Rows < 1:
		return fmt.Errorf("%w: rows per page must be >= 1, got %d", ErrInvalidGrid, g.Rows)
	case g.CellWidth <= 0 || g.CellHeight <= 0:
		return fmt.Errorf("%w: cell size must be positive, got %gx%g", ErrInvalidGrid, g.CellWidth, g.CellHeight)
	case g.PageWidth <= 0 || g.PageHeight <= 0:
		return fmt.Errorf("%w: page size must be positive, got %gx%g", ErrInvalidGrid, g.PageWidth, g.PageHeight)
	}
	return nil
}

// Capacity is the number of cells on one page.
func (g Grid) Capacity() int {
	return g.Columns * g.Rows
}

// Style holds the fixed in-cell measurements.
type Style struct {
	Border bool
	// TextInsetX and TextInsetY offset the text block from the cell's top-left corner.
	TextInsetX float64
	TextInsetY float64
	LineHeight float64
	// QRReserve is the trailing strip excluded from the text block.
	QRReserve       float64
	QRMax           float64
	QRVerticalInset float64
	QREdgeMargin    float64
	NameMaxRunes    int
	FontSize        float64
}

// DefaultStyle matches the 62x29 mm office label stock.
func DefaultStyle() Style {
	return Style{
		Border:          true,
		TextInsetX:      2,
		TextInsetY:      3,
		LineHeight:      5,
		QRReserve:       24,
		QRMax:           22,
		QRVerticalInset: 6,
		QREdgeMargin:    2,
		NameMaxRunes:    28,
		FontSize:        10,
	}
}

// Rect is an axis-aligned box, origin top-left.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Glyph is a QR code placed at Box encoding Payload.
type Glyph struct {
	Payload string `json:"payload"`
	Box     Rect   `json:"box"`
}

// Cell is one placed label.
type Cell struct {
	// Record is the zero-based position of the source record.
	Record  int      `json:"record"`
	Column  int      `json:"column"`
	Row     int      `json:"row"`
	Frame   Rect     `json:"frame"`
	TextBox Rect     `json:"text_box"`
	Lines   []string `json:"lines"`
	QR      Glyph    `json:"qr"`
	Border  bool     `json:"border"`
}

// Page is one output page; Number starts at 1.
type Page struct {
	Number int    `json:"number"`
	Cells  []Cell `json:"cells"`
}

// Layout assigns records to pages and cells row-major. An empty record list
// yields no pages.
func Layout(records []models.LabelRecord, grid Grid, style Style) ([]Page, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	capacity := grid.Capacity()
	pages := make([]Page, 0, (len(records)+capacity-1)/capacity)

	for i, rec := range records {
		cellIndex := i % capacity
		if cellIndex == 0 {
			pages = append(pages, Page{Number: len(pages) + 1})
		}
		page := &pages[len(pages)-1]
		page.Cells = append(page.Cells, placeCell(i, cellIndex, rec, grid, style))
	}

	return pages, nil
}

func placeCell(i, cellIndex int, rec models.LabelRecord, grid Grid, style Style) Cell {
	column := cellIndex % grid.Columns
	row := cellIndex / grid.Columns

	frame := Rect{
		X: grid.Margin + float64(column)*grid.CellWidth,
		Y: grid.Margin + float64(row)*grid.CellHeight,
		W: grid.CellWidth,
		H: grid.CellHeight,
	}

	lines := []string{rec.AssetTag, truncateRunes(rec.Name, style.NameMaxRunes), rec.Branch}

	textBox := Rect{
		X: frame.X + style.TextInsetX,
		Y: frame.Y + style.TextInsetY,
		W: frame.W - style.QRReserve,
		H: style.LineHeight * float64(len(lines)),
	}

	qrSize := min(style.QRMax, frame.H-style.QRVerticalInset)
	qr := Glyph{
		Payload: QRPayload(rec),
		Box: Rect{
			X: frame.X + frame.W - (qrSize + style.QREdgeMargin),
			Y: frame.Y + (frame.H-qrSize)/2,
			W: qrSize,
			H: qrSize,
		},
	}

	return Cell{
		Record:  i,
		Column:  column,
		Row:     row,
		Frame:   frame,
		TextBox: textBox,
		Lines:   lines,
		QR:      qr,
		Border:  style.Border,
	}
}

// QRPayload is the asset tag, or the name when the tag is empty.
func QRPayload(rec models.LabelRecord) string {
	if rec.AssetTag != "" {
		return rec.AssetTag
	}
	return rec.Name
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
