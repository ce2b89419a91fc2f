package labels

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamadbah2/assettracker/internal/domain/models"
)

func TestPDFWriterFallsBackWithoutFonts(t *testing.T) {
	writer := NewPDFWriter([]string{filepath.Join(t.TempDir(), "missing.ttf")}, zap.NewNop())

	records := sampleRecords(25)
	records[0].Name = "คอมพิวเตอร์ สำนักงาน"
	pages, err := Layout(records, DefaultGrid(), DefaultStyle())
	require.NoError(t, err)

	data, warnings, err := writer.Render(pages, DefaultGrid(), DefaultStyle())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnFontFallback, warnings[0].Code)
	assert.Contains(t, warnings[0].Message, "missing.ttf")

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Equal(t, 2, bytes.Count(data, []byte("/Type /Page\n")))
}

func TestPDFWriterReusesQRImages(t *testing.T) {
	writer := NewPDFWriter(nil, nil)
	records := []models.LabelRecord{
		{AssetTag: "0012500001", Name: "PC"},
		{AssetTag: "0012500001", Name: "PC copy"},
		{Name: ""},
	}
	pages, err := Layout(records, DefaultGrid(), DefaultStyle())
	require.NoError(t, err)

	data, _, err := writer.Render(pages, DefaultGrid(), DefaultStyle())
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(data, []byte("/Subtype /Image")))
}

func TestPDFWriterRejectsEmptyLayout(t *testing.T) {
	writer := NewPDFWriter(nil, zap.NewNop())

	pages, err := Layout(nil, DefaultGrid(), DefaultStyle())
	require.NoError(t, err)
	require.Empty(t, pages)

	var out bytes.Buffer
	_, err = writer.Write(&out, pages, DefaultGrid(), DefaultStyle())
	assert.ErrorIs(t, err, ErrNoPages)
	assert.Zero(t, out.Len())
}

func TestPDFWriterRejectsInvalidGrid(t *testing.T) {
	writer := NewPDFWriter(nil, nil)
	grid := DefaultGrid()
	grid.Rows = 0
	_, _, err := writer.Render(nil, grid, DefaultStyle())
	assert.ErrorIs(t, err, ErrInvalidGrid)
}
