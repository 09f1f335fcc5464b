// Package labels renders printable A4 sheets of QR labels for device tags.
// The QR payload is the device tag itself; the audit scanner resolves it
// through db.FindDeviceByTag.
package labels

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

type Entry struct {
	Tag  string // encoded in the QR and printed beneath it
	Name string // optional second line, e.g. model
}

type Layout struct {
	Cols       int
	Rows       int
	MarginTop  float64 // mm
	MarginLeft float64
	GapX       float64
	GapY       float64
}

// DefaultLayout fits a common 3x8 adhesive label sheet.
func DefaultLayout() Layout {
	return Layout{Cols: 3, Rows: 8, MarginTop: 10, MarginLeft: 7, GapX: 2.5, GapY: 0}
}

// Sheet lays the entries out on as many A4 pages as needed and returns the
// PDF bytes.
func Sheet(entries []Entry, lay Layout) ([]byte, error) {
	if lay.Cols < 1 || lay.Rows < 1 {
		return nil, fmt.Errorf("labels: layout needs at least one column and row")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 9)

	pageWidth, pageHeight := 210.0, 297.0
	availW := pageWidth - lay.MarginLeft*2
	availH := pageHeight - lay.MarginTop*2
	labelW := (availW - float64(lay.Cols-1)*lay.GapX) / float64(lay.Cols)
	labelH := (availH - float64(lay.Rows-1)*lay.GapY) / float64(lay.Rows)

	perPage := lay.Cols * lay.Rows
	for i, e := range entries {
		if i%perPage == 0 {
			pdf.AddPage()
		}
		idx := i % perPage
		col := idx % lay.Cols
		row := idx / lay.Cols
		x := lay.MarginLeft + float64(col)*(labelW+lay.GapX)
		y := lay.MarginTop + float64(row)*(labelH+lay.GapY)

		png, err := qrcode.Encode(e.Tag, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("labels: encode %q: %w", e.Tag, err)
		}

		imgName := fmt.Sprintf("qr_%d", i)
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader(imgName, opts, bytes.NewReader(png))

		qrSize := labelH * 0.6
		if qrSize > labelW {
			qrSize = labelW * 0.9
		}
		qrX := x + (labelW-qrSize)/2
		pdf.ImageOptions(imgName, qrX, y+1, qrSize, qrSize, false, opts, 0, "")

		pdf.SetXY(x, y+1+qrSize)
		pdf.CellFormat(labelW, 4, e.Tag, "", 2, "C", false, 0, "")
		if e.Name != "" {
			pdf.SetFont("Arial", "", 7)
			pdf.CellFormat(labelW, 3.5, e.Name, "", 2, "C", false, 0, "")
			pdf.SetFont("Arial", "B", 9)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
