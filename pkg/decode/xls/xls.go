/*
 *  MIT License
 *
 *  Copyright (c) 2026 docforge contributors
 *
 *  Permission is hereby granted, free of charge, to any person obtaining a copy
 *  of this software and associated documentation files (the "Software"), to deal
 *  in the Software without restriction, including without limitation the rights
 *  to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *  copies of the Software, and to permit persons to whom the Software is
 *  furnished to do so, subject to the following conditions:
 *
 *  The above copyright notice and this permission notice shall be included in all
 *  copies or substantial portions of the Software.
 *
 *  THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *  IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *  FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *  AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *  LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *  OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *  SOFTWARE.
 *
 */

// Package xls reads a legacy BIFF workbook (spec.md §4.9) with
// shakinm/xlsReader, one Unit per sheet.
package xls

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/shakinm/xlsReader/xls"

	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/safety"
	"github.com/corvidlabs/docforge/pkg/xerrors"
)

// Metadata is the XLS-specific metadata surface.
type Metadata struct {
	model.OfficeMetadata
	SheetCount int `json:"sheet_count"`
}

// Sheet is one legacy worksheet's tabular content.
type Sheet struct {
	Number int
	Name   string
	Table  model.Table
}

// Content is a decoded legacy XLS workbook.
type Content struct {
	Metadata Metadata
	Sheets   []Sheet
	Images   []model.Image
}

func (c *Content) IterateUnits() []model.Unit {
	units := make([]model.Unit, len(c.Sheets))
	for i, s := range c.Sheets {
		img := c.Images
		if i > 0 {
			img = nil // document-global images attach to the first sheet's unit
		}
		units[i] = model.Unit{Number: s.Number, Text: sheetText(s.Table), Tables: []model.Table{s.Table}, Images: img}
	}
	return units
}
func (c *Content) IterateImages() []model.Image { return c.Images }
func (c *Content) FullText() string              { return model.JoinUnitText(c.IterateUnits()) }
func (c *Content) TypeTag() model.TypeTag        { return model.TagXls }

func sheetText(t model.Table) string {
	var b strings.Builder
	for i, row := range t.Rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.Join(row, "\t"))
	}
	return b.String()
}

// Decode parses legacy BIFF workbook bytes per spec.md §4.9.
func Decode(data []byte, path string) (c *Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, xerrors.LegacyParse("panic decoding XLS workbook", fmt.Errorf("%v", r))
		}
	}()

	ole, oerr := safety.OpenOLE2(bytes.NewReader(data))
	var workbookStream []byte
	if oerr == nil {
		if wb, ok := ole.Stream("Workbook"); ok {
			workbookStream = wb
		} else if wb, ok := ole.Stream("Book"); ok {
			workbookStream = wb
		}
		if workbookStream != nil && safety.XLSEncrypted(workbookStream) {
			return nil, xerrors.Encrypted("xls")
		}
	}

	wb, werr := xls.OpenReader(bytes.NewReader(data))
	if werr != nil {
		return nil, xerrors.LegacyParse("malformed BIFF workbook", werr)
	}

	meta := Metadata{}
	meta.PopulateFromPath(path)
	if oerr == nil {
		if si, ok := ole.Stream("SummaryInformation"); ok {
			populateSummaryInfo(&meta.OfficeMetadata, si)
		}
	}

	numSheets := wb.GetNumberSheets()
	var sheets []Sheet
	for i := 0; i < numSheets; i++ {
		sheet, serr := wb.GetSheet(i)
		if serr != nil {
			continue
		}
		sh := Sheet{Number: i + 1, Name: sheet.GetName()}
		numRows := sheet.GetNumberRows()
		for r := 0; r < numRows; r++ {
			row, rerr := sheet.GetRow(r)
			if rerr != nil || row == nil {
				sh.Table.Rows = append(sh.Table.Rows, nil)
				continue
			}
			cols := row.GetCols()
			cells := make([]string, len(cols))
			for ci, cell := range cols {
				cells[ci] = cell.GetString()
			}
			sh.Table.Rows = append(sh.Table.Rows, cells)
		}
		sh.Table.Rows = trimTrailingBlankRows(sh.Table.Rows)
		sheets = append(sheets, sh)
	}
	meta.SheetCount = len(sheets)

	var images []model.Image
	if workbookStream != nil {
		images = extractOfficeArtBlips(workbookStream)
	}

	return &Content{Metadata: meta, Sheets: sheets, Images: images}, nil
}

// populateSummaryInfo fills the shared metadata fields from a parsed
// compound-file summary stream (spec.md §4.9: "Metadata is read from the
// compound-file summary stream").
func populateSummaryInfo(m *model.OfficeMetadata, raw []byte) {
	info, ok := safety.ReadSummaryInfo(raw)
	if !ok {
		return
	}
	if info.Title != "" {
		m.Title = info.Title
	}
	if info.Subject != "" {
		m.Subject = info.Subject
	}
	if info.Author != "" {
		m.Author = info.Author
		m.Creator = info.Author
	}
	if info.Keywords != "" {
		m.Keywords = info.Keywords
	}
	if info.Comments != "" {
		m.Comments = info.Comments
	}
	if info.LastAuthor != "" {
		m.LastSavedBy = info.LastAuthor
	}
	if info.RevNumber != "" {
		m.Revision = info.RevNumber
	}
	if info.Created != "" {
		m.Created = info.Created
	}
	if info.LastSaved != "" {
		m.Modified = info.LastSaved
	}
	m.PageCount = info.PageCount
	m.WordCount = info.WordCount
	m.CharCount = info.CharCount
}

// extractOfficeArtBlips walks the Workbook/Book BIFF stream's
// MsoDrawingGroup/MsoDrawing records (opcodes 0x00EB/0x00EC), concatenates
// their Escher payload, and pulls every embedded BLIP out of the BLIP
// store the same way pkg/decode/ppt walks its own Pictures stream — both
// are the same OfficeArt record layout, just hosted in different
// containers (spec.md §4.9).
func extractOfficeArtBlips(stream []byte) []model.Image {
	const (
		opMsoDrawingGroup = 0x00EB
		opMsoDrawing      = 0x00EC
	)
	var escher []byte
	pos := 0
	for pos+4 <= len(stream) {
		opcode := binary.LittleEndian.Uint16(stream[pos:])
		size := int(binary.LittleEndian.Uint16(stream[pos+2:]))
		pos += 4
		if pos+size > len(stream) {
			break
		}
		if opcode == opMsoDrawingGroup || opcode == opMsoDrawing {
			escher = append(escher, stream[pos:pos+size]...)
		}
		pos += size
	}
	if len(escher) == 0 {
		return nil
	}
	return scanEscherBlips(escher)
}

// scanEscherBlips walks a flat Escher (OfficeArt) byte stream for BSE
// (0xF007) entries and the BLIP atoms they wrap, per [MS-ODRAW]'s
// documented per-format header sizes.
func scanEscherBlips(data []byte) []model.Image {
	const msofbtBSE = 0xF007
	var images []model.Image
	idx := 1
	pos := 0
	for pos+8 <= len(data) {
		recVerInstance := binary.LittleEndian.Uint16(data[pos : pos+2])
		recType := binary.LittleEndian.Uint16(data[pos+2 : pos+4])
		recLen := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
		recInstance := recVerInstance >> 4
		recVer := recVerInstance & 0x0F
		dataStart := pos + 8

		if recType == msofbtBSE {
			// BSE's fixed metadata header is 36 bytes; the embedded BLIP
			// record (when the image is stored inline rather than
			// referenced externally) follows immediately, so resume the
			// scan right there instead of skipping the whole record.
			pos = dataStart + 36
			continue
		}

		var headerSize int
		var contentType string
		switch recType {
		case 0xF01A, 0xF01B: // EMF, WMF
			if recInstance&0x10 != 0 {
				headerSize = 66
			} else {
				headerSize = 50
			}
			if recType == 0xF01A {
				contentType = "image/x-emf"
			} else {
				contentType = "image/x-wmf"
			}
		case 0xF01D, 0xF01E: // JPEG, PNG
			if recInstance&0x10 != 0 {
				headerSize = 33
			} else {
				headerSize = 17
			}
			if recType == 0xF01D {
				contentType = "image/jpeg"
			} else {
				contentType = "image/png"
			}
		case 0xF01F: // DIB
			if recInstance&0x10 != 0 {
				headerSize = 33
			} else {
				headerSize = 17
			}
			contentType = "image/bmp"
		default:
			if recVer == 0x0F {
				pos = dataStart // container: children follow immediately
			} else {
				if int(recLen) > len(data)-dataStart {
					return images
				}
				pos = dataStart + int(recLen)
			}
			continue
		}

		if int(recLen) > len(data)-dataStart {
			return images
		}
		img := model.Image{ImageIndex: idx, ContentType: contentType}
		if int(recLen) < headerSize {
			img.Error = "truncated BLIP record"
		} else if raw := data[dataStart+headerSize : dataStart+int(recLen)]; len(raw) == 0 {
			img.Error = "empty BLIP payload"
		} else {
			img.Data = append([]byte(nil), raw...)
			img.Size = len(img.Data)
			if w, h, ok := safety.ImageDimensions(img.Data); ok {
				img.Width, img.Height = &w, &h
			}
		}
		images = append(images, img)
		idx++
		pos = dataStart + int(recLen)
	}
	return images
}

func trimTrailingBlankRows(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && rowBlank(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func rowBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
