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

// Package xlsx reads an XLSX workbook (spec.md §4.7) with
// xuri/excelize/v2, one Unit per worksheet, headers taken from the first
// non-blank row and trailing all-blank rows/columns trimmed per spec.md's
// S3 testable property.
package xlsx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/safety"
	"github.com/corvidlabs/docforge/pkg/xerrors"
)

const maxImagePartSize = 64 << 20

func readAllLimited(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxImagePartSize))
}

// Metadata is the XLSX-specific metadata surface.
type Metadata struct {
	model.OfficeMetadata
	SheetCount int `json:"sheet_count"`
}

// Sheet is one worksheet's tabular content.
type Sheet struct {
	Number  int
	Name    string
	Headers []string
	Table   model.Table
	// Data is the header-keyed row projection spec.md §4.7 calls
	// "records": one map per data row, keyed by Headers.
	Data   []map[string]string `json:"data,omitempty"`
	Images []model.Image
}

// Content is a decoded XLSX workbook.
type Content struct {
	Metadata Metadata
	Sheets   []Sheet
}

func (c *Content) IterateUnits() []model.Unit {
	units := make([]model.Unit, len(c.Sheets))
	for i, s := range c.Sheets {
		units[i] = model.Unit{Number: s.Number, Text: sheetText(s), Tables: []model.Table{s.Table}, Images: s.Images}
	}
	return units
}
func (c *Content) IterateImages() []model.Image {
	var out []model.Image
	for _, s := range c.Sheets {
		out = append(out, s.Images...)
	}
	return out
}
func (c *Content) FullText() string       { return model.JoinUnitText(c.IterateUnits()) }
func (c *Content) TypeTag() model.TypeTag { return model.TagXlsx }

// sheetText renders a fixed-width, right-aligned table, mirroring
// pkg/decode/ods's sheet-text projection.
func sheetText(s Sheet) string {
	widths := make([]int, len(s.Headers))
	for i, h := range s.Headers {
		widths[i] = len(h)
	}
	for _, row := range s.Table.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	var b strings.Builder
	writeRow := func(row []string) {
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(' ')
			}
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			b.WriteString(strings.Repeat(" ", w-len(cell)))
			b.WriteString(cell)
		}
	}
	if len(s.Headers) > 0 {
		writeRow(s.Headers)
	}
	for _, row := range s.Table.Rows {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		writeRow(row)
	}
	return b.String()
}

// Decode parses XLSX bytes per spec.md §4.7.
func Decode(data []byte, path string) (*Content, error) {
	if safety.OOXMLEncrypted(bytes.NewReader(data)) {
		return nil, xerrors.Encrypted("xlsx")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, xerrors.LegacyParse("malformed XLSX workbook", err)
	}
	defer f.Close()

	meta := Metadata{}
	meta.PopulateFromPath(path)
	if props, err := f.GetDocProps(); err == nil && props != nil {
		meta.Title = props.Title
		meta.Author = props.Creator
		meta.Creator = props.Creator
		meta.Subject = props.Subject
		meta.Keywords = props.Keywords
		meta.Category = props.Category
		meta.Comments = props.Description
		meta.Created = props.Created
		meta.Modified = props.Modified
		meta.Revision = props.Revision
	}

	zr, zerr := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	var nameToPart map[string]string
	if zerr == nil {
		nameToPart = sheetNameToPart(zr)
	}

	var sheets []Sheet
	imgIdx := 0
	for i, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			sheets = append(sheets, Sheet{Number: i + 1, Name: name})
			continue
		}
		rows = trimTrailingBlankRows(rows)
		maxCols := 0
		for _, row := range rows {
			if len(row) > maxCols {
				maxCols = len(row)
			}
		}
		rows = trimTrailingBlankColumns(rows, maxCols)
		for len(rows) > 0 && rowBlank(rows[0]) {
			rows = rows[1:]
		}

		sh := Sheet{Number: i + 1, Name: name}
		if len(rows) > 0 {
			sh.Headers = normalizeHeaders(rows[0])
			sh.Table = model.Table{Rows: rows[1:]}
			sh.Data = buildRecords(sh.Headers, rows[1:])
		}
		if zerr == nil {
			if part, ok := nameToPart[name]; ok {
				sh.Images = sheetImages(zr, part)
				for j := range sh.Images {
					imgIdx++
					sh.Images[j].ImageIndex = imgIdx
				}
			}
		}
		sheets = append(sheets, sh)
	}
	meta.SheetCount = len(sheets)

	// Fall back to attaching every xl/media/* part to the first sheet
	// when the workbook's own sheet/relationship structure couldn't be
	// resolved (malformed workbook.xml) — better than dropping pictures
	// entirely.
	if zerr == nil && len(nameToPart) == 0 && len(sheets) > 0 {
		sheets[0].Images = extractMediaImagesFallback(zr)
	}

	return &Content{Metadata: meta, Sheets: sheets}, nil
}

// normalizeHeaders substitutes "Unnamed: i" for a blank header cell, the
// convention spec.md §4.7's Testable Property S3 names.
func normalizeHeaders(row []string) []string {
	out := make([]string, len(row))
	for i, h := range row {
		if strings.TrimSpace(h) == "" {
			out[i] = fmt.Sprintf("Unnamed: %d", i)
		} else {
			out[i] = h
		}
	}
	return out
}

// buildRecords projects rows into header-keyed maps (spec.md §4.7's
// "data" field).
func buildRecords(headers []string, rows [][]string) []map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make([]map[string]string, len(rows))
	for i, row := range rows {
		rec := make(map[string]string, len(headers))
		for c, h := range headers {
			if c < len(row) {
				rec[h] = row[c]
			} else {
				rec[h] = ""
			}
		}
		out[i] = rec
	}
	return out
}

// trimTrailingBlankRows drops trailing rows whose cells are all empty,
// which excelize's GetRows otherwise reports when a sheet's used-range
// extends past its real data (spec.md Testable Property S3).
func trimTrailingBlankRows(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && rowBlank(rows[end-1]) {
		end--
	}
	return rows[:end]
}

// trimTrailingBlankColumns drops columns past the rightmost column that
// has any non-blank cell in any row, mirroring pkg/decode/ods's column
// trim (spec.md §4.7).
func trimTrailingBlankColumns(rows [][]string, maxCols int) [][]string {
	last := -1
	for c := 0; c < maxCols; c++ {
		for _, row := range rows {
			if c < len(row) && strings.TrimSpace(row[c]) != "" {
				last = c
				break
			}
		}
	}
	if last < 0 {
		return rows
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		end := last + 1
		if end > len(row) {
			end = len(row)
		}
		out[i] = row[:end]
	}
	return out
}

func rowBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// sheetNameToPart resolves every worksheet name to its internal zip part
// (e.g. "xl/worksheets/sheet1.xml") by walking xl/workbook.xml's sheet
// list through xl/_rels/workbook.xml.rels — excelize doesn't expose this
// mapping directly, and it's what per-sheet picture resolution needs.
func sheetNameToPart(zr *zip.Reader) map[string]string {
	rels := readRelsZip(zr, "xl/_rels/workbook.xml.rels")
	if rels == nil {
		return nil
	}
	raw := readZipFile(zr, "xl/workbook.xml")
	if raw == nil {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = false
	out := map[string]string{}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var name, rid string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				name = a.Value
			case "id":
				if a.Name.Space != "" {
					rid = a.Value
				}
			}
		}
		if name == "" || rid == "" {
			continue
		}
		if target, ok := rels[rid]; ok {
			out[name] = resolveRelativeTarget("xl", target)
		}
	}
	return out
}

// sheetImages resolves a worksheet's <drawing> relationship through its
// rels part to the drawing XML, then to every picture it anchors
// (spec.md §4.7: resolve each picture through sheetN.xml.rels → drawing
// rels, attached to its real sheet).
func sheetImages(zr *zip.Reader, sheetPart string) []model.Image {
	sheetRels := readRelsZip(zr, relsPathForZip(sheetPart))
	if sheetRels == nil {
		return nil
	}
	raw := readZipFile(zr, sheetPart)
	if raw == nil {
		return nil
	}
	drawRID := findDrawingRelID(raw)
	if drawRID == "" {
		return nil
	}
	drawTarget, ok := sheetRels[drawRID]
	if !ok {
		return nil
	}
	drawingPath := resolveRelativeTarget(dirOf(sheetPart), drawTarget)
	drawingRaw := readZipFile(zr, drawingPath)
	if drawingRaw == nil {
		return nil
	}
	drawingRels := readRelsZip(zr, relsPathForZip(drawingPath))
	return decodeDrawingPictures(zr, drawingRaw, drawingRels, dirOf(drawingPath))
}

func findDrawingRelID(sheetXML []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(sheetXML))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "drawing" {
			continue
		}
		for _, a := range se.Attr {
			if a.Name.Local == "id" && a.Name.Space != "" {
				return a.Value
			}
		}
	}
	return ""
}

// decodeDrawingPictures walks a drawing part's xdr:pic elements, pulling
// the shape name/description, the a:blip relationship, and the a:ext
// EMU extents used as a fallback size when the raster itself can't be
// decoded.
func decodeDrawingPictures(zr *zip.Reader, raw []byte, rels map[string]string, drawingDir string) []model.Image {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = false
	var images []model.Image
	idx := 0
	inPic := false
	var curName, curDescr, curRID string
	var curCX, curCY int64
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "pic":
				inPic = true
				curName, curDescr, curRID, curCX, curCY = "", "", "", 0, 0
			case "cNvPr":
				if inPic {
					for _, a := range se.Attr {
						switch a.Name.Local {
						case "name":
							curName = a.Value
						case "descr":
							curDescr = a.Value
						}
					}
				}
			case "blip":
				if inPic {
					for _, a := range se.Attr {
						if a.Name.Local == "embed" {
							curRID = a.Value
						}
					}
				}
			case "ext":
				if inPic {
					for _, a := range se.Attr {
						switch a.Name.Local {
						case "cx":
							if v, err := strconv.ParseInt(a.Value, 10, 64); err == nil {
								curCX = v
							}
						case "cy":
							if v, err := strconv.ParseInt(a.Value, 10, 64); err == nil {
								curCY = v
							}
						}
					}
				}
			}
		case xml.EndElement:
			if se.Name.Local == "pic" && inPic {
				idx++
				images = append(images, buildSheetImage(zr, rels, drawingDir, idx, curRID, curName, curDescr, curCX, curCY))
				inPic = false
			}
		}
	}
	return images
}

// emusPerPixel is 914400 EMU/inch divided by the 96 DPI OOXML assumes for
// on-screen rendering.
const emusPerPixel = 9525

func emuToPixels(emu int64) int { return int(emu / emusPerPixel) }

func buildSheetImage(zr *zip.Reader, rels map[string]string, drawingDir string, idx int, rid, name, descr string, cx, cy int64) model.Image {
	img := model.Image{ImageIndex: idx, Caption: name, Description: descr}
	target, ok := rels[rid]
	if !ok {
		img.Error = "missing drawing relationship " + rid
		return img
	}
	mediaPath := resolveRelativeTarget(drawingDir, target)
	f := findZipFile(zr, mediaPath)
	if f == nil {
		img.Error = "missing media part " + mediaPath
		return img
	}
	rc, err := f.Open()
	if err != nil {
		img.Error = err.Error()
		return img
	}
	defer rc.Close()
	raw, err := readAllLimited(rc)
	if err != nil {
		img.Error = err.Error()
		return img
	}
	img.Data = raw
	img.Size = len(raw)
	img.ContentType = safety.ImageContentType(raw)
	if w, h, ok := safety.ImageDimensions(raw); ok {
		img.Width, img.Height = &w, &h
	} else if cx > 0 && cy > 0 {
		w, h := emuToPixels(cx), emuToPixels(cy)
		img.Width, img.Height = &w, &h
	}
	return img
}

// extractMediaImagesFallback reads every xl/media/* part directly,
// bypassing worksheet/drawing resolution entirely — used only when that
// resolution itself couldn't be performed.
func extractMediaImagesFallback(zr *zip.Reader) []model.Image {
	var names []string
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "xl/media/") {
			names = append(names, f.Name)
		}
	}
	var out []model.Image
	for i, name := range names {
		img := model.Image{ImageIndex: i + 1}
		f := findZipFile(zr, name)
		if f == nil {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			img.Error = err.Error()
			out = append(out, img)
			continue
		}
		raw, err := readAllLimited(rc)
		rc.Close()
		if err != nil {
			img.Error = err.Error()
			out = append(out, img)
			continue
		}
		img.Data = raw
		img.Size = len(raw)
		img.ContentType = safety.ImageContentType(raw)
		if w, h, ok := safety.ImageDimensions(raw); ok {
			img.Width, img.Height = &w, &h
		}
		out = append(out, img)
	}
	return out
}

func readZipFile(zr *zip.Reader, name string) []byte {
	f := findZipFile(zr, name)
	if f == nil {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil
	}
	defer rc.Close()
	raw, err := readAllLimited(rc)
	if err != nil {
		return nil
	}
	return raw
}

func readRelsZip(zr *zip.Reader, path string) map[string]string {
	raw := readZipFile(zr, path)
	if raw == nil {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = false
	out := map[string]string{}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" {
			out[id] = target
		}
	}
	return out
}

// resolveRelativeTarget resolves a relationship Target (often "../"
// prefixed) against the directory the relationship's .rels part lives
// alongside, per the OPC part-naming convention.
func resolveRelativeTarget(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	parts := strings.Split(baseDir, "/")
	for strings.HasPrefix(target, "../") {
		target = strings.TrimPrefix(target, "../")
		if len(parts) > 0 {
			parts = parts[:len(parts)-1]
		}
	}
	if len(parts) == 0 || (len(parts) == 1 && parts[0] == "") {
		return target
	}
	return strings.Join(parts, "/") + "/" + target
}

func relsPathForZip(part string) string {
	idx := strings.LastIndex(part, "/")
	if idx < 0 {
		return "_rels/" + part + ".rels"
	}
	dir, file := part[:idx], part[idx+1:]
	return dir + "/_rels/" + file + ".rels"
}

func dirOf(part string) string {
	idx := strings.LastIndex(part, "/")
	if idx < 0 {
		return ""
	}
	return part[:idx]
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}
