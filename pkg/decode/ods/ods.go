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

// Package ods reads an OpenDocument Spreadsheet package (spec.md §4.12):
// one Unit per table:table, cells typed by office:value-type, row/column
// repetition honored but capped, trailing blank rows/columns trimmed.
package ods

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/odf"
	"github.com/corvidlabs/docforge/pkg/safety"
	"github.com/corvidlabs/docforge/pkg/xerrors"
	"github.com/corvidlabs/docforge/pkg/zipctx"
)

// maxRepeat caps number-rows-repeated/number-columns-repeated expansion
// for an empty row/column, per spec.md §4.12 and its Open Questions: a
// repeat count above this is collapsed to a single occurrence when the
// repeated content is itself empty, so huge empty regions are not
// materialized; repeated non-empty cells and rows are always expanded.
const maxRepeat = 100

// Metadata is the ODS-specific metadata surface.
type Metadata struct {
	model.OfficeMetadata
	Language   string `json:"language,omitempty"`
	SheetCount int    `json:"sheet_count"`
}

// Sheet is one Unit-bearing table:table.
type Sheet struct {
	Number      int
	Name        string
	ColumnNames []string
	Table       model.Table
}

// Content is a decoded ODS workbook.
type Content struct {
	Metadata Metadata
	Sheets   []Sheet
}

func (c *Content) IterateUnits() []model.Unit {
	units := make([]model.Unit, len(c.Sheets))
	for i, s := range c.Sheets {
		units[i] = model.Unit{Number: s.Number, Text: sheetText(s), Tables: []model.Table{s.Table}}
	}
	return units
}
func (c *Content) IterateImages() []model.Image { return nil }
func (c *Content) FullText() string             { return model.JoinUnitText(c.IterateUnits()) }
func (c *Content) TypeTag() model.TypeTag       { return model.TagOds }

// sheetText renders a fixed-width, right-aligned table the way the
// XLSX/XLS decoders render their sheet-text projections.
func sheetText(s Sheet) string {
	widths := make([]int, len(s.ColumnNames))
	for i, h := range s.ColumnNames {
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
	if len(s.ColumnNames) > 0 {
		writeRow(s.ColumnNames)
	}
	for _, row := range s.Table.Rows {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		writeRow(row)
	}
	return b.String()
}

// Decode parses ODS bytes per spec.md §4.12.
func Decode(data []byte, path string) (*Content, error) {
	zc, err := zipctx.Open(data, safety.DefaultZipBombLimits())
	if err != nil {
		return nil, err
	}
	defer zc.Close()

	if odf.Encrypted(zc) {
		return nil, xerrors.Encrypted("ods")
	}

	meta := Metadata{}
	meta.PopulateFromPath(path)
	if zc.Has("meta.xml") {
		if m, ok := odf.ReadMeta(zc); ok {
			meta.OfficeMetadata = m.OfficeMetadata
			meta.Language = m.Language
			meta.PopulateFromPath(path)
		}
	}

	if !zc.Has("content.xml") {
		return nil, xerrors.LegacyParse("missing content.xml")
	}
	raw, err := zc.ReadBytes("content.xml")
	if err != nil {
		return nil, err
	}

	sheets, err := decodeSheets(raw)
	if err != nil {
		return nil, xerrors.Failed(err)
	}
	meta.SheetCount = len(sheets)

	return &Content{Metadata: meta, Sheets: sheets}, nil
}

func decodeSheets(raw []byte) ([]Sheet, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = false
	var sheets []Sheet
	num := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sheets, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "table" {
			continue
		}
		num++
		sheets = append(sheets, decodeSheet(dec, se, num))
	}
	return sheets, nil
}

func decodeSheet(dec *xml.Decoder, start xml.StartElement, number int) Sheet {
	sh := Sheet{Number: number, Name: attrVal(start, "name")}
	var rows [][]string
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "table-row" {
				repeat := intAttrDefault(se, "number-rows-repeated", 1)
				row := readRow(dec, se)
				rowBlank := rowIsBlank(row)
				n := repeat
				if rowBlank && n > maxRepeat {
					n = 1
				}
				for i := 0; i < n; i++ {
					rows = append(rows, row)
				}
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}

	rows = trimTrailingBlankRows(rows)
	maxCols := 0
	for _, row := range rows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}
	rows = trimTrailingBlankColumns(rows, maxCols)

	if len(rows) > 0 {
		sh.ColumnNames = columnNames(len(rows[0]))
		sh.Table = model.Table{Rows: rows}
	}
	return sh
}

// readRow reads a table:row element's cells, expanding
// number-columns-repeated for non-empty cells and collapsing it to a
// single occurrence for empty ones above maxRepeat, the same heuristic
// the row repetition gets.
func readRow(dec *xml.Decoder, start xml.StartElement) []string {
	var row []string
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "table-cell" || se.Name.Local == "covered-table-cell" {
				repeat := intAttrDefault(se, "number-columns-repeated", 1)
				value := readCellValue(dec, se)
				n := repeat
				if value == "" && n > maxRepeat {
					n = 1
				}
				for i := 0; i < n; i++ {
					row = append(row, value)
				}
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return row
}

// readCellValue projects a table:table-cell per spec.md §4.12's typed
// extraction rule.
func readCellValue(dec *xml.Decoder, start xml.StartElement) string {
	valueType := attrVal(start, "value-type")
	var text string
	var paraText strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "p" {
				s, _ := odf.CaptureText(dec, se.Name)
				if paraText.Len() > 0 {
					paraText.WriteString("\n")
				}
				paraText.WriteString(s)
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	text = paraText.String()

	switch valueType {
	case "float", "currency", "percentage":
		v := attrVal(start, "value")
		if v == "" {
			return text
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			if f == float64(int64(f)) {
				return strconv.FormatInt(int64(f), 10)
			}
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return v
	case "date":
		v := attrVal(start, "date-value")
		if v != "" {
			return v
		}
		return text
	case "time":
		v := attrVal(start, "time-value")
		if v != "" {
			return v
		}
		return text
	case "boolean":
		v := attrVal(start, "boolean-value")
		if v == "true" {
			return "True"
		}
		if v == "false" {
			return "False"
		}
		return text
	default:
		return text
	}
}

func rowIsBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimTrailingBlankRows(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && rowIsBlank(rows[end-1]) {
		end--
	}
	return rows[:end]
}

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

// columnNames produces Excel-style letters (A…Z, AA…) per spec.md §4.12.
func columnNames(n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = columnName(i)
	}
	return out
}

func columnName(i int) string {
	var b []byte
	i++
	for i > 0 {
		i--
		b = append([]byte{byte('A' + i%26)}, b...)
		i /= 26
	}
	return string(b)
}

func attrVal(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func intAttrDefault(se xml.StartElement, local string, def int) int {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			if n, err := strconv.Atoi(a.Value); err == nil {
				return n
			}
		}
	}
	return def
}
