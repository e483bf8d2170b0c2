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

// Package odt reads an OpenDocument Text package (spec.md §4.12) by
// walking content.xml's body directly with encoding/xml, the same
// token-stream style pkg/decode/docx and pkg/decode/pptx use for their
// OOXML bodies.
package odt

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

// Metadata is the ODT-specific metadata surface, from meta.xml's
// office:meta block (spec.md §4.12).
type Metadata struct {
	model.OfficeMetadata
	Language       string `json:"language,omitempty"`
	EditingCycles  int    `json:"editing_cycles,omitempty"`
	Generator      string `json:"generator,omitempty"`
}

// Content is the single content object an ODT produces.
type Content struct {
	Metadata   Metadata
	Paragraphs []model.Paragraph
	Tables     []model.Table
	Images     []model.Image
	Hyperlinks []model.Hyperlink
	Footnotes  []model.Note
	Endnotes   []model.Note
	Comments   []model.Comment
	Bookmarks  []model.Bookmark
	FullTextVal string
}

func (c *Content) IterateUnits() []model.Unit {
	return []model.Unit{{
		Number:    1,
		Text:      c.FullTextVal,
		Tables:    c.Tables,
		Comments:  c.Comments,
		Images:    c.Images,
		Footnotes: append(append([]model.Note{}, c.Footnotes...), c.Endnotes...),
	}}
}
func (c *Content) IterateImages() []model.Image { return c.Images }
func (c *Content) FullText() string             { return c.FullTextVal }
func (c *Content) TypeTag() model.TypeTag       { return model.TagOdt }

// Decode parses ODT bytes per spec.md §4.12.
func Decode(data []byte, path string) (*Content, error) {
	zc, err := zipctx.Open(data, safety.DefaultZipBombLimits())
	if err != nil {
		return nil, err
	}
	defer zc.Close()

	if odf.Encrypted(zc) {
		return nil, xerrors.Encrypted("odt")
	}

	meta := Metadata{}
	meta.PopulateFromPath(path)
	if zc.Has("meta.xml") {
		if m, ok := odf.ReadMeta(zc); ok {
			meta.OfficeMetadata = m.OfficeMetadata
			meta.Language = m.Language
			meta.EditingCycles = m.EditingCycles
			meta.Generator = m.Generator
			meta.PopulateFromPath(path)
		}
	}

	if !zc.Has("content.xml") {
		return nil, xerrors.LegacyParse("missing content.xml")
	}
	bodyXML, err := zc.ReadBytes("content.xml")
	if err != nil {
		return nil, err
	}

	w := &walker{zc: zc}
	if err := w.walkBody(bodyXML); err != nil {
		return nil, xerrors.Failed(err)
	}

	c := &Content{
		Metadata:   meta,
		Paragraphs: w.paragraphs,
		Tables:     w.tables,
		Images:     w.images,
		Hyperlinks: w.hyperlinks,
		Footnotes:  w.footnotes,
		Endnotes:   w.endnotes,
		Comments:   w.comments,
		Bookmarks:  w.bookmarks,
	}
	c.FullTextVal = w.text.String()
	return c, nil
}

type walker struct {
	zc *zipctx.Context

	text       strings.Builder
	paragraphs []model.Paragraph
	tables     []model.Table
	images     []model.Image
	hyperlinks []model.Hyperlink
	footnotes  []model.Note
	endnotes   []model.Note
	comments   []model.Comment
	bookmarks  []model.Bookmark
	imgIdx     int
}

func (w *walker) appendText(s string) {
	if s == "" {
		return
	}
	if w.text.Len() > 0 {
		w.text.WriteString("\n")
	}
	w.text.WriteString(s)
}

// walkBody finds office:body/office:text (or office:spreadsheet/
// presentation, tolerated but unused here) and walks its direct
// children in document order.
func (w *walker) walkBody(raw []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = false
	inBody := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local == "body" {
			inBody = true
			continue
		}
		if !inBody {
			continue
		}
		switch se.Name.Local {
		case "p":
			p := w.readParagraph(dec, se, 0)
			w.paragraphs = append(w.paragraphs, p)
			w.appendText(p.Text)
		case "h":
			level := intAttr(se, "outline-level")
			p := w.readParagraph(dec, se, level)
			w.paragraphs = append(w.paragraphs, p)
			w.appendText(p.Text)
		case "table":
			tbl := w.readTable(dec)
			w.tables = append(w.tables, tbl)
			w.appendText(odf.TableText(tbl))
		}
	}
	return nil
}

// readParagraph textifies a text:p/text:h element, extracting the inline
// hyperlinks, notes, comments, and bookmarks it encounters along the way
// (spec.md §4.12's recursive textification helper).
func (w *walker) readParagraph(dec *xml.Decoder, start xml.StartElement, outline int) model.Paragraph {
	var buf strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "s":
				n := intAttrDefault(se, "c", 1)
				buf.WriteString(strings.Repeat(" ", n))
			case "tab":
				buf.WriteByte('\t')
			case "line-break":
				buf.WriteByte('\n')
			case "a":
				href := attrVal(se, "href")
				inner, _ := odf.CaptureText(dec, se.Name)
				buf.WriteString(inner)
				if inner != "" || href != "" {
					w.hyperlinks = append(w.hyperlinks, model.Hyperlink{Text: inner, URL: href})
				}
				continue
			case "note":
				class := attrVal(se, "note-class")
				noteText, _ := odf.CaptureText(dec, se.Name)
				n := model.Note{Text: noteText}
				if class == "endnote" {
					w.endnotes = append(w.endnotes, n)
				} else {
					n.Class = "footnote"
					w.footnotes = append(w.footnotes, n)
				}
				continue
			case "annotation":
				c := w.readAnnotation(dec)
				w.comments = append(w.comments, c)
				continue
			case "bookmark":
				w.bookmarks = append(w.bookmarks, model.Bookmark{Name: attrVal(se, "name")})
			case "bookmark-start":
				w.bookmarks = append(w.bookmarks, model.Bookmark{Name: attrVal(se, "name")})
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			buf.Write(se)
		}
	}
	_ = start
	return model.Paragraph{Text: buf.String(), OutlineLevel: outline}
}

func (w *walker) readAnnotation(dec *xml.Decoder) model.Comment {
	var c model.Comment
	depth := 1
	var textBuf strings.Builder
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "creator" {
				s, _ := odf.CaptureText(dec, se.Name)
				c.Author = s
				continue
			}
			if se.Name.Local == "date" {
				s, _ := odf.CaptureText(dec, se.Name)
				c.Date = s
				continue
			}
			if se.Name.Local == "p" {
				s, _ := odf.CaptureText(dec, se.Name)
				if textBuf.Len() > 0 {
					textBuf.WriteString("\n")
				}
				textBuf.WriteString(s)
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	c.Text = textBuf.String()
	return c
}

func (w *walker) readTable(dec *xml.Decoder) model.Table {
	var tbl model.Table
	depth := 1
	var row []string
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "table-row":
				row = nil
			case "table-cell":
				s, _ := odf.CaptureText(dec, se.Name)
				row = append(row, s)
				continue
			case "frame":
				w.readFrame(dec, se)
				continue
			}
			depth++
		case xml.EndElement:
			if se.Name.Local == "table-row" {
				tbl.Rows = append(tbl.Rows, row)
			}
			depth--
		}
	}
	return tbl
}

// readFrame reads a draw:frame that readTable meets outside a table cell:
// the first paragraph inside the frame becomes the caption, falling back
// to svg:title, and svg:desc becomes the description. Frames inside
// text:p/text:h or inside table cells are not passed here, so their
// images are not extracted.
func (w *walker) readFrame(dec *xml.Decoder, start xml.StartElement) {
	title, desc := attrVal(start, "svg:title"), attrVal(start, "svg:desc")
	depth := 1
	var href string
	var caption string
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "image":
				href = attrVal(se, "href")
			case "title":
				s, _ := odf.CaptureText(dec, se.Name)
				title = s
				continue
			case "desc":
				s, _ := odf.CaptureText(dec, se.Name)
				desc = s
				continue
			case "p":
				s, _ := odf.CaptureText(dec, se.Name)
				if caption == "" {
					caption = s
				}
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	if href == "" {
		return
	}
	w.imgIdx++
	img := model.Image{ImageIndex: w.imgIdx, Caption: firstNonEmpty(caption, title), Description: desc}
	data, err := w.zc.ReadBytes(href)
	if err != nil {
		img.Error = err.Error()
	} else {
		img.Data = data
		img.Size = len(data)
		img.ContentType = safety.ImageContentType(data)
		if wi, h, ok := safety.ImageDimensions(data); ok {
			img.Width, img.Height = &wi, &h
		}
	}
	w.images = append(w.images, img)
}

func attrVal(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local || a.Name.Local == strings.TrimPrefix(local, "svg:") {
			return a.Value
		}
	}
	return ""
}

func intAttr(se xml.StartElement, local string) int {
	return intAttrDefault(se, local, 0)
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

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
