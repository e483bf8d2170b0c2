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

// Package odp reads an OpenDocument Presentation package (spec.md
// §4.12): one Unit per draw:page, its draw:frame children sorted by
// (y, x) and routed to text box, image, or table, speaker notes pulled
// from presentation:notes.
package odp

import (
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"strings"

	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/odf"
	"github.com/corvidlabs/docforge/pkg/safety"
	"github.com/corvidlabs/docforge/pkg/xerrors"
	"github.com/corvidlabs/docforge/pkg/zipctx"
)

// Metadata is the ODP-specific metadata surface.
type Metadata struct {
	model.OfficeMetadata
	Language   string `json:"language,omitempty"`
	SlideCount int    `json:"slide_count"`
}

// Slide is one Unit-bearing draw:page.
type Slide struct {
	Number int
	Title  string
	Body   string
	Notes  string
	Tables []model.Table
	Images []model.Image
}

// Content is a decoded ODP deck.
type Content struct {
	Metadata Metadata
	Slides   []Slide
}

func (c *Content) IterateUnits() []model.Unit {
	units := make([]model.Unit, len(c.Slides))
	for i, s := range c.Slides {
		text := strings.TrimSpace(s.Title + "\n" + s.Body)
		if s.Notes != "" {
			text += "\n" + s.Notes
		}
		units[i] = model.Unit{Number: s.Number, Text: text, Tables: s.Tables, Images: s.Images}
	}
	return units
}
func (c *Content) IterateImages() []model.Image {
	var out []model.Image
	for _, s := range c.Slides {
		out = append(out, s.Images...)
	}
	return out
}
func (c *Content) FullText() string       { return model.JoinUnitText(c.IterateUnits()) }
func (c *Content) TypeTag() model.TypeTag { return model.TagOdp }

// Decode parses ODP bytes per spec.md §4.12.
func Decode(data []byte, path string) (*Content, error) {
	zc, err := zipctx.Open(data, safety.DefaultZipBombLimits())
	if err != nil {
		return nil, err
	}
	defer zc.Close()

	if odf.Encrypted(zc) {
		return nil, xerrors.Encrypted("odp")
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

	slides, err := decodePages(zc, raw)
	if err != nil {
		return nil, xerrors.Failed(err)
	}
	meta.SlideCount = len(slides)

	return &Content{Metadata: meta, Slides: slides}, nil
}

func decodePages(zc *zipctx.Context, raw []byte) ([]Slide, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = false
	var slides []Slide
	num := 0
	imgIdx := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return slides, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "page" {
			continue
		}
		num++
		sl := decodePage(zc, dec, num)
		for i := range sl.Images {
			imgIdx++
			sl.Images[i].ImageIndex = imgIdx
		}
		slides = append(slides, sl)
	}
	return slides, nil
}

type frame struct {
	x, y     float64
	order    int
	kind     string // "text", "image", "table"
	text     string
	image    model.Image
	table    model.Table
	isTitle  bool
}

func decodePage(zc *zipctx.Context, dec *xml.Decoder, number int) Slide {
	sl := Slide{Number: number}
	var frames []frame
	imgIdx := 0
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "frame":
				f := readFrame(zc, dec, se, &imgIdx, len(frames))
				frames = append(frames, f)
				continue
			case "notes":
				sl.Notes = readNotesText(dec)
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}

	sort.SliceStable(frames, func(i, j int) bool {
		if frames[i].y != frames[j].y {
			return frames[i].y < frames[j].y
		}
		if frames[i].x != frames[j].x {
			return frames[i].x < frames[j].x
		}
		return frames[i].order < frames[j].order
	})

	var body strings.Builder
	for _, f := range frames {
		switch f.kind {
		case "image":
			imgIdx++
			f.image.ImageIndex = imgIdx
			sl.Images = append(sl.Images, f.image)
		case "table":
			sl.Tables = append(sl.Tables, f.table)
			appendLine(&body, odf.TableText(f.table))
		default:
			if f.isTitle && sl.Title == "" {
				sl.Title = f.text
			} else {
				appendLine(&body, f.text)
			}
		}
	}
	sl.Body = body.String()
	return sl
}

func appendLine(b *strings.Builder, s string) {
	if s == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(s)
}

// readFrame routes a draw:frame to a text box, image, or table, per
// spec.md §4.12: titles come from paragraphs whose style name contains
// "Title"; the text of every other text frame is body text, whatever its
// style name.
func readFrame(zc *zipctx.Context, dec *xml.Decoder, start xml.StartElement, imgIdx *int, order int) frame {
	f := frame{
		x:     odf.ParseLengthValue(attrVal(start, "x")),
		y:     odf.ParseLengthValue(attrVal(start, "y")),
		order: order,
		kind:  "text",
	}
	var textBuf strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "image":
				href := attrVal(se, "href")
				f.kind = "image"
				img := model.Image{}
				if href != "" {
					data, err := zc.ReadBytes(href)
					if err != nil {
						img.Error = err.Error()
					} else {
						img.Data = data
						img.Size = len(data)
						img.ContentType = safety.ImageContentType(data)
						if w, h, ok := odf.ImageProbe(data); ok {
							img.Width, img.Height = &w, &h
						}
					}
				}
				img.Description = firstNonEmpty(attrVal(start, "svg:desc"), attrVal(start, "desc"))
				f.image = img
			case "table":
				f.kind = "table"
				f.table = readTable(dec)
				continue
			case "p":
				style := attrVal(se, "style-name")
				s, _ := odf.CaptureText(dec, se.Name)
				if textBuf.Len() > 0 {
					textBuf.WriteString("\n")
				}
				textBuf.WriteString(s)
				if strings.Contains(style, "Title") {
					f.isTitle = true
				}
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	f.text = textBuf.String()
	if f.kind == "image" {
		f.image.Caption = f.text
	}
	return f
}

func readTable(dec *xml.Decoder) model.Table {
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
			if se.Name.Local == "table-row" {
				row = nil
			} else if se.Name.Local == "table-cell" {
				s, _ := odf.CaptureText(dec, se.Name)
				row = append(row, s)
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

func readNotesText(dec *xml.Decoder) string {
	var buf strings.Builder
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
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
				buf.WriteString(s)
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return buf.String()
}

func attrVal(se xml.StartElement, local string) string {
	local = strings.TrimPrefix(local, "svg:")
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
