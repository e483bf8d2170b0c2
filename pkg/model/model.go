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

// Package model holds the shared content model that every decoder in
// docforge populates and that the serializer walks: file metadata, the
// ContentObject interface, unit variants (page/slide/sheet/chapter/block),
// images, tables and the other plain structured extras.
package model

import "path/filepath"

// FileMetadata is the base every format-specific metadata struct embeds.
// It is populated from the caller-supplied path before any decoding starts
// and never mutated afterward.
type FileMetadata struct {
	Filename         string `json:"filename"`
	Extension        string `json:"extension"`
	FilePath         string `json:"file_path"`
	FolderPath       string `json:"folder_path"`
	DetectedEncoding string `json:"detected_encoding,omitempty"`
}

// PopulateFromPath fills Filename/Extension/FilePath/FolderPath from p.
func (m *FileMetadata) PopulateFromPath(p string) {
	if p == "" {
		return
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	m.Filename = filepath.Base(p)
	m.Extension = filepath.Ext(p)
	m.FilePath = abs
	m.FolderPath = filepath.Dir(abs)
}

// TypeTag identifies the concrete content-object/unit variant for the
// tagged serializer (spec.md §4.18) and for callers doing a type switch.
type TypeTag string

const (
	TagDocx  TypeTag = "DocxContent"
	TagPptx  TypeTag = "PptxContent"
	TagXlsx  TypeTag = "XlsxContent"
	TagDoc   TypeTag = "DocContent"
	TagXls   TypeTag = "XlsContent"
	TagPpt   TypeTag = "PptContent"
	TagRtf   TypeTag = "RtfContent"
	TagOdt   TypeTag = "OdtContent"
	TagOdp   TypeTag = "OdpContent"
	TagOds   TypeTag = "OdsContent"
	TagPdf   TypeTag = "PdfContent"
	TagHTML  TypeTag = "HtmlContent"
	TagEpub  TypeTag = "EpubContent"
	TagEmail TypeTag = "EmailContent"
	TagPlain TypeTag = "PlainContent"
)

// Unit is one logical subdivision of a content object: a page, slide,
// sheet, chapter, or a notional single block for formats with no native
// pagination. Units are 1-based and emitted in insertion order.
type Unit struct {
	Number int    `json:"number"`
	Text   string `json:"text"`

	Tables    []Table    `json:"tables,omitempty"`
	Comments  []Comment  `json:"comments,omitempty"`
	Images    []Image    `json:"images,omitempty"`
	Footnotes []Note     `json:"footnotes,omitempty"`
	Formulas  []Formula  `json:"formulas,omitempty"`
}

// Image is one extracted picture. ImageIndex is 1-based and monotonically
// increasing within a content object; UnitIndex is 0 when the image is
// document-global (not owned by any single unit).
type Image struct {
	ImageIndex  int    `json:"image_index"`
	UnitIndex   int    `json:"unit_index,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int    `json:"size"`
	Width       *int   `json:"width,omitempty"`
	Height      *int   `json:"height,omitempty"`
	Caption     string `json:"caption,omitempty"`
	Description string `json:"description,omitempty"`
	Data        []byte `json:"data,omitempty"`

	// Error records a best-effort extraction failure for this single
	// image (spec.md §9); Data is empty when Error is non-empty.
	Error string `json:"error,omitempty"`
}

// Table is a sequence of rows, each a sequence of cell strings.
type Table struct {
	Rows [][]string `json:"rows"`
}

// Run is a styled text span inside a paragraph.
type Run struct {
	Text      string `json:"text"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
	FontName  string `json:"font_name,omitempty"`
	FontSize  float64 `json:"font_size,omitempty"`
	FontColor string `json:"font_color,omitempty"`
}

// Paragraph is one paragraph-level unit of text with its styling.
type Paragraph struct {
	Text         string `json:"text"`
	StyleName    string `json:"style_name,omitempty"`
	Alignment    string `json:"alignment,omitempty"`
	OutlineLevel int    `json:"outline_level,omitempty"`
	Runs         []Run  `json:"runs,omitempty"`
}

// Comment is a review/annotation comment attached to a unit.
type Comment struct {
	Author string `json:"author,omitempty"`
	Text   string `json:"text"`
	Date   string `json:"date,omitempty"`
}

// Formula is a math expression rendered to LaTeX by pkg/omml.
type Formula struct {
	Latex     string `json:"latex"`
	IsDisplay bool   `json:"is_display"`
}

// Note is a footnote or endnote.
type Note struct {
	Text  string `json:"text"`
	Class string `json:"class,omitempty"` // "footnote" or "endnote"
}

// Hyperlink is an anchor with display text and target.
type Hyperlink struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Bookmark is a named location within a document.
type Bookmark struct {
	Name string `json:"name"`
	Text string `json:"text,omitempty"`
}

// Section captures page geometry for one document section.
type Section struct {
	WidthInches     float64 `json:"width_inches,omitempty"`
	HeightInches    float64 `json:"height_inches,omitempty"`
	Orientation     string  `json:"orientation,omitempty"` // only set when non-portrait
	MarginTopInches float64 `json:"margin_top_inches,omitempty"`
}

// ContentObject is the shared trait every format variant implements:
// one per logical document within an input (one per mail in an MBOX, one
// per archive entry). See spec.md §3.
type ContentObject interface {
	IterateUnits() []Unit
	IterateImages() []Image
	FullText() string
	TypeTag() TypeTag
}

// JoinUnitText is the shared "newline-join of per-unit text" full-text
// projection used by every ContentObject.FullText implementation
// (spec.md Testable Property 2).
func JoinUnitText(units []Unit) string {
	s := ""
	for i, u := range units {
		if i > 0 {
			s += "\n"
		}
		s += u.Text
	}
	return s
}
