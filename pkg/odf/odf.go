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

// Package odf holds the conventions shared by the three ODF decoders —
// odt, odp, ods (spec.md §4.12): the encryption probe, the office:meta
// reader, and the recursive text:p/text:h textification helper every one
// of them uses to turn a paragraph element into a plain string.
package odf

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/safety"
	"github.com/corvidlabs/docforge/pkg/zipctx"
)

// Meta is the office:meta field surface shared by ODT/ODP/ODS (Dublin
// Core plus the meta: extensions spec.md §4.12 names).
type Meta struct {
	model.OfficeMetadata
	Language      string
	EditingCycles int
	Generator     string
}

type metaXML struct {
	Meta struct {
		Title           string `xml:"title"`
		Creator         string `xml:"creator"`
		Subject         string `xml:"subject"`
		Description     string `xml:"description"`
		Date            string `xml:"date"`
		Language        string `xml:"language"`
		Keyword         string `xml:"keyword"`
		InitialCreator  string `xml:"initial-creator"`
		CreationDate    string `xml:"creation-date"`
		EditingCycles   string `xml:"editing-cycles"`
		EditingDuration string `xml:"editing-duration"`
		Generator       string `xml:"generator"`
	} `xml:"meta"`
}

// ReadMeta parses meta.xml's office:meta block.
func ReadMeta(zc *zipctx.Context) (Meta, bool) {
	var m Meta
	var x metaXML
	if err := zc.ReadXML("meta.xml", &x); err != nil {
		return m, false
	}
	m.Title = x.Meta.Title
	m.Author = x.Meta.Creator
	m.Creator = x.Meta.Creator
	m.Subject = x.Meta.Subject
	m.Comments = x.Meta.Description
	m.Created = firstNonEmpty(x.Meta.CreationDate, x.Meta.Date)
	m.Modified = x.Meta.Date
	m.Keywords = x.Meta.Keyword
	m.Language = x.Meta.Language
	m.Generator = x.Meta.Generator
	if n, err := strconv.Atoi(x.Meta.EditingCycles); err == nil {
		m.EditingCycles = n
	}
	return m, true
}

// Encrypted runs the ODF encryption probe (spec.md §4.2) over an already
// open zip context.
func Encrypted(zc *zipctx.Context) bool {
	if !zc.Has("META-INF/manifest.xml") {
		return false
	}
	b, err := zc.ReadBytes("META-INF/manifest.xml")
	if err != nil {
		return false
	}
	for _, marker := range []string{"encryption-data", "manifest:encrypted", "manifest:algorithm"} {
		if strings.Contains(string(b), marker) {
			return true
		}
	}
	return false
}

// CaptureText recursively textifies the element just opened by start
// (the caller has already consumed its StartElement token), per spec.md
// §4.12's helper: concatenate character data, descend children, text:s
// emits N spaces, text:tab a tab, text:line-break a newline, and
// text:note/office:annotation subtrees are skipped entirely (they're
// extracted separately by the caller).
func CaptureText(dec *xml.Decoder, name xml.Name) (string, error) {
	var buf strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err == io.EOF {
			return buf.String(), nil
		}
		if err != nil {
			return buf.String(), err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "s":
				n := 1
				for _, a := range se.Attr {
					if a.Name.Local == "c" {
						if v, err := strconv.Atoi(a.Value); err == nil {
							n = v
						}
					}
				}
				buf.WriteString(strings.Repeat(" ", n))
			case "tab":
				buf.WriteByte('\t')
			case "line-break":
				buf.WriteByte('\n')
			case "note", "annotation":
				if err := skipElement(dec); err != nil {
					return buf.String(), err
				}
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			buf.Write(se)
		}
	}
	return buf.String(), nil
}

// skipElement consumes tokens through the matching end of the element
// whose StartElement token was just read.
func skipElement(dec *xml.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

// TableText renders a model.Table the way every ODF decoder's unit-level
// text projection does: rows joined by newline, cells by tab.
func TableText(tbl model.Table) string {
	var b strings.Builder
	for i, row := range tbl.Rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.Join(row, "\t"))
	}
	return b.String()
}

// ParseLengthValue strips a trailing CSS-style unit ("cm", "in", "pt",
// "px", …) from an ODF svg:x/svg:y coordinate and returns the bare
// numeric prefix, used by the ODP frame z-order sort (spec.md §4.12).
func ParseLengthValue(s string) float64 {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && (s[i] == '-' || s[i] == '+' || s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	v, _ := strconv.ParseFloat(s[:i], 64)
	return v
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

// imageProbe re-exports safety's best-effort dimension probe so decoders
// in this family don't each import pkg/safety solely for that one call.
func ImageProbe(data []byte) (width, height int, ok bool) {
	return safety.ImageDimensions(data)
}
