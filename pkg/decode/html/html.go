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

// Package html extracts tag-aware plain text, headings, links, and table
// structure from an HTML document (spec.md §4.14), on top of goquery's
// DOM traversal the way the teacher's go.mod already pulls it in
// (indirectly, via golang.org/x/net/html).
package html

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/xerrors"
)

// Metadata is the HTML-specific metadata surface.
type Metadata struct {
	model.OfficeMetadata
	Language string `json:"language,omitempty"`
	Charset  string `json:"charset,omitempty"`
}

// Heading is one collected heading with its level (1-6).
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Content is one decoded HTML document: a single notional block, plus
// first-class headings/links/tables alongside the rendered text.
type Content struct {
	Metadata Metadata
	Text     string
	Headings []Heading
	Links    []model.Hyperlink
	Tables   []model.Table
}

func (c *Content) IterateUnits() []model.Unit {
	return []model.Unit{{Number: 1, Text: c.Text, Tables: c.Tables}}
}
func (c *Content) IterateImages() []model.Image { return nil }
func (c *Content) FullText() string             { return c.Text }
func (c *Content) TypeTag() model.TypeTag       { return model.TagHTML }

// blockTags are wrapped with newlines when traversed (spec.md §4.14).
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "header": true,
	"footer": true, "nav": true, "aside": true, "main": true, "ul": true,
	"ol": true, "li": true, "table": true, "tr": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"pre": true, "form": true, "figure": true, "figcaption": true,
}

var removedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"object": true, "embed": true, "applet": true,
}

// Decode sniffs encoding (BOM, then meta charset, then UTF-8), parses
// the DOM, and extracts text/headings/links/tables.
func Decode(data []byte, path string) (*Content, error) {
	text, enc := sniffAndDecode(data)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, xerrors.Failed(err)
	}

	meta := Metadata{Charset: enc}
	meta.PopulateFromPath(path)
	meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	meta.Language, _ = doc.Find("html").First().Attr("lang")
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		content, _ := s.Attr("content")
		switch strings.ToLower(name) {
		case "description":
			meta.Subject = content
		case "keywords":
			meta.Keywords = content
		case "author":
			meta.Author = content
		}
	})

	for _, rem := range []string{"script", "style", "noscript", "iframe", "object", "embed", "applet"} {
		doc.Find(rem).Remove()
	}

	var headings []Heading
	doc.Find("h1,h2,h3,h4,h5,h6").Each(func(_ int, s *goquery.Selection) {
		level := int(s.Get(0).Data[1] - '0')
		headings = append(headings, Heading{Level: level, Text: strings.TrimSpace(s.Text())})
	})

	var links []model.Hyperlink
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		links = append(links, model.Hyperlink{Text: strings.TrimSpace(s.Text()), URL: href})
	})

	var tables []model.Table
	doc.Find("table").Each(func(_ int, s *goquery.Selection) {
		tables = append(tables, extractTable(s))
	})

	var body *goquery.Selection
	if doc.Find("body").Length() > 0 {
		body = doc.Find("body").First()
	} else {
		body = doc.Selection
	}

	rendered := renderNode(body)
	rendered = normalizeText(rendered)

	return &Content{
		Metadata: meta,
		Text:     rendered,
		Headings: headings,
		Links:    links,
		Tables:   tables,
	}, nil
}

func extractTable(s *goquery.Selection) model.Table {
	var rows [][]string
	var widths []int
	s.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th,td").Each(func(i int, td *goquery.Selection) {
			cell := strings.TrimSpace(td.Text())
			cells = append(cells, cell)
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return model.Table{Rows: rows}
}

func renderNode(s *goquery.Selection) string {
	var buf bytes.Buffer
	for _, n := range s.Nodes {
		renderOne(n, &buf)
	}
	return buf.String()
}

// renderOne walks the raw parsed tree (not goquery's selector API, which
// has no ordered "visit every node" traversal): block tags get a
// newline before and after, <br> emits one newline, <hr> emits the
// "\n---\n" separator, and text nodes pass through verbatim.
func renderOne(n *nethtml.Node, buf *bytes.Buffer) {
	if n == nil {
		return
	}
	switch n.Type {
	case nethtml.TextNode:
		buf.WriteString(n.Data)
		return
	case nethtml.ElementNode:
		if removedTags[n.Data] {
			return
		}
		switch n.Data {
		case "br":
			buf.WriteString("\n")
			return
		case "hr":
			buf.WriteString("\n---\n")
			return
		}
		isBlock := blockTags[n.Data]
		if isBlock {
			buf.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderOne(c, buf)
		}
		if isBlock {
			buf.WriteString("\n")
		}
		return
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderOne(c, buf)
		}
	}
}

func normalizeText(s string) string {
	nl3 := regexp.MustCompile(`\n{3,}`)
	s = nl3.ReplaceAllString(s, "\n\n")
	spaceRe := regexp.MustCompile(`[ \t]{2,}`)
	s = spaceRe.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func sniffAndDecode(data []byte) (string, string) {
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		return string(data[3:]), "utf-8"
	}
	if m := metaCharsetRe.FindSubmatch(data); m != nil {
		if enc, name := charset.Lookup(string(m[1])); enc != nil {
			if out, err := enc.NewDecoder().Bytes(data); err == nil {
				return string(out), name
			}
		}
	}
	if enc, name, _ := charset.DetermineEncoding(data, "text/html"); enc != nil {
		if out, err := enc.NewDecoder().Bytes(data); err == nil {
			return string(out), name
		}
	}
	return string(data), "utf-8"
}

var metaCharsetRe = regexp.MustCompile(`(?i)<meta[^>]+charset=["']?([a-zA-Z0-9_-]+)`)
