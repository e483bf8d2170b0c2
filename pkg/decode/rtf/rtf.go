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

// Package rtf tokenizes RTF (spec.md §4.11): no example repo in the
// retrieval pack ships an RTF library, and the spec itself prescribes a
// hand-rolled regex+state-machine parser, so this is stdlib-only.
package rtf

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/xerrors"
)

// Metadata is the RTF-specific metadata surface (spec.md §3).
type Metadata struct {
	model.OfficeMetadata
}

// Content is one decoded RTF document: always a single logical document,
// paginated by \page control words.
type Content struct {
	Metadata   Metadata
	Pages      []string
	Hyperlinks []model.Hyperlink
	Footnotes  []model.Note
	Images     []model.Image
}

func (c *Content) IterateUnits() []model.Unit {
	units := make([]model.Unit, len(c.Pages))
	for i, p := range c.Pages {
		units[i] = model.Unit{Number: i + 1, Text: p}
	}
	return units
}

func (c *Content) IterateImages() []model.Image { return c.Images }
func (c *Content) FullText() string             { return model.JoinUnitText(c.IterateUnits()) }
func (c *Content) TypeTag() model.TypeTag       { return model.TagRtf }

// Decode parses raw RTF bytes per spec.md §4.11. A malformed brace
// structure that runs the state machine out of bounds recovers into the
// step-6 fallback strip rather than propagating a panic.
func Decode(data []byte, path string) (c *Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			c = fallbackStrip(data, path)
			err = nil
		}
	}()
	return decode(data, path)
}

func decode(data []byte, path string) (*Content, error) {
	text := decodeBytesBestEffort(data)

	trimmed := strings.TrimLeft(text, "\uFEFF \t\r\n")
	if !strings.HasPrefix(trimmed, "{\\rtf") {
		return nil, xerrors.LegacyParse("missing {\\rtf header")
	}

	meta := Metadata{}
	meta.PopulateFromPath(path)
	extractDocInfo(text, &meta)

	hyperlinks := extractHyperlinks(text)
	images := extractPictures(text)

	body := stripDestinationGroups(text)
	rendered, footnotes := renderBody(body)
	rendered = normalizeWhitespace(rendered)

	pages := splitPages(rendered)

	return &Content{
		Metadata:   meta,
		Pages:      pages,
		Hyperlinks: hyperlinks,
		Footnotes:  footnotes,
		Images:     images,
	}, nil
}

// decodeBytesBestEffort tries UTF-8, then CP-1252, then Latin-1; RTF's
// own body is 7-bit clean (non-ASCII is always escaped as \'hh or \uN),
// so this only matters for stray raw bytes some writers leave in comment
// destinations.
func decodeBytesBestEffort(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	if out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), b); err == nil {
		return string(out)
	}
	if out, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), b); err == nil {
		return string(out)
	}
	return strings.ToValidUTF8(string(b), "�")
}

var fontTblRe = regexp.MustCompile(`(?s)\{\\fonttbl.*?\}\}`)
var infoFieldRe = map[string]*regexp.Regexp{
	"title":    regexp.MustCompile(`(?s)\{\\title\s*([^{}\\]*)\}`),
	"author":   regexp.MustCompile(`(?s)\{\\author\s*([^{}\\]*)\}`),
	"subject":  regexp.MustCompile(`(?s)\{\\subject\s*([^{}\\]*)\}`),
	"category": regexp.MustCompile(`(?s)\{\\category\s*([^{}\\]*)\}`),
	"comment":  regexp.MustCompile(`(?s)\{\\doccomm\s*([^{}\\]*)\}`),
	"keywords": regexp.MustCompile(`(?s)\{\\keywords\s*([^{}\\]*)\}`),
}

func extractDocInfo(text string, meta *Metadata) {
	if m := infoFieldRe["title"].FindStringSubmatch(text); m != nil {
		meta.Title = strings.TrimSpace(m[1])
	}
	if m := infoFieldRe["author"].FindStringSubmatch(text); m != nil {
		meta.Author = strings.TrimSpace(m[1])
	}
	if m := infoFieldRe["subject"].FindStringSubmatch(text); m != nil {
		meta.Subject = strings.TrimSpace(m[1])
	}
	if m := infoFieldRe["category"].FindStringSubmatch(text); m != nil {
		meta.Category = strings.TrimSpace(m[1])
	}
	if m := infoFieldRe["comment"].FindStringSubmatch(text); m != nil {
		meta.Comments = strings.TrimSpace(m[1])
	}
	if m := infoFieldRe["keywords"].FindStringSubmatch(text); m != nil {
		meta.Keywords = strings.TrimSpace(m[1])
	}

	meta.Created = assembleDate(text, "creatim")
	meta.Modified = assembleDate(text, "revtim")
}

var dateFieldRe = regexp.MustCompile(`\\yr(\d+)\\mo(\d+)\\dy(\d+)\\hr(\d+)\\min(\d+)`)

func assembleDate(text, destination string) string {
	loc := regexp.MustCompile(`\\` + destination + `(.*?)\}`).FindStringSubmatch(text)
	if loc == nil {
		return ""
	}
	m := dateFieldRe.FindStringSubmatch(loc[1])
	if m == nil {
		return ""
	}
	pad := func(s string) string {
		if len(s) == 1 {
			return "0" + s
		}
		return s
	}
	return m[1] + "-" + pad(m[2]) + "-" + pad(m[3]) + "T" + pad(m[4]) + ":" + pad(m[5]) + ":00"
}

var hyperlinkRe = regexp.MustCompile(`(?s)\{\\field\{\\\*\\fldinst\s*HYPERLINK\s+"([^"]*)"[^}]*\}\{\\fldrslt[^{}]*?([^{}\\]*)\}`)

func extractHyperlinks(text string) []model.Hyperlink {
	var out []model.Hyperlink
	for _, m := range hyperlinkRe.FindAllStringSubmatch(text, -1) {
		out = append(out, model.Hyperlink{URL: m[1], Text: strings.TrimSpace(m[2])})
	}
	return out
}

var pictRe = regexp.MustCompile(`(?s)\{\\pict([^{}]*?)([0-9a-fA-F\s]{16,})\}`)
var picWRe = regexp.MustCompile(`\\picw(\d+)`)
var picHRe = regexp.MustCompile(`\\pich(\d+)`)

func extractPictures(text string) []model.Image {
	var out []model.Image
	idx := 0
	for _, m := range pictRe.FindAllStringSubmatch(text, -1) {
		idx++
		hex := strings.Join(strings.Fields(m[2]), "")
		data, err := hexDecode(hex)
		img := model.Image{ImageIndex: idx, ContentType: "application/octet-stream"}
		if err != nil {
			img.Error = err.Error()
		} else {
			img.Data = data
			img.Size = len(data)
		}
		if w := picWRe.FindStringSubmatch(m[1]); w != nil {
			if v, e := strconv.Atoi(w[1]); e == nil {
				img.Width = &v
			}
		}
		if h := picHRe.FindStringSubmatch(m[1]); h != nil {
			if v, e := strconv.Atoi(h[1]); e == nil {
				img.Height = &v
			}
		}
		out = append(out, img)
	}
	return out
}

func hexDecode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		s = s[:len(s)-1]
	}
	out := make([]byte, 0, len(s)/2)
	for i := 0; i+1 < len(s); i += 2 {
		var b byte
		for _, c := range s[i : i+2] {
			b <<= 4
			switch {
			case c >= '0' && c <= '9':
				b |= byte(c - '0')
			case c >= 'a' && c <= 'f':
				b |= byte(c-'a') + 10
			case c >= 'A' && c <= 'F':
				b |= byte(c-'A') + 10
			default:
				return nil, xerrors.Failed(nil)
			}
		}
		out = append(out, b)
	}
	return out, nil
}

// destinationKeywords name groups whose content is never body text
// (spec.md §4.11 step 4).
var destinationKeywords = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"header": true, "footer": true, "headerf": true, "footerf": true,
	"headerl": true, "footerl": true, "headerr": true, "footerr": true,
	"pict": true, "object": true, "generator": true, "filetbl": true,
	"listtable": true, "revtbl": true, "rsidtbl": true, "xmlnstbl": true,
}

// stripDestinationGroups removes whole {}-balanced groups whose opening
// control word (or a leading \*) marks them as a non-body destination.
func stripDestinationGroups(s string) string {
	var out strings.Builder
	depth := 0
	skipDepth := -1 // depth at which the current skip started; -1 means not skipping
	i := 0
	n := len(s)
	for i < n {
		c := s[i]
		switch c {
		case '{':
			depth++
			if skipDepth == -1 {
				word, isStar := peekControlWord(s, i+1)
				if isStar || destinationKeywords[word] {
					skipDepth = depth
				} else {
					out.WriteByte(c)
				}
			}
			i++
			continue
		case '}':
			if skipDepth == depth {
				skipDepth = -1
			} else if skipDepth == -1 {
				out.WriteByte(c)
			}
			depth--
			i++
			continue
		}
		if skipDepth == -1 {
			out.WriteByte(c)
		}
		i++
	}
	return out.String()
}

// peekControlWord looks just past an opening '{' for \* (generic
// destination marker) or a \word immediately following, without
// consuming input (the caller re-scans from the same position).
func peekControlWord(s string, pos int) (word string, isStar bool) {
	if pos < len(s) && s[pos] == '\\' {
		rest := s[pos+1:]
        if strings.HasPrefix(rest, "*") {
			return "", true
		}
		j := 0
		for j < len(rest) && isAlpha(rest[j]) {
			j++
		}
		return rest[:j], false
	}
	return "", false
}

func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }

var specialWords = map[string]string{
	"par": "\n", "line": "\n", "tab": "\t",
	"lquote": "'", "rquote": "'", "ldblquote": "\"", "rdblquote": "\"",
	"bullet": "•", "endash": "–", "emdash": "—", "~": " ",
}

// renderBody runs the char-by-char state machine over the destination-
// stripped text, emitting literal characters and interpreting control
// words per spec.md §4.11 step 4; \page flushes the current page buffer
// into footnote-aware output and \footnote destinations are captured
// separately rather than inlined into body text.
func renderBody(s string) (string, []model.Note) {
	var out strings.Builder
	var footnotes []model.Note
	var curFootnote *strings.Builder
	footnoteDepth := -1
	depth := 0

	codepage := charmap.Windows1252

	i := 0
	n := len(s)
	for i < n {
		c := s[i]
		switch c {
		case '{':
			depth++
			if footnoteDepth == -1 {
				if word, _ := peekControlWord(s, i+1); word == "footnote" {
					footnoteDepth = depth
					curFootnote = &strings.Builder{}
				}
			}
			i++
			continue
		case '}':
			if footnoteDepth == depth {
				footnotes = append(footnotes, model.Note{Text: strings.TrimSpace(curFootnote.String()), Class: "footnote"})
				footnoteDepth = -1
				curFootnote = nil
			}
			depth--
			i++
			continue
		case '\\':
			word, arg, consumed := readControlWord(s, i)
			if word == "" {
				// \\, \{, \}  literal escapes
				if i+1 < n {
					writeRune(&out, curFootnote, rune(s[i+1]))
					i += 2
					continue
				}
				i++
				continue
			}
			i += consumed
			switch word {
			case "u":
				if arg != "" {
					if v, err := strconv.Atoi(arg); err == nil {
						writeRune(&out, curFootnote, rune(int16(v)))
					}
				}
				// \uN is followed by one fallback char per the RTF spec;
				// that fallback is already consumed literally below.
			case "'":
				if len(arg) >= 2 {
					if v, err := strconv.ParseUint(arg[:2], 16, 8); err == nil {
						r := codepageDecode(codepage, byte(v))
						writeRune(&out, curFootnote, r)
					}
				}
			case "page":
				writeString(&out, curFootnote, "\f")
			default:
				if rep, ok := specialWords[word]; ok {
					writeString(&out, curFootnote, rep)
				}
			}
			continue
		case '\r', '\n':
			i++
			continue
		default:
			writeRune(&out, curFootnote, rune(c))
			i++
		}
	}
	return out.String(), footnotes
}

func codepageDecode(cm *charmap.Charmap, b byte) rune {
	r := cm.DecodeByte(b)
	if r == 0 {
		return rune(b)
	}
	return r
}

func writeRune(out *strings.Builder, footnote *strings.Builder, r rune) {
	if footnote != nil {
		footnote.WriteRune(r)
		return
	}
	out.WriteRune(r)
}

func writeString(out *strings.Builder, footnote *strings.Builder, s string) {
	if footnote != nil {
		footnote.WriteString(s)
		return
	}
	out.WriteString(s)
}

// readControlWord parses a control word or control symbol starting at
// s[i] == '\\', returning the word (without backslash), its optional
// signed-integer argument, and the total bytes consumed including a
// single trailing space delimiter.
func readControlWord(s string, i int) (word, arg string, consumed int) {
	n := len(s)
	j := i + 1
	if j >= n {
		return "", "", 1
	}
	if isAlpha(s[j]) {
		start := j
		for j < n && isAlpha(s[j]) {
			j++
		}
		word = s[start:j]
		if word == "'" {
			// unreachable: ' is not alpha; handled below
		}
		argStart := j
		neg := false
		if j < n && s[j] == '-' {
			neg = true
			j++
		}
		digitsStart := j
		for j < n && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j > digitsStart {
			arg = s[argStart:j]
			if neg && !strings.HasPrefix(arg, "-") {
				arg = "-" + s[digitsStart:j]
			}
		}
		if j < n && s[j] == ' ' {
			j++
		}
		return word, arg, j - i
	}
	if s[j] == '\'' {
		// \'hh: two hex digits follow.
		end := j + 1 + 2
		if end > n {
			end = n
		}
		return "'", s[j+1 : end], end - i
	}
	// control symbol: single non-alpha char, e.g. \~ \_ \-
	sym := string(s[j])
	return sym, "", j + 1 - i
}

func normalizeWhitespace(s string) string {
	spaceTab := regexp.MustCompile(`[ \t]+`)
	s = spaceTab.ReplaceAllString(s, " ")
	nl3 := regexp.MustCompile(`\n{3,}`)
	s = nl3.ReplaceAllString(s, "\n\n")
	return s
}

// splitPages splits rendered body text on \f (form-feed, emitted for
// every \page control word) into the page sequence spec.md S5 names.
func splitPages(s string) []string {
	parts := strings.Split(s, "\f")
	var pages []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		pages = append(pages, p)
	}
	if len(pages) == 0 {
		pages = []string{""}
	}
	return pages
}

// fallbackStrip implements spec.md §4.11 step "if parsing throws": strip
// every control word and brace, keeping whatever plain text remains.
func fallbackStrip(data []byte, path string) *Content {
	text := decodeBytesBestEffort(data)
	ctrl := regexp.MustCompile(`\\[a-zA-Z]+-?\d*\s?|\\'[0-9a-fA-F]{2}|[{}]`)
	stripped := ctrl.ReplaceAllString(text, "")
	stripped = normalizeWhitespace(stripped)

	meta := Metadata{}
	meta.PopulateFromPath(path)
	return &Content{Metadata: meta, Pages: []string{strings.TrimSpace(stripped)}}
}
