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

// Package pdf extracts per-page text and embedded image XObjects from a
// PDF (spec.md §4.13) using rsc.io/pdf's streaming reader, the same
// library the pack's perkeep-perkeep scanningcabinet app uses for
// native page counting.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	librarypdf "rsc.io/pdf"

	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/xerrors"
	"github.com/corvidlabs/docforge/pkg/xlog"
)

// Metadata is the PDF-specific metadata surface.
type Metadata struct {
	model.OfficeMetadata
}

// Content is the single content object a PDF produces, one Unit per page.
type Content struct {
	Metadata Metadata
	Pages    []model.Unit
}

func (c *Content) IterateUnits() []model.Unit { return c.Pages }
func (c *Content) IterateImages() []model.Image {
	var out []model.Image
	for _, p := range c.Pages {
		out = append(out, p.Images...)
	}
	return out
}
func (c *Content) FullText() string       { return model.JoinUnitText(c.Pages) }
func (c *Content) TypeTag() model.TypeTag { return model.TagPdf }

// Decode parses PDF bytes per spec.md §4.13. Encrypted PDFs (rsc.io/pdf
// fails to open a stream whose document requires a non-empty user
// password) surface as EncryptedFile.
func Decode(data []byte, path string) (*Content, error) {
	r, err := librarypdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "encrypt") {
			return nil, xerrors.Encrypted("pdf")
		}
		return nil, xerrors.LegacyParse("malformed PDF", err)
	}

	meta := Metadata{}
	meta.PopulateFromPath(path)
	readInfo(r, &meta)
	meta.PageCount = r.NumPage()

	imgIdx := 0
	var units []model.Unit
	for n := 1; n <= r.NumPage(); n++ {
		page := r.Page(n)
		if page.V.IsNull() {
			continue
		}
		text := pageText(page)
		images := pageImages(page, &imgIdx, n)
		units = append(units, model.Unit{Number: n, Text: text, Images: images})
	}

	return &Content{Metadata: meta, Pages: units}, nil
}

func readInfo(r *librarypdf.Reader, meta *Metadata) {
	info := r.Trailer().Key("Info")
	if info.Kind() != librarypdf.Dict {
		return
	}
	meta.Title = textOf(info.Key("Title"))
	meta.Author = textOf(info.Key("Author"))
	meta.Creator = textOf(info.Key("Creator"))
	meta.Subject = textOf(info.Key("Subject"))
	meta.Keywords = textOf(info.Key("Keywords"))
	meta.Comments = textOf(info.Key("Producer"))
	meta.Created = textOf(info.Key("CreationDate"))
	meta.Modified = textOf(info.Key("ModDate"))
}

func textOf(v librarypdf.Value) string {
	if v.Kind() != librarypdf.String {
		return ""
	}
	return v.Text()
}

// pageText lays out a page's text runs top-to-bottom, left-to-right —
// rsc.io/pdf's Content() yields one Text span per run with no guaranteed
// reading order, so the spans are sorted by (descending Y, ascending X)
// the way PDF's bottom-left origin reads as top-to-bottom on screen.
func pageText(page librarypdf.Page) string {
	content := page.Content()
	texts := append([]librarypdf.Text(nil), content.Text...)
	sort.SliceStable(texts, func(i, j int) bool {
		if texts[i].Y != texts[j].Y {
			return texts[i].Y > texts[j].Y
		}
		return texts[i].X < texts[j].X
	})

	var b strings.Builder
	lastY := 0.0
	first := true
	for _, t := range texts {
		if first {
			first = false
		} else if t.Y != lastY {
			b.WriteString("\n")
		}
		b.WriteString(t.S)
		lastY = t.Y
	}
	return b.String()
}

// filterFormat maps a PDF image filter name to the nominal image format
// spec.md §4.13 names.
func filterFormat(filter string) string {
	switch filter {
	case "DCTDecode":
		return "jpeg"
	case "JPXDecode":
		return "jp2"
	case "FlateDecode":
		return "png"
	case "CCITTFaxDecode":
		return "tiff"
	case "JBIG2Decode":
		return "jbig2"
	case "LZWDecode":
		return "png"
	default:
		return "raw"
	}
}

func primaryFilter(v librarypdf.Value) string {
	f := v.Key("Filter")
	switch f.Kind() {
	case librarypdf.Name:
		return f.Name()
	case librarypdf.Array:
		if f.Len() == 0 {
			return ""
		}
		last := f.Index(f.Len() - 1)
		if last.Kind() == librarypdf.Name {
			return last.Name()
		}
	}
	return ""
}

// pageImages enumerates the XObjects hanging off a page's Resources
// dict, per spec.md §4.13: width/height/colorspace/BPC from the XObject
// dict, filter chain mapped to a nominal format, payload via the
// library's raw stream reader. A single image's failure is logged and
// skipped; the page still yields the rest.
func pageImages(page librarypdf.Page, imgIdx *int, unitIndex int) []model.Image {
	resources := page.V.Key("Resources")
	xobjects := resources.Key("XObject")
	if xobjects.Kind() != librarypdf.Dict {
		return nil
	}

	var out []model.Image
	for _, name := range xobjects.Keys() {
		xo := xobjects.Key(name)
		if xo.Kind() != librarypdf.Stream {
			continue
		}
		if xo.Key("Subtype").Name() != "Image" {
			continue
		}
		*imgIdx++
		img := model.Image{ImageIndex: *imgIdx, UnitIndex: unitIndex}

		w := int(xo.Key("Width").Int64())
		h := int(xo.Key("Height").Int64())
		if w > 0 {
			img.Width = &w
		}
		if h > 0 {
			img.Height = &h
		}

		filter := primaryFilter(xo)
		format := filterFormat(filter)
		img.ContentType = "image/" + format

		data, err := readStream(xo)
		if err != nil {
			xlog.Debugf("pdf: image xobject %q extraction failed: %v", name, err)
			img.Error = err.Error()
		} else {
			img.Data = data
			img.Size = len(data)
		}
		out = append(out, img)
	}
	return out
}

func readStream(v librarypdf.Value) ([]byte, error) {
	rc := v.Reader()
	if rc == nil {
		return nil, fmt.Errorf("no stream reader for XObject")
	}
	defer closeIfCloser(rc)
	return io.ReadAll(rc)
}

func closeIfCloser(r io.Reader) {
	if c, ok := r.(io.Closer); ok {
		c.Close()
	}
}
