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

// Package epub reads an EPUB package (spec.md §4.14): OPF manifest/spine
// parsing via stdlib encoding/xml, archive access via pkg/zipctx, and
// per-chapter text extraction via pkg/decode/html's streamlined rules.
package epub

import (
	"path"
	"strings"

	"github.com/corvidlabs/docforge/pkg/decode/html"
	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/safety"
	"github.com/corvidlabs/docforge/pkg/xerrors"
	"github.com/corvidlabs/docforge/pkg/zipctx"
)

// Metadata is the EPUB-specific metadata surface, from the OPF's
// Dublin-Core block.
type Metadata struct {
	model.OfficeMetadata
	Language string `json:"language,omitempty"`
}

// Chapter is one spine entry, 1-based.
type Chapter struct {
	Number int
	Title  string
	Text   string
}

// Content is one decoded EPUB book.
type Content struct {
	Metadata Metadata
	Chapters []Chapter
	Images   []model.Image
}

func (c *Content) IterateUnits() []model.Unit {
	units := make([]model.Unit, len(c.Chapters))
	for i, ch := range c.Chapters {
		units[i] = model.Unit{Number: ch.Number, Text: ch.Text}
	}
	return units
}
func (c *Content) IterateImages() []model.Image { return c.Images }
func (c *Content) FullText() string             { return model.JoinUnitText(c.IterateUnits()) }
func (c *Content) TypeTag() model.TypeTag       { return model.TagEpub }

type container struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath string `xml:"full-path,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

type opfPackage struct {
	Metadata struct {
		Title       []string `xml:"title"`
		Creator     []string `xml:"creator"`
		Subject     []string `xml:"subject"`
		Description []string `xml:"description"`
		Date        []string `xml:"date"`
		Language    []string `xml:"language"`
	} `xml:"metadata"`
	Manifest struct {
		Item []struct {
			ID        string `xml:"id,attr"`
			Href      string `xml:"href,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRef []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

// Decode opens data as a ZIP, follows META-INF/container.xml to the OPF
// root file, checks for DRM, then walks the spine emitting one Chapter
// per entry.
func Decode(data []byte, srcPath string) (*Content, error) {
	zc, err := zipctx.Open(data, safety.DefaultZipBombLimits())
	if err != nil {
		return nil, err
	}
	defer zc.Close()

	if encrypted(zc) {
		return nil, xerrors.Encrypted("epub")
	}

	var cont container
	if err := zc.ReadXML("META-INF/container.xml", &cont); err != nil {
		return nil, err
	}
	if len(cont.Rootfiles.Rootfile) == 0 {
		return nil, xerrors.LegacyParse("epub container.xml has no rootfile")
	}
	opfPath := cont.Rootfiles.Rootfile[0].FullPath
	opfDir := path.Dir(opfPath)

	var pkg opfPackage
	if err := zc.ReadXML(opfPath, &pkg); err != nil {
		return nil, err
	}

	meta := Metadata{}
	meta.PopulateFromPath(srcPath)
	meta.Title = firstOrEmpty(pkg.Metadata.Title)
	meta.Author = firstOrEmpty(pkg.Metadata.Creator)
	meta.Subject = firstOrEmpty(pkg.Metadata.Subject)
	meta.Comments = firstOrEmpty(pkg.Metadata.Description)
	meta.Created = firstOrEmpty(pkg.Metadata.Date)
	meta.Language = firstOrEmpty(pkg.Metadata.Language)

	manifest := make(map[string]struct{ href, mediaType string })
	for _, item := range pkg.Manifest.Item {
		manifest[item.ID] = struct{ href, mediaType string }{item.Href, item.MediaType}
	}

	var chapters []Chapter
	num := 0
	for _, ref := range pkg.Spine.ItemRef {
		item, ok := manifest[ref.IDRef]
		if !ok {
			continue
		}
		full := joinManifestPath(opfDir, item.href)
		if !zc.Has(full) {
			continue
		}
		raw, err := zc.ReadBytes(full)
		if err != nil {
			continue
		}
		doc, err := html.Decode(raw, full)
		if err != nil {
			continue
		}
		num++
		title := doc.Metadata.Title
		chapters = append(chapters, Chapter{Number: num, Title: title, Text: doc.Text})
	}

	var images []model.Image
	idx := 0
	for _, item := range pkg.Manifest.Item {
		if !strings.HasPrefix(item.MediaType, "image/") {
			continue
		}
		full := joinManifestPath(opfDir, item.Href)
		raw, err := zc.ReadBytes(full)
		idx++
		img := model.Image{ImageIndex: idx, ContentType: item.MediaType}
		if err != nil {
			img.Error = err.Error()
		} else {
			img.Data = raw
			img.Size = len(raw)
			if w, h, ok := safety.ImageDimensions(raw); ok {
				img.Width, img.Height = &w, &h
			}
		}
		images = append(images, img)
	}

	return &Content{Metadata: meta, Chapters: chapters, Images: images}, nil
}

func encrypted(zc *zipctx.Context) bool {
	if !zc.Has("META-INF/encryption.xml") {
		return false
	}
	b, err := zc.ReadBytes("META-INF/encryption.xml")
	if err != nil {
		return false
	}
	return strings.Contains(string(b), "EncryptedData")
}

func joinManifestPath(dir, href string) string {
	if dir == "." || dir == "" {
		return href
	}
	return path.Join(dir, href)
}

func firstOrEmpty(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return strings.TrimSpace(ss[0])
}
