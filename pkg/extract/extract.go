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

// Package extract is the public entry point (spec.md §6): Extract reads
// a path from disk, enforces the size gate, routes to a decoder, and
// returns its content objects; IsSupported answers without touching the
// filesystem. This is the one package that knows about every decoder
// and about pkg/archivewalk, wiring router.Format values to concrete
// Decode functions the way a dispatch table does it, and it owns the
// serialize.Default() registration every decoder's content type needs
// for round-tripping.
package extract

import (
	"os"

	"github.com/corvidlabs/docforge/pkg/archivewalk"
	"github.com/corvidlabs/docforge/pkg/decode/doc"
	"github.com/corvidlabs/docforge/pkg/decode/docx"
	"github.com/corvidlabs/docforge/pkg/decode/eml"
	"github.com/corvidlabs/docforge/pkg/decode/epub"
	"github.com/corvidlabs/docforge/pkg/decode/html"
	"github.com/corvidlabs/docforge/pkg/decode/mbox"
	"github.com/corvidlabs/docforge/pkg/decode/mhtml"
	"github.com/corvidlabs/docforge/pkg/decode/msg"
	"github.com/corvidlabs/docforge/pkg/decode/odp"
	"github.com/corvidlabs/docforge/pkg/decode/ods"
	"github.com/corvidlabs/docforge/pkg/decode/odt"
	"github.com/corvidlabs/docforge/pkg/decode/pdf"
	"github.com/corvidlabs/docforge/pkg/decode/plain"
	"github.com/corvidlabs/docforge/pkg/decode/ppt"
	"github.com/corvidlabs/docforge/pkg/decode/pptx"
	"github.com/corvidlabs/docforge/pkg/decode/rtf"
	"github.com/corvidlabs/docforge/pkg/decode/xls"
	"github.com/corvidlabs/docforge/pkg/decode/xlsx"
	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/router"
	"github.com/corvidlabs/docforge/pkg/serialize"
	"github.com/corvidlabs/docforge/pkg/xerrors"
)

// DefaultMaxFileSize is the extract-boundary size gate spec.md §6 names.
const DefaultMaxFileSize = 100 << 20

func init() {
	r := serialize.Default()
	r.Register("DocContent", doc.Content{})
	r.Register("DocxContent", docx.Content{})
	r.Register("EmailContent", model.MailContent{})
	r.Register("EpubContent", epub.Content{})
	r.Register("HtmlContent", html.Content{})
	r.Register("OdpContent", odp.Content{})
	r.Register("OdsContent", ods.Content{})
	r.Register("OdtContent", odt.Content{})
	r.Register("PdfContent", pdf.Content{})
	r.Register("PlainContent", plain.Content{})
	r.Register("PptContent", ppt.Content{})
	r.Register("PptxContent", pptx.Content{})
	r.Register("RtfContent", rtf.Content{})
	r.Register("XlsContent", xls.Content{})
	r.Register("XlsxContent", xlsx.Content{})
}

// IsSupported reports whether path routes to a decoder or the archive
// walker, without reading the file.
func IsSupported(path string) bool {
	return router.IsSupported(path)
}

// Extract reads path from disk, rejects it over maxFileSize, routes it
// to a decoder (or the archive walker), and returns its content
// objects. maxFileSize <= 0 uses DefaultMaxFileSize.
func Extract(path string, maxFileSize int64) ([]model.ContentObject, error) {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, xerrors.Failed(err)
	}
	if info.Size() > maxFileSize {
		return nil, xerrors.TooLarge(maxFileSize, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Failed(err)
	}

	return Decode(path, data)
}

// Decode routes already-read bytes to the matching decoder. It is the
// dispatch table pkg/archivewalk's Dispatcher calls back into for every
// archive member, and what Extract calls after reading the file.
func Decode(path string, data []byte) ([]model.ContentObject, error) {
	format, err := router.LookupContent(path, data)
	if err != nil {
		return nil, err
	}

	switch format {
	case router.FormatDOC:
		c, err := doc.Decode(data, path)
		return single(c, err)
	case router.FormatDOCX:
		c, err := docx.Decode(data, path)
		return single(c, err)
	case router.FormatXLS:
		c, err := xls.Decode(data, path)
		return single(c, err)
	case router.FormatXLSX:
		c, err := xlsx.Decode(data, path)
		return single(c, err)
	case router.FormatPPT:
		c, err := ppt.Decode(data, path)
		return single(c, err)
	case router.FormatPPTX:
		c, err := pptx.Decode(data, path)
		return single(c, err)
	case router.FormatRTF:
		c, err := rtf.Decode(data, path)
		return single(c, err)
	case router.FormatODT:
		c, err := odt.Decode(data, path)
		return single(c, err)
	case router.FormatODP:
		c, err := odp.Decode(data, path)
		return single(c, err)
	case router.FormatODS:
		c, err := ods.Decode(data, path)
		return single(c, err)
	case router.FormatPDF:
		c, err := pdf.Decode(data, path)
		return single(c, err)
	case router.FormatPlain:
		c, err := plain.Decode(data, path)
		return single(c, err)
	case router.FormatHTML:
		c, err := html.Decode(data, path)
		return single(c, err)
	case router.FormatMHTML:
		c, err := mhtml.Decode(data, path)
		return single(c, err)
	case router.FormatEPUB:
		c, err := epub.Decode(data, path)
		return single(c, err)
	case router.FormatEML:
		c, err := eml.Decode(data, path)
		return single(c, err)
	case router.FormatMBOX:
		msgs, err := mbox.Decode(data, path)
		if err != nil {
			return nil, err
		}
		out := make([]model.ContentObject, len(msgs))
		for i, m := range msgs {
			out[i] = m
		}
		return out, nil
	case router.FormatMSG:
		c, err := msg.Decode(data, path)
		return single(c, err)
	case router.FormatArchive:
		return archivewalk.Walk(data, path, archivewalk.DefaultLimits(), Decode)
	default:
		return nil, xerrors.NotSupported(path)
	}
}

// single wraps a decoder's *Content return (nil on error) into the
// []model.ContentObject slice shape every caller expects, covering both
// Extract's top-level call and archivewalk's per-member dispatch.
func single[T model.ContentObject](c T, err error) ([]model.ContentObject, error) {
	if err != nil {
		return nil, err
	}
	return []model.ContentObject{c}, nil
}
