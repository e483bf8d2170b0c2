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

// Package mhtml unwraps an MHTML (MIME HTML archive) to its primary
// text/html part and hands that off to pkg/decode/html (spec.md §4.14).
package mhtml

import (
	"bufio"
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"

	"github.com/corvidlabs/docforge/pkg/decode/html"
	"github.com/corvidlabs/docforge/pkg/xerrors"
)

// Decode locates the first text/html body part of an MHTML message and
// decodes it with pkg/decode/html.
func Decode(data []byte, path string) (*html.Content, error) {
	tp := textproto.NewReader(bufio.NewReader(bytes.NewReader(data)))
	hdr, err := tp.ReadMIMEHeader()
	if err != nil && err != io.EOF {
		return nil, xerrors.Failed(err)
	}

	mediaType, params, err := mime.ParseMediaType(hdr.Get("Content-Type"))
	if err != nil {
		// Some MHTML exports have no top-level header at all and go
		// straight into a boundary-delimited body; fall back to
		// scanning the raw bytes for the boundary marker directly.
		mediaType, params = sniffBoundary(data)
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		return html.Decode(data, path)
	}

	boundary := params["boundary"]
	if boundary == "" {
		return html.Decode(data, path)
	}

	mr := multipart.NewReader(bytes.NewReader(remainderAfterHeader(data)), boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		ct := part.Header.Get("Content-Type")
		pt, _, _ := mime.ParseMediaType(ct)
		if !strings.HasPrefix(pt, "text/html") {
			continue
		}

		content, decErr := decodePartBody(part)
		if decErr != nil {
			continue
		}
		return html.Decode(content, path)
	}

	return nil, xerrors.Failed(nil)
}

func decodePartBody(part *multipart.Part) ([]byte, error) {
	raw, err := io.ReadAll(part)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(part.Header.Get("Content-Transfer-Encoding")) {
	case "quoted-printable":
		out, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader(raw)))
		if err != nil {
			return raw, nil
		}
		return out, nil
	case "base64":
		return raw, nil // base64 parts are returned still encoded; nothing decodes them
	default:
		return raw, nil
	}
}

// remainderAfterHeader finds the blank line that ends the RFC-822-style
// header block and returns everything after it, for callers that already
// consumed the header via textproto but need the raw bytes for
// multipart.NewReader (which wants an io.Reader, not a bufio cursor).
func remainderAfterHeader(data []byte) []byte {
	if i := bytes.Index(data, []byte("\r\n\r\n")); i >= 0 {
		return data[i+4:]
	}
	if i := bytes.Index(data, []byte("\n\n")); i >= 0 {
		return data[i+2:]
	}
	return data
}

func sniffBoundary(data []byte) (string, map[string]string) {
	idx := bytes.Index(data, []byte("boundary="))
	if idx < 0 {
		return "", nil
	}
	rest := data[idx+len("boundary="):]
	end := bytes.IndexAny(rest, "\r\n;")
	if end < 0 {
		end = len(rest)
	}
	b := strings.Trim(string(rest[:end]), `"`)
	return "multipart/related", map[string]string{"boundary": b}
}
