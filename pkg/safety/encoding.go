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

package safety

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DecodedText is the result of best-effort encoding recovery: the decoded
// UTF-8 text plus the label the decoder settled on, for callers that want
// to surface DetectedEncoding on FileMetadata.
type DecodedText struct {
	Text     string
	Encoding string
}

// DecodeBytes turns a legacy byte stream of unknown encoding into UTF-8
// text. It tries, in order: a BOM, valid UTF-8 as-is, charset.DetermineEncoding
// (which sniffs a leading '<meta charset>' or statistical signature the
// way an HTML document would declare it), and finally falls back to
// Windows-1252 — RTF/DOC/XLS all default to that code page absent an
// explicit declaration — which cannot itself fail to decode since it
// maps every byte.
func DecodeBytes(b []byte, contentTypeHint string) DecodedText {
	if len(b) == 0 {
		return DecodedText{Text: "", Encoding: "utf-8"}
	}

	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return DecodedText{Text: string(b[3:]), Encoding: "utf-8"}
	}
	if bytes.HasPrefix(b, []byte{0xFF, 0xFE}) {
		return decodeUTF16(b[2:], false, "utf-16le")
	}
	if bytes.HasPrefix(b, []byte{0xFE, 0xFF}) {
		return decodeUTF16(b[2:], true, "utf-16be")
	}

	if utf8.Valid(b) {
		return DecodedText{Text: string(b), Encoding: "utf-8"}
	}

	if enc, name, _ := charset.DetermineEncoding(b, contentTypeHint); enc != nil {
		if out, _, err := transform.Bytes(enc.NewDecoder(), b); err == nil {
			return DecodedText{Text: string(out), Encoding: name}
		}
	}

	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), b)
	if err != nil {
		// Windows-1252 has no undefined code points, so this path is
		// unreachable in practice; the replacement keeps the caller total.
		return DecodedText{Text: string(bytes.ToValidUTF8(b, []byte("�"))), Encoding: "windows-1252"}
	}
	return DecodedText{Text: string(out), Encoding: "windows-1252"}
}

func decodeUTF16(b []byte, bigEndian bool, label string) DecodedText {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	runes := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		if bigEndian {
			runes = append(runes, uint16(b[i])<<8|uint16(b[i+1]))
		} else {
			runes = append(runes, uint16(b[i])|uint16(b[i+1])<<8)
		}
	}
	return DecodedText{Text: utf16ToString(runes), Encoding: label}
}

func utf16ToString(u []uint16) string {
	var buf bytes.Buffer
	for i := 0; i < len(u); i++ {
		r := rune(u[i])
		if r >= 0xD800 && r <= 0xDBFF && i+1 < len(u) {
			r2 := rune(u[i+1])
			if r2 >= 0xDC00 && r2 <= 0xDFFF {
				r = ((r - 0xD800) << 10) | (r2 - 0xDC00) + 0x10000
				i++
			}
		}
		buf.WriteRune(r)
	}
	return buf.String()
}
