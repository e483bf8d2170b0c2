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

// Package mbox splits an mbox file into its constituent RFC-822 messages
// (spec.md §4.15) using emersion/go-mbox's "From " boundary scanner, then
// applies pkg/decode/eml to each message in file order.
package mbox

import (
	"bytes"
	"io"

	gomboxpkg "github.com/emersion/go-mbox"

	"github.com/corvidlabs/docforge/pkg/decode/eml"
	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/xerrors"
)

// Decode yields one MailContent per message in the mbox, in file order.
// Per spec.md §5, the stream is staged in memory rather than a temp file
// since the library already reads the whole input into RAM at the
// extract() boundary; no separate staging directory is needed here.
func Decode(data []byte, path string) ([]*model.MailContent, error) {
	r := gomboxpkg.NewReader(bytes.NewReader(data))

	var out []*model.MailContent
	for {
		msgReader, err := r.NextMessage()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, xerrors.LegacyParse("malformed mbox stream", err)
		}

		raw, err := io.ReadAll(msgReader)
		if err != nil {
			return out, xerrors.Failed(err)
		}

		mc, err := eml.Decode(raw, path)
		if err != nil {
			// One malformed message shouldn't fail the whole mailbox;
			// spec.md §9's best-effort pattern applies per-message here.
			continue
		}
		out = append(out, mc)
	}
	return out, nil
}
