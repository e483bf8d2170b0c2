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

// Package eml parses an RFC-822/MIME email (spec.md §4.15) on top of
// emersion/go-message's Entity/Header API, the way the retrieval pack's
// mail-handling repos (aerion, mail-archive) build on the same library.
package eml

import (
	"bytes"
	"io"
	"mime"
	"net/mail"
	"strings"
	"time"

	gomessage "github.com/emersion/go-message"

	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/xerrors"
)

// Decode parses raw EML bytes into a MailContent.
func Decode(data []byte, path string) (*model.MailContent, error) {
	entity, err := gomessage.Read(bytes.NewReader(data))
	if err != nil {
		return nil, xerrors.LegacyParse("malformed MIME message", err)
	}

	mc := &model.MailContent{}
	mc.Metadata.PopulateFromPath(path)

	mc.From = firstAddress(entity.Header.Get("From"))
	mc.To = addressList(entity.Header.Get("To"))
	mc.Cc = addressList(entity.Header.Get("Cc"))
	mc.Bcc = addressList(entity.Header.Get("Bcc"))
	mc.ReplyTo = addressList(entity.Header.Get("Reply-To"))
	mc.Subject = decodeWord(entity.Header.Get("Subject"))
	mc.InReplyTo = strings.TrimSpace(entity.Header.Get("In-Reply-To"))
	mc.Metadata.MessageID = strings.Trim(strings.TrimSpace(entity.Header.Get("Message-Id")), "<>")

	if d := entity.Header.Get("Date"); d != "" {
		if t, err := mail.ParseDate(d); err == nil {
			mc.Metadata.Date = t.UTC().Format(time.RFC3339)
		}
	}

	plain, htmlBody := selectBody(entity)
	mc.BodyPlain = plain
	mc.BodyHTML = htmlBody

	return mc, nil
}

// selectBody walks a (possibly multipart) entity depth-first, returning
// the first text/plain and first text/html part bodies it finds —
// spec.md §4.15's "choose the plain body if present, else the HTML body"
// is implemented by the caller preferring BodyPlain when non-empty.
func selectBody(entity *gomessage.Entity) (plain, htmlBody string) {
	mr := entity.MultipartReader()
	if mr == nil {
		ct, _, _ := entity.Header.ContentType()
		body, _ := io.ReadAll(entity.Body)
		switch {
		case strings.HasPrefix(ct, "text/html"):
			return "", string(body)
		default:
			return string(body), ""
		}
	}

	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		ct, _, _ := part.Header.ContentType()
		if strings.HasPrefix(ct, "multipart/") {
			p, h := selectBody(part)
			if plain == "" {
				plain = p
			}
			if htmlBody == "" {
				htmlBody = h
			}
			continue
		}
		body, _ := io.ReadAll(part.Body)
		switch {
		case strings.HasPrefix(ct, "text/plain") && plain == "":
			plain = string(body)
		case strings.HasPrefix(ct, "text/html") && htmlBody == "":
			htmlBody = string(body)
		}
	}
	return plain, htmlBody
}

var wordDecoder = &mime.WordDecoder{}

// decodeWord decodes RFC 2047 encoded-words ("=?UTF-8?B?...?=") in
// header field values; a field with no encoded words passes through
// unchanged.
func decodeWord(s string) string {
	out, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return out
}

func firstAddress(raw string) model.EmailAddress {
	addrs := addressList(raw)
	if len(addrs) == 0 {
		return model.EmailAddress{}
	}
	return addrs[0]
}

// addressList parses a header address-list field, decoding RFC 2047
// encoded display names.
func addressList(raw string) []model.EmailAddress {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parsed, err := mail.ParseAddressList(decodeWord(raw))
	if err != nil {
		// Some senders emit a single malformed address; fall back to a
		// best-effort single-address parse rather than dropping the
		// whole field.
		if a, aerr := mail.ParseAddress(decodeWord(raw)); aerr == nil {
			return []model.EmailAddress{{Name: a.Name, Address: a.Address}}
		}
		return nil
	}
	out := make([]model.EmailAddress, 0, len(parsed))
	for _, a := range parsed {
		out = append(out, model.EmailAddress{Name: a.Name, Address: a.Address})
	}
	return out
}
