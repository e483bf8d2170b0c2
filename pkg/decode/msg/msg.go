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

// Package msg parses an Outlook MSG compound document (spec.md §4.15):
// properties live as CFBF streams named "__substg1.0_TTTTYYYY" (TTTT the
// property tag, YYYY the type) at the message level and inside one
// "__recip_version1.0_#NNNNNNNN" storage per recipient, walked directly
// with richardlehane/mscfb the way the pack's legacy-Office parsers do
// (Vantagics-AskFlow, VantageDataChat-VantageSelfservice).
package msg

import (
	"bytes"
	"encoding/binary"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/richardlehane/mscfb"

	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/xerrors"
)

// Property tags used by this decoder (spec.md §4.15's field list).
const (
	tagSubject       = "0037"
	tagBody          = "1000"
	tagBodyHTML      = "1013"
	tagSenderName    = "0C1A"
	tagSenderEmail   = "0C1F"
	tagTransportHdrs = "007D"
	tagInternetMsgID = "1035"
	tagDisplayTo     = "0E04"
	tagDisplayCc     = "0E03"
	tagClientSubmit  = "0039"
)

const (
	typeStringANSI    = "001E"
	typeStringUnicode = "001F"
)

// recipientType values from MAPI PR_RECIPIENT_TYPE.
const (
	recipTo  = 1
	recipCc  = 2
	recipBcc = 3
)

type storage struct {
	props map[string][]byte // "TTTTYYYY" -> raw stream bytes
}

func newStorage() *storage { return &storage{props: map[string][]byte{}} }

// text returns a property's decoded text, preferring the Unicode (UTF-16LE)
// variant over the ANSI/CP-1252 one when both exist.
func (s *storage) text(tag string) string {
	if b, ok := s.props[tag+typeStringUnicode]; ok {
		return decodeUTF16LE(b)
	}
	if b, ok := s.props[tag+typeStringANSI]; ok {
		return string(bytes.TrimRight(b, "\x00"))
	}
	return ""
}

func (s *storage) recipientType() int {
	b, ok := s.props["0C150003"] // PT_LONG
	if !ok || len(b) < 4 {
		return 0
	}
	return int(binary.LittleEndian.Uint32(b))
}

var substgRe = regexp.MustCompile(`^__substg1\.0_([0-9A-Fa-f]{4})([0-9A-Fa-f]{4})`)
var recipRe = regexp.MustCompile(`^__recip_version1\.0_#(\d+)`)

// Decode walks the compound document, bucketing top-level properties into
// the message storage and recipient-storage properties by recipient index.
func Decode(data []byte, path string) (*model.MailContent, error) {
	r, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, xerrors.LegacyParse("not a compound file", err)
	}

	msgProps := newStorage()
	recipients := map[string]*storage{}

	for entry, nextErr := r.Next(); nextErr == nil; entry, nextErr = r.Next() {
		if entry == nil {
			continue
		}
		name := entry.Name
		b, readErr := io.ReadAll(entry)
		if readErr != nil {
			continue
		}

		// Determine which storage (message-level or a specific recipient)
		// this stream's parent path belongs to.
		recipIdx := ""
		for _, seg := range entry.Path {
			if m := recipRe.FindStringSubmatch(seg); m != nil {
				recipIdx = m[1]
				break
			}
		}

		m := substgRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		tag, typ := strings.ToUpper(m[1]), strings.ToUpper(m[2])

		target := msgProps
		if recipIdx != "" {
			st, ok := recipients[recipIdx]
			if !ok {
				st = newStorage()
				recipients[recipIdx] = st
			}
			target = st
		}
		target.props[tag+typ] = b
	}

	mc := &model.MailContent{}
	mc.Metadata.PopulateFromPath(path)

	mc.Subject = msgProps.text(tagSubject)
	mc.BodyPlain = msgProps.text(tagBody)
	mc.BodyHTML = msgProps.text(tagBodyHTML)
	mc.Metadata.MessageID = strings.Trim(msgProps.text(tagInternetMsgID), "<>")

	mc.From = parseSenderField(msgProps.text(tagSenderName), msgProps.text(tagSenderEmail))

	headers := msgProps.text(tagTransportHdrs)
	mc.Metadata.Date = dateFromHeaders(headers)

	for _, idx := range sortedKeys(recipients) {
		st := recipients[idx]
		addr := parseRecipientField(st.text("3001"), st.text("3003"))
		if addr.Address == "" {
			// spec.md's Open Questions: an address-less recipient
			// (name only, no resolvable address) is silently dropped.
			continue
		}
		switch st.recipientType() {
		case recipTo:
			mc.To = append(mc.To, addr)
		case recipCc:
			mc.Cc = append(mc.Cc, addr)
		case recipBcc:
			mc.Bcc = append(mc.Bcc, addr)
		default:
			mc.To = append(mc.To, addr)
		}
	}

	return mc, nil
}

func sortedKeys(m map[string]*storage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// numeric sort keeps recipients in their original MAPI row order
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0; j-- {
			a, _ := strconv.Atoi(keys[j-1])
			b, _ := strconv.Atoi(keys[j])
			if a <= b {
				break
			}
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func decodeUTF16LE(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	u := make([]uint16, len(b)/2)
	for i := range u {
		u[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return strings.TrimRight(string(utf16Decode(u)), "\x00")
}

func utf16Decode(u []uint16) []rune {
	out := make([]rune, 0, len(u))
	for i := 0; i < len(u); i++ {
		r := rune(u[i])
		if r >= 0xD800 && r <= 0xDBFF && i+1 < len(u) {
			r2 := rune(u[i+1])
			if r2 >= 0xDC00 && r2 <= 0xDFFF {
				r = ((r - 0xD800) << 10) | (r2 - 0xDC00) + 0x10000
				i++
			}
		}
		out = append(out, r)
	}
	return out
}

var angleAddrRe = regexp.MustCompile(`<([^<>@\s]+@[^<>\s]+)>`)
var bareEmailRe = regexp.MustCompile(`^[^<>@\s]+@[^<>\s]+$`)

// parseSenderField handles the MSG sender field's free-form shapes
// (spec.md §4.15): "Name <addr>", bare "<addr>", bare "name@host", or
// just a name with no address at all.
func parseSenderField(name, emailProp string) model.EmailAddress {
	if emailProp != "" {
		return model.EmailAddress{Name: name, Address: emailProp}
	}
	if m := angleAddrRe.FindStringSubmatch(name); m != nil {
		display := strings.TrimSpace(strings.TrimSuffix(name, "<"+m[1]+">"))
		return model.EmailAddress{Name: strings.TrimSpace(display), Address: m[1]}
	}
	if bareEmailRe.MatchString(strings.TrimSpace(name)) {
		return model.EmailAddress{Address: strings.TrimSpace(name)}
	}
	return model.EmailAddress{Name: name}
}

func parseRecipientField(displayName, emailAddr string) model.EmailAddress {
	if emailAddr != "" {
		return model.EmailAddress{Name: displayName, Address: emailAddr}
	}
	if m := angleAddrRe.FindStringSubmatch(displayName); m != nil {
		return model.EmailAddress{Name: displayName, Address: m[1]}
	}
	// Name-only recipient with no address resolves to empty Address;
	// Decode drops these per spec.md's documented Open Question.
	return model.EmailAddress{Name: displayName}
}

var dateHeaderRe = regexp.MustCompile(`(?im)^Date:\s*(.+)$`)

func dateFromHeaders(headers string) string {
	m := dateHeaderRe.FindStringSubmatch(headers)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
