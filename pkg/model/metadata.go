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

package model

// OfficeMetadata is the common field surface shared by every
// Office/ODF/PDF format's metadata (spec.md §3 "Format-specific
// metadata"). All strings default to empty, all numerics to zero —
// absence is a zero/empty sentinel, never a null.
type OfficeMetadata struct {
	FileMetadata

	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	Category     string `json:"category,omitempty"`
	Comments     string `json:"comments,omitempty"`
	Created      string `json:"created,omitempty"`  // ISO-8601
	Modified     string `json:"modified,omitempty"` // ISO-8601
	LastSavedBy  string `json:"last_saved_by,omitempty"`
	Revision     string `json:"revision,omitempty"`
	PageCount    int    `json:"page_count,omitempty"`
	WordCount    int    `json:"word_count,omitempty"`
	CharCount    int    `json:"char_count,omitempty"`
}

// EmailAddress has a display name and the bare address string.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// EmailMetadata carries the mail-specific metadata fields.
type EmailMetadata struct {
	FileMetadata
	Date      string `json:"date,omitempty"` // ISO-8601
	MessageID string `json:"message_id,omitempty"`
}

// MailContent is one parsed email (EML, one MBOX record, or one decoded
// MSG). It satisfies ContentObject with a single synthetic body unit.
type MailContent struct {
	From       EmailAddress   `json:"from"`
	To         []EmailAddress `json:"to,omitempty"`
	Cc         []EmailAddress `json:"cc,omitempty"`
	Bcc        []EmailAddress `json:"bcc,omitempty"`
	ReplyTo    []EmailAddress `json:"reply_to,omitempty"`
	Subject    string         `json:"subject"`
	InReplyTo  string         `json:"in_reply_to,omitempty"`
	BodyPlain  string         `json:"body_plain"`
	BodyHTML   string         `json:"body_html"`
	Metadata   EmailMetadata  `json:"metadata"`
}

func (m *MailContent) body() string {
	if m.BodyPlain != "" {
		return m.BodyPlain
	}
	return m.BodyHTML
}

// IterateUnits yields the single notional body unit mail content has.
func (m *MailContent) IterateUnits() []Unit {
	return []Unit{{Number: 1, Text: m.body()}}
}

// IterateImages returns no images: mail bodies carry no first-class
// image records in this model (inline cid: images live in BodyHTML).
func (m *MailContent) IterateImages() []Image { return nil }

// FullText is the single body text (BodyPlain, or BodyHTML when there is
// no plain body), exactly as IterateUnits' one unit carries it.
func (m *MailContent) FullText() string { return m.body() }

func (m *MailContent) TypeTag() TypeTag { return TagEmail }
