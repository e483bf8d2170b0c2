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

// Package omml converts an OMML (Office Math Markup Language) subtree
// into a LaTeX string, as embedded in both DOCX (m: namespace) and PPTX
// shape text.
package omml

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// node is a namespace-agnostic view of one OMML element: local tag name,
// its attributes by local name, text content if it's a leaf, and children
// in document order. Decoding through this shape rather than a typed
// struct per element lets one Convert walk handle both the `m:` (DOCX)
// and `a:` (PPTX, same schema under a different prefix) trees uniformly.
type node struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*node
}

// Parse decodes raw OMML XML bytes (the serialized subtree of one
// m:oMath or m:oMathPara element) into a node tree.
func Parse(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	var root *node
	var stack []*node

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{Tag: t.Name.Local, Attrs: map[string]string{}}
			for _, a := range t.Attr {
				n.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else {
				root = n
			}
			stack = append(stack, n)
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return root, nil
}

// Convert renders an OMML subtree (already parsed by Parse, or any
// element found by walking a larger document) as LaTeX.
func Convert(n *node) string {
	if n == nil {
		return ""
	}
	return convertNode(n)
}

// ConvertXML parses and converts raw OMML bytes in one call.
func ConvertXML(data []byte) string {
	n, err := Parse(data)
	if err != nil || n == nil {
		return ""
	}
	return Convert(n)
}

func convertNode(n *node) string {
	switch n.Tag {
	case "f": // fraction
		num, den := childByTag(n, "num"), childByTag(n, "den")
		return `\frac{` + convertChildren(num) + `}{` + convertChildren(den) + `}`

	case "sSup":
		base, sup := childByTag(n, "e"), childByTag(n, "sup")
		return "{" + convertChildren(base) + "}^{" + convertChildren(sup) + "}"

	case "sSub":
		base, sub := childByTag(n, "e"), childByTag(n, "sub")
		return "{" + convertChildren(base) + "}_{" + convertChildren(sub) + "}"

	case "sSubSup":
		base := childByTag(n, "e")
		sub := childByTag(n, "sub")
		sup := childByTag(n, "sup")
		return "{" + convertChildren(base) + "}_{" + convertChildren(sub) + "}^{" + convertChildren(sup) + "}"

	case "rad":
		deg := childByTag(n, "deg")
		e := childByTag(n, "e")
		if radicalDegreeHidden(n) || deg == nil || strings.TrimSpace(convertChildren(deg)) == "" {
			return `\sqrt{` + convertChildren(e) + `}`
		}
		return `\sqrt[` + convertChildren(deg) + `]{` + convertChildren(e) + `}`

	case "nary":
		return convertNary(n)

	case "d":
		return convertDelimiter(n)

	case "m":
		return convertMatrix(n)

	case "func":
		return convertFunc(n)

	case "bar":
		return `\overline{` + convertChildren(childByTag(n, "e")) + `}`

	case "acc":
		return convertAccent(n)

	case "m:t", "a:t", "t":
		return substituteSymbols(n.Text)

	case "rPr", "fPr", "ctrlPr", "sSupPr", "sSubPr", "sSubSupPr", "radPr",
		"naryPr", "dPr", "mPr", "funcPr", "barPr", "accPr", "mcPr", "mrPr":
		return ""

	default:
		var b strings.Builder
		for _, c := range n.Children {
			b.WriteString(convertNode(c))
		}
		return b.String()
	}
}

func convertChildren(n *node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(convertNode(c))
	}
	return b.String()
}

func childByTag(n *node, tag string) *node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

func radicalDegreeHidden(n *node) bool {
	props := childByTag(n, "radPr")
	if props == nil {
		return false
	}
	hide := childByTag(props, "degHide")
	if hide == nil {
		return false
	}
	if v, ok := hide.Attrs["val"]; ok {
		return v != "0" && v != "false" && v != "off"
	}
	return true
}

var naryOperators = map[string]string{
	"∑": `\sum`,
	"∏": `\prod`,
	"∫": `\int`,
	"∬": `\iint`,
	"∭": `\iiint`,
	"⋃": `\bigcup`,
	"⋂": `\bigcap`,
}

func convertNary(n *node) string {
	props := childByTag(n, "naryPr")
	op := `\sum`
	if props != nil {
		if chr := childByTag(props, "chr"); chr != nil {
			if v, ok := chr.Attrs["val"]; ok {
				if mapped, ok := naryOperators[v]; ok {
					op = mapped
				}
			}
		}
	}

	sub := convertChildren(childByTag(n, "sub"))
	sup := convertChildren(childByTag(n, "sup"))
	body := convertChildren(childByTag(n, "e"))

	var b strings.Builder
	b.WriteString(op)
	if sub != "" {
		b.WriteString("_{" + sub + "}")
	}
	if sup != "" {
		b.WriteString("^{" + sup + "}")
	}
	b.WriteString(" " + body)
	return b.String()
}

func convertDelimiter(n *node) string {
	begin, end := "(", ")"
	if props := childByTag(n, "dPr"); props != nil {
		if beg := childByTag(props, "begChr"); beg != nil {
			if v, ok := beg.Attrs["val"]; ok && v != "" {
				begin = v
			}
		}
		if ec := childByTag(props, "endChr"); ec != nil {
			if v, ok := ec.Attrs["val"]; ok && v != "" {
				end = v
			}
		}
	}

	var parts []string
	for _, c := range n.Children {
		if c.Tag == "e" {
			parts = append(parts, convertChildren(c))
		}
	}
	return begin + strings.Join(parts, ", ") + end
}

func convertMatrix(n *node) string {
	var rows []string
	for _, c := range n.Children {
		if c.Tag != "mr" {
			continue
		}
		var cells []string
		for _, cc := range c.Children {
			if cc.Tag == "e" {
				cells = append(cells, convertChildren(cc))
			}
		}
		rows = append(rows, strings.Join(cells, " & "))
	}
	return `\begin{matrix} ` + strings.Join(rows, ` \\ `) + ` \end{matrix}`
}

var knownFunctions = map[string]string{
	"sin": `\sin`, "cos": `\cos`, "tan": `\tan`,
	"sinh": `\sinh`, "cosh": `\cosh`, "tanh": `\tanh`,
	"log": `\log`, "ln": `\ln`, "lim": `\lim`,
	"min": `\min`, "max": `\max`, "arcsin": `\arcsin`,
	"arccos": `\arccos`, "arctan": `\arctan`, "cot": `\cot`,
	"sec": `\sec`, "csc": `\csc`,
}

func convertFunc(n *node) string {
	name := convertChildren(childByTag(n, "fName"))
	name = strings.TrimSpace(name)
	arg := convertChildren(childByTag(n, "e"))

	if mapped, ok := knownFunctions[name]; ok {
		name = mapped
	}
	return name + "{" + arg + "}"
}

var accentGlyphs = map[string]string{
	"^":      `\hat`,
	"˜":      `\tilde`,
	"~":      `\tilde`,
	"ˉ":      `\bar`,
	"¯":      `\bar`,
	"⃗": `\vec`,
	"→":      `\vec`,
	"˙":      `\dot`,
	".":      `\dot`,
}

func convertAccent(n *node) string {
	cmd := `\hat`
	if props := childByTag(n, "accPr"); props != nil {
		if chr := childByTag(props, "chr"); chr != nil {
			if v, ok := chr.Attrs["val"]; ok {
				if mapped, ok := accentGlyphs[v]; ok {
					cmd = mapped
				}
			}
		}
	}
	return cmd + "{" + convertChildren(childByTag(n, "e")) + "}"
}

var symbolSubstitutions = map[rune]string{
	'α': `\alpha`, 'β': `\beta`, 'γ': `\gamma`, 'δ': `\delta`,
	'ε': `\epsilon`, 'ζ': `\zeta`, 'η': `\eta`, 'θ': `\theta`,
	'ι': `\iota`, 'κ': `\kappa`, 'λ': `\lambda`, 'μ': `\mu`,
	'ν': `\nu`, 'ξ': `\xi`, 'π': `\pi`, 'ρ': `\rho`,
	'σ': `\sigma`, 'τ': `\tau`, 'υ': `\upsilon`, 'φ': `\phi`,
	'χ': `\chi`, 'ψ': `\psi`, 'ω': `\omega`,
	'Α': `\Alpha`, 'Β': `\Beta`, 'Γ': `\Gamma`, 'Δ': `\Delta`,
	'Θ': `\Theta`, 'Λ': `\Lambda`, 'Ξ': `\Xi`, 'Π': `\Pi`,
	'Σ': `\Sigma`, 'Φ': `\Phi`, 'Ψ': `\Psi`, 'Ω': `\Omega`,
	'∞': `\infty`, '±': `\pm`, '∓': `\mp`, '×': `\times`,
	'÷': `\div`, '≤': `\leq`, '≥': `\geq`, '≠': `\neq`,
	'≈': `\approx`, '≡': `\equiv`, '∈': `\in`, '∉': `\notin`,
	'⊂': `\subset`, '⊆': `\subseteq`, '∪': `\cup`, '∩': `\cap`,
	'∅': `\emptyset`, '∇': `\nabla`, '∂': `\partial`, '→': `\rightarrow`,
	'←': `\leftarrow`, '↔': `\leftrightarrow`, '⇒': `\Rightarrow`,
	'√': `\sqrt`, '·': `\cdot`, '°': `^\circ`,
}

// substituteSymbols rewrites Greek letters and common math glyphs found
// in OMML literal runs into their LaTeX macro equivalents, leaving all
// other characters untouched.
func substituteSymbols(text string) string {
	var b strings.Builder
	for _, r := range text {
		if sub, ok := symbolSubstitutions[r]; ok {
			b.WriteString(sub)
			b.WriteString(" ")
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
