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

package omml_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/corvidlabs/docforge/pkg/omml"
)

func TestOMML(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "OMML Suite")
}

var _ = Describe("OMML to LaTeX conversion", func() {
	It("converts a fraction", func() {
		xml := `<f><num><e><m:t>1</m:t></e></num><den><e><m:t>2</m:t></e></den></f>`
		Expect(omml.ConvertXML([]byte(xml))).To(Equal(`\frac{1}{2}`))
	})

	It("converts a superscript", func() {
		xml := `<sSup><e><m:t>x</m:t></e><sup><m:t>2</m:t></sup></sSup>`
		Expect(omml.ConvertXML([]byte(xml))).To(Equal(`{x}^{2}`))
	})

	It("converts a subscript-superscript combination", func() {
		xml := `<sSubSup><e><m:t>x</m:t></e><sub><m:t>i</m:t></sub><sup><m:t>2</m:t></sup></sSubSup>`
		Expect(omml.ConvertXML([]byte(xml))).To(Equal(`{x}_{i}^{2}`))
	})

	It("converts a radical with a hidden degree to a plain square root", func() {
		xml := `<rad><radPr><degHide val="1"/></radPr><deg/><e><m:t>2</m:t></e></rad>`
		Expect(omml.ConvertXML([]byte(xml))).To(Equal(`\sqrt{2}`))
	})

	It("converts a radical with an explicit degree", func() {
		xml := `<rad><deg><m:t>3</m:t></deg><e><m:t>8</m:t></e></rad>`
		Expect(omml.ConvertXML([]byte(xml))).To(Equal(`\sqrt[3]{8}`))
	})

	It("converts a summation n-ary with limits", func() {
		xml := `<nary><naryPr><chr val="∑"/></naryPr><sub><m:t>i=0</m:t></sub><sup><m:t>n</m:t></sup><e><m:t>i</m:t></e></nary>`
		Expect(omml.ConvertXML([]byte(xml))).To(Equal(`\sum_{i=0}^{n} i`))
	})

	It("converts delimiters with custom glyphs", func() {
		xml := `<d><dPr><begChr val="["/><endChr val="]"/></dPr><e><m:t>x</m:t></e><e><m:t>y</m:t></e></d>`
		Expect(omml.ConvertXML([]byte(xml))).To(Equal(`[x, y]`))
	})

	It("converts a 2x2 matrix", func() {
		xml := `<m><mr><e><m:t>1</m:t></e><e><m:t>0</m:t></e></mr><mr><e><m:t>0</m:t></e><e><m:t>1</m:t></e></mr></m>`
		Expect(omml.ConvertXML([]byte(xml))).To(Equal(`\begin{matrix} 1 & 0 \\ 0 & 1 \end{matrix}`))
	})

	It("converts a known named function", func() {
		xml := `<func><fName><m:t>sin</m:t></fName><e><m:t>x</m:t></e></func>`
		Expect(omml.ConvertXML([]byte(xml))).To(Equal(`\sin{x}`))
	})

	It("passes an unknown function name through as-is", func() {
		xml := `<func><fName><m:t>myFn</m:t></fName><e><m:t>x</m:t></e></func>`
		Expect(omml.ConvertXML([]byte(xml))).To(Equal(`myFn{x}`))
	})

	It("converts an overline", func() {
		xml := `<bar><e><m:t>x</m:t></e></bar>`
		Expect(omml.ConvertXML([]byte(xml))).To(Equal(`\overline{x}`))
	})

	It("substitutes Greek letters and math symbols in literal runs", func() {
		xml := `<m:t>α + ∞</m:t>`
		Expect(omml.ConvertXML([]byte(xml))).To(Equal(`\alpha  + \infty `))
	})

	It("emits empty string for property wrappers", func() {
		xml := `<rPr><a/></rPr>`
		Expect(omml.ConvertXML([]byte(xml))).To(Equal(""))
	})
})
