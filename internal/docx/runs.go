package docx

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
)

// runText returns the text a run renders: w:t text, tabs and breaks.
func runText(r *etree.Element) string {
	var b strings.Builder
	for _, c := range contentChildren(r) {
		b.WriteString(contentText(c))
	}
	return b.String()
}

func runLen(r *etree.Element) int {
	return utf8.RuneCountInString(runText(r))
}

// contentChildren returns the child elements of a run other than its
// properties.
func contentChildren(r *etree.Element) []*etree.Element {
	var out []*etree.Element
	for _, c := range r.ChildElements() {
		if c.FullTag() != "w:rPr" {
			out = append(out, c)
		}
	}
	return out
}

func contentText(c *etree.Element) string {
	switch c.FullTag() {
	case "w:t":
		return c.Text()
	case "w:tab":
		return "\t"
	case "w:br", "w:cr":
		return "\n"
	case "w:noBreakHyphen":
		return "-"
	}
	return ""
}

func setText(t *etree.Element, s string) {
	t.SetText(s)
	t.CreateAttr("xml:space", "preserve")
}

// splitRun splits r after k runes. r keeps the head; the returned tail is
// inserted right after r in its parent. Both keep r's properties.
func splitRun(r *etree.Element, k int) *etree.Element {
	tail := r.Copy()
	headKids := contentChildren(r)
	tailKids := contentChildren(tail)

	pos := 0
	for i, c := range headKids {
		n := utf8.RuneCountInString(contentText(c))
		switch {
		case pos+n <= k:
			tail.RemoveChild(tailKids[i])
		case pos >= k:
			r.RemoveChild(c)
		default:
			text := []rune(c.Text())
			setText(c, string(text[:k-pos]))
			setText(tailKids[i], string(text[k-pos:]))
		}
		pos += n
	}

	r.Parent().InsertChildAt(r.Index()+1, tail)
	return tail
}

// splitAt makes off a run boundary of a.
func (d *Document) splitAt(a *anchor, off int) {
	pos := 0
	for _, r := range a.runs {
		n := runLen(r)
		if off > pos && off < pos+n {
			d.insertAfter(r, splitRun(r, off-pos))
			return
		}
		pos += n
	}
}

// insertAfter registers tail after r in every anchor r belongs to.
func (d *Document) insertAfter(r, tail *etree.Element) {
	for _, a := range d.owners[r] {
		if i := slices.Index(a.runs, r); i >= 0 {
			a.runs = slices.Insert(a.runs, i+1, tail)
		}
		d.owners[tail] = append(d.owners[tail], a)
	}
}

// rPrOrder is the schema order of the run properties we write.
var rPrOrder = []string{
	"w:rStyle", "w:rFonts", "w:b", "w:bCs", "w:i", "w:iCs", "w:caps",
	"w:smallCaps", "w:strike", "w:dstrike", "w:outline", "w:shadow",
	"w:emboss", "w:imprint", "w:noProof", "w:snapToGrid", "w:vanish",
	"w:webHidden", "w:color", "w:spacing", "w:w", "w:kern", "w:position",
	"w:sz", "w:szCs", "w:highlight", "w:u", "w:effect", "w:bdr", "w:shd",
	"w:fitText", "w:vertAlign", "w:rtl", "w:cs", "w:em", "w:lang",
	"w:eastAsianLayout", "w:specVanish", "w:oMath",
}

func runProperties(r *etree.Element) *etree.Element {
	if rPr := r.SelectElement("w:rPr"); rPr != nil {
		return rPr
	}
	rPr := etree.NewElement("w:rPr")
	r.InsertChildAt(0, rPr)
	return rPr
}

// setProperty sets w:val of a run property, creating it at its schema
// position when absent.
func setProperty(rPr *etree.Element, tag, val string) {
	if el := rPr.SelectElement(tag); el != nil {
		el.CreateAttr("w:val", val)
		return
	}

	el := etree.NewElement(tag)
	el.CreateAttr("w:val", val)

	rank := slices.Index(rPrOrder, tag)
	for _, c := range rPr.ChildElements() {
		if i := slices.Index(rPrOrder, c.FullTag()); i > rank {
			rPr.InsertChildAt(c.Index(), el)
			return
		}
	}
	rPr.AddChild(el)
}
