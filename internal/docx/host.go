package docx

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"

	"github.com/noterools/zotlink/internal/bookmark"
	"github.com/noterools/zotlink/internal/host"
)

// CitationFields implements host.Host.
func (d *Document) CitationFields() ([]host.Field, error) {
	fields := make([]host.Field, len(d.fields))
	for i, f := range d.fields {
		fields[i] = host.Field{Code: f.code, Result: f.result.text()}
	}
	return fields, nil
}

// BibliographyParagraphs implements host.Host. Blank paragraphs are skipped.
func (d *Document) BibliographyParagraphs() ([]string, error) {
	paras := make([]string, len(d.paragraphs))
	for i, p := range d.paragraphs {
		paras[i] = p.text()
	}
	return paras, nil
}

// Reset implements host.Host. It removes every Ref_ bookmark and unwraps
// every hyperlink to one.
func (d *Document) Reset() error {
	ids := make(map[string]bool)
	for _, bm := range d.doc.FindElements("//w:bookmarkStart") {
		name := bm.SelectAttrValue("w:name", "")
		if !strings.HasPrefix(name, bookmark.Prefix) {
			continue
		}
		ids[bm.SelectAttrValue("w:id", "")] = true
		delete(d.names, name)
		bm.Parent().RemoveChild(bm)
	}
	for _, be := range d.doc.FindElements("//w:bookmarkEnd") {
		if ids[be.SelectAttrValue("w:id", "")] {
			be.Parent().RemoveChild(be)
		}
	}

	for _, link := range d.doc.FindElements("//w:hyperlink") {
		if strings.HasPrefix(link.SelectAttrValue("w:anchor", ""), bookmark.Prefix) {
			unwrap(link)
		}
	}
	return nil
}

func unwrap(e *etree.Element) {
	parent := e.Parent()
	idx := e.Index()
	kids := append([]etree.Token(nil), e.Child...)
	parent.RemoveChild(e)
	for i, k := range kids {
		e.RemoveChild(k)
		parent.InsertChildAt(idx+i, k)
	}
}

// ApplyBookmark implements host.Host.
func (d *Document) ApplyBookmark(id string, r host.Range) error {
	if id == "" || utf8.RuneCountInString(id) > host.MaxBookmarkName {
		return fmt.Errorf("%w: %q", host.ErrInvalidName, id)
	}
	if d.names[id] {
		return fmt.Errorf("%w: %s", host.ErrDuplicateName, id)
	}

	runs, err := d.isolate(r)
	if err != nil {
		return err
	}
	first, last := runs[0], runs[len(runs)-1]

	bmID := strconv.Itoa(d.nextID)
	start := etree.NewElement("w:bookmarkStart")
	start.CreateAttr("w:id", bmID)
	start.CreateAttr("w:name", id)
	end := etree.NewElement("w:bookmarkEnd")
	end.CreateAttr("w:id", bmID)

	first.Parent().InsertChildAt(first.Index(), start)
	last.Parent().InsertChildAt(last.Index()+1, end)

	d.nextID++
	d.names[id] = true
	return nil
}

// ApplyHyperlink implements host.Host. The range must lie in one paragraph
// and outside any existing hyperlink.
func (d *Document) ApplyHyperlink(id string, r host.Range) error {
	runs, err := d.isolate(r)
	if err != nil {
		return err
	}

	parent := runs[0].Parent()
	for _, run := range runs[1:] {
		if run.Parent() != parent {
			return fmt.Errorf("%w: %s spans several paragraphs", host.ErrInvalidRange, r)
		}
	}
	if parent.FullTag() == "w:hyperlink" {
		return fmt.Errorf("%w: %s is inside an existing hyperlink", host.ErrInvalidRange, r)
	}

	first, last := runs[0].Index(), runs[len(runs)-1].Index()
	moved := append([]etree.Token(nil), parent.Child[first:last+1]...)

	link := etree.NewElement("w:hyperlink")
	link.CreateAttr("w:anchor", id)
	link.CreateAttr("w:history", "1")
	parent.InsertChildAt(first, link)
	for _, tok := range moved {
		parent.RemoveChild(tok)
		link.AddChild(tok)
	}
	return nil
}

// SetFontStyle implements host.Host.
func (d *Document) SetFontStyle(r host.Range, s host.FontStyle) error {
	runs, err := d.isolate(r)
	if err != nil {
		return err
	}
	for _, run := range runs {
		rPr := runProperties(run)
		if s.Bold != nil {
			setProperty(rPr, "w:b", onOff(*s.Bold))
		}
		if s.Italic != nil {
			setProperty(rPr, "w:i", onOff(*s.Italic))
		}
		if s.Color != "" {
			setProperty(rPr, "w:color", s.Color)
		}
		if s.Underline != nil {
			u := "none"
			if *s.Underline {
				u = "single"
			}
			setProperty(rPr, "w:u", u)
		}
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (d *Document) anchor(a host.Anchor) (*anchor, error) {
	switch a.Kind {
	case host.KindField:
		if a.Index < 0 || a.Index >= len(d.fields) {
			return nil, fmt.Errorf("%w: no field %d", host.ErrInvalidRange, a.Index)
		}
		return &d.fields[a.Index].result, nil
	case host.KindParagraph:
		if a.Index < 0 || a.Index >= len(d.paragraphs) {
			return nil, fmt.Errorf("%w: no paragraph %d", host.ErrInvalidRange, a.Index)
		}
		return d.paragraphs[a.Index], nil
	}
	return nil, fmt.Errorf("%w: unknown anchor kind %q", host.ErrInvalidRange, a.Kind)
}

// isolate splits runs so that r starts and ends on run boundaries and
// returns the runs it covers.
func (d *Document) isolate(r host.Range) ([]*etree.Element, error) {
	a, err := d.anchor(r.Anchor)
	if err != nil {
		return nil, err
	}
	if err := host.CheckSpan(r.Span, utf8.RuneCountInString(a.text())); err != nil {
		return nil, err
	}

	d.splitAt(a, r.Start)
	d.splitAt(a, r.End)

	var runs []*etree.Element
	pos := 0
	for _, run := range a.runs {
		n := runLen(run)
		if n > 0 && pos >= r.Start && pos+n <= r.End {
			runs = append(runs, run)
		}
		pos += n
	}
	return runs, nil
}
