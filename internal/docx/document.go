// Package docx is a document host over WordprocessingML files. It reads
// Zotero fields from word/document.xml and edits runs in place, leaving
// every other part of the package untouched.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/noterools/zotlink/internal/host"
)

const documentPart = "word/document.xml"

// ErrNoDocumentPart indicates a zip without a main document part.
var ErrNoDocumentPart = errors.New("not a Word document: missing " + documentPart)

// Document is an opened .docx file.
type Document struct {
	path  string
	files []*zip.File
	doc   *etree.Document

	fields     []*field
	paragraphs []*anchor // Non-blank bibliography paragraphs
	owners     map[*etree.Element][]*anchor
	names      map[string]bool // Bookmark names present in the document
	nextID     int
}

var _ host.Host = (*Document)(nil)

// anchor is the ordered list of runs a range offset is relative to.
type anchor struct {
	runs []*etree.Element
}

func (a *anchor) text() string {
	var b strings.Builder
	for _, r := range a.runs {
		b.WriteString(runText(r))
	}
	return b.String()
}

// field is a complex or simple field and the runs of its result.
type field struct {
	code     string
	inResult bool
	result   anchor
}

// Open reads a .docx file into memory.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	d, err := Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.path = path
	return d, nil
}

// Read parses a .docx package from r.
func Read(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening zip: %w", err)
	}

	d := &Document{
		files:  zr.File,
		owners: make(map[*etree.Element][]*anchor),
		names:  make(map[string]bool),
	}

	for _, f := range zr.File {
		if f.Name != documentPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", documentPart, err)
		}
		d.doc = etree.NewDocument()
		_, err = d.doc.ReadFrom(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", documentPart, err)
		}
	}
	if d.doc == nil {
		return nil, ErrNoDocumentPart
	}

	d.scan()
	return d, nil
}

// Path returns the file the document was opened from.
func (d *Document) Path() string {
	return d.path
}

// scan collects fields, bibliography paragraphs and existing bookmarks.
func (d *Document) scan() {
	body := d.doc.FindElement("//w:body")
	if body != nil {
		s := &scanner{d: d}
		s.walk(body)
	}

	for _, f := range d.fields {
		if strings.Contains(f.code, host.BibliographyMarker) {
			d.splitParagraphs(f)
		}
	}

	for _, bm := range d.doc.FindElements("//w:bookmarkStart") {
		d.names[bm.SelectAttrValue("w:name", "")] = true
		if id, err := strconv.Atoi(bm.SelectAttrValue("w:id", "")); err == nil && id >= d.nextID {
			d.nextID = id + 1
		}
	}
}

// splitParagraphs turns the result of a bibliography field into one anchor
// per non-blank paragraph.
func (d *Document) splitParagraphs(f *field) {
	var cur *anchor
	var curPara *etree.Element
	flush := func() {
		if cur != nil && strings.TrimSpace(cur.text()) != "" {
			for _, r := range cur.runs {
				d.owners[r] = append(d.owners[r], cur)
			}
			d.paragraphs = append(d.paragraphs, cur)
		}
	}

	for _, r := range f.result.runs {
		p := paragraphOf(r)
		if cur == nil || p != curPara {
			flush()
			cur, curPara = &anchor{}, p
		}
		cur.runs = append(cur.runs, r)
	}
	flush()
}

func paragraphOf(e *etree.Element) *etree.Element {
	for p := e.Parent(); p != nil; p = p.Parent() {
		if p.FullTag() == "w:p" {
			return p
		}
	}
	return nil
}

type scanner struct {
	d     *Document
	stack []*field
}

func (s *scanner) walk(e *etree.Element) {
	for _, c := range e.ChildElements() {
		switch c.FullTag() {
		case "w:r":
			s.run(c)
		case "w:fldSimple":
			f := &field{code: c.SelectAttrValue("w:instr", ""), inResult: true}
			s.d.fields = append(s.d.fields, f)
			s.stack = append(s.stack, f)
			s.walk(c)
			s.stack = s.stack[:len(s.stack)-1]
		case "w:del", "w:moveFrom":
			// Deleted text is not part of the rendered result
		default:
			s.walk(c)
		}
	}
}

func (s *scanner) top() *field {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

func (s *scanner) run(r *etree.Element) {
	control := false
	for _, c := range r.ChildElements() {
		switch c.FullTag() {
		case "w:fldChar":
			control = true
			switch c.SelectAttrValue("w:fldCharType", "") {
			case "begin":
				f := &field{}
				s.d.fields = append(s.d.fields, f)
				s.stack = append(s.stack, f)
			case "separate":
				if f := s.top(); f != nil {
					f.inResult = true
				}
			case "end":
				if len(s.stack) > 0 {
					s.stack = s.stack[:len(s.stack)-1]
				}
			}
		case "w:instrText":
			control = true
			if f := s.top(); f != nil && !f.inResult {
				f.code += c.Text()
			}
		}
	}
	if control {
		return
	}

	for _, f := range s.stack {
		if f.inResult {
			f.result.runs = append(f.result.runs, r)
			s.d.owners[r] = append(s.d.owners[r], &f.result)
		}
	}
}

// Save writes the document to path. An existing file at path is first
// copied to BackupPath(path).
func (d *Document) Save(path string) error {
	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, BackupPath(path)); err != nil {
			return fmt.Errorf("backing up %s: %w", path, err)
		}
	}

	docBytes, err := d.doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("encoding %s: %w", documentPart, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".zotlink-*.docx")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	zw := zip.NewWriter(tmp)
	for _, f := range d.files {
		if f.Name != documentPart {
			if err := zw.Copy(f); err != nil {
				tmp.Close()
				return fmt.Errorf("copying %s: %w", f.Name, err)
			}
			continue
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.Modified})
		if err != nil {
			tmp.Close()
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
		if _, err := w.Write(docBytes); err != nil {
			tmp.Close()
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("finishing zip: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// BackupPath returns the backup name of a document: "paper.docx" → "paper_bak.docx".
func BackupPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_bak" + ext
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
