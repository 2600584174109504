// Package document turns Markdown (or HTML) files into ordered sections and
// lays them out as terminal lines, giving each section a boundary that the
// tracker can measure.
package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/Iron-Ham/sectionspy/internal/errors"
	"github.com/Iron-Ham/sectionspy/internal/util"
)

// PreambleKey is the key of the section holding text before the first
// heading.
const PreambleKey = "top"

// Section is a heading and the lines under it, up to the next heading of an
// equal or shallower tracked level.
type Section struct {
	Key   string
	Title string
	Level int      // heading depth, 0 for the preamble
	Lines []string // raw Markdown, heading line included
}

// Document is a parsed file.
type Document struct {
	Name     string
	Sections []Section
}

// Keys returns section keys in document order.
func (d *Document) Keys() []string {
	keys := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		keys[i] = s.Key
	}
	return keys
}

// Section looks up a section by key.
func (d *Document) Section(key string) (Section, bool) {
	for _, s := range d.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

// Parse splits markdown into sections. Top-level headings up to maxLevel,
// ATX or setext, start a section; deeper headings and headings nested in
// lists or block quotes stay in their parent's body. Keys are heading slugs,
// suffixed with -2, -3 and so on when repeated.
func Parse(name, markdown string, maxLevel int) (*Document, error) {
	if maxLevel < 1 || maxLevel > 6 {
		return nil, errors.NewDocumentError(fmt.Sprintf("heading level %d out of range 1-6", maxLevel), errors.ErrInvalidInput).
			WithPath(name).WithOp("parse")
	}

	src := strings.TrimRight(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n")
	lines := strings.Split(src, "\n")

	doc := &Document{Name: name}
	keys := newKeySet()
	add := func(s Section, from, to int) {
		s.Lines = slices.Clone(lines[from:to])
		if s.Level == 0 && isBlank(s.Lines) {
			return
		}
		s.Key = keys.claim(s.Key)
		doc.Sections = append(doc.Sections, s)
	}

	current := Section{Key: PreambleKey, Title: name}
	start := 0
	for _, h := range scanHeadings([]byte(src), maxLevel) {
		add(current, start, h.line)
		current = Section{Key: util.Slugify(h.title), Title: h.title, Level: h.level}
		if current.Key == "" {
			current.Key = "section"
		}
		start = h.line
	}
	add(current, start, len(lines))

	if len(doc.Sections) == 0 {
		return nil, errors.NewDocumentError("nothing to track", errors.ErrDocumentEmpty).WithPath(name).WithOp("parse")
	}
	return doc, nil
}

// Load reads path and parses it by extension: .html and .htm are converted
// from HTML, anything else is treated as Markdown.
func Load(path string, maxLevel int) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewDocumentError("read failed", err).WithPath(path).WithOp("load")
	}

	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return FromHTML(name, string(data), maxLevel)
	case ".md", ".markdown", ".mdown", ".txt", "":
		return Parse(name, string(data), maxLevel)
	default:
		return nil, errors.NewDocumentError(fmt.Sprintf("extension %q", filepath.Ext(path)), errors.ErrUnsupportedFormat).
			WithPath(path).WithOp("load")
	}
}

// heading is a section-starting heading found by the Markdown parser.
type heading struct {
	line  int // zero-based line where the heading starts
	level int
	title string
}

var headingParser = goldmark.DefaultParser()

// scanHeadings lists the document's top-level headings up to maxLevel in
// source order. Titles are the raw heading text, joined across the lines of
// a multi-line setext heading.
func scanHeadings(src []byte, maxLevel int) []heading {
	root := headingParser.Parse(text.NewReader(src))

	var out []heading
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level > maxLevel || h.Lines().Len() == 0 {
			continue
		}
		segs := h.Lines()
		parts := make([]string, 0, segs.Len())
		for i := range segs.Len() {
			seg := segs.At(i)
			if part := strings.TrimSpace(string(seg.Value(src))); part != "" {
				parts = append(parts, part)
			}
		}
		first := segs.At(0)
		out = append(out, heading{
			line:  bytes.Count(src[:first.Start], []byte("\n")),
			level: h.Level,
			title: strings.Join(parts, " "),
		})
	}
	return out
}

func isBlank(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}

type keySet map[string]bool

func newKeySet() keySet { return make(keySet) }

// claim returns key, or key-N for the smallest N >= 2 not yet taken.
func (s keySet) claim(key string) string {
	candidate := key
	for n := 2; s[candidate]; n++ {
		candidate = key + "-" + strconv.Itoa(n)
	}
	s[candidate] = true
	return candidate
}
