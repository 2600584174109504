package document

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/Iron-Ham/sectionspy/internal/errors"
)

const guide = `Welcome to the guide.

# Getting Started

Install it.

## Install
` + "```sh" + `
# not a heading
go install ./...
` + "```" + `

### Deep detail

## Install

Again.

## Usage ##
`

func TestParse(t *testing.T) {
	doc, err := Parse("guide.md", guide, 2)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	wantKeys := []string{"top", "getting-started", "install", "install-2", "usage"}
	if got := doc.Keys(); !slices.Equal(got, wantKeys) {
		t.Fatalf("Keys() = %v, want %v", got, wantKeys)
	}

	install, ok := doc.Section("install")
	if !ok {
		t.Fatal("Section(install) not found")
	}
	if install.Level != 2 || install.Title != "Install" {
		t.Errorf("install = level %d title %q", install.Level, install.Title)
	}
	body := strings.Join(install.Lines, "\n")
	if !strings.Contains(body, "# not a heading") || !strings.Contains(body, "### Deep detail") {
		t.Errorf("install body lost fenced or deep content:\n%s", body)
	}

	usage, _ := doc.Section("usage")
	if usage.Title != "Usage" {
		t.Errorf("closing hashes not stripped: %q", usage.Title)
	}

	top, _ := doc.Section("top")
	if top.Level != 0 || top.Title != "guide.md" {
		t.Errorf("preamble = %+v", top)
	}
}

func TestParse_HeadingLevels(t *testing.T) {
	doc, err := Parse("x", "# A\n## B\n### C\n", 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Keys(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Keys() = %v", got)
	}

	doc, err = Parse("x", "# A\n## B\n### C\n", 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Keys(); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Keys() = %v", got)
	}
}

func TestParse_NotHeadings(t *testing.T) {
	tests := []string{
		"#hashtag",
		"    # indented code",
		"####### seven",
		"> # quoted",
		"- # listed",
	}
	for _, in := range tests {
		doc, err := Parse("x.md", in, 2)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", in, err)
		}
		if got := doc.Keys(); !slices.Equal(got, []string{"top"}) {
			t.Errorf("Parse(%q) keys = %v, want [top]", in, got)
		}
	}
}

func TestParse_HeadingTitles(t *testing.T) {
	tests := []struct {
		in    string
		title string
	}{
		{"   ## Spaced  ", "Spaced"},
		{"# C#", "C#"},
		{"## Usage ##", "Usage"},
		{"Two\nlines\n===", "Two lines"},
	}
	for _, tt := range tests {
		doc, err := Parse("x.md", tt.in, 2)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tt.in, err)
		}
		if len(doc.Sections) != 1 || doc.Sections[0].Title != tt.title {
			t.Errorf("Parse(%q) sections = %+v, want title %q", tt.in, doc.Sections, tt.title)
		}
	}
}

func TestParse_Setext(t *testing.T) {
	doc, err := Parse("x.md", "Intro\n=====\n\ntext\n\nUsage\n-----\n\nmore\n", 2)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := doc.Keys(); !slices.Equal(got, []string{"intro", "usage"}) {
		t.Fatalf("Keys() = %v, want [intro usage]", got)
	}

	intro, _ := doc.Section("intro")
	if intro.Level != 1 || len(intro.Lines) != 5 || intro.Lines[0] != "Intro" {
		t.Errorf("intro = level %d lines %q", intro.Level, intro.Lines)
	}
	usage, _ := doc.Section("usage")
	if usage.Level != 2 || !slices.Equal(usage.Lines, []string{"Usage", "-----", "", "more"}) {
		t.Errorf("usage = level %d lines %q", usage.Level, usage.Lines)
	}
}

func TestParse_PreambleKeyCollision(t *testing.T) {
	doc, err := Parse("x", "intro text\n# Top\n# !!!\n", 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Keys(); !slices.Equal(got, []string{"top", "top-2", "section"}) {
		t.Errorf("Keys() = %v", got)
	}
}

func TestParse_Empty(t *testing.T) {
	for _, in := range []string{"", "\n\n   \n"} {
		_, err := Parse("empty.md", in, 2)
		if !errors.Is(err, errors.ErrDocumentEmpty) {
			t.Errorf("Parse(%q) error = %v, want ErrDocumentEmpty", in, err)
		}
	}
	if _, err := Parse("x", "# A", 0); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Parse(level 0) error = %v, want ErrInvalidInput", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	mdPath := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(mdPath, []byte("# One\n\n# Two\n"), 0644); err != nil {
		t.Fatal(err)
	}
	doc, err := Load(mdPath, 2)
	if err != nil {
		t.Fatalf("Load(md) error = %v", err)
	}
	if doc.Name != "notes.md" || len(doc.Sections) != 2 {
		t.Errorf("Load(md) = %s with %d sections", doc.Name, len(doc.Sections))
	}

	htmlPath := filepath.Join(dir, "page.html")
	page := `<html><body><h1>Overview</h1><p>Hello <script>alert(1)</script>world</p><h2>Details</h2><p>More.</p></body></html>`
	if err := os.WriteFile(htmlPath, []byte(page), 0644); err != nil {
		t.Fatal(err)
	}
	doc, err = Load(htmlPath, 2)
	if err != nil {
		t.Fatalf("Load(html) error = %v", err)
	}
	if got := doc.Keys(); !slices.Equal(got, []string{"overview", "details"}) {
		t.Errorf("Load(html) keys = %v", got)
	}
	overview, _ := doc.Section("overview")
	if strings.Contains(strings.Join(overview.Lines, "\n"), "alert") {
		t.Error("script content survived sanitizing")
	}

	pdfPath := filepath.Join(dir, "real.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(pdfPath, 2); !errors.Is(err, errors.ErrUnsupportedFormat) {
		t.Errorf("Load(pdf) error = %v, want ErrUnsupportedFormat", err)
	}

	_, err = Load(filepath.Join(dir, "missing.md"), 2)
	var docErr *errors.DocumentError
	if !errors.As(err, &docErr) || docErr.Op != "load" {
		t.Errorf("Load(missing) error = %v, want DocumentError op=load", err)
	}
}

func TestFromHTML_HeadingIDs(t *testing.T) {
	page := `<h1 id="intro">Overview</h1><p>One.</p>
<h2 id="setup">Getting started</h2><p>Two.</p>
<h2>Getting started</h2><p>Three.</p>
<h2 id="setup">Again</h2><p>Four.</p>`

	doc, err := FromHTML("page.html", page, 2)
	if err != nil {
		t.Fatalf("FromHTML() error = %v", err)
	}
	want := []string{"intro", "setup", "getting-started", "setup-2"}
	if got := doc.Keys(); !slices.Equal(got, want) {
		t.Errorf("FromHTML() keys = %v, want %v", got, want)
	}
}

func TestApplyAnchors_Mismatch(t *testing.T) {
	doc, err := Parse("x.md", "# Alpha\n\n## Beta\n", 2)
	if err != nil {
		t.Fatal(err)
	}

	applyAnchors(doc, []anchor{{level: 1, id: "a"}})
	if got := doc.Keys(); !slices.Equal(got, []string{"alpha", "beta"}) {
		t.Errorf("count mismatch: keys = %v", got)
	}

	applyAnchors(doc, []anchor{{level: 1, id: "a"}, {level: 3, id: "b"}})
	if got := doc.Keys(); !slices.Equal(got, []string{"alpha", "beta"}) {
		t.Errorf("level mismatch: keys = %v", got)
	}

	applyAnchors(doc, []anchor{{level: 1, id: "a"}, {level: 2}})
	if got := doc.Keys(); !slices.Equal(got, []string{"a", "beta"}) {
		t.Errorf("aligned: keys = %v", got)
	}
}
