package document

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/Iron-Ham/sectionspy/internal/errors"
	"github.com/Iron-Ham/sectionspy/internal/util"
)

// FromHTML sanitizes an HTML page, converts it to Markdown and parses the
// result. Scripts, styles and event handlers are stripped before conversion.
// Headings that carry an id attribute keep it as their section key, so keys
// match the page's own anchors.
func FromHTML(name, page string, maxLevel int) (*Document, error) {
	clean := sanitize(page)
	markdown, err := convert(clean)
	if err != nil {
		return nil, errors.NewDocumentError("html conversion failed", err).WithPath(name).WithOp("convert")
	}
	doc, err := Parse(name, markdown, maxLevel)
	if err != nil {
		return nil, err
	}

	anchors, err := headingAnchors(clean, maxLevel)
	if err != nil {
		return nil, errors.NewDocumentError("html parse failed", err).WithPath(name).WithOp("convert")
	}
	applyAnchors(doc, anchors)
	return doc, nil
}

func sanitize(page string) string {
	return bluemonday.UGCPolicy().Sanitize(page)
}

func convert(clean string) (string, error) {
	conv := md.NewConverter(
		md.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return conv.ConvertString(clean)
}

// anchor is a heading element as it appears in the page.
type anchor struct {
	level int
	id    string
}

// headingAnchors lists the non-empty h1-h6 elements up to maxLevel in
// document order.
func headingAnchors(page string, maxLevel int) ([]anchor, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	var out []anchor
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				if level <= maxLevel && strings.TrimSpace(textContent(n)) != "" {
					out = append(out, anchor{level: level, id: attr(n, "id")})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out, nil
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

// applyAnchors re-keys heading sections with their element ids. It does
// nothing unless the headings line up one to one with the parsed sections.
func applyAnchors(doc *Document, anchors []anchor) {
	var headed []int
	for i, s := range doc.Sections {
		if s.Level > 0 {
			headed = append(headed, i)
		}
	}
	if len(headed) != len(anchors) {
		return
	}
	for j, i := range headed {
		if anchors[j].level != doc.Sections[i].Level {
			return
		}
	}

	ids := make(map[int]string, len(anchors))
	for j, i := range headed {
		ids[i] = anchors[j].id
	}

	keys := newKeySet()
	for i := range doc.Sections {
		s := &doc.Sections[i]
		base := ids[i]
		switch {
		case base != "":
		case s.Level == 0:
			base = PreambleKey
		default:
			base = util.Slugify(s.Title)
			if base == "" {
				base = "section"
			}
		}
		s.Key = keys.claim(base)
	}
}
