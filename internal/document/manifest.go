package document

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/sectionspy/internal/errors"
	"github.com/Iron-Ham/sectionspy/internal/spy"
)

// Manifest describes a page geometry for headless simulation, in document
// coordinates.
//
//	viewport_height: 800
//	offsets: [0, 500]
//	sections:
//	  - key: intro
//	    top: 0
//	    height: 300
//	  - key: usage
//	    top: 300
//	    height: 400
//	    detach_after: 2
type Manifest struct {
	ViewportHeight float64           `yaml:"viewport_height"`
	Offsets        []float64         `yaml:"offsets,omitempty"`
	Sections       []ManifestSection `yaml:"sections"`
}

// ManifestSection is one section rectangle.
type ManifestSection struct {
	Key    string  `yaml:"key"`
	Top    float64 `yaml:"top"`
	Height float64 `yaml:"height"`
	// DetachAfter removes the section from the page once that many scroll
	// steps have run. Zero keeps it attached.
	DetachAfter int `yaml:"detach_after,omitempty"`
}

// LoadManifest reads and validates a YAML manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewDocumentError("read failed", err).WithPath(path).WithOp("manifest")
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, errors.NewDocumentError("invalid manifest", err).WithPath(path).WithOp("manifest")
	}
	return m, nil
}

// ParseManifest decodes and validates YAML manifest data.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the viewport height and that keys are present, unique and
// have non-negative heights. Failures are *errors.ValidationError values
// matching errors.ErrManifestInvalid.
func (m *Manifest) Validate() error {
	invalid := func(field string, value any, msg string) error {
		return errors.NewValidationError(msg).WithField(field).WithValue(value).WithCause(errors.ErrManifestInvalid)
	}

	if m.ViewportHeight <= 0 {
		return invalid("viewport_height", m.ViewportHeight, "must be positive")
	}
	if len(m.Sections) == 0 {
		return invalid("sections", len(m.Sections), "no sections")
	}
	seen := make(map[string]bool, len(m.Sections))
	for i, s := range m.Sections {
		field := fmt.Sprintf("sections[%d]", i)
		switch {
		case s.Key == "":
			return invalid(field+".key", s.Key, "missing key")
		case seen[s.Key]:
			return invalid(field+".key", s.Key, "duplicate key")
		case s.Height < 0:
			return invalid(field+".height", s.Height, "must not be negative")
		case s.DetachAfter < 0:
			return invalid(field+".detach_after", s.DetachAfter, "must not be negative")
		}
		seen[s.Key] = true
	}
	return nil
}

// Page is a Manifest brought to life: a scrollable viewport whose sections
// report viewport-relative rectangles.
type Page struct {
	manifest *Manifest
	offset   float64
	steps    int
}

// NewPage creates a page scrolled to the top.
func NewPage(m *Manifest) *Page {
	return &Page{manifest: m}
}

// ScrollOffset implements spy.Viewport.
func (p *Page) ScrollOffset() float64 { return p.offset }

// ViewportHeight implements spy.Viewport.
func (p *Page) ViewportHeight() float64 { return p.manifest.ViewportHeight }

// ScrollTo moves the viewport and counts a step.
func (p *Page) ScrollTo(offset float64) {
	p.offset = offset
	p.steps++
}

// Steps returns how many times ScrollTo has been called.
func (p *Page) Steps() int {
	return p.steps
}

// Sections returns tracker sections for every manifest entry.
func (p *Page) Sections() []spy.Section {
	out := make([]spy.Section, len(p.manifest.Sections))
	for i, s := range p.manifest.Sections {
		out[i] = spy.Section{Key: s.Key, Boundary: func() (spy.Rect, bool) {
			if s.DetachAfter > 0 && p.steps >= s.DetachAfter {
				return spy.Rect{}, false
			}
			return spy.Rect{Top: s.Top - p.offset, Height: s.Height}, true
		}}
	}
	return out
}
