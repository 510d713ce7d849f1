package editor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// FontDescription selects a face from the embedded Go fonts, written as
// "<Family> [Bold] [Italic] <size>", e.g. "Sans Bold 14"
type FontDescription struct {
	Family string  `json:"family" yaml:"family"`
	Bold   bool    `json:"bold" yaml:"bold"`
	Italic bool    `json:"italic" yaml:"italic"`
	Size   float64 `json:"size" yaml:"size"`
}

// DefaultFont is used by text operations when nothing is configured
func DefaultFont() FontDescription {
	return FontDescription{Family: "Sans", Size: 18}
}

// ParseFontDescription parses a description such as "Mono Italic 12".
// Missing parts fall back to DefaultFont.
func ParseFontDescription(s string) (FontDescription, error) {
	desc := DefaultFont()
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return desc, nil
	}

	if size, err := strconv.ParseFloat(fields[len(fields)-1], 64); err == nil {
		if size <= 0 {
			return FontDescription{}, fmt.Errorf("invalid font size in %q", s)
		}
		desc.Size = size
		fields = fields[:len(fields)-1]
	}

	var family []string
	for _, f := range fields {
		switch strings.ToLower(f) {
		case "bold":
			desc.Bold = true
		case "italic", "oblique":
			desc.Italic = true
		case "regular", "normal":
		default:
			family = append(family, f)
		}
	}
	if len(family) > 0 {
		desc.Family = strings.Join(family, " ")
	}

	return desc, nil
}

func (d FontDescription) String() string {
	parts := []string{d.Family}
	if d.Bold {
		parts = append(parts, "Bold")
	}
	if d.Italic {
		parts = append(parts, "Italic")
	}
	parts = append(parts, strconv.FormatFloat(d.Size, 'g', -1, 64))
	return strings.Join(parts, " ")
}

func (d FontDescription) monospace() bool {
	switch strings.ToLower(d.Family) {
	case "mono", "monospace", "go mono":
		return true
	}
	return false
}

// ttf picks the embedded font file for the description. Unknown families
// use the proportional Go font.
func (d FontDescription) ttf() []byte {
	if d.monospace() {
		switch {
		case d.Bold && d.Italic:
			return gomonobolditalic.TTF
		case d.Bold:
			return gomonobold.TTF
		case d.Italic:
			return gomonoitalic.TTF
		default:
			return gomono.TTF
		}
	}
	switch {
	case d.Bold && d.Italic:
		return gobolditalic.TTF
	case d.Bold:
		return gobold.TTF
	case d.Italic:
		return goitalic.TTF
	default:
		return goregular.TTF
	}
}

// fontCache keeps parsed font sources for the lifetime of a render
type fontCache struct {
	sources map[string]*text.FontSource
}

func newFontCache() *fontCache {
	return &fontCache{sources: make(map[string]*text.FontSource)}
}

func (c *fontCache) face(d FontDescription) (text.Face, error) {
	key := FontDescription{Family: d.Family, Bold: d.Bold, Italic: d.Italic}.String()
	if d.monospace() {
		key = "mono:" + key
	}

	src, ok := c.sources[key]
	if !ok {
		var err error
		src, err = text.NewFontSource(d.ttf())
		if err != nil {
			return nil, fmt.Errorf("load font %s: %w", d, err)
		}
		c.sources[key] = src
	}

	size := d.Size
	if size <= 0 {
		size = DefaultFont().Size
	}
	return src.Face(size), nil
}
