package palette

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rmitchellscott/qdither/internal/rgb"
)

// yamlPalette is the document layout of .yml / .yaml palette files
type yamlPalette struct {
	Name   string   `yaml:"name"`
	Colors []string `yaml:"colors"`
}

// Parse reads a hex palette: one RRGGBB color per line.
// Lines that are not exactly six characters long, or that hold no hex digit at all, are skipped.
// If no line is usable the default palette is returned and ok is false.
func Parse(r io.Reader) (p Palette, ok bool, err error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if c, valid := parseHexLine(strings.TrimRight(scanner.Text(), "\r")); valid {
			p = append(p, c)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to read palette: %w", err)
	}

	if len(p) == 0 {
		return Default(), false, nil
	}
	return p, true, nil
}

// ParseYAML reads a YAML palette document of the form
//
//	name: optional
//	colors:
//	  - "FF00AA"
//	  - "#00FF00"
//
// Entries follow the same rules as Parse after an optional leading '#'.
func ParseYAML(r io.Reader) (p Palette, ok bool, err error) {
	var doc yamlPalette
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, false, fmt.Errorf("failed to parse YAML palette: %w", err)
	}

	for _, entry := range doc.Colors {
		if c, valid := parseHexLine(strings.TrimPrefix(strings.TrimSpace(entry), "#")); valid {
			p = append(p, c)
		}
	}

	if len(p) == 0 {
		return Default(), false, nil
	}
	return p, true, nil
}

// Load opens a palette file and parses it according to its extension.
// An error is returned only when the file cannot be read or decoded.
func Load(path string) (Palette, bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open palette file %s: %w", path, err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return ParseYAML(file)
	default:
		return Parse(file)
	}
}

// parseHexLine converts a six character RRGGBB string to a color
func parseHexLine(line string) (rgb.Color, bool) {
	if len(line) != 6 || !strings.ContainsFunc(line, isHexDigit) {
		return rgb.Color{}, false
	}

	var channels [3]uint8
	for i := range channels {
		v, err := strconv.ParseUint(line[i*2:i*2+2], 16, 8)
		if err != nil {
			return rgb.Color{}, false
		}
		channels[i] = uint8(v)
	}
	return rgb.Color{R: channels[0], G: channels[1], B: channels[2]}, true
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
