package palette

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rmitchellscott/qdither/internal/rgb"
)

func TestNearestReturnsMember(t *testing.T) {
	p := Palette{{R: 0, G: 0, B: 0}, {R: 255, G: 255, B: 255}, {R: 255, G: 0, B: 0}, {R: 0, G: 0, B: 255}}
	probes := []rgb.Color{{R: 10, G: 10, B: 10}, {R: 200, G: 30, B: 30}, {R: 240, G: 250, B: 255}, {R: 20, G: 20, B: 200}}

	for _, c := range probes {
		got := p.Nearest(c)
		if !p.Contains(got) {
			t.Errorf("Nearest(%v) = %v, not a palette member", c, got)
		}
	}
	for _, c := range p {
		if got := p.Nearest(c); got != c {
			t.Errorf("Nearest(%v) = %v, want itself", c, got)
		}
	}
}

func TestNearestTieKeepsLowestIndex(t *testing.T) {
	// Both entries are 10 units of red away from the probe
	p := Palette{{R: 90}, {R: 110}}
	if got := p.NearestIndex(rgb.Color{R: 100}); got != 0 {
		t.Errorf("NearestIndex() = %d, want 0", got)
	}

	dup := Palette{{R: 5}, {R: 5}, {R: 5}}
	if got := dup.NearestIndex(rgb.Color{R: 5}); got != 0 {
		t.Errorf("NearestIndex() with duplicates = %d, want 0", got)
	}
}

func TestNearestEmptyPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != ErrEmpty {
			t.Errorf("recover() = %v, want ErrEmpty", r)
		}
	}()
	Palette{}.Nearest(rgb.Color{})
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Palette
		wantOK bool
	}{
		{
			name:   "two colors",
			input:  "FF00AA\n00FF00\n",
			want:   Palette{{R: 255, G: 0, B: 170}, {R: 0, G: 255, B: 0}},
			wantOK: true,
		},
		{
			name:   "all lines invalid",
			input:  "zz\nFF00A\n",
			want:   Default(),
			wantOK: false,
		},
		{
			name:   "skips bad lines and keeps order",
			input:  "# comment\n123456\nabcdef0\n\nABCDEF\nZZZZZA\n",
			want:   Palette{{R: 0x12, G: 0x34, B: 0x56}, {R: 0xAB, G: 0xCD, B: 0xEF}},
			wantOK: true,
		},
		{
			name:   "windows line endings",
			input:  "010203\r\n040506\r\n",
			want:   Palette{{R: 1, G: 2, B: 3}, {R: 4, G: 5, B: 6}},
			wantOK: true,
		},
		{
			name:   "duplicates kept",
			input:  "FFFFFF\nFFFFFF\n",
			want:   Palette{rgb.White, rgb.White},
			wantOK: true,
		},
		{
			name:   "empty input",
			input:  "",
			want:   Default(),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Parse(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("Parse() ok = %v, want %v", ok, tt.wantOK)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseYAML(t *testing.T) {
	input := `name: test
colors:
  - "#FF00AA"
  - 00ff00
  - nope
`
	got, ok, err := ParseYAML(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	want := Palette{{R: 255, G: 0, B: 170}, {R: 0, G: 255, B: 0}}
	if !ok || !reflect.DeepEqual(got, want) {
		t.Errorf("ParseYAML() = %v, %v; want %v, true", got, ok, want)
	}

	got, ok, err = ParseYAML(strings.NewReader("colors: []\n"))
	if err != nil || ok || !reflect.DeepEqual(got, Default()) {
		t.Errorf("ParseYAML(empty) = %v, %v, %v; want default palette", got, ok, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "pal.txt")
	if err := os.WriteFile(txt, []byte("FF0000\n0000FF\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, ok, err := Load(txt)
	if err != nil || !ok || len(got) != 2 {
		t.Errorf("Load(txt) = %v, %v, %v", got, ok, err)
	}

	yml := filepath.Join(dir, "pal.yaml")
	if err := os.WriteFile(yml, []byte("colors: [\"030303\"]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, ok, err = Load(yml)
	if err != nil || !ok || !reflect.DeepEqual(got, Palette{{R: 3, G: 3, B: 3}}) {
		t.Errorf("Load(yaml) = %v, %v, %v", got, ok, err)
	}

	if _, _, err := Load(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}
