package theme

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

type RGB [3]uint8

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

type Palette struct {
	Name   string
	Colors []RGB
}

// DefaultPalette is a dusk ramp from deep blue to warm yellow
func DefaultPalette() *Palette {
	return &Palette{
		Name: "dusk",
		Colors: []RGB{
			{0x1b, 0x1b, 0x2f},
			{0x2e, 0x2e, 0x4f},
			{0x55, 0x55, 0x7a},
			{0x9a, 0x9a, 0xc0},
			{0xd0, 0xd0, 0xf0},
			{0x7e, 0xc8, 0xe3},
			{0xf0, 0x62, 0x92},
			{0xff, 0x6b, 0x6b},
			{0xff, 0xb8, 0x4d},
			{0xff, 0xd9, 0x3d},
		},
	}
}

// NotePalette colors the twelve pitch classes, C through B
func NotePalette() *Palette {
	return &Palette{
		Name: "notes",
		Colors: []RGB{
			{0xff, 0x6b, 0x6b}, // C
			{0xff, 0x8e, 0x6b},
			{0xff, 0xb8, 0x4d}, // D
			{0xff, 0xd9, 0x3d},
			{0xc8, 0xe6, 0xc9}, // E
			{0x81, 0xc7, 0x84}, // F
			{0x4f, 0xc3, 0xf7},
			{0x42, 0xa5, 0xf5}, // G
			{0x79, 0x86, 0xcb},
			{0xba, 0x68, 0xc8}, // A
			{0xe9, 0x1e, 0x63},
			{0xf0, 0x62, 0x92}, // B
		},
	}
}

func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("open palette"))
	}
	defer f.Close()

	p, err := ParseGPL(f)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With(fmt.Sprintf("palette %s", path)))
	}
	return p, nil
}

// ParseGPL reads a GIMP palette
func ParseGPL(r io.Reader) (*Palette, error) {
	p := &Palette{}
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "Name:") {
			p.Name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
			continue
		}

		// Skip headers and comments
		if line == "" || line[0] == '#' || strings.HasPrefix(line, "GIMP") || strings.HasPrefix(line, "Columns") {
			continue
		}

		// first 3 fields are R G B
		fields := strings.Fields(line)
		if len(fields) >= 3 {
			r, err1 := strconv.Atoi(fields[0])
			g, err2 := strconv.Atoi(fields[1])
			b, err3 := strconv.Atoi(fields[2])
			if err1 == nil && err2 == nil && err3 == nil {
				p.Colors = append(p.Colors, RGB{uint8(r), uint8(g), uint8(b)})
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fault.Wrap(err)
	}

	if len(p.Colors) == 0 {
		return nil, fault.New("no colors found", ftag.With(ftag.InvalidArgument))
	}

	return p, nil
}

// Lookup returns interpolated color for normalized value 0-1
func (p *Palette) Lookup(norm float64) RGB {
	if norm <= 0 || len(p.Colors) == 1 {
		return p.Colors[0]
	}
	if norm >= 1 {
		return p.Colors[len(p.Colors)-1]
	}

	pos := norm * float64(len(p.Colors)-1)
	i := int(pos)
	frac := pos - float64(i)

	c0 := p.Colors[i]
	c1 := p.Colors[i+1]

	return RGB{
		lerp(c0[0], c1[0], frac),
		lerp(c0[1], c1[1], frac),
		lerp(c0[2], c1[2], frac),
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a)*(1-t) + float64(b)*t)
}

// Index returns color at specific index (no interpolation)
func (p *Palette) Index(i int) RGB {
	if i < 0 {
		return p.Colors[0]
	}
	if i >= len(p.Colors) {
		return p.Colors[len(p.Colors)-1]
	}
	return p.Colors[i]
}
