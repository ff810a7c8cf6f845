package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a Double roulette outcome. The numeric values match the ones the
// Blaze API uses on the wire.
type Color int

const (
	ColorWhite Color = 0
	ColorRed   Color = 1
	ColorBlack Color = 2
)

// Payout multipliers applied to a winning stake.
const (
	WhitePayout = 14.0
	RedPayout   = 2.0
	BlackPayout = 2.0
)

// Colors lists every valid color in wire order.
var Colors = []Color{ColorWhite, ColorRed, ColorBlack}

// Valid reports whether c is one of the three roulette colors.
func (c Color) Valid() bool {
	return c >= ColorWhite && c <= ColorBlack
}

// Payout returns the multiplier paid on a winning bet of this color.
func (c Color) Payout() float64 {
	if c == ColorWhite {
		return WhitePayout
	}
	return RedPayout
}

func (c Color) String() string {
	switch c {
	case ColorWhite:
		return "white"
	case ColorRed:
		return "red"
	case ColorBlack:
		return "black"
	default:
		return "color(" + strconv.Itoa(int(c)) + ")"
	}
}

// MarshalText encodes the color by name.
func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("color: invalid value %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText accepts anything ParseColor does.
func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseColor parses a color given by wire number ("0".."2"), English name or
// the Portuguese name used in exported game history (branco, vermelho, preto).
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "white", "branco":
		return ColorWhite, nil
	case "1", "red", "vermelho":
		return ColorRed, nil
	case "2", "black", "preto":
		return ColorBlack, nil
	}
	return 0, fmt.Errorf("%w: unknown color %q", ErrMalformedEvent, s)
}
