// filters/ansi/ansi.go

// Package ansi provides template filters that wrap text in ANSI SGR escape
// sequences: foreground and background colors plus text styles.
//
// Filters compose. Codes added to text that already starts with escape
// sequences are inserted after them, and the closing reset is written once:
//
//	{{ "ok" | color "green" | bright }}  →  "\x1b[32m\x1b[1mok\x1b[0m"
//
// Empty input is returned as is: no codes and no reset are written for it,
// so an unset template value renders as nothing. An unknown color is still
// an error for empty input.
package ansi

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dalemusser/termsite/pantry/text"
	"github.com/gookit/color"
)

const reset = "\x1b[0m"

var reLeadingSGR = regexp.MustCompile(`^(?:\x1b\[[\d;]+m)*`)

// named maps color names to their foreground and background codes.
var named = map[string][2]color.Color{
	"black":   {color.FgBlack, color.BgBlack},
	"red":     {color.FgRed, color.BgRed},
	"green":   {color.FgGreen, color.BgGreen},
	"yellow":  {color.FgYellow, color.BgYellow},
	"blue":    {color.FgBlue, color.BgBlue},
	"magenta": {color.FgMagenta, color.BgMagenta},
	"cyan":    {color.FgCyan, color.BgCyan},
	"white":   {color.FgWhite, color.BgWhite},
	"default": {color.FgDefault, color.BgDefault},
}

// ColorNames lists the accepted color names.
var ColorNames = []string{"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white", "default"}

var reHex = regexp.MustCompile(`^#?(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// colorCode resolves a color name or hex value to an SGR parameter string.
func colorCode(name string, bg bool) (string, error) {
	if pair, ok := named[text.Key(name)]; ok {
		if bg {
			return pair[1].Code(), nil
		}
		return pair[0].Code(), nil
	}

	hex := strings.TrimSpace(name)
	if !reHex.MatchString(hex) {
		return "", fmt.Errorf("ansi: unknown color %q (want one of %s, or a hex value like #ff8800)",
			name, strings.Join(ColorNames, ", "))
	}
	rgb := color.HEX(expandHex(hex), bg)
	if rgb.IsEmpty() {
		return "", fmt.Errorf("ansi: invalid hex color %q", name)
	}
	return rgb.Code(), nil
}

// expandHex turns "#abc" into "#aabbcc".
func expandHex(s string) string {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	return "#" + s
}

// wrap inserts the codes after any leading escape sequences in s and makes
// sure s ends with a single reset.
func wrap(s string, codes ...string) string {
	if s == "" || len(codes) == 0 {
		return s
	}
	seq := "\x1b[" + strings.Join(codes, ";") + "m"
	end := reLeadingSGR.FindStringIndex(s)[1]
	s = s[:end] + seq + s[end:]
	if strings.HasSuffix(s, reset) {
		return s
	}
	return s + reset
}

func style(op color.Color) func(string) string {
	code := strconv.Itoa(int(op))
	return func(s string) string { return wrap(s, code) }
}

// Color sets the foreground color.
func Color(name, s string) (string, error) {
	code, err := colorCode(name, false)
	if err != nil {
		return "", err
	}
	return wrap(s, code), nil
}

// Background sets the background color.
func Background(name, s string) (string, error) {
	code, err := colorCode(name, true)
	if err != nil {
		return "", err
	}
	return wrap(s, code), nil
}

// Text styles.
var (
	Bright    = style(color.OpBold)
	Faint     = style(color.OpFuzzy)
	Italic    = style(color.OpItalic)
	Underline = style(color.OpUnderscore)
	Blink     = style(color.OpBlink)
	Inverse   = style(color.OpReverse)
	Hide      = style(color.OpConcealed)
	CrossOut  = style(color.OpStrikethrough)
)

// Strip removes every escape sequence from s.
func Strip(s string) string {
	return color.ClearCode(s)
}

// Funcs returns the filters keyed by their template names.
func Funcs() map[string]any {
	return map[string]any{
		"color":      Color,
		"background": Background,
		"bg":         Background,
		"bright":     Bright,
		"faint":      Faint,
		"italic":     Italic,
		"underline":  Underline,
		"blink":      Blink,
		"inverse":    Inverse,
		"hide":       Hide,
		"cross_out":  CrossOut,
		"strike":     CrossOut,
		"plain":      Strip,
	}
}
