package gcode

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// Parse reads G-code text in the subset this package writes back into
// commands. Blank lines and comments ("; ..." or "( ... )") are skipped;
// word letters are case-insensitive and leading zeros in codes are
// accepted (G01 == G1). Any other instruction is a *ParseError.
//
// Parse returns the commands together with the 1-based source line of
// each, for error reporting by Validate.
func Parse(r io.Reader) ([]Command, []int, error) {
	var cmds []Command
	var lines []int

	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		text := stripComments(sc.Text())
		if text == "" {
			continue
		}
		c, err := parseLine(text)
		if err != nil {
			return nil, nil, &ParseError{Line: n, Text: sc.Text(), Err: err}
		}
		cmds = append(cmds, c)
		lines = append(lines, n)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read gcode: %w", err)
	}
	return cmds, lines, nil
}

// ParseString is Parse over a string.
func ParseString(s string) ([]Command, []int, error) {
	return Parse(strings.NewReader(s))
}

func stripComments(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	for {
		open := strings.IndexByte(line, '(')
		if open < 0 {
			break
		}
		end := strings.IndexByte(line[open:], ')')
		if end < 0 {
			line = line[:open]
			break
		}
		line = line[:open] + line[open+end+1:]
	}
	return strings.TrimSpace(line)
}

type word struct {
	letter byte
	value  string
}

func splitWords(text string) ([]word, error) {
	fields := strings.Fields(strings.ToUpper(text))
	words := make([]word, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || f[0] < 'A' || f[0] > 'Z' {
			return nil, fmt.Errorf("malformed word %q", f)
		}
		words = append(words, word{letter: f[0], value: f[1:]})
	}
	return words, nil
}

func parseLine(text string) (Command, error) {
	words, err := splitWords(text)
	if err != nil {
		return Command{}, err
	}

	head := words[0]
	code, err := strconv.Atoi(head.value)
	if err != nil {
		return Command{}, fmt.Errorf("malformed code %c%s", head.letter, head.value)
	}
	args := words[1:]

	switch {
	case head.letter == 'G' && code == 20:
		return noArgs(Units(profile.Inches), args)
	case head.letter == 'G' && code == 21:
		return noArgs(Units(profile.Millimeters), args)
	case head.letter == 'G' && code == 90:
		return noArgs(Absolute(), args)
	case head.letter == 'G' && (code == 0 || code == 1):
		kind := RapidMove
		if code == 1 {
			kind = LinearMove
		}
		return parseMove(kind, args)
	case head.letter == 'M' && code == 3:
		c := Command{Kind: SpindleStart}
		for _, a := range args {
			if a.letter != 'S' {
				return Command{}, fmt.Errorf("unexpected word %c in M3", a.letter)
			}
			speed, err := strconv.Atoi(a.value)
			if err != nil {
				return Command{}, fmt.Errorf("malformed spindle speed %q", a.value)
			}
			c.Speed = speed
		}
		return c, nil
	case head.letter == 'M' && code == 5:
		return noArgs(Stop(), args)
	case head.letter == 'M' && code == 6:
		c := Command{Kind: ToolSelect}
		for _, a := range args {
			if a.letter != 'T' {
				return Command{}, fmt.Errorf("unexpected word %c in M6", a.letter)
			}
			tool, err := strconv.Atoi(a.value)
			if err != nil {
				return Command{}, fmt.Errorf("malformed tool %q", a.value)
			}
			c.Tool = tool
		}
		return c, nil
	case head.letter == 'M' && code == 30:
		return noArgs(End(), args)
	default:
		return Command{}, fmt.Errorf("unsupported instruction %c%d", head.letter, code)
	}
}

func noArgs(c Command, args []word) (Command, error) {
	if len(args) > 0 {
		return Command{}, fmt.Errorf("unexpected word %c%s", args[0].letter, args[0].value)
	}
	return c, nil
}

func parseMove(kind Kind, args []word) (Command, error) {
	c := Command{Kind: kind}
	for _, a := range args {
		v, err := strconv.ParseFloat(a.value, 64)
		if err != nil {
			return Command{}, fmt.Errorf("malformed value %c%s", a.letter, a.value)
		}
		switch a.letter {
		case 'X':
			c.X = ptr(v)
		case 'Y':
			c.Y = ptr(v)
		case 'Z':
			c.Z = ptr(v)
		case 'F':
			if kind != LinearMove {
				return Command{}, fmt.Errorf("feed on rapid move")
			}
			c.Feed = ptr(v)
		default:
			return Command{}, fmt.Errorf("unexpected word %c in move", a.letter)
		}
	}
	return c, nil
}
