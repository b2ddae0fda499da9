package console

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Target is what commands steer, tableau.Tableau implements it
type Target interface {
	Rotate(dYaw, dPitch float32)
	Zoom(scale float32)
	Pan(dx, dy float32)
	Resize(width, height int) error
	Reset()
}

// arguments beyond this magnitude are rejected at parse time
const maxArgument = 1e6

type signature struct {
	args     int
	integers bool
	usage    string
}

var commands = map[string]signature{
	"rotate": {args: 2, usage: "rotate <dyaw> <dpitch>"},
	"zoom":   {args: 1, usage: "zoom <scale>"},
	"pan":    {args: 2, usage: "pan <dx> <dy>"},
	"resize": {args: 2, integers: true, usage: "resize <width> <height>"},
	"reset":  {args: 0, usage: "reset"},
}

type Command struct {
	Name    string
	Args    []float64
	Line    int
	Comment string
}

func (c *Command) String() string {
	s := c.Name
	for _, a := range c.Args {
		s += " " + strconv.FormatFloat(a, 'g', -1, 64)
	}
	return s
}

func (c *Command) validate() error {
	sig, ok := commands[c.Name]
	if !ok {
		return errors.Errorf("Unknown command on line %v (%q)", c.Line, c.Name)
	}
	if len(c.Args) != sig.args {
		return errors.Errorf("Wrong arguments count on line %v: got %d, usage %q", c.Line, len(c.Args), sig.usage)
	}
	for _, a := range c.Args {
		if !(math.Abs(a) <= maxArgument) {
			return errors.Errorf("Argument out of range on line %v: %v, limit %v", c.Line, a, maxArgument)
		}
	}
	if sig.integers {
		for _, a := range c.Args {
			if a != math.Trunc(a) {
				return errors.Errorf("Integer expected on line %v: %v, usage %q", c.Line, a, sig.usage)
			}
		}
	}
	return nil
}

// Apply must run on the goroutine owning the target
func (c *Command) Apply(t Target) error {
	switch c.Name {
	case "rotate":
		t.Rotate(float32(c.Args[0]), float32(c.Args[1]))
	case "zoom":
		t.Zoom(float32(c.Args[0]))
	case "pan":
		t.Pan(float32(c.Args[0]), float32(c.Args[1]))
	case "resize":
		return errors.Wrapf(t.Resize(int(c.Args[0]), int(c.Args[1])), "line %v", c.Line)
	case "reset":
		t.Reset()
	default:
		return errors.Errorf("Unknown command %q", c.Name)
	}
	return nil
}

// ApplyAll stops at the first failing command and returns how many were applied.
// Applied commands are not rolled back.
func ApplyAll(cmds []*Command, t Target) (int, error) {
	for i, c := range cmds {
		if err := c.Apply(t); err != nil {
			return i, err
		}
	}
	return len(cmds), nil
}

func RenderLines(cmds []*Command) []string {
	result := make([]string, 0, len(cmds))
	for _, c := range cmds {
		if c.Comment == "" {
			result = append(result, c.String())
		} else {
			result = append(result, fmt.Sprintf("%-20s // %s", c.String(), c.Comment))
		}
	}
	return result
}

func Render(cmds []*Command) string {
	return strings.Join(RenderLines(cmds), "\n")
}

// Usage lists every known command
func Usage() []string {
	result := make([]string, 0, len(commands))
	for _, name := range []string{"rotate", "zoom", "pan", "resize", "reset"} {
		result = append(result, commands[name].usage)
	}
	return result
}
