package console_test

import (
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/mogaika/saturn_viewer/console"
)

func TestParser(t *testing.T) {
	const test = `
// orbit a bit
rotate 15 -2.5 // left and down
zoom 0.5
pan -10 +3

resize 1920 1080
RESET //
`
	cmds, err := console.ParseCommands(test)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 5 {
		t.Fatalf("Expected 5 commands, got %d", len(cmds))
	}
	if cmds[0].Comment != "left and down" {
		t.Errorf("Comment lost: %q", cmds[0].Comment)
	}
	if cmds[4].Name != "reset" {
		t.Errorf("Names are case insensitive, got %q", cmds[4].Name)
	}
	if got := console.Render(cmds[:2]); got != "rotate 15 -2.5       // left and down\nzoom 0.5" {
		t.Errorf("Unexpected render %q", got)
	}
}

func TestParserErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		text string
	}{
		{"unknown command", "jump 1"},
		{"missing argument", "rotate 1"},
		{"extra argument", "reset 1"},
		{"fractional size", "resize 10.5 20"},
		{"number without command", "15 20"},
		{"two commands", "zoom reset"},
		{"garbage", "zoom $"},
		{"huge rotation", "rotate " + strings.Repeat("9", 40) + " 0"},
		{"huge pan", "pan 0 -" + strings.Repeat("9", 40)},
		{"huge zoom", "zoom 10000000000"},
		{"huge size", "resize 99999999999999999999 10"},
	} {
		if _, err := console.ParseCommands(tc.text); err == nil {
			t.Errorf("%s: expected error for %q", tc.name, tc.text)
		}
	}
}

type recorder struct {
	calls  []string
	width  int
	height int
}

func (r *recorder) Rotate(dYaw, dPitch float32) { r.calls = append(r.calls, "rotate") }
func (r *recorder) Zoom(scale float32)          { r.calls = append(r.calls, "zoom") }
func (r *recorder) Pan(dx, dy float32)          { r.calls = append(r.calls, "pan") }
func (r *recorder) Reset()                      { r.calls = append(r.calls, "reset") }
func (r *recorder) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.New("bad size")
	}
	r.width, r.height = width, height
	r.calls = append(r.calls, "resize")
	return nil
}

func TestApply(t *testing.T) {
	cmds, err := console.ParseCommands("rotate 1 2\nresize 800 600\nzoom 2\nresize 0 5\nreset")
	if err != nil {
		t.Fatal(err)
	}

	r := &recorder{}
	applied, err := console.ApplyAll(cmds, r)
	if err == nil {
		t.Fatal("Expected resize error")
	}
	if applied != 3 {
		t.Errorf("Expected 3 applied commands, got %d", applied)
	}
	if len(r.calls) != 3 || r.calls[2] != "zoom" {
		t.Errorf("Unexpected calls %v", r.calls)
	}
	if r.width != 800 || r.height != 600 {
		t.Errorf("Unexpected size %dx%d", r.width, r.height)
	}
}

func TestParserArgumentLimit(t *testing.T) {
	cmds, err := console.ParseCommands("rotate 1000000 -1000000\npan 0.000001 999999")
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 2 {
		t.Fatalf("Expected 2 commands, got %d", len(cmds))
	}

	if _, err := console.ParseCommands("rotate 15 0\nrotate 1000001 0"); err == nil {
		t.Error("Expected out of range error")
	}
}
