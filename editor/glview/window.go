package glview

import (
	"context"
	"log"
	"runtime"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"

	"github.com/mogaika/saturn_viewer/console"
	"github.com/mogaika/saturn_viewer/editor/controls"
	"github.com/mogaika/saturn_viewer/r3d"
	"github.com/mogaika/saturn_viewer/tableau"
)

var ErrWindowClosed = errors.New("window closed")

func init() {
	// glfw and gl calls must come from the main thread
	runtime.LockOSThread()
}

type Options struct {
	Title  string
	Width  int
	Height int
	VSync  bool
}

// Window is both the refresh source and a presenter of the frame loop.
// Run the driver on the main goroutine when a window is used.
type Window struct {
	win      *glfw.Window
	renderer *Renderer
	input    *controls.Mapper
}

// Open creates the window and reports its framebuffer size to target
func Open(opts Options, scene *r3d.Scene, target console.Target) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw init")
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Samples, 4)

	win, err := glfw.CreateWindow(opts.Width, opts.Height, opts.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "create window")
	}
	win.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, errors.Wrap(err, "gl init")
	}
	log.Printf("[glview] OpenGL %s on %s", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))

	if opts.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	renderer, err := NewRenderer(scene)
	if err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, err
	}

	w := &Window{
		win:      win,
		renderer: renderer,
		input:    controls.NewMapper(target),
	}
	w.bindInput()

	if err := w.input.Resize(win.GetFramebufferSize()); err != nil {
		log.Printf("[glview] Initial resize failed: %v", err)
	}
	return w, nil
}

func mouseButton(b glfw.MouseButton) controls.Button {
	switch b {
	case glfw.MouseButtonLeft:
		return controls.ButtonRotate
	case glfw.MouseButtonRight, glfw.MouseButtonMiddle:
		return controls.ButtonPan
	}
	return controls.ButtonNone
}

func (w *Window) bindInput() {
	w.win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if err := w.input.Resize(width, height); err != nil {
			log.Printf("[glview] Resize %dx%d failed: %v", width, height, err)
		}
	})
	w.win.SetMouseButtonCallback(func(win *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		b := mouseButton(button)
		switch action {
		case glfw.Press:
			x, y := win.GetCursorPos()
			w.input.ButtonDown(b, x, y)
		case glfw.Release:
			w.input.ButtonUp(b)
		}
	})
	w.win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		w.input.Move(x, y)
	})
	w.win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		w.input.Scroll(yoff)
	})
	w.win.SetKeyCallback(func(win *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyR:
			w.input.Reset()
		case glfw.KeyEscape:
			win.SetShouldClose(true)
		}
	})
}

// Wait shows the previous frame and processes input.
// With vsync on the swap blocks until the display refresh.
func (w *Window) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.win.SwapBuffers()
	glfw.PollEvents()
	if w.win.ShouldClose() {
		return ErrWindowClosed
	}
	return ctx.Err()
}

func (w *Window) Present(f *tableau.Frame) error {
	width, height := w.win.GetFramebufferSize()
	if width == 0 || height == 0 {
		return nil
	}
	w.renderer.Render(f, width, height)
	return nil
}

func (w *Window) Close() {
	w.renderer.Delete()
	w.win.Destroy()
	glfw.Terminate()
}
