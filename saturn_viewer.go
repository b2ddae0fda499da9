package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mogaika/saturn_viewer/config"
	"github.com/mogaika/saturn_viewer/editor/glview"
	"github.com/mogaika/saturn_viewer/export"
	"github.com/mogaika/saturn_viewer/frameloop"
	"github.com/mogaika/saturn_viewer/status"
	"github.com/mogaika/saturn_viewer/tableau"
	"github.com/mogaika/saturn_viewer/textures"
	"github.com/mogaika/saturn_viewer/web"
)

func exportFormat(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// writeExport runs without a loop, the caller owns the scene
func writeExport(tb *tableau.Tableau, path string) error {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	enc, err := export.Prepare(tb.Scene.Root, exportFormat(path), name)
	if err != nil {
		return errors.Wrapf(err, "Cannot export to %q", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Cannot create %q", path)
	}
	defer f.Close()

	if err := enc(f); err != nil {
		return errors.Wrapf(err, "Cannot export to %q", path)
	}
	log.Printf("Exported scene to %q", path)
	return nil
}

func main() {
	var addr, webPath, configPath, exportPath, texturePath string
	var fps, width, height int
	var window, vsync bool
	flag.StringVar(&addr, "i", ":8000", "Address of server")
	flag.StringVar(&webPath, "web", "web", "Path to folder with static web data")
	flag.StringVar(&configPath, "config", "", "Scene config file (.yaml, .yml or .hcl)")
	flag.IntVar(&fps, "fps", 60, "Frame rate when no window is opened")
	flag.BoolVar(&window, "window", false, "Open native OpenGL window")
	flag.BoolVar(&vsync, "vsync", true, "Sync window frames with display refresh")
	flag.IntVar(&width, "width", 1280, "Initial viewport width")
	flag.IntVar(&height, "height", 720, "Initial viewport height")
	flag.StringVar(&exportPath, "export", "", "Write scene to file ("+strings.Join(export.Formats, ", ")+") and exit")
	flag.StringVar(&texturePath, "texturepath", "", "Base url of texture images")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if texturePath != "" {
		cfg.TexturePath = texturePath
	}

	tb, err := tableau.Build(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := tb.Resize(width, height); err != nil {
		log.Fatal(err)
	}

	if exportPath != "" {
		if err := writeExport(tb, exportPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var source frameloop.RefreshSource
	var win *glview.Window
	if !window {
		ticker := frameloop.NewTickerSource(fps)
		defer ticker.Stop()
		source = ticker
	}

	var driver *frameloop.Driver
	hub := status.NewHub(func(client, line string) (string, error) {
		return web.CommandHandler(tb, driver)(client, line)
	})
	tb.AddPresenter(hub)

	if window {
		// input callbacks run inside Wait on the loop goroutine
		win, err = glview.Open(glview.Options{
			Title:  "Saturn",
			Width:  width,
			Height: height,
			VSync:  vsync,
		}, tb.Scene, tb)
		if err != nil {
			log.Fatal(err)
		}
		defer win.Close()
		source = win
		tb.AddPresenter(win)
	}

	driver = frameloop.NewDriver(source, tb)

	loader := textures.NewLoader(&http.Client{Timeout: 30 * time.Second}, 4, driver.Post, hub)
	loader.Load(ctx, tb.Textures()...)

	go func() {
		if err := web.StartServer(ctx, addr, web.NewServer(tb, driver, hub, loader), webPath); err != nil {
			log.Printf("[web] Server failed: %v", err)
			cancel()
		}
	}()

	err = driver.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, glview.ErrWindowClosed):
		log.Printf("Window closed")
	default:
		log.Fatal(err)
	}
	cancel()
	loader.Wait()
}
