package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/saturn_viewer/console"
	"github.com/mogaika/saturn_viewer/export"
	"github.com/mogaika/saturn_viewer/frameloop"
	"github.com/mogaika/saturn_viewer/r3d"
	"github.com/mogaika/saturn_viewer/status"
	"github.com/mogaika/saturn_viewer/tableau"
	"github.com/mogaika/saturn_viewer/utils"
	"github.com/mogaika/saturn_viewer/webutils"
)

const (
	maxCommandText = 64 * 1024
	commandTimeout = 10 * time.Second
)

var errNoFrame = errors.New("no frame presented yet")

func (s *Server) HandlerJsonScene(w http.ResponseWriter, r *http.Request) {
	var info *tableau.NodeInfo
	if err := s.Driver.Do(r.Context(), func() {
		info = tableau.Describe(s.Tableau.Scene.Root)
	}); err != nil {
		webutils.WriteErrorStatus(w, http.StatusServiceUnavailable, err)
		return
	}
	webutils.WriteJson(w, info)
}

func (s *Server) HandlerJsonNode(w http.ResponseWriter, r *http.Request) {
	param := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(param, 10, 32)
	if err != nil {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, fmt.Errorf("param '%s' is not integer", param))
		return
	}

	var info *tableau.NodeInfo
	if err := s.Driver.Do(r.Context(), func() {
		if n, ok := s.Tableau.Scene.Node(uint32(id)); ok {
			info = tableau.Describe(n)
		}
	}); err != nil {
		webutils.WriteErrorStatus(w, http.StatusServiceUnavailable, err)
		return
	}
	if info == nil {
		webutils.WriteErrorStatus(w, http.StatusNotFound, fmt.Errorf("Node %d not found", id))
		return
	}
	webutils.WriteJson(w, info)
}

func (s *Server) HandlerJsonFrame(w http.ResponseWriter, r *http.Request) {
	f := s.Tableau.LastFrame()
	if f == nil {
		webutils.WriteErrorStatus(w, http.StatusServiceUnavailable, errNoFrame)
		return
	}
	webutils.WriteJson(w, f)
}

type statsResponse struct {
	State           string          `json:"state"`
	Loop            frameloop.Stats `json:"loop"`
	LoopText        string          `json:"loopText"`
	Clients         int             `json:"clients"`
	Dropped         uint64          `json:"dropped"`
	TexturesPending int             `json:"texturesPending"`
}

func (s *Server) HandlerJsonStats(w http.ResponseWriter, r *http.Request) {
	stats := s.Driver.Stats()
	resp := &statsResponse{
		State:    s.Driver.State().String(),
		Loop:     stats,
		LoopText: stats.String(),
	}
	if s.Hub != nil {
		resp.Clients = s.Hub.ClientsCount()
		resp.Dropped = s.Hub.Dropped()
	}
	if s.Loader != nil {
		resp.TexturesPending = s.Loader.Pending()
	}
	webutils.WriteJson(w, resp)
}

func (s *Server) HandlerJsonCommands(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, console.Usage())
}

func (s *Server) HandlerDumpScene(w http.ResponseWriter, r *http.Request) {
	var dump string
	if err := s.Driver.Do(r.Context(), func() {
		dump = utils.SDump(tableau.Describe(s.Tableau.Scene.Root))
	}); err != nil {
		webutils.WriteErrorStatus(w, http.StatusServiceUnavailable, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	webutils.WriteResult(w, []byte(dump))
}

// ExportScene prepares the export on the loop goroutine and encodes it outside
func ExportScene(do func(fn func()) error, root *r3d.Node, format string, out io.Writer) error {
	var enc export.Encoder
	var err error
	if derr := do(func() { enc, err = export.Prepare(root, format, "scene") }); derr != nil {
		return derr
	}
	if err != nil {
		return err
	}
	return enc(out)
}

func (s *Server) HandlerExportScene(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(mux.Vars(r)["format"])
	do := func(fn func()) error { return s.Driver.Do(r.Context(), fn) }

	if format == "json" {
		var info *tableau.NodeInfo
		if err := do(func() { info = tableau.Describe(s.Tableau.Scene.Root) }); err != nil {
			webutils.WriteErrorStatus(w, http.StatusServiceUnavailable, err)
			return
		}
		webutils.WriteJsonFile(w, info, "scene")
		return
	}

	var buf bytes.Buffer
	if err := ExportScene(do, s.Tableau.Scene.Root, format, &buf); err != nil {
		log.Printf("[web] Export %q failed: %v", format, err)
		webutils.WriteErrorStatus(w, http.StatusBadRequest, errors.Wrapf(err, "Export failed"))
		return
	}
	webutils.WriteFile(w, &buf, "scene."+format)
}

type resizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) HandlerActionResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := webutils.ReadJson(r, &req); err != nil {
			webutils.WriteErrorStatus(w, http.StatusBadRequest, err)
			return
		}
	} else {
		var err error
		if req.Width, err = strconv.Atoi(r.FormValue("w")); err != nil {
			webutils.WriteErrorStatus(w, http.StatusBadRequest, errors.Wrapf(err, "Invalid width"))
			return
		}
		if req.Height, err = strconv.Atoi(r.FormValue("h")); err != nil {
			webutils.WriteErrorStatus(w, http.StatusBadRequest, errors.Wrapf(err, "Invalid height"))
			return
		}
	}

	var resizeErr error
	if err := s.Driver.Do(r.Context(), func() {
		resizeErr = s.Tableau.Resize(req.Width, req.Height)
	}); err != nil {
		webutils.WriteErrorStatus(w, http.StatusServiceUnavailable, err)
		return
	}
	if resizeErr != nil {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, resizeErr)
		return
	}
	webutils.WriteJson(w, &req)
}

type CommandResult struct {
	Applied  int      `json:"applied"`
	Commands []string `json:"commands"`
}

// RunCommands parses text and applies it on the loop goroutine.
// Commands before a failing one stay applied.
func RunCommands(do func(fn func()) error, target console.Target, text string) (*CommandResult, error) {
	cmds, err := console.ParseCommands(text)
	if err != nil {
		return nil, err
	}

	var applied int
	var applyErr error
	if err := do(func() { applied, applyErr = console.ApplyAll(cmds, target) }); err != nil {
		return nil, err
	}

	resp := &CommandResult{Applied: applied, Commands: console.RenderLines(cmds[:applied])}
	return resp, applyErr
}

func (s *Server) HandlerActionCommand(w http.ResponseWriter, r *http.Request) {
	text, err := ioutil.ReadAll(io.LimitReader(r.Body, maxCommandText))
	if err != nil {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, errors.Wrapf(err, "Failed to read body"))
		return
	}

	resp, err := RunCommands(func(fn func()) error {
		return s.Driver.Do(r.Context(), fn)
	}, s.Tableau, string(text))
	if err != nil {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, err)
		return
	}
	webutils.WriteJson(w, resp)
}

func (s *Server) HandlerWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[web] Websocket upgrade failed: %v", err)
		return
	}
	s.Hub.Serve(conn)
}

// CommandHandler lets websocket clients drive the tableau with console lines
func CommandHandler(tb *tableau.Tableau, driver *frameloop.Driver) status.CommandHandler {
	return func(client, line string) (string, error) {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		resp, err := RunCommands(func(fn func()) error {
			return driver.Do(ctx, fn)
		}, tb, line)
		if err != nil {
			return "", err
		}
		log.Printf("[web] %s applied %d commands", client, resp.Applied)
		return strings.Join(resp.Commands, "\n"), nil
	}
}
