package web

import (
	"context"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mogaika/saturn_viewer/frameloop"
	"github.com/mogaika/saturn_viewer/status"
	"github.com/mogaika/saturn_viewer/tableau"
	"github.com/mogaika/saturn_viewer/textures"
)

// Server exposes the tableau over http. Scene access always goes through the driver.
type Server struct {
	Tableau *tableau.Tableau
	Driver  *frameloop.Driver
	Hub     *status.Hub
	// optional, only used for stats
	Loader *textures.Loader

	upgrader websocket.Upgrader
}

func NewServer(tb *tableau.Tableau, driver *frameloop.Driver, hub *status.Hub, loader *textures.Loader) *Server {
	return &Server{
		Tableau: tb,
		Driver:  driver,
		Hub:     hub,
		Loader:  loader,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
		},
	}
}

func (s *Server) Router(webPath string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/json/scene", s.HandlerJsonScene)
	r.HandleFunc("/json/node/{id:[0-9]+}", s.HandlerJsonNode)
	r.HandleFunc("/json/frame", s.HandlerJsonFrame)
	r.HandleFunc("/json/stats", s.HandlerJsonStats)
	r.HandleFunc("/json/commands", s.HandlerJsonCommands)
	r.HandleFunc("/dump/scene", s.HandlerDumpScene)
	r.HandleFunc("/export/scene.{format}", s.HandlerExportScene)
	r.HandleFunc("/action/resize", s.HandlerActionResize).Methods("POST")
	r.HandleFunc("/action/command", s.HandlerActionCommand).Methods("POST")
	r.HandleFunc("/ws", s.HandlerWebsocket)

	if webPath != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(webPath, "data"))))
	}
	return r
}

func (s *Server) Handler(webPath string) http.Handler {
	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(s.Router(webPath))
	return handlers.LoggingHandler(os.Stdout, h)
}

// StartServer blocks until ctx is done or the listener fails
func StartServer(ctx context.Context, addr string, s *Server, webPath string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(webPath),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[web] Starting server %v", addr)

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
