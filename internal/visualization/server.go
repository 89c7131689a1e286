package visualization

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/nvandessel/spike/internal/network"
	"github.com/nvandessel/spike/internal/session"
)

// Server exposes a live session over HTTP: the current graph as JSON or DOT
// and a stimulate endpoint.
type Server struct {
	sess       *session.Session
	httpServer *http.Server
	mu         sync.Mutex
	addr       string
}

// NewServer creates a new live graph server.
func NewServer(sess *session.Session) *Server {
	return &Server{sess: sess}
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/graph", s.handleGraph)
	mux.HandleFunc("GET /graph.dot", s.handleDOT)
	mux.HandleFunc("POST /api/stimulate", s.handleStimulate)
	return mux
}

// ListenAndServe listens on addr (an OS-assigned port when addr is empty)
// and blocks until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = "localhost:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	srv := s.httpServer
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	err = srv.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	data, err := json.Marshal(RenderJSON(s.sess.Snapshot()))
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to encode graph: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(append(data, '\n'))
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.Write([]byte(RenderDOT(s.sess.Snapshot())))
}

func (s *Server) handleStimulate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("neuron")
	id, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, "missing or invalid 'neuron' query parameter", http.StatusBadRequest)
		return
	}
	if err := s.sess.Stimulate(network.NeuronID(id)); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var openers = map[string][]string{
	"linux":   {"xdg-open"},
	"darwin":  {"open"},
	"windows": {"cmd", "/c", "start"},
}

// OpenBrowser opens url in the user's default browser.
func OpenBrowser(url string) error {
	argv, ok := openers[runtime.GOOS]
	if !ok {
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return exec.Command(argv[0], append(argv[1:], url)...).Start()
}
