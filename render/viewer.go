package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/spektr-org/covidscope/engine"
)

// ============================================================================
// VIEWER — Local, dismissable chart window served over HTTP
// ============================================================================
// Routes:
//   GET  /           page with the current figure and a "Next" button
//   GET  /chart.png  current figure as PNG
//   POST /dismiss    releases the Show call waiting on the current figure
//
// One figure at a time. Images live in memory only.
// ============================================================================

// DefaultViewerAddr is loopback-only.
const DefaultViewerAddr = "127.0.0.1:8089"

// Viewer is a Display that blocks until the user dismisses each figure.
type Viewer struct {
	addr   string
	width  int
	height int
	logger *log.Logger

	mu      sync.Mutex
	seq     int
	title   string
	image   []byte
	dismiss chan struct{}

	server   *http.Server
	listener net.Listener
}

func NewViewer(addr string, width, height int, logger *log.Logger) *Viewer {
	if addr == "" {
		addr = DefaultViewerAddr
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Viewer{addr: addr, width: width, height: height, logger: logger}
}

// Handler returns the viewer's routes.
func (v *Viewer) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", v.handlePage).Methods("GET")
	router.HandleFunc("/chart.png", v.handleImage).Methods("GET")
	router.HandleFunc("/dismiss", v.handleDismiss).Methods("POST")
	return router
}

// Start listens on the configured address and serves in the background.
func (v *Viewer) Start() error {
	ln, err := net.Listen("tcp", v.addr)
	if err != nil {
		return fmt.Errorf("viewer listen on %s: %w", v.addr, err)
	}
	v.listener = ln
	v.server = &http.Server{
		Handler:      v.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := v.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			v.logger.Printf("❌ Viewer stopped: %v", err)
		}
	}()
	v.logger.Printf("✅ Viewer running on %s", v.URL())
	return nil
}

// URL is the page address, valid after Start.
func (v *Viewer) URL() string {
	if v.listener != nil {
		return "http://" + v.listener.Addr().String() + "/"
	}
	return "http://" + v.addr + "/"
}

// Close shuts the server down.
func (v *Viewer) Close(ctx context.Context) error {
	if v.server == nil {
		return nil
	}
	return v.server.Shutdown(ctx)
}

// Show publishes fig and waits for a dismiss or for ctx to end.
func (v *Viewer) Show(ctx context.Context, fig *engine.ChartConfig) error {
	var buf bytes.Buffer
	if err := PNG(&buf, fig, v.width, v.height); err != nil {
		return err
	}

	done := make(chan struct{})
	v.mu.Lock()
	v.seq++
	v.title = fig.Title
	v.image = buf.Bytes()
	v.dismiss = done
	v.mu.Unlock()

	v.logger.Printf("📊 Showing %q at %s (press Next to continue)", fig.Title, v.URL())

	defer func() {
		v.mu.Lock()
		v.image, v.title, v.dismiss = nil, "", nil
		v.mu.Unlock()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ============================================================================
// HANDLERS
// ============================================================================

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{if .Title}}{{.Title}}{{else}}covidscope{{end}}</title></head>
<body style="font-family: sans-serif; text-align: center">
{{if .Title}}
  <h2>{{.Title}}</h2>
  <img src="/chart.png?n={{.Seq}}" alt="{{.Title}}" style="max-width: 100%">
  <form method="post" action="/dismiss"><button type="submit">Next</button></form>
{{else}}
  <p>No figure is being shown. Reload when the next one is ready.</p>
{{end}}
</body>
</html>
`))

func (v *Viewer) handlePage(w http.ResponseWriter, r *http.Request) {
	v.mu.Lock()
	data := struct {
		Title string
		Seq   int
	}{v.title, v.seq}
	v.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTemplate.Execute(w, data); err != nil {
		v.logger.Printf("⚠️ Viewer page: %v", err)
	}
}

func (v *Viewer) handleImage(w http.ResponseWriter, r *http.Request) {
	v.mu.Lock()
	img := v.image
	v.mu.Unlock()

	if img == nil {
		http.Error(w, "no figure", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(img)
}

func (v *Viewer) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if err := v.release(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

var errNothingShown = errors.New("no figure is being shown")

// release closes the current dismiss channel exactly once.
func (v *Viewer) release() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.dismiss == nil {
		return errNothingShown
	}
	close(v.dismiss)
	v.dismiss = nil
	return nil
}
