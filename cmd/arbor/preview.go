package main

import (
	"context"
	"fmt"
	stdhtml "html"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/arborui/arbor/pkg/debug"
	"github.com/arborui/arbor/pkg/live"
	"github.com/arborui/arbor/pkg/renderer/html"
)

func newPreviewCommand() *cobra.Command {
	var host string
	var port int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Serve the project with live reload",
		Long: `Builds the project, serves it over HTTP, and rebuilds whenever a
component file changes. Connected browsers reload through the live
websocket channel.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				debug.EnableLogging(log.Printf)
			}
			return runPreview(host, port)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Bind host (default from arbor.yaml)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Bind port (default from arbor.yaml)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log compiler and runtime debug output")

	return cmd
}

// devServer holds the preview state: the latest build, the websocket
// hub, and the file watcher.
type devServer struct {
	project *project // touched only by the watch goroutine once it starts
	live    *live.Server
	watcher *fsnotify.Watcher

	mu    sync.RWMutex
	title string
	body  string
}

func runPreview(host string, port int) error {
	p, err := openProject(".")
	if err != nil {
		return err
	}
	defer p.close()

	if host == "" {
		host = p.cfg.Preview.Host
	}
	if port == 0 {
		port = p.cfg.Preview.Port
	}

	s := &devServer{project: p, live: live.NewServer()}

	if path := p.cfg.Preview.StatePath; path != "" {
		if err := os.MkdirAll(filepath.Dir(filepath.Join(p.root, path)), 0755); err == nil {
			st, err := live.OpenStore(filepath.Join(p.root, path))
			if err != nil {
				log.Printf("⚠️  Session persistence disabled: %v", err)
			} else {
				s.live.SetStore(st)
				defer st.Close()
			}
		}
	}

	if err := s.rebuild(); err != nil {
		log.Printf("❌ Initial build failed: %v", err)
		s.setBody(errorPage(err))
	}

	s.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer s.watcher.Close()
	if err := s.watcher.Add(filepath.Join(p.root, p.cfg.ComponentsDir)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", p.cfg.ComponentsDir, err)
	}
	s.watcher.Add(filepath.Join(p.root, "arbor.yaml"))
	go s.watchFiles()

	mux := http.NewServeMux()
	mux.HandleFunc("/live/", s.live.HandleWebSocket)
	mux.HandleFunc("/", s.handlePage)

	addr := fmt.Sprintf("%s:%d", host, port)
	srv := &http.Server{Addr: addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Printf("🌳 Preview server running at http://%s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Println("Shutting down...")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	}
}

func (s *devServer) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.mu.RLock()
	title, body := s.title, s.body
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html.Document(title, body, reloadScript))
}

func (s *devServer) setBody(body string) {
	s.mu.Lock()
	s.title = s.project.cfg.Name
	s.body = body
	s.mu.Unlock()
}

func (s *devServer) rebuild() error {
	res, err := s.project.build()
	if err != nil {
		return err
	}
	s.setBody(res.Body)
	return nil
}

// watchFiles debounces filesystem events and rebuilds once per burst.
func (s *devServer) watchFiles() {
	debounce := time.NewTimer(0)
	<-debounce.C // drain initial timer

	var pending []fsnotify.Event

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !s.isRelevantFile(event.Name) {
				continue
			}
			pending = append(pending, event)
			debounce.Reset(100 * time.Millisecond)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Println("Watcher error:", err)

		case <-debounce.C:
			events := pending
			pending = nil
			if len(events) > 0 {
				s.handleFileChanges(events)
			}
		}
	}
}

func (s *devServer) isRelevantFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".arb" || filepath.Base(path) == "arbor.yaml"
}

func (s *devServer) handleFileChanges(events []fsnotify.Event) {
	for _, event := range events {
		log.Printf("📝 %s changed", filepath.Base(event.Name))
		if s.project.cache != nil {
			s.project.cache.InvalidateSource(event.Name)
		}
		if filepath.Base(event.Name) == "arbor.yaml" {
			if p, err := openProject(s.project.root); err == nil {
				s.project.close()
				s.project = p
			}
		}
	}

	if err := s.rebuild(); err != nil {
		log.Printf("❌ Build failed: %v", err)
		s.setBody(errorPage(err))
	} else {
		log.Println("✅ Rebuilt")
	}
	s.live.Broadcast(live.ControlReload)
}

func errorPage(err error) string {
	return fmt.Sprintf(`<div style="padding:2rem;font-family:monospace;color:#b91c1c"><h1>Build error</h1><pre>%s</pre></div>`, stdhtml.EscapeString(err.Error()))
}

// reloadScript connects each page to the live channel and reloads on
// the reload control frame (0x02 followed by a varint-prefixed
// command).
const reloadScript = `<script>
(function() {
  var id = Math.random().toString(36).slice(2, 10);
  function connect() {
    var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/live/" + id);
    ws.binaryType = "arraybuffer";
    ws.onmessage = function(msg) {
      var b = new Uint8Array(msg.data);
      if (b.length < 2 || b[0] !== 2) return;
      var cmd = String.fromCharCode.apply(null, b.subarray(2, 2 + b[1]));
      if (cmd === "reload") location.reload();
    };
    ws.onclose = function() { setTimeout(connect, 1000); };
  }
  connect();
})();
</script>`
