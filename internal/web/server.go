package web

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The status page is served from the device itself; any origin on the
	// local network may watch.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler serves the status API. bc and logs may be nil.
func Handler(status *Status, bc *Broadcaster, logs *LogBuffer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, status.Snapshot(time.Now().UTC()))
	})

	if bc != nil {
		mux.HandleFunc("/api/ws", func(w http.ResponseWriter, r *http.Request) {
			serveStatusWS(w, r, status, bc)
		})
	}

	if logs != nil {
		mux.Handle("/api/logs", logs.Handler())
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		snap := status.Snapshot(time.Now().UTC())
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, "<!doctype html><html><head><meta charset=\"utf-8\"><title>zonealert</title></head><body>")
		_, _ = fmt.Fprintf(w, "<h1>zonealert</h1>")
		_, _ = fmt.Fprintf(w, "<p>Live status: <a href=\"/api/status\">/api/status</a> (websocket: /api/ws)</p>")
		_, _ = fmt.Fprintf(w, "<pre>mode=%s\nuptime_sec=%d\nevents=%d</pre>",
			html.EscapeString(snap.Mode), snap.UptimeSec, snap.Events,
		)
		_, _ = fmt.Fprintf(w, "</body></html>")
	})

	return mux
}

func serveStatusWS(w http.ResponseWriter, r *http.Request, status *Status, bc *Broadcaster) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		log.Printf("web ws upgrade failed remote=%s err=%v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()

	id, ch := bc.Subscribe(4)
	defer bc.Unsubscribe(id)

	// The client never sends anything useful; reading detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(snap StatusSnapshot) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(snap)
	}

	if err := send(status.Snapshot(time.Now().UTC())); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			if err := send(snap); err != nil {
				return
			}
		}
	}
}

// Serve runs the HTTP server until ctx is done.
func Serve(ctx context.Context, listenAddr string, status *Status, bc *Broadcaster, logs *LogBuffer) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           Handler(status, bc, logs),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("web: listen %s: %w", listenAddr, err)
	}
}
