// Package web exposes a minimal dashboard streaming episode step
// records over SSE. It is display-only: nothing here can reach back
// into a running engine.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/vadiminshakov/tradegym/internal/storage/episodes"
)

const recordPollInterval = 2 * time.Second

type stepRecordReader interface {
	RecordsAfter(index uint64) ([]episodes.StepRecordEntry, error)
}

// Server exposes HTTP endpoints serving the HTML UI and an SSE stream.
type Server struct {
	Addr  string
	Store stepRecordReader
}

// NewServer creates a new web server instance.
func NewServer(addr string, store stepRecordReader) *Server {
	return &Server{Addr: addr, Store: store}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/episodes/stream", s.handleStepStream)

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleStepStream(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "episode store not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// send a comment heartbeat every 30s so proxies keep connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(recordPollInterval)
	defer pollTicker.Stop()

	lastIndex := uint64(0)
	sendRecords := func() error {
		entries, err := s.Store.RecordsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			payload, err := json.Marshal(entry.Record)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: step\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = entry.Index
		}
		return nil
	}

	if err := sendRecords(); err != nil {
		http.Error(w, "failed to load step records", http.StatusInternalServerError)
		log.Printf("step stream initial load: %v", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendRecords(); err != nil {
				log.Printf("step stream poll: %v", err)
				return
			}
		}
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>tradegym episodes</title>
<style>
body { font-family: monospace; background: #111; color: #ddd; margin: 2rem; }
table { border-collapse: collapse; width: 100%; }
td, th { border-bottom: 1px solid #333; padding: 4px 8px; text-align: right; }
th { color: #7d56f4; }
td.msg { text-align: left; color: #f59f73; }
</style>
</head>
<body>
<h2>episode steps</h2>
<table id="steps">
<tr><th>episode</th><th>t</th><th>decision</th><th>price</th><th>qty</th><th>fee</th><th>reward</th><th>value</th><th>msg</th></tr>
</table>
<script>
const table = document.getElementById("steps");
const source = new EventSource("/episodes/stream");
source.addEventListener("step", function(e) {
  const rec = JSON.parse(e.data);
  const row = table.insertRow(1);
  row.innerHTML = "<td>" + rec.episode_id.slice(0, 8) + "</td><td>" + rec.t +
    "</td><td>" + rec.decision + "</td><td>" + rec.ccld_price +
    "</td><td>" + rec.ccld_qty + "</td><td>" + rec.fee +
    "</td><td>" + rec.reward + "</td><td>" + rec.portfolio_val +
    "</td><td class=\"msg\">" + (rec.msg || "") + "</td>";
});
</script>
</body>
</html>`
