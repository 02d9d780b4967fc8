// Command catalog-mock serves OMDb-style lookups from a JSON fixture file for local runs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Clark-Hu/ratingz/internal/logger"
)

type catalogEntry struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	Poster string `json:"Poster,omitempty"`
}

type lookupResponse struct {
	catalogEntry
	IMDbID   string `json:"imdbID,omitempty"`
	Response string `json:"Response"`
	Error    string `json:"Error,omitempty"`
}

func main() {
	var (
		port   = flag.String("port", "9099", "port to listen on")
		data   = flag.String("data", "cmd/catalog-mock/testdata/catalog.json", "path to fixture file keyed by external id")
		apiKey = flag.String("apikey", "", "require this api key when set")
	)
	flag.Parse()

	log, err := logger.New(logger.DefaultConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	entries, err := loadEntries(*data)
	if err != nil {
		log.Fatal("load fixtures", zap.Error(err))
	}

	addr := ":" + *port
	log.Info("mock catalog listening", zap.String("addr", addr), zap.Int("entries", len(entries)))
	if err := http.ListenAndServe(addr, newRouter(entries, *apiKey)); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

func loadEntries(path string) (map[string]catalogEntry, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var entries map[string]catalogEntry
	if err := json.Unmarshal(file, &entries); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return entries, nil
}

// newRouter answers like OMDb: HTTP 200 with Response "False" for unknown ids.
func newRouter(entries map[string]catalogEntry, apiKey string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if apiKey != "" && q.Get("apikey") != apiKey {
			writeLookup(w, http.StatusUnauthorized, lookupResponse{Response: "False", Error: "Invalid API key!"})
			return
		}
		id := q.Get("i")
		entry, ok := entries[id]
		if !ok {
			writeLookup(w, http.StatusOK, lookupResponse{Response: "False", Error: "Incorrect IMDb ID."})
			return
		}
		writeLookup(w, http.StatusOK, lookupResponse{catalogEntry: entry, IMDbID: id, Response: "True"})
	})
	return r
}

func writeLookup(w http.ResponseWriter, status int, resp lookupResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
