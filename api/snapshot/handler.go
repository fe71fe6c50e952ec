// Package snapshot serves the live state of a running simulation over HTTP.
package snapshot

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kilianp07/evcorridor/core/simulation"
)

// Source is the read side of a running simulation plus its pace control.
type Source interface {
	Name() string
	SegmentIDs() []string
	Snapshot() (simulation.Snapshot, bool)
	Cars() []simulation.CarView
	Result() simulation.Result
	TPS() int
	SetTPS(n int)
}

// MaxTPS caps the ticks per second accepted by PUT /tps.
const MaxTPS = 10000

type snapshotResponse struct {
	Name     string               `json:"name"`
	Segments []string             `json:"segments"`
	Result   simulation.Result    `json:"result"`
	Snapshot *simulation.Snapshot `json:"snapshot"`
}

type tpsBody struct {
	TPS int `json:"tps"`
}

// NewHandler returns an HTTP handler exposing:
//
//	GET  /api/simulation/snapshot  latest snapshot and run summary
//	GET  /api/simulation/cars      car views, filtered by ?state= and ?segment=
//	GET  /api/simulation/tps       current pace, 0 meaning unpaced
//	PUT  /api/simulation/tps       set the pace from {"tps": n}
//
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
func NewHandler(src Source, token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/simulation/snapshot", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		resp := snapshotResponse{Name: src.Name(), Segments: src.SegmentIDs(), Result: src.Result()}
		if snap, ok := src.Snapshot(); ok {
			resp.Snapshot = &snap
		}
		writeJSON(w, resp)
	})
	mux.HandleFunc("/api/simulation/cars", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		state := r.URL.Query().Get("state")
		segment := -1
		if s := r.URL.Query().Get("segment"); s != "" {
			segment = indexOf(src.SegmentIDs(), s)
			if segment < 0 {
				http.Error(w, "unknown segment "+strconv.Quote(s), http.StatusBadRequest)
				return
			}
		}
		cars := src.Cars()
		out := cars[:0]
		for _, c := range cars {
			if state != "" && c.StateName != state {
				continue
			}
			if segment >= 0 && c.Segment != segment {
				continue
			}
			out = append(out, c)
		}
		writeJSON(w, out)
	})
	mux.HandleFunc("/api/simulation/tps", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, tpsBody{TPS: src.TPS()})
		case http.MethodPut:
			var b tpsBody
			if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
				http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
				return
			}
			if b.TPS < 0 || b.TPS > MaxTPS {
				http.Error(w, "tps out of range", http.StatusBadRequest)
				return
			}
			src.SetTPS(b.TPS)
			writeJSON(w, b)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	if token == "" {
		return mux
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
