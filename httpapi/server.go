// Package httpapi is the HTTP/WebSocket front door for navigationd:
// it serves the static viewer frontend, the active store map as JSON,
// and upgrades /ws connections into the wsx broadcast hub. Adapted
// from web/server.go's Start (mux + ListenAndServe, serving config
// files and a static frontend alongside a WebSocket endpoint), with
// the map-image/XML serving replaced by a single JSON map endpoint
// and serveWs re-pointed at the reconstructed wsx.Hub.
package httpapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"indoornav/storemap"
	"indoornav/wsx"
)

// Server owns the hub and the map data this process serves.
type Server struct {
	Hub *wsx.Hub
	sm  *storemap.StoreMap
}

// NewServer constructs a Server around an already-running hub.
func NewServer(hub *wsx.Hub, sm *storemap.StoreMap) *Server {
	return &Server{Hub: hub, sm: sm}
}

// Start serves on port until ListenAndServe returns an error, serving
// static frontend assets from distDir (if non-empty).
func (s *Server) Start(port int, distDir string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		wsx.ServeWs(s.Hub, w, r)
	})

	mux.HandleFunc("/map.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.mapView()); err != nil {
			log.Printf("httpapi: encode map.json: %v", err)
		}
	})

	if distDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(distDir)))
	}

	addr := fmt.Sprintf(":%d", port)
	log.Printf("httpapi: listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

type mapNodeView struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Floor int     `json:"floor"`
	Type  string  `json:"type"`
}

type mapEdgeView struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type mapView struct {
	Nodes []mapNodeView `json:"nodes"`
	Edges []mapEdgeView `json:"edges"`
}

func (s *Server) mapView() mapView {
	if s.sm == nil {
		return mapView{}
	}
	v := mapView{}
	for _, n := range s.sm.Nodes() {
		v.Nodes = append(v.Nodes, mapNodeView{ID: n.ID, Label: n.Label, X: n.X, Y: n.Y, Floor: n.Floor, Type: string(n.Type)})
	}
	for _, e := range s.sm.Edges {
		v.Edges = append(v.Edges, mapEdgeView{From: e.From, To: e.To})
	}
	return v
}
