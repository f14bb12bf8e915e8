// Package httpapi hosts the graph service JSON protocol over a
// GraphGateway. It is the serving side of the wire contract that
// pkg/adapters/httpgw consumes: envelope responses, protocol error
// codes, and an SSE change feed of every mutation.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/easelab/easel"
	"github.com/easelab/easel/pkg/domain"
	"github.com/easelab/easel/pkg/notify"
	"github.com/easelab/easel/pkg/ports"
	"github.com/easelab/easel/pkg/topology"
)

// Server translates HTTP requests into gateway calls and publishes
// every successful mutation on the event bus.
type Server struct {
	gateway  ports.GraphGateway
	events   *notify.Notifier
	streams  *StreamManager
	log      *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the request logger. The default discards.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithNotifier attaches an externally built event bus. Mutations are
// published on it and every event it carries reaches SSE clients.
// Without one the server runs a private bus.
func WithNotifier(n *notify.Notifier) Option {
	return func(s *Server) { s.events = n }
}

// WithMetricsGatherer sets the registry behind /metrics. The default
// is the process-wide gatherer.
func WithMetricsGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// NewHandler builds the full HTTP handler for the service. It fails
// when the embedded OpenAPI document does not validate.
func NewHandler(gateway ports.GraphGateway, opts ...Option) (http.Handler, error) {
	if _, err := Doc(); err != nil {
		return nil, err
	}

	s := &Server{
		gateway:  gateway,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.events == nil {
		s.events = notify.New(notify.WithLogger(s.log))
	}
	s.streams = NewStreamManager(s.log)
	bindStream(s.events, s.streams)

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		api.Get("/graphs", s.listGraphs)
		api.Post("/graphs", s.createGraph)
		api.Get("/graphs/{graphID}", s.getGraph)
		api.Put("/graphs/{graphID}", s.updateGraph)
		api.Delete("/graphs/{graphID}", s.deleteGraph)
		api.Post("/graphs/{graphID}/nodes", s.createNode)
		api.Get("/graphs/{graphID}/topology", s.getTopology)
		api.Put("/nodes/{nodeID}", s.updateNode)
		api.Delete("/nodes/{nodeID}", s.deleteNode)
		api.Post("/edges", s.createEdge)
		api.Delete("/edges/{edgeID}", s.deleteEdge)
		api.Get("/events", s.subscribeEvents)
	})
	r.Get("/healthz", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/openapi.yaml", s.getOpenAPI)
	r.Get("/swagger", s.getSwaggerUI)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) publish(ctx context.Context, evt domain.Event) {
	s.events.Publish(ctx, evt)
}

// listGraphs handles GET /api/graphs.
func (s *Server) listGraphs(w http.ResponseWriter, r *http.Request) {
	infos, err := s.gateway.ListGraphs(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if infos == nil {
		infos = []domain.GraphInfo{}
	}
	s.writeData(w, http.StatusOK, infos)
}

// createGraph handles POST /api/graphs. The body may carry nodes and
// edges; the response is the stored graph with every id assigned.
func (s *Server) createGraph(w http.ResponseWriter, r *http.Request) {
	var snap domain.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		s.writeError(w, http.StatusBadRequest, domain.CodeValidationError, "invalid request body")
		return
	}

	id, err := s.gateway.CreateGraph(r.Context(), &snap)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	stored, err := s.gateway.FetchGraph(r.Context(), id)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	s.publish(r.Context(), domain.GraphSavedEvent{
		ID:          stored.ID,
		Name:        stored.Name,
		Description: stored.Description,
		New:         true,
	})
	s.writeData(w, http.StatusCreated, stored)
}

// getGraph handles GET /api/graphs/{graphID}.
func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	snap, err := s.gateway.FetchGraph(r.Context(), chi.URLParam(r, "graphID"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeData(w, http.StatusOK, snap)
}

// updateGraph handles PUT /api/graphs/{graphID}. Only name and
// description change; nodes and edges are untouched.
func (s *Server) updateGraph(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "graphID")

	var meta domain.GraphMeta
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		s.writeError(w, http.StatusBadRequest, domain.CodeValidationError, "invalid request body")
		return
	}
	if err := s.gateway.UpdateGraph(r.Context(), id, meta); err != nil {
		s.writeErr(w, err)
		return
	}

	s.publish(r.Context(), domain.GraphModifiedEvent{ID: id, Name: meta.Name})
	s.writeData(w, http.StatusOK, struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}{ID: id, Name: meta.Name, Description: meta.Description})
}

// deleteGraph handles DELETE /api/graphs/{graphID}.
func (s *Server) deleteGraph(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "graphID")
	if err := s.gateway.DeleteGraph(r.Context(), id); err != nil {
		s.writeErr(w, err)
		return
	}

	s.publish(r.Context(), domain.GraphDeletedEvent{ID: id})
	s.writeData(w, http.StatusOK, struct {
		ID string `json:"id"`
	}{ID: id})
}

// createNode handles POST /api/graphs/{graphID}/nodes. Fields absent
// from the body keep the node defaults; a missing id is assigned here
// so the response always carries it.
func (s *Server) createNode(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")

	n := domain.NewNode("", "", "", "")
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		s.writeError(w, http.StatusBadRequest, domain.CodeValidationError, "invalid request body")
		return
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.GraphID = graphID

	if err := s.gateway.CreateNode(r.Context(), graphID, n); err != nil {
		s.writeErr(w, err)
		return
	}

	s.publish(r.Context(), domain.NodeAddedEvent{Node: n})
	s.writeData(w, http.StatusCreated, n)
}

// updateNode handles PUT /api/nodes/{nodeID}. The body replaces the
// whole node; the id in the path wins over any id in the body.
func (s *Server) updateNode(w http.ResponseWriter, r *http.Request) {
	n := domain.NewNode("", "", "", "")
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		s.writeError(w, http.StatusBadRequest, domain.CodeValidationError, "invalid request body")
		return
	}
	n.ID = chi.URLParam(r, "nodeID")

	if err := s.gateway.UpdateNode(r.Context(), n); err != nil {
		s.writeErr(w, err)
		return
	}

	s.publish(r.Context(), domain.NodeUpdatedEvent{Node: n})
	s.writeData(w, http.StatusOK, n)
}

// deleteNode handles DELETE /api/nodes/{nodeID}.
func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "nodeID")
	if err := s.gateway.DeleteNode(r.Context(), id); err != nil {
		s.writeErr(w, err)
		return
	}

	s.publish(r.Context(), domain.NodeRemovedEvent{NodeID: id})
	s.writeData(w, http.StatusOK, struct {
		ID string `json:"id"`
	}{ID: id})
}

// createEdge handles POST /api/edges. The owning graph is resolved
// from the source node; creating an edge that already exists for the
// pair returns the stored edge and succeeds.
func (s *Server) createEdge(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Source string          `json:"source"`
		Target string          `json:"target"`
		Type   domain.EdgeType `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, domain.CodeValidationError, "invalid request body")
		return
	}
	if body.Source == "" || body.Target == "" {
		s.writeError(w, http.StatusBadRequest, domain.CodeValidationError, "source and target are required")
		return
	}

	graphID, err := s.graphOwningNode(r.Context(), body.Source)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	e := domain.NewEdge(body.Source, body.Target, body.Type)
	if err := s.gateway.CreateEdge(r.Context(), graphID, e); err != nil {
		s.writeErr(w, err)
		return
	}
	// A pre-existing edge keeps its stored type; answer with what the
	// service actually holds.
	if snap, err := s.gateway.FetchGraph(r.Context(), graphID); err == nil {
		if stored, ok := snap.EdgeIndex()[e.ID]; ok {
			e = stored
		}
	}

	s.publish(r.Context(), domain.EdgeAddedEvent{Edge: e})
	s.writeData(w, http.StatusCreated, e)
}

// deleteEdge handles DELETE /api/edges/{edgeID}.
func (s *Server) deleteEdge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "edgeID")
	if err := s.gateway.DeleteEdge(r.Context(), id); err != nil {
		s.writeErr(w, err)
		return
	}

	s.publish(r.Context(), domain.EdgeRemovedEvent{EdgeID: id})
	s.writeData(w, http.StatusOK, struct {
		ID string `json:"id"`
	}{ID: id})
}

// graphOwningNode finds the graph containing nodeID. The flat edge
// route has no graph in its path, so ownership is resolved here.
func (s *Server) graphOwningNode(ctx context.Context, nodeID string) (string, error) {
	infos, err := s.gateway.ListGraphs(ctx)
	if err != nil {
		return "", err
	}
	for _, info := range infos {
		snap, err := s.gateway.FetchGraph(ctx, info.ID)
		if err != nil {
			return "", err
		}
		if _, ok := snap.NodeIndex()[nodeID]; ok {
			return info.ID, nil
		}
	}
	return "", &domain.RemoteError{
		Status:  http.StatusNotFound,
		Code:    domain.CodeNotFound,
		Message: fmt.Sprintf("source node %s not found", nodeID),
	}
}

// getTopology handles GET /api/graphs/{graphID}/topology.
func (s *Server) getTopology(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "graphID")
	snap, err := s.gateway.FetchGraph(r.Context(), id)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	order, err := topology.Order(snap)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, domain.CodeValidationError, err.Error())
		return
	}
	s.writeData(w, http.StatusOK, struct {
		GraphID string   `json:"graphId"`
		Order   []string `json:"order"`
	}{GraphID: id, Order: order})
}

// subscribeEvents handles GET /api/events (SSE).
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, domain.CodeInternalError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var keep map[string]bool
	if raw := r.URL.Query().Get("events"); raw != "" {
		keep = make(map[string]bool)
		for _, name := range strings.Split(raw, ",") {
			keep[strings.TrimSpace(name)] = true
		}
	}

	ch, cancel := s.streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.log.Debug("sse client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if keep != nil && !keep[msg.Event] {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg.Payload)
			flusher.Flush()
		}
	}
}

// getHealth handles GET /healthz.
func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// getInfo handles GET /info.
func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := Doc(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"app":         "easel-http",
		"version":     strings.TrimSpace(easel.Version),
		"api_version": apiVersion,
	})
}

// getOpenAPI handles GET /openapi.yaml.
func (s *Server) getOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	w.Write(rawSpec())
}

// getSwaggerUI handles GET /swagger.
func (s *Server) getSwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(swaggerHTML))
}
