package httpgw_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/easelab/easel/pkg/adapters/httpgw"
	"github.com/easelab/easel/pkg/domain"
	"github.com/easelab/easel/pkg/ports"
)

var _ ports.GraphGateway = (*httpgw.Client)(nil)

func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "error", "code": code, "message": message})
}

func TestClientFetchGraph(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/graphs/g1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeSuccess(w, http.StatusOK, map[string]any{
			"id":   "g1",
			"name": "pipeline",
			"nodes": []map[string]any{
				{"id": "b", "name": "B", "backend": "openai", "model": "gpt-4o", "temperature": 0.7, "maxTokens": 1024},
				{"id": "a", "name": "A", "backend": "openai", "model": "gpt-4o", "temperature": 0.7, "maxTokens": 1024},
			},
			"edges": []map[string]any{
				{"id": "a-b", "source": "a", "target": "b", "type": "provides_context"},
			},
		})
	}))
	defer srv.Close()

	client := httpgw.New(srv.URL)
	snap, err := client.FetchGraph(context.Background(), "g1")
	if err != nil {
		t.Fatalf("FetchGraph failed: %v", err)
	}

	if snap.ID != "g1" || snap.Name != "pipeline" {
		t.Errorf("snapshot meta = %q/%q", snap.ID, snap.Name)
	}
	if len(snap.Nodes) != 2 || snap.Nodes[0].ID != "a" || snap.Nodes[1].ID != "b" {
		t.Errorf("nodes not normalized: %+v", snap.Nodes)
	}
	if len(snap.Edges) != 1 || snap.Edges[0].Type != domain.EdgeProvidesContext {
		t.Errorf("edges = %+v", snap.Edges)
	}
}

func TestClientListGraphs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/graphs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeSuccess(w, http.StatusOK, []map[string]any{
			{"id": "g1", "name": "one", "nodeCount": 3},
			{"id": "g2", "name": "two", "nodeCount": 0},
		})
	}))
	defer srv.Close()

	client := httpgw.New(srv.URL)
	infos, err := client.ListGraphs(context.Background())
	if err != nil {
		t.Fatalf("ListGraphs failed: %v", err)
	}
	if len(infos) != 2 || infos[0].ID != "g1" || infos[0].NodeCount != 3 {
		t.Errorf("infos = %+v", infos)
	}
}

func TestClientCreateGraphReturnsAssignedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/graphs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if body["name"] != "fresh" {
			t.Errorf("request name = %v", body["name"])
		}
		writeSuccess(w, http.StatusCreated, map[string]any{"id": "g-7", "name": "fresh"})
	}))
	defer srv.Close()

	client := httpgw.New(srv.URL)
	id, err := client.CreateGraph(context.Background(), &domain.Snapshot{Name: "fresh"})
	if err != nil {
		t.Fatalf("CreateGraph failed: %v", err)
	}
	if id != "g-7" {
		t.Errorf("assigned id = %q, want g-7", id)
	}
}

func TestClientCreateNodeRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/graphs/g1/nodes" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var n domain.Node
		if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
			t.Errorf("decode node: %v", err)
		}
		if n.ID != "n1" || n.Name != "fetcher" {
			t.Errorf("node = %+v", n)
		}
		writeSuccess(w, http.StatusCreated, nil)
	}))
	defer srv.Close()

	client := httpgw.New(srv.URL)
	err := client.CreateNode(context.Background(), "g1", domain.NewNode("n1", "fetcher", "openai", "gpt-4o"))
	if err != nil {
		t.Fatalf("CreateNode failed: %v", err)
	}
}

func TestClientCreateEdgeBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/edges" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if body["source"] != "a" || body["target"] != "b" || body["type"] != "controls_flow" {
			t.Errorf("edge body = %v", body)
		}
		if _, ok := body["id"]; ok {
			t.Error("edge body should not carry an id; the service derives it")
		}
		writeSuccess(w, http.StatusCreated, nil)
	}))
	defer srv.Close()

	client := httpgw.New(srv.URL)
	err := client.CreateEdge(context.Background(), "g1", domain.NewEdge("a", "b", domain.EdgeControlsFlow))
	if err != nil {
		t.Fatalf("CreateEdge failed: %v", err)
	}
}

func TestClientUpdateGraphSendsMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/graphs/g1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if body["name"] != "renamed" {
			t.Errorf("meta body = %v", body)
		}
		writeSuccess(w, http.StatusOK, nil)
	}))
	defer srv.Close()

	client := httpgw.New(srv.URL)
	err := client.UpdateGraph(context.Background(), "g1", domain.GraphMeta{Name: "renamed"})
	if err != nil {
		t.Fatalf("UpdateGraph failed: %v", err)
	}
}

func TestClientDeleteRoutes(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		writeSuccess(w, http.StatusOK, nil)
	}))
	defer srv.Close()

	client := httpgw.New(srv.URL)
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
		path string
	}{
		{"Graph", func() error { return client.DeleteGraph(ctx, "g1") }, "/api/graphs/g1"},
		{"Node", func() error { return client.DeleteNode(ctx, "n1") }, "/api/nodes/n1"},
		{"Edge", func() error { return client.DeleteEdge(ctx, "a-b") }, "/api/edges/a-b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); err != nil {
				t.Fatalf("delete failed: %v", err)
			}
			if gotMethod != http.MethodDelete || gotPath != tc.path {
				t.Errorf("request = %s %s, want DELETE %s", gotMethod, gotPath, tc.path)
			}
		})
	}
}

func TestClientNotFoundError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "graph not found")
	}))
	defer srv.Close()

	client := httpgw.New(srv.URL)
	_, err := client.FetchGraph(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected an error")
	}

	var re *domain.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error type = %T, want *domain.RemoteError", err)
	}
	if re.Status != http.StatusNotFound || re.Code != "not_found" || re.Message != "graph not found" {
		t.Errorf("remote error = %+v", re)
	}
	if !domain.IsRemoteNotFound(err) {
		t.Error("IsRemoteNotFound should report true")
	}
}

func TestClientValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusBadRequest, "validation_error", "name is required")
	}))
	defer srv.Close()

	client := httpgw.New(srv.URL)
	_, err := client.CreateGraph(context.Background(), &domain.Snapshot{})

	var re *domain.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error type = %T, want *domain.RemoteError", err)
	}
	if re.Code != domain.CodeValidationError || re.NotFound() {
		t.Errorf("remote error = %+v", re)
	}
}

func TestClientErrorWithoutMessageFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error"}`))
	}))
	defer srv.Close()

	client := httpgw.New(srv.URL)
	_, err := client.ListGraphs(context.Background())

	var re *domain.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error type = %T, want *domain.RemoteError", err)
	}
	if re.Message != http.StatusText(http.StatusInternalServerError) {
		t.Errorf("message = %q", re.Message)
	}
}

func TestClientTransportFailureHasStatusZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := httpgw.New(srv.URL)
	_, err := client.ListGraphs(context.Background())

	var re *domain.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error type = %T, want *domain.RemoteError", err)
	}
	if re.Status != 0 {
		t.Errorf("status = %d, want 0 for a request that never completed", re.Status)
	}
}

func TestClientMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>definitely not json</html>"))
	}))
	defer srv.Close()

	client := httpgw.New(srv.URL)
	_, err := client.ListGraphs(context.Background())

	var re *domain.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error type = %T, want *domain.RemoteError", err)
	}
	if re.Status != http.StatusOK {
		t.Errorf("status = %d", re.Status)
	}
}
