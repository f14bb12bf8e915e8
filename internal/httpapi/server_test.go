package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/easelab/easel/pkg/adapters/httpgw"
	"github.com/easelab/easel/pkg/adapters/memory"
	"github.com/easelab/easel/pkg/domain"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	handler, err := NewHandler(memory.NewGateway())
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

type testEnvelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

func doJSON(t *testing.T, method, url string, body any) (int, testEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env testEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp.StatusCode, env
}

func createGraph(t *testing.T, srv *httptest.Server, snap domain.Snapshot) domain.Snapshot {
	t.Helper()
	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/graphs", snap)
	if status != http.StatusCreated || env.Status != "success" {
		t.Fatalf("create graph: status=%d envelope=%+v", status, env)
	}
	var stored domain.Snapshot
	if err := json.Unmarshal(env.Data, &stored); err != nil {
		t.Fatalf("decode stored graph: %v", err)
	}
	return stored
}

func TestGraphLifecycle(t *testing.T) {
	srv := newTestServer(t)

	stored := createGraph(t, srv, domain.Snapshot{Name: "pipeline", Description: "demo"})
	if stored.ID == "" {
		t.Fatal("created graph has no id")
	}

	status, env := doJSON(t, http.MethodGet, srv.URL+"/api/graphs", nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	var infos []domain.GraphInfo
	if err := json.Unmarshal(env.Data, &infos); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(infos) != 1 || infos[0].ID != stored.ID || infos[0].Name != "pipeline" {
		t.Errorf("list = %+v", infos)
	}

	status, env = doJSON(t, http.MethodPut, srv.URL+"/api/graphs/"+stored.ID,
		domain.GraphMeta{Name: "renamed", Description: "v2"})
	if status != http.StatusOK || env.Status != "success" {
		t.Fatalf("update: status=%d envelope=%+v", status, env)
	}

	status, env = doJSON(t, http.MethodGet, srv.URL+"/api/graphs/"+stored.ID, nil)
	if status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	var fetched domain.Snapshot
	if err := json.Unmarshal(env.Data, &fetched); err != nil {
		t.Fatalf("decode graph: %v", err)
	}
	if fetched.Name != "renamed" || fetched.Description != "v2" {
		t.Errorf("fetched meta = %q/%q", fetched.Name, fetched.Description)
	}

	status, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/graphs/"+stored.ID, nil)
	if status != http.StatusOK {
		t.Fatalf("delete status = %d", status)
	}

	status, env = doJSON(t, http.MethodGet, srv.URL+"/api/graphs/"+stored.ID, nil)
	if status != http.StatusNotFound || env.Code != domain.CodeNotFound {
		t.Errorf("get after delete: status=%d code=%q", status, env.Code)
	}
}

func TestCreateGraphWithoutNameFails(t *testing.T) {
	srv := newTestServer(t)

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/graphs", domain.Snapshot{})
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	if env.Status != "error" || env.Code != domain.CodeValidationError {
		t.Errorf("envelope = %+v", env)
	}
}

func TestNodeRoutes(t *testing.T) {
	srv := newTestServer(t)
	stored := createGraph(t, srv, domain.Snapshot{Name: "g"})

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/graphs/"+stored.ID+"/nodes",
		map[string]any{"name": "fetch"})
	if status != http.StatusCreated {
		t.Fatalf("create node status = %d (%+v)", status, env)
	}
	var n domain.Node
	if err := json.Unmarshal(env.Data, &n); err != nil {
		t.Fatalf("decode node: %v", err)
	}
	if n.ID == "" {
		t.Error("node id was not assigned")
	}
	if n.Temperature != 0.7 || n.MaxTokens != 1024 {
		t.Errorf("defaults not applied: temp=%v max=%d", n.Temperature, n.MaxTokens)
	}

	n.Name = "fetch-v2"
	n.Temperature = 0.2
	status, env = doJSON(t, http.MethodPut, srv.URL+"/api/nodes/"+n.ID, n)
	if status != http.StatusOK {
		t.Fatalf("update node status = %d", status)
	}
	var updated domain.Node
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("decode node: %v", err)
	}
	if updated.Name != "fetch-v2" || updated.Temperature != 0.2 {
		t.Errorf("updated node = %+v", updated)
	}

	status, env = doJSON(t, http.MethodPut, srv.URL+"/api/nodes/ghost", domain.Node{Name: "x"})
	if status != http.StatusNotFound || env.Code != domain.CodeNotFound {
		t.Errorf("update missing node: status=%d code=%q", status, env.Code)
	}

	status, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/nodes/"+n.ID, nil)
	if status != http.StatusOK {
		t.Errorf("delete node status = %d", status)
	}
}

func TestEdgeRoutes(t *testing.T) {
	srv := newTestServer(t)
	createGraph(t, srv, domain.Snapshot{
		Name: "g",
		Nodes: []domain.Node{
			domain.NewNode("a", "a", "", ""),
			domain.NewNode("b", "b", "", ""),
		},
	})

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/edges",
		map[string]string{"source": "a", "target": "b"})
	if status != http.StatusCreated {
		t.Fatalf("create edge status = %d (%+v)", status, env)
	}
	var e domain.Edge
	if err := json.Unmarshal(env.Data, &e); err != nil {
		t.Fatalf("decode edge: %v", err)
	}
	if e.ID != "a-b" || e.Type != domain.EdgeProvidesContext {
		t.Errorf("edge = %+v", e)
	}

	// Same pair again, different type: the stored edge wins.
	status, env = doJSON(t, http.MethodPost, srv.URL+"/api/edges",
		map[string]string{"source": "a", "target": "b", "type": "controls_flow"})
	if status != http.StatusCreated {
		t.Fatalf("duplicate create status = %d", status)
	}
	if err := json.Unmarshal(env.Data, &e); err != nil {
		t.Fatalf("decode edge: %v", err)
	}
	if e.Type != domain.EdgeProvidesContext {
		t.Errorf("duplicate create returned type %q, want stored type", e.Type)
	}

	status, env = doJSON(t, http.MethodPost, srv.URL+"/api/edges",
		map[string]string{"source": "ghost", "target": "b"})
	if status != http.StatusNotFound || env.Code != domain.CodeNotFound {
		t.Errorf("missing source: status=%d code=%q", status, env.Code)
	}

	status, env = doJSON(t, http.MethodPost, srv.URL+"/api/edges",
		map[string]string{"source": "a"})
	if status != http.StatusBadRequest || env.Code != domain.CodeValidationError {
		t.Errorf("missing target: status=%d code=%q", status, env.Code)
	}

	status, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/edges/a-b", nil)
	if status != http.StatusOK {
		t.Errorf("delete edge status = %d", status)
	}
}

func TestTopologyRoute(t *testing.T) {
	srv := newTestServer(t)
	stored := createGraph(t, srv, domain.Snapshot{
		Name: "g",
		Nodes: []domain.Node{
			domain.NewNode("a", "a", "", ""),
			domain.NewNode("b", "b", "", ""),
			domain.NewNode("c", "c", "", ""),
		},
		Edges: []domain.Edge{
			domain.NewEdge("a", "b", ""),
			domain.NewEdge("b", "c", ""),
		},
	})

	status, env := doJSON(t, http.MethodGet, srv.URL+"/api/graphs/"+stored.ID+"/topology", nil)
	if status != http.StatusOK {
		t.Fatalf("topology status = %d", status)
	}
	var topo struct {
		GraphID string   `json:"graphId"`
		Order   []string `json:"order"`
	}
	if err := json.Unmarshal(env.Data, &topo); err != nil {
		t.Fatalf("decode topology: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(topo.Order) != 3 || topo.Order[0] != want[0] || topo.Order[1] != want[1] || topo.Order[2] != want[2] {
		t.Errorf("order = %v, want %v", topo.Order, want)
	}

	// The service itself does not guard cycles; the topology route
	// reports them instead.
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/api/edges",
		map[string]string{"source": "c", "target": "a"})
	if status != http.StatusCreated {
		t.Fatalf("cycle edge status = %d", status)
	}
	status, env = doJSON(t, http.MethodGet, srv.URL+"/api/graphs/"+stored.ID+"/topology", nil)
	if status != http.StatusBadRequest || env.Code != domain.CodeValidationError {
		t.Errorf("cyclic topology: status=%d code=%q", status, env.Code)
	}
}

func TestEventsStream(t *testing.T) {
	srv := newTestServer(t)
	stored := createGraph(t, srv, domain.Snapshot{Name: "g"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), "connected") {
			break
		}
	}

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/graphs/"+stored.ID+"/nodes",
		map[string]any{"name": "fetch"})
	if status != http.StatusCreated {
		t.Fatalf("create node status = %d", status)
	}

	var frame string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: {") {
			frame = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	if frame == "" {
		t.Fatalf("no event frame received: %v", scanner.Err())
	}

	var evt struct {
		Event string `json:"event"`
		Data  struct {
			Node domain.Node `json:"node"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(frame), &evt); err != nil {
		t.Fatalf("decode frame %q: %v", frame, err)
	}
	if evt.Event != domain.EventNodeAdded || evt.Data.Node.Name != "fetch" {
		t.Errorf("frame = %+v", evt)
	}
}

func TestEventsStreamFilter(t *testing.T) {
	srv := newTestServer(t)
	stored := createGraph(t, srv, domain.Snapshot{
		Name: "g",
		Nodes: []domain.Node{
			domain.NewNode("a", "a", "", ""),
			domain.NewNode("b", "b", "", ""),
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := srv.URL + "/api/events?events=" + domain.EventEdgeAdded
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), "connected") {
			break
		}
	}

	// A node event is filtered out, the edge event passes.
	doJSON(t, http.MethodPost, srv.URL+"/api/graphs/"+stored.ID+"/nodes", map[string]any{"name": "c"})
	doJSON(t, http.MethodPost, srv.URL+"/api/edges", map[string]string{"source": "a", "target": "b"})

	var frame string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: {") {
			frame = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	var evt struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal([]byte(frame), &evt); err != nil {
		t.Fatalf("decode frame %q: %v", frame, err)
	}
	if evt.Event != domain.EventEdgeAdded {
		t.Errorf("first delivered event = %q, want %q", evt.Event, domain.EventEdgeAdded)
	}
}

func TestInfraRoutes(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"ok"`) {
		t.Errorf("healthz: status=%d body=%s", resp.StatusCode, body)
	}

	resp, err = http.Get(srv.URL + "/info")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	var info map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	resp.Body.Close()
	if info["app"] != "easel-http" || info["api_version"] != "1.0.0" || info["version"] == "" {
		t.Errorf("info = %v", info)
	}

	resp, err = http.Get(srv.URL + "/openapi.yaml")
	if err != nil {
		t.Fatalf("openapi: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "openapi: 3.0.3") {
		t.Errorf("openapi.yaml does not look like the embedded document")
	}

	resp, err = http.Get(srv.URL + "/swagger")
	if err != nil {
		t.Fatalf("swagger: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "swagger-ui") {
		t.Errorf("swagger page missing UI bootstrap")
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/graphs", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header")
	}
}

func TestStreamManagerDropsWhenFull(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe()
	defer cancel()

	for i := 0; i < 20; i++ {
		sm.Broadcast("ping", fmt.Sprintf("%d", i))
	}

	// Buffer holds the first 10 frames; the rest were dropped, and
	// nothing blocked.
	var got int
drain:
	for {
		select {
		case <-ch:
			got++
		default:
			break drain
		}
	}
	if got != 10 {
		t.Errorf("delivered %d frames, want 10", got)
	}
}

func TestStreamManagerCancelTwice(t *testing.T) {
	sm := NewStreamManager(nil)
	_, cancel := sm.Subscribe()
	cancel()
	cancel() // must not panic

	sm.Broadcast("ping", "x") // no subscribers left
}

func TestClientServerRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	client := httpgw.New(srv.URL)
	ctx := context.Background()

	pos := &domain.Position{X: 120, Y: 80}
	snap := &domain.Snapshot{
		Name:        "pipeline",
		Description: "round trip",
		Nodes: []domain.Node{
			{ID: "fetch", Name: "fetch", Backend: "openai", Model: "gpt-4o",
				SystemMessage: "be terse", Temperature: 0.3, MaxTokens: 256, Position: pos},
			{ID: "sum", Name: "sum", Temperature: 0.7, MaxTokens: 1024},
		},
		Edges: []domain.Edge{domain.NewEdge("fetch", "sum", domain.EdgeControlsFlow)},
	}

	id, err := client.CreateGraph(ctx, snap)
	if err != nil {
		t.Fatalf("CreateGraph: %v", err)
	}

	fetched, err := client.FetchGraph(ctx, id)
	if err != nil {
		t.Fatalf("FetchGraph: %v", err)
	}
	nodes := fetched.NodeIndex()
	fetchNode, ok := nodes["fetch"]
	if !ok {
		t.Fatalf("fetch node missing from %v", fetched.Nodes)
	}
	if fetchNode.SystemMessage != "be terse" || fetchNode.Temperature != 0.3 || fetchNode.MaxTokens != 256 {
		t.Errorf("node fields lost: %+v", fetchNode)
	}
	if fetchNode.Position == nil || fetchNode.Position.X != 120 || fetchNode.Position.Y != 80 {
		t.Errorf("position lost: %+v", fetchNode.Position)
	}
	edge, ok := fetched.EdgeIndex()["fetch-sum"]
	if !ok || edge.Type != domain.EdgeControlsFlow {
		t.Errorf("edge lost or retyped: %+v", edge)
	}

	// Mutations through the same client the executor uses.
	if err := client.CreateNode(ctx, id, domain.NewNode("out", "out", "", "")); err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if err := client.CreateEdge(ctx, id, domain.NewEdge("sum", "out", "")); err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}
	updated := fetchNode
	updated.Name = "fetch-v2"
	if err := client.UpdateNode(ctx, updated); err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}
	if err := client.DeleteEdge(ctx, "fetch-sum"); err != nil {
		t.Fatalf("DeleteEdge: %v", err)
	}
	if err := client.DeleteNode(ctx, "sum"); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}

	final, err := client.FetchGraph(ctx, id)
	if err != nil {
		t.Fatalf("FetchGraph: %v", err)
	}
	if len(final.Nodes) != 2 {
		t.Errorf("node count = %d, want 2", len(final.Nodes))
	}
	if _, ok := final.NodeIndex()["sum"]; ok {
		t.Error("deleted node still present")
	}
	if final.NodeIndex()["fetch"].Name != "fetch-v2" {
		t.Errorf("update lost: %+v", final.NodeIndex()["fetch"])
	}
	// Deleting sum cascaded the sum-out edge.
	if len(final.Edges) != 0 {
		t.Errorf("edges = %+v, want none", final.Edges)
	}

	if err := client.DeleteGraph(ctx, id); err != nil {
		t.Fatalf("DeleteGraph: %v", err)
	}
	if _, err := client.FetchGraph(ctx, id); !domain.IsRemoteNotFound(err) {
		t.Errorf("fetch after delete = %v, want remote not found", err)
	}
}
