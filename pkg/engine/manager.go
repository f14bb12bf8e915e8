package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/easelab/easel/pkg/domain"
	"github.com/easelab/easel/pkg/notify"
	"github.com/easelab/easel/pkg/ports"
	"github.com/easelab/easel/pkg/topology"
)

// unsavedLockKey serializes saves of a graph that has no remote id yet.
const unsavedLockKey = "easel:unsaved"

// Manager orchestrates one open graph: it owns the in-memory model,
// syncs it against the remote gateway, mirrors it into the fallback
// cache and publishes change events. Construct one Manager per open
// graph and pass it by reference; there is no shared global instance.
type Manager struct {
	gateway  ports.GraphGateway
	executor *Executor
	fallback *Fallback
	layout   ports.Layout
	events   *notify.Notifier
	log      *slog.Logger

	locks *lockTable

	mu    sync.Mutex
	graph *domain.Graph

	parallelism    int
	reportObserver func(*Report)
	opObserver     func(domain.OpKind, error)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures the manager's logger. The default discards.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithFallbackStore enables the fallback cache on top of store.
func WithFallbackStore(store ports.BackupStore) Option {
	return func(m *Manager) {
		m.fallback = NewFallback(store, nil)
	}
}

// WithLayout replaces the default layered layout pass.
func WithLayout(layout ports.Layout) Option {
	return func(m *Manager) { m.layout = layout }
}

// WithNotifier attaches an externally built event bus, letting the
// host share one bus across components or preconfigure recovery.
func WithNotifier(n *notify.Notifier) Option {
	return func(m *Manager) { m.events = n }
}

// WithParallelism bounds concurrent dispatch within one sync phase.
func WithParallelism(n int) Option {
	return func(m *Manager) { m.parallelism = n }
}

// WithReportObserver registers a callback invoked after every executed
// sync plan, before the saved event is published.
func WithReportObserver(fn func(*Report)) Option {
	return func(m *Manager) { m.reportObserver = fn }
}

// WithOpObserver registers a callback invoked once per executed sync
// operation with its outcome. It runs on executor worker goroutines.
func WithOpObserver(fn func(domain.OpKind, error)) Option {
	return func(m *Manager) { m.opObserver = fn }
}

// NewManager builds a Manager over the given gateway.
func NewManager(gateway ports.GraphGateway, opts ...Option) *Manager {
	m := &Manager{
		gateway:     gateway,
		layout:      topology.NewLayered(),
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		locks:       newLockTable(),
		graph:       domain.NewGraph("", ""),
		parallelism: defaultParallelism,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.events == nil {
		m.events = notify.New(notify.WithLogger(m.log))
	}
	if m.fallback != nil {
		m.fallback.log = m.log
	}
	m.executor = NewExecutor(gateway, ExecutorConfig{
		Logger:      m.log,
		Parallelism: m.parallelism,
		OpObserver:  m.opObserver,
	})
	return m
}

// Events returns the manager's event bus for subscribing.
func (m *Manager) Events() *notify.Notifier { return m.events }

// SaveResult describes the outcome of a save. A non-nil Report with
// errors means partial success: the graph record exists remotely but
// some node or edge operations failed.
type SaveResult struct {
	GraphID string
	New     bool
	Report  *Report
}

// Save syncs the open graph to the remote service. A non-empty name
// replaces the graph's name and description first. With forceNew, or
// when the graph has never been saved, the whole snapshot is created
// as a new remote graph; otherwise the remote snapshot is re-fetched,
// diffed against the local model and reconciled operation by
// operation.
//
// A returned error means total failure: not even the graph record was
// saved, and a best-effort backup was written to the fallback cache.
// Partial failures do not error; they surface in Result.Report.
func (m *Manager) Save(ctx context.Context, name, description string, forceNew bool) (*SaveResult, error) {
	m.mu.Lock()
	key := m.graph.ID
	m.mu.Unlock()
	if forceNew || key == "" {
		key = unsavedLockKey
	}

	var result *SaveResult
	err := m.locks.withLock(ctx, key, func(ctx context.Context) error {
		var err error
		result, err = m.save(ctx, name, description, forceNew)
		return err
	})
	return result, err
}

func (m *Manager) save(ctx context.Context, name, description string, forceNew bool) (*SaveResult, error) {
	m.mu.Lock()
	if name != "" {
		m.graph.Name = name
		m.graph.Description = description
	}
	snap := m.graph.Export()
	m.mu.Unlock()

	if snap.Name == "" {
		return nil, &domain.ValidationError{Entity: "graph", Reason: "missing name"}
	}

	if forceNew || snap.ID == "" {
		return m.saveAsNew(ctx, snap)
	}
	return m.saveExisting(ctx, snap)
}

// saveAsNew creates the whole snapshot as a fresh remote graph. The id
// is cleared first so a forced re-save of an existing graph becomes a
// copy rather than a collision.
func (m *Manager) saveAsNew(ctx context.Context, snap *domain.Snapshot) (*SaveResult, error) {
	snap.ID = ""
	id, err := m.gateway.CreateGraph(ctx, snap)
	if err != nil {
		m.backupAfterFailure(ctx, snap)
		return nil, fmt.Errorf("create graph: %w", err)
	}

	m.mu.Lock()
	m.graph.ID = id
	m.graph.MarkSaved()
	saved := m.graph.Export()
	m.mu.Unlock()

	m.writeThrough(ctx, saved)
	m.publish(ctx, domain.GraphSavedEvent{
		ID:          id,
		Name:        saved.Name,
		Description: saved.Description,
		New:         true,
	})
	m.log.InfoContext(ctx, "graph created remotely", "graph_id", id, "name", saved.Name)

	return &SaveResult{GraphID: id, New: true, Report: &Report{GraphID: id}}, nil
}

// saveExisting reconciles an already-stored graph: update the record's
// metadata, re-fetch the authoritative snapshot, diff and execute.
func (m *Manager) saveExisting(ctx context.Context, snap *domain.Snapshot) (*SaveResult, error) {
	meta := domain.GraphMeta{Name: snap.Name, Description: snap.Description}
	if err := m.gateway.UpdateGraph(ctx, snap.ID, meta); err != nil {
		m.backupAfterFailure(ctx, snap)
		return nil, fmt.Errorf("update graph %s: %w", snap.ID, err)
	}

	// Always diff against a snapshot fetched now. Reusing one from an
	// earlier call risks planning against stale remote state.
	remote, err := m.gateway.FetchGraph(ctx, snap.ID)
	if err != nil {
		m.backupAfterFailure(ctx, snap)
		return nil, fmt.Errorf("fetch graph %s: %w", snap.ID, err)
	}

	plan := domain.ComputePlan(remote, snap)
	report := m.executor.Execute(ctx, plan)
	if m.reportObserver != nil {
		m.reportObserver(report)
	}

	m.mu.Lock()
	m.graph.MarkSaved()
	m.mu.Unlock()

	m.writeThrough(ctx, snap)
	m.publish(ctx, domain.GraphSavedEvent{
		ID:             snap.ID,
		Name:           snap.Name,
		Description:    snap.Description,
		PartialSuccess: !report.Success(),
	})
	if !report.Success() {
		m.log.WarnContext(ctx, "graph saved with errors",
			"graph_id", snap.ID, "failed", report.Failed, "succeeded", report.Succeeded)
	}

	return &SaveResult{GraphID: snap.ID, Report: report}, nil
}

// Load fetches a graph and installs it as the open model. When the
// remote is unreachable and the fallback cache holds a backup of the
// same graph, the backup is installed instead and a degraded event is
// published; the model then counts as modified, since it is not known
// to match the remote.
func (m *Manager) Load(ctx context.Context, id string) error {
	return m.locks.withLock(ctx, id, func(ctx context.Context) error {
		return m.load(ctx, id)
	})
}

func (m *Manager) load(ctx context.Context, id string) error {
	snap, err := m.gateway.FetchGraph(ctx, id)
	if err == nil {
		m.install(ctx, snap, true)
		return nil
	}

	if m.fallback == nil {
		return fmt.Errorf("fetch graph %s: %w", id, err)
	}
	cached, cacheErr := m.fallback.Load(ctx)
	if cacheErr != nil {
		m.log.WarnContext(ctx, "no usable local backup", "err", cacheErr)
		return fmt.Errorf("fetch graph %s: %w", id, err)
	}
	if cached.ID != id {
		m.log.WarnContext(ctx, "local backup is for a different graph",
			"requested", id, "backup", cached.ID)
		return fmt.Errorf("fetch graph %s: %w", id, err)
	}

	m.log.WarnContext(ctx, "remote unreachable, rehydrating from local backup",
		"graph_id", id, "err", err)
	m.install(ctx, cached, false)
	m.publish(ctx, domain.SyncDegradedEvent{
		GraphID: id,
		Reason:  "remote unreachable, loaded local backup",
	})
	return nil
}

// LoadLast loads the graph most recently synced through this fallback
// cache. It fails when no cache is configured or nothing was recorded.
func (m *Manager) LoadLast(ctx context.Context) (string, error) {
	if m.fallback == nil {
		return "", fmt.Errorf("no fallback cache configured")
	}
	id, err := m.fallback.LastGraphID(ctx)
	if err != nil {
		return "", fmt.Errorf("no last graph recorded: %w", err)
	}
	return id, m.Load(ctx, id)
}

// install replaces the model content with snap: nodes first, then
// edges, skipping edges whose endpoints did not survive. Nodes without
// positions get them from a layout pass. fromRemote marks the model
// clean afterwards, unless layout had to invent positions the remote
// has not seen.
func (m *Manager) install(ctx context.Context, snap *domain.Snapshot, fromRemote bool) []domain.Edge {
	m.mu.Lock()
	m.graph.Clear()
	skipped := m.graph.Import(snap)

	ranLayout := m.applyLayout()
	if fromRemote && !ranLayout {
		m.graph.MarkSaved()
	}
	installed := m.graph.Export()
	m.mu.Unlock()

	for _, e := range skipped {
		m.log.WarnContext(ctx, "skipping edge with missing endpoint",
			"edge_id", e.ID, "source", e.Source, "target", e.Target)
	}
	m.publish(ctx, domain.GraphLoadedEvent{Graph: installed})
	return skipped
}

// applyLayout positions any node that has none. Caller holds m.mu.
func (m *Manager) applyLayout() bool {
	if m.layout == nil {
		return false
	}
	var unplaced []domain.Node
	for _, n := range m.graph.Nodes() {
		if n.Position == nil {
			unplaced = append(unplaced, n)
		}
	}
	if len(unplaced) == 0 {
		return false
	}

	positions := m.layout.Positions(m.graph.Export())
	for _, n := range unplaced {
		pos, ok := positions[n.ID]
		if !ok {
			continue
		}
		n.Position = &pos
		// UpdateNode cannot fail here: the node was just listed.
		_ = m.graph.UpdateNode(n)
	}
	return true
}

// Export serializes the open graph.
func (m *Manager) Export() *domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph.Export()
}

// Import replaces the open graph with an externally produced snapshot,
// for manual backup and restore. The skipped edges, if any, referenced
// endpoints missing from the document.
func (m *Manager) Import(ctx context.Context, snap *domain.Snapshot) []domain.Edge {
	return m.install(ctx, snap, false)
}

// NewGraph discards the open model and starts an empty graph with the
// given identity. Nothing is deleted remotely.
func (m *Manager) NewGraph(ctx context.Context, name, description string) {
	m.mu.Lock()
	m.graph.Clear()
	m.graph.Name = name
	m.graph.Description = description
	fresh := m.graph.Export()
	m.mu.Unlock()

	m.publish(ctx, domain.GraphLoadedEvent{Graph: fresh})
}

// AddNode inserts a node into the open graph, generating an id when
// none is given, and publishes node:added.
func (m *Manager) AddNode(ctx context.Context, n domain.Node) (domain.Node, error) {
	m.mu.Lock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	wasClean := !m.graph.Modified()
	err := m.graph.AddNode(n)
	id, name := m.graph.ID, m.graph.Name
	m.mu.Unlock()

	if err != nil {
		return domain.Node{}, err
	}
	m.publish(ctx, domain.NodeAddedEvent{Node: n})
	m.markDirty(ctx, wasClean, id, name)
	return n, nil
}

// UpdateNode replaces a node's fields and publishes node:updated.
func (m *Manager) UpdateNode(ctx context.Context, n domain.Node) error {
	m.mu.Lock()
	wasClean := !m.graph.Modified()
	err := m.graph.UpdateNode(n)
	id, name := m.graph.ID, m.graph.Name
	m.mu.Unlock()

	if err != nil {
		return err
	}
	m.publish(ctx, domain.NodeUpdatedEvent{Node: n})
	m.markDirty(ctx, wasClean, id, name)
	return nil
}

// RemoveNode deletes a node and every edge touching it, publishing
// edge:removed for each cascaded edge and then node:removed.
func (m *Manager) RemoveNode(ctx context.Context, nodeID string) error {
	m.mu.Lock()
	wasClean := !m.graph.Modified()
	removed, err := m.graph.RemoveNode(nodeID)
	id, name := m.graph.ID, m.graph.Name
	m.mu.Unlock()

	if err != nil {
		return err
	}
	for _, e := range removed {
		m.publish(ctx, domain.EdgeRemovedEvent{EdgeID: e.ID})
	}
	m.publish(ctx, domain.NodeRemovedEvent{NodeID: nodeID})
	m.markDirty(ctx, wasClean, id, name)
	return nil
}

// AddEdge connects source to target. Unless force is set, a connection
// that would close a cycle is rejected with a ValidationError; force
// also permits an explicit self-loop.
func (m *Manager) AddEdge(ctx context.Context, source, target string, typ domain.EdgeType, force bool) (domain.Edge, error) {
	m.mu.Lock()
	if !force && topology.WouldCreateCycle(m.graph.Edges(), source, target) {
		m.mu.Unlock()
		return domain.Edge{}, &domain.ValidationError{
			Entity: "edge",
			ID:     domain.EdgeID(source, target),
			Reason: "connection would create a cycle",
		}
	}
	e := domain.NewEdge(source, target, typ)
	wasClean := !m.graph.Modified()
	err := m.graph.AddEdge(e, force)
	id, name := m.graph.ID, m.graph.Name
	m.mu.Unlock()

	if err != nil {
		return domain.Edge{}, err
	}
	m.publish(ctx, domain.EdgeAddedEvent{Edge: e})
	m.markDirty(ctx, wasClean, id, name)
	return e, nil
}

// WouldCreateCycle previews whether connecting source to target would
// close a cycle in the open graph.
func (m *Manager) WouldCreateCycle(source, target string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return topology.WouldCreateCycle(m.graph.Edges(), source, target)
}

// RemoveEdge deletes an edge and publishes edge:removed.
func (m *Manager) RemoveEdge(ctx context.Context, edgeID string) error {
	m.mu.Lock()
	wasClean := !m.graph.Modified()
	_, err := m.graph.RemoveEdge(edgeID)
	id, name := m.graph.ID, m.graph.Name
	m.mu.Unlock()

	if err != nil {
		return err
	}
	m.publish(ctx, domain.EdgeRemovedEvent{EdgeID: edgeID})
	m.markDirty(ctx, wasClean, id, name)
	return nil
}

// Node returns one node of the open graph.
func (m *Manager) Node(id string) (domain.Node, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph.Node(id)
}

// Modified reports whether the open graph has unsaved changes.
func (m *Manager) Modified() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph.Modified()
}

// GraphID returns the open graph's remote id, empty before first save.
func (m *Manager) GraphID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph.ID
}

// ExecutionOrder returns the open graph's node ids in dependency
// order, or topology.ErrCycle when the graph is cyclic.
func (m *Manager) ExecutionOrder() ([]string, error) {
	return topology.Order(m.Export())
}

// ListGraphs lists the graphs stored remotely.
func (m *Manager) ListGraphs(ctx context.Context) ([]domain.GraphInfo, error) {
	infos, err := m.gateway.ListGraphs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	return infos, nil
}

// DeleteGraph removes a graph from the remote service. A remote "not
// found" counts as success. If the deleted graph is the open one, the
// model is cleared; if it is the one mirrored in the fallback cache,
// the backup is dropped.
func (m *Manager) DeleteGraph(ctx context.Context, id string) error {
	return m.locks.withLock(ctx, id, func(ctx context.Context) error {
		if err := m.gateway.DeleteGraph(ctx, id); err != nil && !domain.IsRemoteNotFound(err) {
			return fmt.Errorf("delete graph %s: %w", id, err)
		}

		m.mu.Lock()
		if m.graph.ID == id {
			m.graph.Clear()
		}
		m.mu.Unlock()

		if m.fallback != nil {
			if last, err := m.fallback.LastGraphID(ctx); err == nil && last == id {
				if err := m.fallback.Clear(ctx); err != nil {
					m.log.WarnContext(ctx, "failed to drop stale backup", "err", err)
				}
			}
		}

		m.publish(ctx, domain.GraphDeletedEvent{ID: id})
		return nil
	})
}

// writeThrough mirrors a successfully saved snapshot into the fallback
// cache. Failures are logged and swallowed; the save already happened.
func (m *Manager) writeThrough(ctx context.Context, snap *domain.Snapshot) {
	if m.fallback == nil {
		return
	}
	if err := m.fallback.Store(ctx, snap); err != nil {
		m.log.WarnContext(ctx, "fallback write-through failed", "err", err)
	}
}

// backupAfterFailure preserves unsynced work when a save failed
// outright. Best effort only: the caller's error stays the caller's
// error.
func (m *Manager) backupAfterFailure(ctx context.Context, snap *domain.Snapshot) {
	if m.fallback == nil {
		return
	}
	m.fallback.StoreBestEffort(ctx, snap)
}

// markDirty publishes the clean-to-dirty transition exactly once per
// editing burst.
func (m *Manager) markDirty(ctx context.Context, wasClean bool, id, name string) {
	if wasClean {
		m.publish(ctx, domain.GraphModifiedEvent{ID: id, Name: name})
	}
}

func (m *Manager) publish(ctx context.Context, evt domain.Event) {
	m.events.Publish(ctx, evt)
}
