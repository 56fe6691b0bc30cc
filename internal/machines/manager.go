// Package machines holds the machine inventory: per-machine raw device
// lists, the projected storage view derived from them, and the storage
// mutations the console dispatches. The manager is the single writer
// over that state; every mutation re-projects the machine's storage
// view and notifies subscribers.
package machines

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ironview/backend/ivd/internal/storageview"
)

var (
	ErrNotFound          = errors.New("machine not found")
	ErrDeviceNotFound    = errors.New("device not found")
	ErrPartitionNotFound = errors.New("partition not found")
	ErrInvalidSize       = errors.New("invalid size")
	ErrInvalidMountPoint = errors.New("invalid mount point")
	ErrNameTaken         = errors.New("name already in use")
	ErrNoFilesystem      = errors.New("device has no filesystem")
	ErrDeviceInUse       = errors.New("device is in use")
	ErrNotEnoughDevices  = errors.New("not enough devices")
)

// Machine is one managed server and its raw block-device records.
type Machine struct {
	ID           string                    `json:"id"`
	Hostname     string                    `json:"hostname"`
	Architecture string                    `json:"architecture"`
	Devices      []storageview.BlockDevice `json:"devices"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

// SelectionModes tracks the per-section selection mode of a machine's
// storage page.
type SelectionModes struct {
	Filesystems storageview.SelectionMode `json:"filesystems"`
	CacheSets   storageview.SelectionMode `json:"cachesets"`
	Available   storageview.SelectionMode `json:"available"`
}

// EventSink records storage mutations for the machine event log.
type EventSink interface {
	Append(machineID, op, detail string)
}

type noopSink struct{}

func (noopSink) Append(string, string, string) {}

// viewState is the projector-owned state of one machine: the last
// projection (carried forward across recomputes), the composite device
// draft and the section selection modes.
type viewState struct {
	projection storageview.ProjectionResult
	draft      *storageview.Draft
	modes      SelectionModes
}

// Manager owns the machine inventory.
type Manager struct {
	logger zerolog.Logger
	events EventSink

	mu       sync.RWMutex
	machines map[string]*Machine
	views    map[string]*viewState
	nextID   int64

	subMu       sync.Mutex
	subscribers map[int]chan string
	nextSub     int
}

// NewManager builds an empty inventory. events may be nil.
func NewManager(logger zerolog.Logger, events EventSink) *Manager {
	if events == nil {
		events = noopSink{}
	}
	return &Manager{
		logger:      logger.With().Str("component", "machines").Logger(),
		events:      events,
		machines:    map[string]*Machine{},
		views:       map[string]*viewState{},
		nextID:      1000,
		subscribers: map[int]chan string{},
	}
}

// List returns a detached snapshot of the inventory. Mutations applied
// after the call are not reflected in the returned records.
func (m *Manager) List() []*Machine {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Machine, 0, len(m.machines))
	for _, mc := range m.machines {
		out = append(out, cloneMachine(mc))
	}
	return out
}

// Get returns a detached copy of the machine with the given id.
func (m *Manager) Get(id string) (*Machine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mc, ok := m.machines[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneMachine(mc), nil
}

// cloneMachine deep-copies a record so callers can read it outside the
// manager's lock. Machine is plain data; the round trip cannot fail.
func cloneMachine(mc *Machine) *Machine {
	b, _ := json.Marshal(mc)
	out := &Machine{}
	_ = json.Unmarshal(b, out)
	return out
}

// Create registers a machine with its initial device list.
func (m *Manager) Create(hostname, architecture string, devices []storageview.BlockDevice) *Machine {
	mc := &Machine{
		ID:           uuid.New().String(),
		Hostname:     hostname,
		Architecture: architecture,
		Devices:      devices,
		UpdatedAt:    time.Now().UTC(),
	}
	proj := storageview.Project(devices, nil, nil)
	recordProjection(proj)
	m.mu.Lock()
	m.machines[mc.ID] = mc
	m.views[mc.ID] = &viewState{
		projection: proj,
		modes:      SelectionModes{storageview.ModeNone, storageview.ModeNone, storageview.ModeNone},
	}
	out := cloneMachine(mc)
	m.mu.Unlock()

	m.logger.Info().Str("machine", mc.ID).Str("hostname", hostname).Msg("machine registered")
	m.notify(mc.ID)
	return out
}

// Delete removes a machine and its view state.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	_, ok := m.machines[id]
	delete(m.machines, id)
	delete(m.views, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	m.notify(id)
	return nil
}

// ReplaceDevices swaps in a freshly delivered device list and
// passively re-projects: selection and open edit forms survive for
// rows whose source identity is unchanged, and section modes may only
// fall back to none, never escalate.
func (m *Manager) ReplaceDevices(id string, devices []storageview.BlockDevice) (*Machine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mc, ok := m.machines[id]
	if !ok {
		return nil, ErrNotFound
	}
	mc.Devices = devices
	mc.UpdatedAt = time.Now().UTC()
	m.reprojectLocked(id, false)
	m.notify(id)
	return cloneMachine(mc), nil
}

// Projection returns the current storage view of the machine along
// with its selection modes. The rows are detached copies: selection
// toggles and re-projections after the call are not reflected in
// them. Options maps keep their identity, matching the carry-forward
// rule.
func (m *Manager) Projection(id string) (storageview.ProjectionResult, SelectionModes, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vs, ok := m.views[id]
	if !ok {
		return storageview.ProjectionResult{}, SelectionModes{}, ErrNotFound
	}
	return cloneProjection(vs.projection), vs.modes, nil
}

// cloneProjection copies every row so readers can serialize the result
// outside the manager's lock while toggles keep writing to the live
// rows.
func cloneProjection(p storageview.ProjectionResult) storageview.ProjectionResult {
	out := storageview.ProjectionResult{
		Filesystems: make([]*storageview.FilesystemRow, len(p.Filesystems)),
		CacheSets:   make([]*storageview.CacheSetRow, len(p.CacheSets)),
		Available:   make([]*storageview.AvailableRow, len(p.Available)),
		Used:        make([]*storageview.UsedRow, len(p.Used)),
	}
	for i, r := range p.Filesystems {
		c := *r
		out.Filesystems[i] = &c
	}
	for i, r := range p.CacheSets {
		c := *r
		out.CacheSets[i] = &c
	}
	for i, r := range p.Available {
		c := *r
		out.Available[i] = &c
	}
	for i, r := range p.Used {
		c := *r
		out.Used[i] = &c
	}
	return out
}

// reprojectLocked recomputes the machine's projection, carrying
// transient row state forward. force follows the selection-mode
// recompute rule: interactive changes force escalation, passive
// refreshes only allow dropping to none.
func (m *Manager) reprojectLocked(id string, force bool) {
	mc := m.machines[id]
	vs := m.views[id]
	if mc == nil || vs == nil {
		return
	}
	prev := vs.projection
	vs.projection = storageview.Project(mc.Devices, vs.draft, &prev)
	recordProjection(vs.projection)
	vs.modes = SelectionModes{
		Filesystems: storageview.NextMode(vs.modes.Filesystems,
			len(storageview.SelectedFilesystems(vs.projection.Filesystems)), force),
		CacheSets: storageview.NextMode(vs.modes.CacheSets,
			len(storageview.SelectedCacheSets(vs.projection.CacheSets)), force),
		Available: storageview.NextMode(vs.modes.Available,
			len(storageview.SelectedAvailable(vs.projection.Available)), force),
	}
}

// Subscribe returns a channel receiving the id of every machine whose
// state changes, plus an unsubscribe func. The channel is buffered;
// slow consumers miss notifications rather than block mutations.
func (m *Manager) Subscribe() (<-chan string, func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan string, 16)
	m.subscribers[id] = ch
	return ch, func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if c, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(c)
		}
	}
}

func (m *Manager) notify(machineID string) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subscribers {
		select {
		case ch <- machineID:
		default:
		}
	}
}

// Export deep-copies the inventory for persistence. The copy is taken
// under the read lock so a concurrent mutation cannot tear it.
func (m *Manager) Export() []Machine {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]*Machine, 0, len(m.machines))
	for _, mc := range m.machines {
		list = append(list, mc)
	}
	b, err := json.Marshal(list)
	if err != nil {
		m.logger.Error().Err(err).Msg("export inventory")
		return nil
	}
	var out []Machine
	if err := json.Unmarshal(b, &out); err != nil {
		m.logger.Error().Err(err).Msg("export inventory")
		return nil
	}
	return out
}

// Restore loads a persisted inventory, projecting each machine's
// storage view from scratch. It is meant for startup, before the
// manager is shared.
func (m *Manager) Restore(machines []Machine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range machines {
		mc := machines[i]
		m.machines[mc.ID] = &mc
		m.views[mc.ID] = &viewState{
			projection: storageview.Project(mc.Devices, nil, nil),
			modes:      SelectionModes{storageview.ModeNone, storageview.ModeNone, storageview.ModeNone},
		}
		for _, d := range mc.Devices {
			if d.ID > m.nextID {
				m.nextID = d.ID
			}
			if d.Filesystem != nil && d.Filesystem.ID > m.nextID {
				m.nextID = d.Filesystem.ID
			}
			for _, p := range d.Partitions {
				if p.ID > m.nextID {
					m.nextID = p.ID
				}
				if p.Filesystem != nil && p.Filesystem.ID > m.nextID {
					m.nextID = p.Filesystem.ID
				}
			}
		}
	}
}

func nowUTC() time.Time { return time.Now().UTC() }

func (m *Manager) nextDeviceID() int64 {
	m.nextID++
	return m.nextID
}
