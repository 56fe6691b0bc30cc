package machines

import (
	"github.com/rs/zerolog"

	"ironview/backend/ivd/internal/fsatomic"
)

// Store persists the machine inventory to a JSON state file so the
// daemon comes back up with its machines after a restart. Transient
// view state (selection, drafts) is deliberately not persisted; it is
// rebuilt by the first projection.
type Store struct {
	logger zerolog.Logger
	path   string
}

func NewStore(logger zerolog.Logger, path string) *Store {
	return &Store{
		logger: logger.With().Str("component", "machine-store").Logger(),
		path:   path,
	}
}

// Load reads the persisted inventory. A missing file is an empty
// inventory.
func (s *Store) Load() ([]Machine, error) {
	var machines []Machine
	ok, err := fsatomic.LoadJSON(s.path, &machines)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return machines, nil
}

// Save writes the inventory, serialized against other savers.
func (s *Store) Save(machines []Machine) error {
	return fsatomic.WithLock(s.path, func() error {
		return fsatomic.SaveJSON(s.path, machines, 0o600)
	})
}

// Follow persists the inventory after every change notification until
// the subscription is cancelled. Call it on its own goroutine.
func (s *Store) Follow(m *Manager) func() {
	ch, cancel := m.Subscribe()
	go func() {
		for range ch {
			if err := s.Save(m.Export()); err != nil {
				s.logger.Warn().Err(err).Msg("persist inventory failed")
			}
		}
	}()
	return cancel
}
