package device

import "sync"

// Logger is the minimal logging interface the store needs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// noopLogger discards all log output. Used when no logger is provided.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Observer is called after a device's tree has changed. It receives an
// isolated snapshot of the updated device.
type Observer func(dev Device)

// Store is the authoritative in-memory map of device id to attribute tree.
//
// A single mutex serialises mutations, so partial updates arriving from the
// realtime read loop and optimistic merges from the command path interleave
// without interference.
type Store struct {
	mu        sync.RWMutex
	devices   map[string]Device
	observers []Observer
	logger    Logger
}

// NewStore creates an empty device store.
func NewStore(logger Logger) *Store {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Store{
		devices: make(map[string]Device),
		logger:  logger,
	}
}

// Subscribe registers an observer invoked after every device mutation.
// Observers run outside the store lock; re-entrant store calls are safe.
func (s *Store) Subscribe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Replace swaps the entire store contents for the given device set.
// Used on the initial fetch and periodic refreshes of the cloud device list.
func (s *Store) Replace(devices map[string]Device) {
	s.mu.Lock()
	next := make(map[string]Device, len(devices))
	for id, dev := range devices {
		next[id] = dev.DeepCopy()
	}
	s.devices = next
	s.mu.Unlock()

	s.logger.Debug("device store replaced", "count", len(devices))
}

// Get returns an isolated snapshot of one device tree.
func (s *Store) Get(id string) (Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dev, ok := s.devices[id]
	if !ok {
		return nil, ErrNotFound
	}
	return dev.DeepCopy(), nil
}

// List returns isolated snapshots of every device tree.
func (s *Store) List() []Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Device, 0, len(s.devices))
	for _, dev := range s.devices {
		out = append(out, dev.DeepCopy())
	}
	return out
}

// Len returns the number of devices in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.devices)
}

// MergeParams deep-merges a partial parameter document into one device.
// Keys absent from params survive the merge untouched.
func (s *Store) MergeParams(id string, params map[string]any) error {
	update := map[string]any{
		"itemData": map[string]any{
			"params": params,
		},
	}

	s.mu.Lock()
	dev, ok := s.devices[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	Merge(dev, update)
	snapshot := dev.DeepCopy()
	s.mu.Unlock()

	s.notify(snapshot)
	return nil
}

// SetOnline replaces the device's availability flag. Availability is a flat
// boolean and deliberately bypasses the deep merge.
func (s *Store) SetOnline(id string, online bool) error {
	s.mu.Lock()
	dev, ok := s.devices[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	item, ok := dev["itemData"].(map[string]any)
	if !ok {
		item = make(map[string]any)
		dev["itemData"] = item
	}
	item["online"] = online
	snapshot := dev.DeepCopy()
	s.mu.Unlock()

	s.notify(snapshot)
	return nil
}

// notify invokes observers with the updated snapshot, outside the lock.
func (s *Store) notify(snapshot Device) {
	s.mu.RLock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.RUnlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}
