package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the authoritative device and service directory.
//
// One mutex serialises every read-modify-persist sequence, so concurrent
// callers observe a linear history. Mutations are write-through: the change
// is applied to a copy, the copy is persisted, and only then does it replace
// the in-memory document. A failed persist leaves memory untouched.
//
// No method calls another locking method; the mutex is not reentrant.
//
// All public methods are thread-safe.
type Registry struct {
	store    Store
	project  ProjectInfo
	computed []Service

	mu  sync.Mutex
	doc *Document

	now    func() time.Time
	logger Logger
}

// NewRegistry creates a registry over store.
//
// Parameters:
//   - store: Persistence backend; the registry is its only writer
//   - project: Site identity stamped into the document on every replace
//   - computed: Services derived from configuration, listed before persisted ones
func NewRegistry(store Store, project ProjectInfo, computed []Service) *Registry {
	return &Registry{
		store:    store,
		project:  project,
		computed: computed,
		doc:      NewDocument(),
		now:      time.Now,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Load reads the stored document into memory. Call once at startup.
func (r *Registry) Load(ctx context.Context) error {
	doc, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading directory: %w", err)
	}

	r.mu.Lock()
	r.doc = doc
	r.mu.Unlock()

	r.logger.Info("directory loaded", "devices", len(doc.Devices), "services", len(doc.Services))
	return nil
}

// commit persists next and swaps it in. Caller must hold r.mu.
func (r *Registry) commit(ctx context.Context, next *Document) error {
	next.ProjectInfo = r.project
	next.SystemSettings.LastUpdated = r.now().UTC().Format(time.RFC3339)

	if err := r.store.Replace(ctx, next); err != nil {
		r.logger.Error("directory persist failed", "error", err)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	r.doc = next
	return nil
}

// UpsertDevice creates the device or replaces the entry with the same id,
// keeping its position in the list. The stored copy is normalised, so
// legacy kinds and a missing role are accepted as over the gateway.
//
// Returns:
//   - string: The device id
//   - bool: true if created, false if an existing entry was replaced
//   - error: ErrInvalidDevice or ErrPersistence
func (r *Registry) UpsertDevice(ctx context.Context, d *Device) (string, bool, error) {
	if d == nil {
		return "", false, ErrInvalidDevice
	}
	d = d.DeepCopy()
	d.Normalise()
	if err := ValidateDevice(d); err != nil {
		return "", false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.doc.Clone()
	created := true
	for i := range next.Devices {
		if next.Devices[i].ID == d.ID {
			next.Devices[i] = *d.DeepCopy()
			created = false
			break
		}
	}
	if created {
		next.Devices = append(next.Devices, *d.DeepCopy())
	}

	if err := r.commit(ctx, next); err != nil {
		return "", false, err
	}

	if created {
		r.logger.Info("device registered", "device_id", d.ID, "room", d.Location.Room, "type", d.Kind)
	} else {
		r.logger.Debug("device updated", "device_id", d.ID)
	}
	return d.ID, created, nil
}

// GetDevice returns a copy of the device with id.
// Returns ErrNotFound if the device does not exist.
func (r *Registry) GetDevice(_ context.Context, id string) (*Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.doc.Devices {
		if r.doc.Devices[i].ID == id {
			return r.doc.Devices[i].DeepCopy(), nil
		}
	}
	return nil, fmt.Errorf("%w: device %s", ErrNotFound, id)
}

// ListDevices returns copies of the devices matching filter, in registration order.
func (r *Registry) ListDevices(_ context.Context, filter DeviceFilter) ([]Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices := make([]Device, 0, len(r.doc.Devices))
	for i := range r.doc.Devices {
		if filter.Matches(&r.doc.Devices[i]) {
			devices = append(devices, *r.doc.Devices[i].DeepCopy())
		}
	}
	return devices, nil
}

// DeleteDevice removes the device with id.
// Returns ErrNotFound if the device does not exist.
func (r *Registry) DeleteDevice(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.doc.Clone()
	kept := next.Devices[:0]
	for _, d := range next.Devices {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(r.doc.Devices) {
		return fmt.Errorf("%w: device %s", ErrNotFound, id)
	}
	next.Devices = kept

	if err := r.commit(ctx, next); err != nil {
		return err
	}
	r.logger.Info("device deleted", "device_id", id)
	return nil
}

// DeleteDevices removes every device whose structured id matches filter.
//
// Room and kind are read from the id ({room}_{kind}_...), not from the
// device body. Devices whose id does not follow that shape are kept.
//
// Returns:
//   - int: Number of devices deleted
//   - error: ErrInvalidFilter if filter is empty, ErrNotFound if nothing matched
func (r *Registry) DeleteDevices(ctx context.Context, filter DeviceFilter) (int, error) {
	if filter.IsEmpty() {
		return 0, ErrInvalidFilter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.doc.Clone()
	kept := next.Devices[:0]
	for _, d := range next.Devices {
		if !filter.matchesID(d.ID) {
			kept = append(kept, d)
		}
	}
	deleted := len(next.Devices) - len(kept)
	if deleted == 0 {
		return 0, fmt.Errorf("%w: no matching devices", ErrNotFound)
	}
	next.Devices = kept

	if err := r.commit(ctx, next); err != nil {
		return 0, err
	}
	r.logger.Info("devices deleted by filter",
		"count", deleted, "id", filter.ID, "room", filter.Room, "type", filter.Kind)
	return deleted, nil
}

// isComputed reports whether id names a configuration-derived service.
func (r *Registry) isComputed(id string) bool {
	for i := range r.computed {
		if r.computed[i].ID == id {
			return true
		}
	}
	return false
}

// UpsertService creates the service or replaces the persisted entry with the same id.
// Computed service ids are reserved.
func (r *Registry) UpsertService(ctx context.Context, s *Service) (string, bool, error) {
	if err := ValidateService(s); err != nil {
		return "", false, err
	}
	if r.isComputed(s.ID) {
		return "", false, fmt.Errorf("%w: id %s is reserved", ErrInvalidService, s.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.doc.Clone()
	created := true
	for i := range next.Services {
		if next.Services[i].ID == s.ID {
			next.Services[i] = *s.DeepCopy()
			created = false
			break
		}
	}
	if created {
		next.Services = append(next.Services, *s.DeepCopy())
	}

	if err := r.commit(ctx, next); err != nil {
		return "", false, err
	}
	r.logger.Info("service registered", "service_id", s.ID, "service_type", s.ServiceType, "created", created)
	return s.ID, created, nil
}

// GetService returns a copy of the computed or persisted service with id.
func (r *Registry) GetService(_ context.Context, id string) (*Service, error) {
	for i := range r.computed {
		if r.computed[i].ID == id {
			return r.computed[i].DeepCopy(), nil
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.doc.Services {
		if r.doc.Services[i].ID == id {
			return r.doc.Services[i].DeepCopy(), nil
		}
	}
	return nil, fmt.Errorf("%w: service %s", ErrNotFound, id)
}

// ListServices returns computed services followed by persisted ones.
func (r *Registry) ListServices(_ context.Context) ([]Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	services := make([]Service, 0, len(r.computed)+len(r.doc.Services))
	for i := range r.computed {
		services = append(services, *r.computed[i].DeepCopy())
	}
	for i := range r.doc.Services {
		services = append(services, *r.doc.Services[i].DeepCopy())
	}
	return services, nil
}

// DeleteService removes a persisted service.
// Computed services are not persisted, so deleting one returns ErrNotFound.
func (r *Registry) DeleteService(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.doc.Clone()
	kept := next.Services[:0]
	for _, s := range next.Services {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(r.doc.Services) {
		return fmt.Errorf("%w: service %s", ErrNotFound, id)
	}
	next.Services = kept

	if err := r.commit(ctx, next); err != nil {
		return err
	}
	r.logger.Info("service deleted", "service_id", id)
	return nil
}
