package device

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/chardrv/internal/domain/channel"
)

// ModuleConfig describes the device a Module registers.
type ModuleConfig struct {
	Name        string
	Capacity    int
	ReadMode    channel.ReadMode
	MaxSessions int
	MajorBase   uint32
	MajorCount  uint32
}

// DefaultModuleConfig returns the reference configuration.
func DefaultModuleConfig() ModuleConfig {
	return ModuleConfig{
		Name:        "char_drv",
		Capacity:    channel.DefaultCapacity,
		ReadMode:    channel.ReadDrain,
		MaxSessions: DefaultMaxSessions,
		MajorBase:   240,
		MajorCount:  15,
	}
}

// Module owns the lifecycle of one device: number allocation, channel
// allocation and registration on Init, the reverse on Cleanup.
type Module struct {
	cfg      ModuleConfig
	logger   *zap.Logger
	recorder Recorder
	region   *Region
	registry *Registry

	mu       sync.RWMutex
	loaded   bool
	dev      Dev
	instance uuid.UUID
}

// ModuleOption configures a Module.
type ModuleOption func(*Module)

// WithModuleLogger sets the logger for registration messages and the device.
func WithModuleLogger(logger *zap.Logger) ModuleOption {
	return func(m *Module) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithModuleRecorder sets the recorder handed to the device.
func WithModuleRecorder(r Recorder) ModuleOption {
	return func(m *Module) {
		m.recorder = r
	}
}

// WithRegion shares a number allocator between modules.
func WithRegion(r *Region) ModuleOption {
	return func(m *Module) {
		m.region = r
	}
}

// WithRegistry shares a device table between modules.
func WithRegistry(r *Registry) ModuleOption {
	return func(m *Module) {
		m.registry = r
	}
}

// NewModule prepares a module. Nothing is allocated until Init.
func NewModule(cfg ModuleConfig, opts ...ModuleOption) *Module {
	m := &Module{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = NewRegistry()
	}
	return m
}

// Init allocates a device number, creates the channel and registers the
// device. A failed step undoes the steps before it.
func (m *Module) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return nil
	}

	region := m.region
	if region == nil {
		r, err := NewRegion(m.cfg.MajorBase, m.cfg.MajorCount)
		if err != nil {
			m.logger.Error("Unable to register device", zap.String("name", m.cfg.Name), zap.Error(err))
			return err
		}
		region = r
	}

	dev, err := region.Alloc(m.cfg.Name)
	if err != nil {
		m.logger.Error("Unable to register device", zap.String("name", m.cfg.Name), zap.Error(err))
		return fmt.Errorf("alloc device number: %w", err)
	}

	ch, err := channel.New(m.cfg.Capacity, channel.WithReadMode(m.cfg.ReadMode))
	if err != nil {
		_ = region.Unregister(dev)
		return fmt.Errorf("allocate channel: %w", err)
	}

	d := NewDevice(m.cfg.Name, dev, ch,
		WithLogger(m.logger),
		WithRecorder(m.recorder),
		WithMaxSessions(m.cfg.MaxSessions),
	)
	if err := m.registry.Add(d); err != nil {
		m.logger.Error("Unable to add device", zap.String("name", m.cfg.Name), zap.Error(err))
		_ = region.Unregister(dev)
		return fmt.Errorf("add device: %w", err)
	}

	m.region = region
	m.loaded = true
	m.dev = dev
	m.instance = uuid.New()

	m.logger.Info("Device registered",
		zap.String("name", m.cfg.Name),
		zap.Uint32("major", dev.Major()),
		zap.Int("capacity", ch.Capacity()),
		zap.String("read_mode", ch.Mode().String()),
		zap.String("instance_id", m.instance.String()),
	)
	m.logger.Info("To talk to the driver create a device node", zap.String("command", m.mknodLocked()))
	return nil
}

// Cleanup releases open sessions, unregisters the device and frees its number.
func (m *Module) Cleanup() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return ErrNotLoaded
	}

	dropped := 0
	if d, ok := m.registry.Lookup(m.dev); ok {
		dropped = d.closeSessions()
	}
	dev := m.dev

	var firstErr error
	if err := m.registry.Del(dev); err != nil {
		firstErr = err
	}
	if err := m.region.Unregister(dev); err != nil && firstErr == nil {
		firstErr = err
	}

	m.logger.Info("Device unregistered",
		zap.String("name", m.cfg.Name),
		zap.Int("sessions_dropped", dropped),
	)
	m.loaded = false
	return firstErr
}

// Device resolves the module's device through the registry. It returns nil
// before Init, after Cleanup, or when the device was removed from the table.
func (m *Module) Device() *Device {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.deviceLocked()
}

func (m *Module) deviceLocked() *Device {
	if !m.loaded {
		return nil
	}
	d, ok := m.registry.Lookup(m.dev)
	if !ok {
		return nil
	}
	return d
}

// Loaded reports whether Init has completed and Cleanup has not run.
func (m *Module) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.loaded
}

// InstanceID changes on every Init. Clients use it to notice that the
// channel was recreated and its contents are gone.
func (m *Module) InstanceID() uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.instance
}

// Registry returns the device table the module registers into.
func (m *Module) Registry() *Registry {
	return m.registry
}

// MknodHint returns the command that creates a node for the device.
func (m *Module) MknodHint() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.mknodLocked()
}

func (m *Module) mknodLocked() string {
	d := m.deviceLocked()
	if d == nil {
		return ""
	}
	return d.Mknod()
}
