package bridge

import (
	"fmt"
	"log/slog"
	"sync"

	"telematics-bridge/internal/completion"
	"telematics-bridge/internal/engine"
	"telematics-bridge/internal/events"
	"telematics-bridge/internal/observability"
	"telematics-bridge/internal/wizard"
)

// Host is what the adapter needs from the process embedding it.
type Host interface {
	LocationPermissionGranted() bool
	// LaunchPermissionWizard starts the wizard out of process. Its result
	// comes back through Adapter.DeliverActivityResult.
	LaunchPermissionWizard(aggressive, aggressivePage bool, requestCode int) error
}

type Options struct {
	Logger      *slog.Logger
	EventBuffer int
	// Settings overrides engine.DefaultSettings when set.
	Settings *engine.Settings
}

// Adapter exposes the engine to a single consumer: commands resolve exactly
// once and telemetry is broadcast while the consumer is subscribed.
type Adapter struct {
	eng      engine.Engine
	host     Host
	settings engine.Settings
	logger   *slog.Logger

	registry *completion.Registry
	queue    *events.Queue
	gate     *events.Gate
	wizard   *wizard.Correlator
	sink     *router

	initMu sync.Mutex
}

// New wires an adapter around eng. The caller owns eng and must construct
// only one adapter for it.
func New(eng engine.Engine, host Host, opts Options) *Adapter {
	lg := opts.Logger
	if lg == nil {
		lg = observability.Discard()
	}
	settings := engine.DefaultSettings()
	if opts.Settings != nil {
		settings = *opts.Settings
	}

	q := events.NewQueue(opts.EventBuffer)
	a := &Adapter{
		eng:      eng,
		host:     host,
		settings: settings,
		logger:   lg.With("component", "bridge"),
		registry: completion.NewRegistry(lg),
		queue:    q,
		gate:     events.NewGate(q, lg),
		wizard:   wizard.NewCorrelator(lg),
	}
	a.sink = &router{registry: a.registry, gate: a.gate, logger: a.logger}
	return a
}

// Initialize applies settings and registers the callback sinks the first
// time the engine is found uninitialized. Later calls do nothing.
func (a *Adapter) Initialize() error {
	a.initMu.Lock()
	defer a.initMu.Unlock()

	if a.eng.IsInitialized() {
		return nil
	}
	if err := a.eng.Initialize(a.settings); err != nil {
		a.count("initialize", err)
		return fmt.Errorf("initialize engine: %w", err)
	}
	a.eng.AddTagsProcessingCallback(a.sink)
	if err := a.eng.SetLocationListener(a.sink); err != nil {
		a.logger.Warn("set location listener failed", "err", err)
	}
	a.eng.RegisterTrackingStateCallback(a.sink)

	a.count("initialize", nil)
	a.logger.Info("engine initialized",
		"stop_tracking_timeout", a.settings.StopTrackingTimeout,
		"accuracy", a.settings.Accuracy,
	)
	return nil
}

func (a *Adapter) IsInitialized() bool { return a.eng.IsInitialized() }

// Events is the consumer's delivery channel.
func (a *Adapter) Events() <-chan events.Event { return a.queue.C() }

func (a *Adapter) Subscribe() {
	a.gate.Subscribe()
	a.logger.Debug("consumer subscribed")
}

func (a *Adapter) Unsubscribe() {
	a.gate.Unsubscribe()
	a.logger.Debug("consumer unsubscribed")
}

// Close detaches the engine hooks and stops event delivery. Detach failures
// are logged and swallowed.
func (a *Adapter) Close() {
	a.gate.Unsubscribe()
	if err := a.eng.SetLocationListener(nil); err != nil {
		a.logger.Debug("detach location listener", "err", err)
	}
	if err := a.eng.UnregisterTrackingStateCallback(a.sink); err != nil {
		a.logger.Debug("unregister tracking callback", "err", err)
	}
	a.queue.Close()
}

// DeliverActivityResult routes an activity result from the host to the
// pending permission wizard call, if any.
func (a *Adapter) DeliverActivityResult(requestCode, resultCode int) bool {
	return a.wizard.DeliverResult(requestCode, resultCode)
}

func (a *Adapter) requireInitialized(cmd string) error {
	if !a.eng.IsInitialized() {
		a.count(cmd, ErrNotInitialized)
		return ErrNotInitialized
	}
	return nil
}

func (a *Adapter) count(cmd string, err error) {
	result := "ok"
	if err != nil {
		result = Code(err)
	}
	observability.Commands.WithLabelValues(cmd, result).Inc()
}
