// Package memengine is an in-process stand-in for the tracking engine. It
// keeps tags in memory and fires the same callbacks a device engine would,
// off the caller's goroutine and in emission order.
package memengine

import (
	"errors"
	"sort"
	"sync"

	"telematics-bridge/internal/engine"
)

var ErrNotInitialized = errors.New("memengine: not initialized")

type delivery struct {
	sink engine.Sink
	cb   engine.Callback
}

type Engine struct {
	wg sync.WaitGroup

	qmu      sync.Mutex
	queue    []delivery
	draining bool

	mu                 sync.Mutex
	initialized        bool
	settings           engine.Settings
	tagSinks           []engine.Sink
	locationSink       engine.Sink
	trackingSinks      []engine.Sink
	violationSink      engine.Sink
	speedLimitKmH      float64
	speedTimeoutMs     int64
	deviceID           string
	enabled            bool
	tracking           bool
	persistent         bool
	online             bool
	permissionsGranted bool
	sensorsGranted     bool
	tags               map[string]engine.Tag
	unsentTrips        int
	heartbeats         []string
	sensitivity        engine.AccidentSensitivity
	rtd                bool
	accidents          bool
	autoStart          bool
	autoStartPermanent bool
}

var _ engine.Engine = (*Engine)(nil)

func New() *Engine {
	return &Engine{
		online:         true,
		sensorsGranted: true,
		tags:           make(map[string]engine.Tag),
	}
}

// Wait blocks until every callback fired so far has been delivered.
func (e *Engine) Wait() { e.wg.Wait() }

// fire queues cb for every sink. A single drain goroutine delivers the queue
// FIFO and exits once it is empty.
func (e *Engine) fire(sinks []engine.Sink, cb engine.Callback) {
	e.qmu.Lock()
	defer e.qmu.Unlock()
	for _, s := range sinks {
		if s == nil {
			continue
		}
		e.wg.Add(1)
		e.queue = append(e.queue, delivery{sink: s, cb: cb})
	}
	if !e.draining && len(e.queue) > 0 {
		e.draining = true
		go e.drain()
	}
}

func (e *Engine) drain() {
	for {
		e.qmu.Lock()
		if len(e.queue) == 0 {
			e.draining = false
			e.qmu.Unlock()
			return
		}
		d := e.queue[0]
		e.queue[0] = delivery{}
		e.queue = e.queue[1:]
		e.qmu.Unlock()

		d.sink.OnCallback(d.cb)
		e.wg.Done()
	}
}

/* ---------------------------- lifecycle ---------------------------- */

func (e *Engine) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

func (e *Engine) Initialize(settings engine.Settings) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = true
	e.settings = settings
	e.autoStart = settings.AutoStartOn
	return nil
}

func (e *Engine) Settings() engine.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

func (e *Engine) AddTagsProcessingCallback(sink engine.Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tagSinks = append(e.tagSinks, sink)
}

func (e *Engine) SetLocationListener(sink engine.Sink) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.locationSink = sink
	return nil
}

func (e *Engine) RegisterTrackingStateCallback(sink engine.Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trackingSinks = append(e.trackingSinks, sink)
}

func (e *Engine) UnregisterTrackingStateCallback(sink engine.Sink) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.trackingSinks {
		if s == sink {
			e.trackingSinks = append(e.trackingSinks[:i], e.trackingSinks[i+1:]...)
			return nil
		}
	}
	return errors.New("memengine: tracking callback not registered")
}

/* ----------------------------- device ------------------------------ */

func (e *Engine) DeviceID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deviceID
}

func (e *Engine) SetDeviceID(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deviceID = id
}

func (e *Engine) Logout() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deviceID = ""
	e.enabled = false
}

func (e *Engine) AreAllRequiredPermissionsGranted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.permissionsGranted
}

func (e *Engine) AreAllRequiredPermissionsAndSensorsGranted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.permissionsGranted && e.sensorsGranted
}

// GrantPermissions simulates the user finishing the permission wizard.
func (e *Engine) GrantPermissions(granted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.permissionsGranted = granted
}

func (e *Engine) IsSdkEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

func (e *Engine) SetEnableSdk(enable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enable
}

/* ----------------------------- tracking ---------------------------- */

func (e *Engine) IsTracking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracking
}

func (e *Engine) StartTracking() { e.startTracking(false) }

func (e *Engine) StartPersistentTracking() { e.startTracking(true) }

func (e *Engine) startTracking(persistent bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tracking {
		e.persistent = e.persistent || persistent
		return
	}
	e.tracking = true
	e.persistent = persistent
	e.fire(e.trackingSinks, engine.TrackingStateChanged(true))
}

// StopTracking ends the current trip, which stays unsent until uploaded.
func (e *Engine) StopTracking() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.tracking {
		return
	}
	e.tracking = false
	e.persistent = false
	e.unsentTrips++
	e.fire(e.trackingSinks, engine.TrackingStateChanged(false))
}

func (e *Engine) UploadUnsentTrips() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.online {
		e.unsentTrips = 0
	}
}

func (e *Engine) UnsentTripCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unsentTrips
}

func (e *Engine) SendCustomHeartbeats(reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.heartbeats = append(e.heartbeats, reason)
}

func (e *Engine) Heartbeats() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.heartbeats...)
}

// SetOnline toggles connectivity; tag operations report Offline while false.
func (e *Engine) SetOnline(online bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.online = online
}

// PushLocation emits a location fix. A nil sample models a missing fix.
func (e *Engine) PushLocation(sample *engine.LocationSample) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fire([]engine.Sink{e.locationSink}, engine.LocationChanged(sample))
}

// ReportSpeed emits a violation when speed exceeds the registered limit.
func (e *Engine) ReportSpeed(ts, lat, lon, speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.violationSink == nil || speed <= e.speedLimitKmH {
		return
	}
	e.fire([]engine.Sink{e.violationSink}, engine.SpeedViolationDetected(&engine.SpeedViolation{
		Timestamp:     ts,
		Latitude:      lat,
		Longitude:     lon,
		ObservedSpeed: speed,
		SpeedLimit:    e.speedLimitKmH,
	}))
}

// SetLowPowerMode emits a low power mode change to the tracking sinks.
func (e *Engine) SetLowPowerMode(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fire(e.trackingSinks, engine.LowPowerModeChanged(enabled))
}

/* ----------------------------- accidents --------------------------- */

func (e *Engine) SetAccidentDetectionSensitivity(s engine.AccidentSensitivity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sensitivity = s
}

func (e *Engine) AccidentDetectionSensitivity() engine.AccidentSensitivity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sensitivity
}

func (e *Engine) IsRtdEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rtd
}

func (e *Engine) SetAccidentDetectionEnabled(enable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.accidents = enable
}

func (e *Engine) IsAccidentDetectionEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.accidents
}

func (e *Engine) SetAutoStartEnabled(enable, permanent bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.autoStart = enable
	e.autoStartPermanent = permanent
}

func (e *Engine) IsAutoStartEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.autoStart
}

/* ------------------------------- tags ------------------------------ */

func (e *Engine) GetFutureTrackTags() {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := engine.TagCompletion{Op: engine.OpGetTags, Status: e.statusLocked()}
	if c.Status == engine.StatusSuccess {
		c.Tags = e.sortedTagsLocked()
	}
	e.fire(e.tagSinks, engine.TagOperationCompleted(c))
}

func (e *Engine) AddFutureTrackTag(tag, source string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := engine.Tag{Tag: tag, Source: source}
	c := engine.TagCompletion{Op: engine.OpAddTag, Status: e.statusLocked(), Tag: &t}
	if c.Status == engine.StatusSuccess {
		if tag == "" {
			c.Status = engine.StatusInvalidTagSpecified
		} else {
			e.tags[tag] = t
		}
	}
	e.fire(e.tagSinks, engine.TagOperationCompleted(c))
}

func (e *Engine) RemoveFutureTrackTag(tag string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tags[tag]
	if !ok {
		t = engine.Tag{Tag: tag}
	}
	c := engine.TagCompletion{Op: engine.OpRemoveTag, Status: e.statusLocked(), Tag: &t}
	if c.Status == engine.StatusSuccess {
		if ok {
			delete(e.tags, tag)
		} else {
			c.Status = engine.StatusInvalidOperation
		}
	}
	e.fire(e.tagSinks, engine.TagOperationCompleted(c))
}

func (e *Engine) RemoveAllFutureTrackTags() {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := engine.TagCompletion{Op: engine.OpRemoveAllTags, Status: e.statusLocked()}
	if c.Status == engine.StatusSuccess {
		e.tags = make(map[string]engine.Tag)
	}
	e.fire(e.tagSinks, engine.TagOperationCompleted(c))
}

func (e *Engine) statusLocked() engine.StatusCode {
	if !e.online {
		return engine.StatusOffline
	}
	return engine.StatusSuccess
}

func (e *Engine) sortedTagsLocked() []engine.Tag {
	out := make([]engine.Tag, 0, len(e.tags))
	for _, t := range e.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

/* -------------------------- speed violations ----------------------- */

func (e *Engine) RegisterSpeedViolations(limitKmH float64, timeoutMs int64, sink engine.Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speedLimitKmH = limitKmH
	e.speedTimeoutMs = timeoutMs
	e.violationSink = sink
}

func (e *Engine) SpeedViolationConfig() (limitKmH float64, timeoutMs int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speedLimitKmH, e.speedTimeoutMs
}
