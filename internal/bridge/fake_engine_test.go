package bridge

import (
	"errors"
	"sync"

	"telematics-bridge/internal/engine"
)

// fakeEngine records delegation and lets tests fire callbacks by hand.
type fakeEngine struct {
	mu sync.Mutex

	initialized     bool
	initErr         error
	initCalls       int
	settings        engine.Settings
	tagSinkCalls    int
	locationCalls   int
	trackingCalls   int
	unregisterCalls int
	detachErr       error

	tagSink      engine.Sink
	locationSink engine.Sink
	trackingSink engine.Sink

	deviceID          string
	permissions       bool
	enabled           *bool
	tracking          bool
	calls             []string
	sensitivity       engine.AccidentSensitivity
	autoStart         [2]bool
	speedLimit        float64
	speedTimeoutMs    int64
	violationSinks    []engine.Sink
	heartbeatReason   string
	unsentTrips       int
	accidentsEnabled  bool
	completeOnRequest *engine.TagCompletion
}

var _ engine.Engine = (*fakeEngine)(nil)

func (f *fakeEngine) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeEngine) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeEngine) IsInitialized() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initialized
}

func (f *fakeEngine) Initialize(settings engine.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	if f.initErr != nil {
		return f.initErr
	}
	f.initialized = true
	f.settings = settings
	return nil
}

func (f *fakeEngine) AddTagsProcessingCallback(sink engine.Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tagSinkCalls++
	f.tagSink = sink
}

func (f *fakeEngine) SetLocationListener(sink engine.Sink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sink == nil && f.detachErr != nil {
		return f.detachErr
	}
	f.locationCalls++
	f.locationSink = sink
	return nil
}

func (f *fakeEngine) RegisterTrackingStateCallback(sink engine.Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trackingCalls++
	f.trackingSink = sink
}

func (f *fakeEngine) UnregisterTrackingStateCallback(engine.Sink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unregisterCalls++
	if f.detachErr != nil {
		return f.detachErr
	}
	f.trackingSink = nil
	return nil
}

func (f *fakeEngine) DeviceID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deviceID
}

func (f *fakeEngine) SetDeviceID(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deviceID = id
}

func (f *fakeEngine) Logout() { f.record("logout") }

func (f *fakeEngine) AreAllRequiredPermissionsGranted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.permissions
}

func (f *fakeEngine) AreAllRequiredPermissionsAndSensorsGranted() bool {
	return f.AreAllRequiredPermissionsGranted()
}

func (f *fakeEngine) IsSdkEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled != nil && *f.enabled
}

func (f *fakeEngine) SetEnableSdk(enable bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = &enable
}

func (f *fakeEngine) IsTracking() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tracking
}

func (f *fakeEngine) StartTracking()           { f.record("start_tracking") }
func (f *fakeEngine) StartPersistentTracking() { f.record("start_persistent_tracking") }
func (f *fakeEngine) StopTracking()            { f.record("stop_tracking") }
func (f *fakeEngine) UploadUnsentTrips()       { f.record("upload_unsent_trips") }

func (f *fakeEngine) UnsentTripCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsentTrips
}

func (f *fakeEngine) SendCustomHeartbeats(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heartbeatReason = reason
}

func (f *fakeEngine) SetAccidentDetectionSensitivity(s engine.AccidentSensitivity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sensitivity = s
}

func (f *fakeEngine) IsRtdEnabled() bool { return true }

func (f *fakeEngine) SetAccidentDetectionEnabled(enable bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accidentsEnabled = enable
}

func (f *fakeEngine) IsAccidentDetectionEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accidentsEnabled
}

func (f *fakeEngine) SetAutoStartEnabled(enable, permanent bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autoStart = [2]bool{enable, permanent}
}

func (f *fakeEngine) IsAutoStartEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.autoStart[0]
}

func (f *fakeEngine) GetFutureTrackTags()            { f.tagRequest("get_tags") }
func (f *fakeEngine) AddFutureTrackTag(tag, _ string) { f.tagRequest("add_tag:" + tag) }
func (f *fakeEngine) RemoveFutureTrackTag(tag string) { f.tagRequest("remove_tag:" + tag) }
func (f *fakeEngine) RemoveAllFutureTrackTags()      { f.tagRequest("remove_all_tags") }

// tagRequest completes synchronously when completeOnRequest is set, the way
// an engine with a warm cache might.
func (f *fakeEngine) tagRequest(call string) {
	f.record(call)
	f.mu.Lock()
	c, sink := f.completeOnRequest, f.tagSink
	f.mu.Unlock()
	if c != nil && sink != nil {
		sink.OnCallback(engine.TagOperationCompleted(*c))
	}
}

func (f *fakeEngine) RegisterSpeedViolations(limitKmH float64, timeoutMs int64, sink engine.Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speedLimit = limitKmH
	f.speedTimeoutMs = timeoutMs
	f.violationSinks = append(f.violationSinks, sink)
}

func (f *fakeEngine) emitTags(c engine.TagCompletion) {
	f.mu.Lock()
	sink := f.tagSink
	f.mu.Unlock()
	sink.OnCallback(engine.TagOperationCompleted(c))
}

func (f *fakeEngine) emitLocation(sample *engine.LocationSample) {
	f.mu.Lock()
	sink := f.locationSink
	f.mu.Unlock()
	sink.OnCallback(engine.LocationChanged(sample))
}

func (f *fakeEngine) emitTracking(cb engine.Callback) {
	f.mu.Lock()
	sink := f.trackingSink
	f.mu.Unlock()
	sink.OnCallback(cb)
}

func (f *fakeEngine) lastViolationSink() engine.Sink {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.violationSinks[len(f.violationSinks)-1]
}

// fakeHost stands in for the embedding process.
type fakeHost struct {
	mu          sync.Mutex
	locationOK  bool
	launchErr   error
	launches    int
	lastLaunch  [2]bool
	lastReqCode int
}

func (h *fakeHost) LocationPermissionGranted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.locationOK
}

func (h *fakeHost) LaunchPermissionWizard(aggressive, aggressivePage bool, requestCode int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.launches++
	h.lastLaunch = [2]bool{aggressive, aggressivePage}
	h.lastReqCode = requestCode
	return h.launchErr
}

var errDetach = errors.New("engine detached already")
