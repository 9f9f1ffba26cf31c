package bridge

import (
	"fmt"

	"telematics-bridge/internal/completion"
	"telematics-bridge/internal/engine"
	"telematics-bridge/internal/wizard"
)

/* =======================================================================
                          SCALAR COMMANDS
======================================================================= */

func (a *Adapter) DeviceID() string { return a.eng.DeviceID() }

func (a *Adapter) SetDeviceID(id string) {
	a.eng.SetDeviceID(id)
	a.count("set_device_id", nil)
}

func (a *Adapter) Logout() {
	a.eng.Logout()
	a.count("logout", nil)
	a.logger.Info("logged out")
}

func (a *Adapter) IsAllRequiredPermissionsAndSensorsGranted() bool {
	return a.eng.AreAllRequiredPermissionsAndSensorsGranted()
}

func (a *Adapter) IsSdkEnabled() bool { return a.eng.IsSdkEnabled() }

// SetEnableSdk fails with ErrPermission when enabling without location
// permission. Disabling is always allowed.
func (a *Adapter) SetEnableSdk(enable bool) error {
	if enable && !a.host.LocationPermissionGranted() {
		a.count("set_enable_sdk", ErrPermission)
		return ErrPermission
	}
	a.eng.SetEnableSdk(enable)
	a.count("set_enable_sdk", nil)
	a.logger.Info("sdk enabled state changed", "enable", enable)
	return nil
}

func (a *Adapter) IsTracking() (bool, error) {
	if err := a.requireInitialized("is_tracking"); err != nil {
		return false, err
	}
	return a.eng.IsTracking(), nil
}

func (a *Adapter) StartTracking() error {
	return a.run("start_tracking", a.eng.StartTracking)
}

func (a *Adapter) StartPersistentTracking() error {
	return a.run("start_persistent_tracking", a.eng.StartPersistentTracking)
}

func (a *Adapter) StopTracking() error {
	return a.run("stop_tracking", a.eng.StopTracking)
}

func (a *Adapter) UploadUnsentTrips() error {
	return a.run("upload_unsent_trips", a.eng.UploadUnsentTrips)
}

func (a *Adapter) UnsentTripCount() (int, error) {
	if err := a.requireInitialized("unsent_trip_count"); err != nil {
		return 0, err
	}
	return a.eng.UnsentTripCount(), nil
}

func (a *Adapter) SendCustomHeartbeats(reason string) error {
	return a.run("send_custom_heartbeats", func() { a.eng.SendCustomHeartbeats(reason) })
}

// SensitivityFromLevel maps 1 to Sensitive, 2 to Tough and anything else to Normal.
func SensitivityFromLevel(level int) engine.AccidentSensitivity {
	switch level {
	case 1:
		return engine.AccidentSensitivitySensitive
	case 2:
		return engine.AccidentSensitivityTough
	default:
		return engine.AccidentSensitivityNormal
	}
}

func (a *Adapter) SetAccidentDetectionSensitivity(level int) {
	s := SensitivityFromLevel(level)
	a.eng.SetAccidentDetectionSensitivity(s)
	a.count("set_accident_sensitivity", nil)
	a.logger.Info("accident sensitivity set", "level", level, "sensitivity", s.String())
}

func (a *Adapter) IsRtdEnabled() bool { return a.eng.IsRtdEnabled() }

func (a *Adapter) EnableAccidents(enable bool) {
	a.eng.SetAccidentDetectionEnabled(enable)
	a.count("enable_accidents", nil)
}

func (a *Adapter) IsAccidentsEnabled() bool { return a.eng.IsAccidentDetectionEnabled() }

// AutoStartParams mirrors the consumer's structured input; both fields are
// required.
type AutoStartParams struct {
	Enable    *bool `json:"enable"`
	Permanent *bool `json:"permanent"`
}

func (a *Adapter) SetAutoStart(p AutoStartParams) error {
	if p.Enable == nil || p.Permanent == nil {
		err := missingParams("enable", "permanent")
		a.count("set_auto_start", err)
		return err
	}
	a.eng.SetAutoStartEnabled(*p.Enable, *p.Permanent)
	a.count("set_auto_start", nil)
	return nil
}

func (a *Adapter) IsAutoStartEnabled() bool { return a.eng.IsAutoStartEnabled() }

// SpeedViolationParams mirrors the consumer's structured input. The timeout
// is in seconds; both fields are required.
type SpeedViolationParams struct {
	SpeedLimitKmH     *float64 `json:"speedLimitKmH"`
	SpeedLimitTimeout *int     `json:"speedLimitTimeout"`
}

// RegisterSpeedViolations installs a fresh violation sink that forwards
// through the event gate.
func (a *Adapter) RegisterSpeedViolations(p SpeedViolationParams) error {
	if p.SpeedLimitKmH == nil || p.SpeedLimitTimeout == nil {
		err := missingParams("speedLimitKmH", "speedLimitTimeout")
		a.count("register_speed_violations", err)
		return err
	}
	timeoutMs := int64(*p.SpeedLimitTimeout) * 1000
	a.eng.RegisterSpeedViolations(*p.SpeedLimitKmH, timeoutMs, &speedViolationSink{gate: a.gate})
	a.count("register_speed_violations", nil)
	a.logger.Info("speed violations registered", "limit_kmh", *p.SpeedLimitKmH, "timeout_ms", timeoutMs)
	return nil
}

/* =======================================================================
                    PERMISSION WIZARD (ACTIVITY RESULT)
======================================================================= */

// ShowPermissionWizard resolves true immediately when everything is already
// granted. Otherwise it launches the wizard and the handle resolves when the
// host delivers the wizard's activity result.
func (a *Adapter) ShowPermissionWizard(aggressive, aggressivePage bool) (*completion.Handle[bool], error) {
	if a.eng.AreAllRequiredPermissionsGranted() {
		a.count("show_permission_wizard", nil)
		return completion.Resolved(true), nil
	}

	h := completion.NewHandle[bool]()
	a.wizard.Launch(h)
	if err := a.host.LaunchPermissionWizard(aggressive, aggressivePage, wizard.RequestCode); err != nil {
		err = fmt.Errorf("launch permission wizard: %w", err)
		a.wizard.Cancel(h, err)
		a.count("show_permission_wizard", err)
		return nil, err
	}
	a.count("show_permission_wizard", nil)
	a.logger.Info("permission wizard launched", "request", h.ID(), "aggressive", aggressive, "aggressive_page", aggressivePage)
	return h, nil
}

/* =======================================================================
                      TAG COMMANDS (ASYNC COMPLETION)
======================================================================= */

func (a *Adapter) GetFutureTrackTags() (*completion.Handle[completion.TagResult], error) {
	return a.tagCommand(engine.OpGetTags, a.eng.GetFutureTrackTags)
}

func (a *Adapter) AddFutureTrackTag(tag, source string) (*completion.Handle[completion.TagResult], error) {
	return a.tagCommand(engine.OpAddTag, func() { a.eng.AddFutureTrackTag(tag, source) })
}

func (a *Adapter) RemoveFutureTrackTag(tag string) (*completion.Handle[completion.TagResult], error) {
	return a.tagCommand(engine.OpRemoveTag, func() { a.eng.RemoveFutureTrackTag(tag) })
}

func (a *Adapter) RemoveAllFutureTrackTags() (*completion.Handle[completion.TagResult], error) {
	return a.tagCommand(engine.OpRemoveAllTags, a.eng.RemoveAllFutureTrackTags)
}

// tagCommand registers the handle before delegating so a completion fired
// synchronously by the engine still finds it.
func (a *Adapter) tagCommand(op engine.TagOperation, call func()) (*completion.Handle[completion.TagResult], error) {
	if err := a.requireInitialized(op.String()); err != nil {
		return nil, err
	}
	h := completion.NewHandle[completion.TagResult]()
	a.registry.Register(op, h)
	a.logger.Debug("tag operation requested", "op", op.String(), "request", h.ID())
	call()
	a.count(op.String(), nil)
	return h, nil
}

func (a *Adapter) run(cmd string, call func()) error {
	if err := a.requireInitialized(cmd); err != nil {
		return err
	}
	call()
	a.count(cmd, nil)
	return nil
}
