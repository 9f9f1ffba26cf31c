package main

import (
	"log/slog"

	"telematics-bridge/internal/engine/memengine"
	"telematics-bridge/internal/wizard"
)

// simHost stands in for the embedding app. Its wizard grants everything and
// reports back asynchronously like a real activity result would.
type simHost struct {
	eng     *memengine.Engine
	logger  *slog.Logger
	deliver func(requestCode, resultCode int) bool
}

func (h *simHost) LocationPermissionGranted() bool {
	return h.eng.AreAllRequiredPermissionsGranted()
}

func (h *simHost) LaunchPermissionWizard(aggressive, aggressivePage bool, requestCode int) error {
	go func() {
		h.eng.GrantPermissions(true)
		if !h.deliver(requestCode, wizard.ResultAllGranted) {
			h.logger.Warn("wizard result not consumed", "request_code", requestCode)
		}
	}()
	return nil
}
