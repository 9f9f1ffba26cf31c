package link

// DeviceState marks whether a line is the first one for its device on the
// current connection.
type DeviceState int

const (
	DeviceStateUnknown DeviceState = iota
	DeviceStateConnect             // device_connect: true
	DeviceStateUpdate              // device_update: true
)

// stateFor returns the state of the next line for deviceID and records it
// as announced. Callers hold c.mu.
func (c *Client) stateFor(deviceID string) DeviceState {
	if c.announced[deviceID] {
		return DeviceStateUpdate
	}
	c.announced[deviceID] = true
	return DeviceStateConnect
}
