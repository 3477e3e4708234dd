package contracts

// DeviceInfo contains information about a MIDI input port.
type DeviceInfo struct {
	ID           int    // Index passed to SelectDevice.
	Name         string // Port name, matched exactly against the configured device.
	Manufacturer string // Device manufacturer, when the driver reports one.
	EntityName   string // Name of the entity to which the port belongs.
}
