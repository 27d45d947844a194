package signal

import "fmt"

// ProtocolAddress identifies one device of one user. It is a plain value;
// unlike the engine-owned resources it has no lifecycle.
type ProtocolAddress struct {
	name     string
	deviceID uint32
}

// NewProtocolAddress builds an address from a user identifier (a UUID or
// E.164 number) and a device id.
func NewProtocolAddress(name string, deviceID uint32) (ProtocolAddress, error) {
	if name == "" {
		return ProtocolAddress{}, errorf("NewProtocolAddress", KindInvalidArgument, "empty name")
	}
	return ProtocolAddress{name: name, deviceID: deviceID}, nil
}

// Name returns the user identifier.
func (a ProtocolAddress) Name() string { return a.name }

// DeviceID returns the device id.
func (a ProtocolAddress) DeviceID() uint32 { return a.deviceID }

// String renders the address in the canonical name.deviceID form.
func (a ProtocolAddress) String() string {
	return fmt.Sprintf("%s.%d", a.name, a.deviceID)
}
