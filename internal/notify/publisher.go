// Package notify delivers out-of-band commands to paired dispenser devices.
package notify

// Publisher sends a command payload to a single device.
type Publisher interface {
	Publish(deviceID, payload string) error
}

// Device command payloads.
const (
	CmdAlertOn          = "ALERT_ON"
	CmdAlertOff         = "ALERT_OFF"
	CmdPrefSoundOn      = "SET_PREF_SOUND_ON"
	CmdPrefSoundOff     = "SET_PREF_SOUND_OFF"
	CmdPrefVibrationOn  = "SET_PREF_VIBRATION_ON"
	CmdPrefVibrationOff = "SET_PREF_VIBRATION_OFF"
	CmdPrefLEDOn        = "SET_PREF_LED_ON"
	CmdPrefLEDOff       = "SET_PREF_LED_OFF"
)

// NopPublisher discards every command. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(deviceID, payload string) error { return nil }
