package panel

import "time"

// Device identifies the connected panel.
type Device struct {
	Model   string
	Account int
}

// Area is one partition of the panel with its last known arming state.
type Area struct {
	Number int
	Name   string
	ID     string
	Status string
}

// Zone is one protection point with its last known state.
type Zone struct {
	Number      int
	Name        string
	ID          string
	Status      string
	DeviceClass string
}

// CacheData is the snapshot persisted between runs so a restart does
// not need a full status walk before publishing.
type CacheData struct {
	Device     Device
	Areas      []Area
	Zones      []Zone
	LastUpdate time.Time
}

// Area arming states.
const (
	AreaStatusDisarmed  = "disarmed"
	AreaStatusArmedAway = "armed_away"
	AreaStatusArmedStay = "armed_stay"
	AreaStatusTriggered = "triggered"
	AreaStatusUnknown   = "unknown"
)

// Zone states.
const (
	ZoneStatusSecure     = "secure"
	ZoneStatusActive     = "active"
	ZoneStatusAlarm      = "alarm"
	ZoneStatusBypassed   = "bypassed"
	ZoneStatusTrouble    = "trouble"
	ZoneStatusShort      = "short"
	ZoneStatusLowBattery = "low_battery"
	ZoneStatusMissing    = "missing"
	ZoneStatusUnknown    = "unknown"
)
