package dmp

import (
	"strings"
)

// Category is the event family of a realtime Z-message, taken from the
// letter following the leading 'Z' of the frame body.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryZoneAlarm
	CategoryZoneForceArm
	CategoryRealTimeStatus
	CategoryWirelessLowBattery
	CategoryEquipment
	CategoryZoneFail
	CategoryHolidays
	CategoryWirelessZoneMissing
	CategoryZoneTamper
	CategoryDoorAccess
	CategoryWalkTestVerify
	CategorySchedules
	CategoryServiceCode
	CategoryZoneTripCount
	CategoryArming
	CategoryZoneRestore
	CategorySystemMessage
	CategoryZoneTrouble
	CategoryUserCodes
	CategoryZoneFault
	CategoryZoneBypass
	CategoryZoneReset
	CategoryReserved
)

var categoryLetters = map[byte]Category{
	'a': CategoryZoneAlarm,
	'b': CategoryZoneForceArm,
	'c': CategoryRealTimeStatus,
	'd': CategoryWirelessLowBattery,
	'e': CategoryEquipment,
	'f': CategoryZoneFail,
	'g': CategoryHolidays,
	'h': CategoryWirelessZoneMissing,
	'i': CategoryZoneTamper,
	'j': CategoryDoorAccess,
	'k': CategoryWalkTestVerify,
	'l': CategorySchedules,
	'm': CategoryServiceCode,
	'p': CategoryZoneTripCount,
	'q': CategoryArming,
	'r': CategoryZoneRestore,
	's': CategorySystemMessage,
	't': CategoryZoneTrouble,
	'u': CategoryUserCodes,
	'w': CategoryZoneFault,
	'x': CategoryZoneBypass,
	'y': CategoryZoneReset,
	'z': CategoryReserved,
}

func (c Category) String() string {
	switch c {
	case CategoryZoneAlarm:
		return "Zone Alarm"
	case CategoryZoneForceArm:
		return "Zone Force Arm"
	case CategoryRealTimeStatus:
		return "Real-Time Status"
	case CategoryWirelessLowBattery:
		return "Wireless Low Battery"
	case CategoryEquipment:
		return "Equipment"
	case CategoryZoneFail:
		return "Zone Fail"
	case CategoryHolidays:
		return "Holidays"
	case CategoryWirelessZoneMissing:
		return "Wireless Zone Missing"
	case CategoryZoneTamper:
		return "Zone Tamper"
	case CategoryDoorAccess:
		return "Door Access"
	case CategoryWalkTestVerify:
		return "Walk Test Verify"
	case CategorySchedules:
		return "Schedules"
	case CategoryServiceCode:
		return "Service Code"
	case CategoryZoneTripCount:
		return "Zone Trip Count"
	case CategoryArming:
		return "Arming Status"
	case CategoryZoneRestore:
		return "Zone Restore"
	case CategorySystemMessage:
		return "System Message"
	case CategoryZoneTrouble:
		return "Zone Trouble"
	case CategoryUserCodes:
		return "User Codes"
	case CategoryZoneFault:
		return "Zone Fault"
	case CategoryZoneBypass:
		return "Zone Bypass"
	case CategoryZoneReset:
		return "Zone Reset"
	case CategoryReserved:
		return "Reserved"
	default:
		return "Unknown"
	}
}

// isZoneFamily reports whether the category carries zone type codes
// (BL/FI/BU/...).
func (c Category) isZoneFamily() bool {
	switch c {
	case CategoryZoneAlarm, CategoryZoneForceArm, CategoryWirelessLowBattery,
		CategoryZoneFail, CategoryWirelessZoneMissing, CategoryZoneTamper,
		CategoryZoneTrouble, CategoryZoneFault, CategoryZoneBypass,
		CategoryZoneReset, CategoryZoneRestore:
		return true
	}
	return false
}

// Zone type codes shared by the zone-event families.
const (
	ZoneTypeBlank          = "BL"
	ZoneTypeFire           = "FI"
	ZoneTypeBurglary       = "BU"
	ZoneTypeSupervisory    = "SV"
	ZoneTypePanic          = "PN"
	ZoneTypeEmergency      = "EM"
	ZoneTypeAuxiliary1     = "A1"
	ZoneTypeAuxiliary2     = "A2"
	ZoneTypeCarbonMonoxide = "CO"
	ZoneTypeVideoAlarm     = "VA"
)

// Arming type codes (Zq).
const (
	ArmingDisarmed  = "OP"
	ArmingArmed     = "CL"
	ArmingLateToArm = "LA"
)

// Real-time status type codes (Zc).
const (
	StatusDoorOpen       = "DO"
	StatusDoorClosed     = "DC"
	StatusDoorHeldOpen   = "HO"
	StatusDoorForcedOpen = "FO"
	StatusOutputOn       = "ON"
	StatusOutputOff      = "OF"
	StatusOutputPulse    = "PL"
	StatusOutputTemporal = "TP"
	StatusOutputMoment   = "MO"
)

// User-code change type codes (Zu).
const (
	UserCodeAdded    = "AD"
	UserCodeChanged  = "CH"
	UserCodeDeleted  = "DE"
	UserCodeInactive = "IN"
)

// Schedule type codes (Zl).
const (
	SchedulePermanent  = "PE"
	ScheduleTemporary  = "TE"
	SchedulePrimary    = "PR"
	ScheduleSecondary  = "SE"
	ScheduleShiftOne   = "S1"
	ScheduleShiftTwo   = "S2"
	ScheduleShiftThree = "S3"
	ScheduleShiftFour  = "S4"
)

// Holiday type codes (Zg).
const (
	HolidayA = "HA"
	HolidayB = "HB"
	HolidayC = "HC"
)

var zoneTypeNames = map[string]string{
	ZoneTypeBlank:          "Blank",
	ZoneTypeFire:           "Fire",
	ZoneTypeBurglary:       "Burglary",
	ZoneTypeSupervisory:    "Supervisory",
	ZoneTypePanic:          "Panic",
	ZoneTypeEmergency:      "Emergency",
	ZoneTypeAuxiliary1:     "Auxiliary 1",
	ZoneTypeAuxiliary2:     "Auxiliary 2",
	ZoneTypeCarbonMonoxide: "Carbon Monoxide",
	ZoneTypeVideoAlarm:     "Video Alarm",
}

var armingNames = map[string]string{
	ArmingDisarmed:  "Disarmed",
	ArmingArmed:     "Armed",
	ArmingLateToArm: "Late to Arm",
}

var realTimeStatusNames = map[string]string{
	StatusDoorOpen:       "Door Open",
	StatusDoorClosed:     "Door Closed",
	StatusDoorHeldOpen:   "Door Held Open",
	StatusDoorForcedOpen: "Door Forced Open",
	StatusOutputOn:       "Output On",
	StatusOutputOff:      "Output Off",
	StatusOutputPulse:    "Output Pulse",
	StatusOutputTemporal: "Output Temporal",
	StatusOutputMoment:   "Output Momentary",
}

var userCodeNames = map[string]string{
	UserCodeAdded:    "User Code Added",
	UserCodeChanged:  "User Code Changed",
	UserCodeDeleted:  "User Code Deleted",
	UserCodeInactive: "User Code Inactive",
}

var scheduleNames = map[string]string{
	SchedulePermanent:  "Permanent",
	ScheduleTemporary:  "Temporary",
	SchedulePrimary:    "Primary",
	ScheduleSecondary:  "Secondary",
	ScheduleShiftOne:   "Shift One",
	ScheduleShiftTwo:   "Shift Two",
	ScheduleShiftThree: "Shift Three",
	ScheduleShiftFour:  "Shift Four",
}

var holidayNames = map[string]string{
	HolidayA: "Holiday A",
	HolidayB: "Holiday B",
	HolidayC: "Holiday C",
}

var equipmentNames = map[string]string{
	"RP": "Repair",
	"RL": "Replace",
	"AD": "Add",
	"RM": "Remove",
	"AJ": "Adjust",
	"TS": "Test",
	"SO": "System Options EEPROM",
	"PR": "Printer EEPROM",
	"LC": "Line Card EEPROM",
	"H1": "Host Port 1 EEPROM",
	"H2": "Host Port 2 EEPROM",
	"SP": "Serial Port EEPROM",
	"LG": "Log",
	"EE": "Entire EEPROM",
	"CD": "Contact ID",
}

var doorAccessNames = map[string]string{
	"DA": "Access Granted",
	"AA": "Denied: Area Armed",
	"IA": "Denied: Invalid Area",
	"IT": "Denied: Invalid Time",
	"AP": "Denied: Previous Access",
	"IC": "Denied: Invalid Code",
	"IL": "Denied: Invalid Level",
	"WP": "Denied: Wrong PIN",
	"IN": "Denied: Inactive User",
}

// Event is the typed representation of one realtime frame. The raw
// frame text is always retained so nothing is lost when classification
// is partial.
type Event struct {
	Account  string
	Category Category
	TypeCode string // raw two-character code, preserved verbatim

	Area     string
	AreaName string
	Zone     string
	ZoneName string
	Device   string
	DevName  string
	User     string
	UserName string

	SystemCode string
	SystemText string

	Fields []string // raw field sections, in wire order
	Raw    string
}

// TypeDescription returns the human text for the event's type code
// within its category, or an empty string for unknown codes.
func (e Event) TypeDescription() string {
	if e.TypeCode == "" {
		return ""
	}
	switch {
	case e.Category.isZoneFamily():
		return zoneTypeNames[e.TypeCode]
	case e.Category == CategoryArming:
		return armingNames[e.TypeCode]
	case e.Category == CategoryRealTimeStatus:
		return realTimeStatusNames[e.TypeCode]
	case e.Category == CategoryUserCodes:
		return userCodeNames[e.TypeCode]
	case e.Category == CategorySchedules:
		return scheduleNames[e.TypeCode]
	case e.Category == CategoryHolidays:
		return holidayNames[e.TypeCode]
	case e.Category == CategoryEquipment:
		return equipmentNames[e.TypeCode]
	case e.Category == CategoryDoorAccess:
		return doorAccessNames[e.TypeCode]
	}
	return ""
}

// Classifier turns decoded frames into typed events. The
// system-message table is supplied at construction and read only.
type Classifier struct {
	messages map[string]string
}

// NewClassifier builds a Classifier over the given system-message
// code-to-text table. A nil table disables system-message text lookup.
func NewClassifier(messages map[string]string) *Classifier {
	return &Classifier{messages: messages}
}

// Classify maps a frame to an Event. It is total for any framed input:
// unknown category letters and type codes yield Unknown/raw-preserving
// values. The only error case is a malformed mandatory fixed-width
// field, and even then the partially filled event is returned.
func (c *Classifier) Classify(f Frame) (Event, error) {
	text := f.String()
	evt := Event{Category: CategoryUnknown, Raw: text}

	if len(text) < AccountWidth {
		return evt, nil
	}
	evt.Account = strings.TrimSpace(text[:AccountWidth])

	body := strings.TrimLeft(text[AccountWidth:], " ")
	if len(body) < 2 || body[0] != 'Z' {
		return evt, nil
	}
	evt.Category = categoryLetters[body[1]]

	sections := strings.Split(body[2:], string(FieldSep))
	var firstErr error
	for _, sec := range sections {
		sec = strings.TrimRight(sec, " ")
		if len(sec) < 2 || sec[1] != ' ' {
			continue
		}
		evt.Fields = append(evt.Fields, sec)
		key, value := sec[0], sec[2:]
		switch key {
		case 't':
			evt.TypeCode = strings.TrimSpace(value)
		case 'a':
			num, name, err := splitNumberName(value, 3, "area")
			evt.Area, evt.AreaName = num, name
			if err != nil && firstErr == nil {
				firstErr = err
			}
		case 'z':
			num, name, err := splitNumberName(value, 3, "zone")
			evt.Zone, evt.ZoneName = num, name
			if err != nil && firstErr == nil {
				firstErr = err
			}
		case 'v':
			num, name, err := splitNumberName(value, 3, "device")
			evt.Device, evt.DevName = num, name
			if err != nil && firstErr == nil {
				firstErr = err
			}
		case 'u':
			num, name, err := splitNumberName(value, 5, "user")
			evt.User, evt.UserName = num, name
			if err != nil && firstErr == nil {
				firstErr = err
			}
		case 's':
			code, _, err := splitNumberName(value, 3, "system code")
			evt.SystemCode = code
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	if evt.Category == CategorySystemMessage && evt.SystemCode != "" {
		// Missing codes yield no text, not an error.
		evt.SystemText = c.messages[evt.SystemCode]
	}

	return evt, firstErr
}

// splitNumberName separates a keyed field value into its numeric part
// and the optional quoted name that follows. The numeric part is
// space-padded on the wire; an empty part means the field is absent
// (never defaulted to zero). More digits than the field width, or
// non-digit characters, are a classification error.
func splitNumberName(value string, width int, field string) (string, string, error) {
	numPart := value
	name := ""
	if i := strings.IndexByte(value, '"'); i >= 0 {
		numPart = value[:i]
		name = strings.TrimSpace(value[i+1:])
	}
	num := strings.TrimSpace(numPart)
	if num == "" {
		return "", name, nil
	}
	if len(num) > width {
		return "", name, &ClassificationError{Field: field, Value: numPart}
	}
	for i := 0; i < len(num); i++ {
		if num[i] < '0' || num[i] > '9' {
			return "", name, &ClassificationError{Field: field, Value: numPart}
		}
	}
	return num, name, nil
}
