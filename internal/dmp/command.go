package dmp

import (
	"fmt"
	"strings"
)

// Verb identifies one outbound panel operation.
type Verb int

const (
	VerbArm Verb = iota
	VerbDisarm
	VerbBypassZone
	VerbRestoreZone
	VerbOutputOn
	VerbOutputOff
	VerbOutputPulse
	VerbSensorReset
	VerbAuth
	VerbDisconnect
	VerbKeepalive
	VerbUserCodes
	VerbUserProfiles
	VerbZoneStatus
	VerbZoneStatusCont
)

func (v Verb) String() string {
	switch v {
	case VerbArm:
		return "arm"
	case VerbDisarm:
		return "disarm"
	case VerbBypassZone:
		return "bypass-zone"
	case VerbRestoreZone:
		return "restore-zone"
	case VerbOutputOn:
		return "output-on"
	case VerbOutputOff:
		return "output-off"
	case VerbOutputPulse:
		return "output-pulse"
	case VerbSensorReset:
		return "sensor-reset"
	case VerbAuth:
		return "auth"
	case VerbDisconnect:
		return "disconnect"
	case VerbKeepalive:
		return "keepalive"
	case VerbUserCodes:
		return "user-codes"
	case VerbUserProfiles:
		return "user-profiles"
	case VerbZoneStatus:
		return "zone-status"
	case VerbZoneStatusCont:
		return "zone-status-cont"
	default:
		return fmt.Sprintf("verb(%d)", int(v))
	}
}

// Command is one outbound operation with its parameters. It is owned
// by the session from enqueue until reply or timeout.
type Command struct {
	Verb Verb

	Areas         []int // arm/disarm, 1..99 each
	Zone          int   // bypass/restore
	Output        int   // output control
	BypassFaulted bool
	ForceArm      bool
	Instant       *bool  // nil leaves the flag off the wire
	Key           string // auth remote key, may be blank
	Start         string // pagination cursor (user 0000 / profile 000 / zone 001)
}

// areasField concatenates zero-padded two-digit area numbers into the
// single multi-area field, e.g. areas 1,2,3 -> "010203".
func areasField(areas []int) (string, error) {
	if len(areas) == 0 {
		return "", fmt.Errorf("no areas given")
	}
	var b strings.Builder
	for _, a := range areas {
		if a < 0 || a > 99 {
			return "", fmt.Errorf("invalid area number %d", a)
		}
		fmt.Fprintf(&b, "%02d", a)
	}
	return b.String(), nil
}

// Encode renders the command body (the part between the account field
// and the terminator).
func (c Command) Encode() (string, error) {
	yn := func(v bool) string {
		if v {
			return "Y"
		}
		return "N"
	}
	switch c.Verb {
	case VerbArm:
		areas, err := areasField(c.Areas)
		if err != nil {
			return "", err
		}
		body := fmt.Sprintf("!C%s,%s%s", areas, yn(c.BypassFaulted), yn(c.ForceArm))
		if c.Instant != nil {
			body += yn(*c.Instant)
		}
		return body, nil
	case VerbDisarm:
		areas, err := areasField(c.Areas)
		if err != nil {
			return "", err
		}
		return "!O" + areas, nil
	case VerbBypassZone:
		return fmt.Sprintf("!X%03d", c.Zone), nil
	case VerbRestoreZone:
		return fmt.Sprintf("!Y%03d", c.Zone), nil
	case VerbOutputOn:
		return fmt.Sprintf("!Q%03dS", c.Output), nil
	case VerbOutputOff:
		return fmt.Sprintf("!Q%03dO", c.Output), nil
	case VerbOutputPulse:
		return fmt.Sprintf("!Q%03dP", c.Output), nil
	case VerbSensorReset:
		return "!E001", nil
	case VerbAuth:
		return "!V2" + c.Key, nil
	case VerbDisconnect:
		return "!V0", nil
	case VerbKeepalive:
		return "!H", nil
	case VerbUserCodes:
		return "?P=" + c.Start, nil
	case VerbUserProfiles:
		return "?U" + c.Start, nil
	case VerbZoneStatus:
		return "?WB**Y" + c.Start, nil
	case VerbZoneStatusCont:
		return "?WB", nil
	default:
		return "", fmt.Errorf("unknown verb %v", c.Verb)
	}
}

// expectsReply reports whether the verb gets a correlated reply at all.
// Keepalive and disconnect are fire-and-forget.
func (c Command) expectsReply() bool {
	switch c.Verb {
	case VerbKeepalive, VerbDisconnect:
		return false
	}
	return true
}

// matchesReply decides whether a parsed reply is the correlated answer
// for this command. Anything else arriving while the command is
// outstanding is an out-of-band realtime event.
func (c Command) matchesReply(r Reply) bool {
	switch c.Verb {
	case VerbArm:
		return r.isAckNakFor("!C")
	case VerbDisarm:
		return r.isAckNakFor("!O")
	case VerbBypassZone:
		return r.isAckNakFor("!X")
	case VerbRestoreZone:
		return r.isAckNakFor("!Y")
	case VerbOutputOn, VerbOutputOff, VerbOutputPulse:
		return r.isAckNakFor("!Q")
	case VerbSensorReset:
		return r.isAckNakFor("!E")
	case VerbAuth:
		return r.Kind == ReplyAuth
	case VerbUserCodes:
		return r.Kind == ReplyUserCodePage
	case VerbUserProfiles:
		return r.Kind == ReplyProfilePage
	case VerbZoneStatus, VerbZoneStatusCont:
		return r.Kind == ReplyStatusPage
	}
	return false
}
