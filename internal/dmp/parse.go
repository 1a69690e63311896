package dmp

import (
	"strings"
)

// Area arming state characters as reported in status pages.
const (
	AreaArmedAway = "A"
	AreaDisarmed  = "D"
	AreaArmedStay = "S"
)

// Zone state characters as reported in status pages.
const (
	ZoneNormal     = "N"
	ZoneOpen       = "O"
	ZoneShort      = "S"
	ZoneBypassed   = "X"
	ZoneLowBattery = "L"
	ZoneMissing    = "M"
)

// StateUnknown replaces state characters outside the documented sets.
const StateUnknown = "unknown"

// moreMarker precedes the continuation hint in paged user/profile
// replies.
const moreMarker = "----"

// ReplyKind classifies a frame received on the command connection.
type ReplyKind int

const (
	ReplyUnknown ReplyKind = iota // not a reply shape; realtime traffic
	ReplyAck
	ReplyNak
	ReplyAuth
	ReplyStatusPage
	ReplyUserCodePage
	ReplyProfilePage
)

// Reply is one parsed command-connection frame.
type Reply struct {
	Kind    ReplyKind
	Command string // leading command echo for ack/nak replies, e.g. "!C"
	Nak     bool

	Status   *StatusPage
	Users    *UserCodePage
	Profiles *ProfilePage

	Raw string
}

func (r Reply) isAckNakFor(cmd string) bool {
	return (r.Kind == ReplyAck || r.Kind == ReplyNak) && r.Command == cmd
}

// AreaStatus is one area record from a status page.
type AreaStatus struct {
	Number string
	State  string
	Name   string
}

// ZoneStatus is one zone record from a status page.
type ZoneStatus struct {
	Number string
	State  string
	Name   string
}

// StatusPage is one page of a combined area/zone status reply.
type StatusPage struct {
	Areas []AreaStatus
	Zones []ZoneStatus
}

// Empty reports whether the page carries no records, which terminates
// status pagination.
func (p *StatusPage) Empty() bool {
	return len(p.Areas) == 0 && len(p.Zones) == 0
}

// UserCodePage is one page of an obfuscated user-code reply. Records
// stay obfuscated here; deobfuscation happens only after all pages are
// collected.
type UserCodePage struct {
	Records    []string
	HasMore    bool
	LastNumber string
}

// UserCode is one decrypted, parsed user-code record.
type UserCode struct {
	Number   string
	Code     string
	PIN      string
	Profiles [4]string
	TempDate string
	ExpDate  string
	Name     string
}

// UserProfile is one user-profile record. Profiles travel in plain
// text.
type UserProfile struct {
	Number      string
	AreasMask   string
	AccessMask  string
	OutputGroup string
	MenuOptions string
	RearmDelay  string
	Name        string
}

// ProfilePage is one page of a profile reply.
type ProfilePage struct {
	Profiles   []UserProfile
	HasMore    bool
	LastNumber string
}

// ParseReply classifies one command-connection frame. Frames that do
// not match any reply shape come back as ReplyUnknown and are treated
// as out-of-band realtime events by the session.
func ParseReply(f Frame) Reply {
	text := f.String()
	r := Reply{Kind: ReplyUnknown, Raw: text}

	line := text
	if strings.HasPrefix(line, string(CommandPrefix)) {
		line = line[1:]
	}

	// User codes (*P=...) and profiles (*U...) before the positional
	// ack check: their pages embed no ack character.
	if i := strings.Index(line, "*P="); i >= 0 {
		r.Kind = ReplyUserCodePage
		r.Users = parseUserCodePage(line[i+3:])
		return r
	}
	if i := strings.Index(line, "*U"); i >= 0 {
		r.Kind = ReplyProfilePage
		r.Profiles = parseProfilePage(line[i+2:])
		return r
	}

	// Status pages may be prefixed *WB, !WB or ?WB depending on panel
	// firmware; parse the payload after whichever marker appears first.
	for _, marker := range []string{"*WB", "!WB", "?WB"} {
		if i := strings.Index(line, marker); i >= 0 {
			r.Kind = ReplyStatusPage
			r.Status = parseStatusPage(line[i+3:])
			return r
		}
	}

	// Ack/nak shape: <5-char account><+/-><!X...>
	if len(line) >= AccountWidth+3 {
		ackChar := line[AccountWidth]
		cmd := line[AccountWidth+1 : AccountWidth+3]
		if cmd[0] == '!' && (ackChar == '+' || ackChar == '-') {
			if cmd == "!V" {
				r.Kind = ReplyAuth
				r.Nak = ackChar == '-'
				return r
			}
			r.Command = cmd
			if ackChar == '+' {
				r.Kind = ReplyAck
			} else {
				r.Kind = ReplyNak
				r.Nak = true
			}
			return r
		}
		// Auth echo without ack character ("@    1!V2").
		if ackChar == '!' && line[AccountWidth+1] == 'V' {
			r.Kind = ReplyAuth
			return r
		}
	}

	return r
}

func parseStatusPage(payload string) *StatusPage {
	page := &StatusPage{}
	if payload == "" || strings.HasPrefix(payload, "-") {
		return page
	}
	for _, item := range strings.Split(payload, string(rune(RecordSep))) {
		if len(item) < 5 {
			continue
		}
		number := strings.TrimSpace(item[1:4])
		state := string(item[4])
		name := strings.TrimSpace(item[5:])
		switch item[0] {
		case 'A':
			if number == "" {
				continue
			}
			switch state {
			case AreaArmedAway, AreaDisarmed, AreaArmedStay:
			default:
				state = StateUnknown
			}
			page.Areas = append(page.Areas, AreaStatus{Number: number, State: state, Name: name})
		case 'L':
			switch state {
			case ZoneNormal, ZoneOpen, ZoneShort, ZoneBypassed, ZoneLowBattery, ZoneMissing:
			default:
				state = StateUnknown
			}
			page.Zones = append(page.Zones, ZoneStatus{Number: item[1:4], State: state, Name: name})
		}
	}
	return page
}

func parseUserCodePage(payload string) *UserCodePage {
	page := &UserCodePage{}
	for _, item := range strings.Split(payload, string(rune(RecordSep))) {
		item = strings.TrimRight(item, "\r")
		if item == "" {
			continue
		}
		if strings.HasPrefix(item, moreMarker) {
			page.HasMore = true
			continue
		}
		page.Records = append(page.Records, item)
		if len(item) >= 4 {
			// The record number travels in clear ahead of the
			// obfuscated remainder.
			page.LastNumber = item[:4]
		}
	}
	return page
}

// ParseUserCode splits one deobfuscated user-code record into its
// fixed-width fields. Records shorter than the fixed region are
// dropped.
func ParseUserCode(plain string) (UserCode, bool) {
	if len(plain) < 44 {
		return UserCode{}, false
	}
	cut := func(s string) string {
		if i := strings.IndexByte(s, 'F'); i >= 0 {
			return s[:i]
		}
		return s
	}
	return UserCode{
		Number:   plain[0:4],
		Code:     cut(plain[4:16]),
		PIN:      cut(plain[16:22]),
		Profiles: [4]string{plain[22:25], plain[25:28], plain[28:31], plain[31:34]},
		TempDate: plain[34:40],
		ExpDate:  plain[40:44],
		Name:     strings.TrimSpace(plain[44:]),
	}, true
}

func parseProfilePage(payload string) *ProfilePage {
	page := &ProfilePage{}
	for _, item := range strings.Split(payload, string(rune(RecordSep))) {
		item = strings.TrimRight(item, "\r")
		if item == "" {
			continue
		}
		if strings.HasPrefix(item, moreMarker) {
			page.HasMore = true
			continue
		}
		if len(item) < 30 {
			continue
		}
		p := UserProfile{
			Number:      item[0:3],
			AreasMask:   item[3:11],
			AccessMask:  item[11:19],
			OutputGroup: item[19:22],
			MenuOptions: item[22:30],
		}
		if len(item) >= 49 {
			p.RearmDelay = item[46:49]
			p.Name = strings.TrimSpace(item[49:])
		} else {
			p.Name = strings.TrimSpace(item[30:])
		}
		page.Profiles = append(page.Profiles, p)
		page.LastNumber = p.Number
	}
	return page
}
