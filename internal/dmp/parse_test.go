package dmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReplyAckNak(t *testing.T) {
	r := ParseReply(Frame("    1+!C01,NN"))
	assert.Equal(t, ReplyAck, r.Kind)
	assert.Equal(t, "!C", r.Command)
	assert.False(t, r.Nak)

	r = ParseReply(Frame("    1-!X005"))
	assert.Equal(t, ReplyNak, r.Kind)
	assert.Equal(t, "!X", r.Command)
	assert.True(t, r.Nak)

	// The leading command echo prefix is tolerated.
	r = ParseReply(Frame("@    1+!O01"))
	assert.Equal(t, ReplyAck, r.Kind)
	assert.Equal(t, "!O", r.Command)
}

func TestParseReplyAuth(t *testing.T) {
	r := ParseReply(Frame("    1+!V2"))
	assert.Equal(t, ReplyAuth, r.Kind)
	assert.False(t, r.Nak)

	r = ParseReply(Frame("    1-!V2"))
	assert.Equal(t, ReplyAuth, r.Kind)
	assert.True(t, r.Nak)

	// Bare echo without an ack character.
	r = ParseReply(Frame("    1!V2KEY"))
	assert.Equal(t, ReplyAuth, r.Kind)
	assert.False(t, r.Nak)
}

func TestParseReplyUnknownIsRealtime(t *testing.T) {
	r := ParseReply(Frame("    1Za\\t BU\\z 003\"FRONT"))
	assert.Equal(t, ReplyUnknown, r.Kind)

	r = ParseReply(Frame("junk"))
	assert.Equal(t, ReplyUnknown, r.Kind)
}

func TestParseStatusPage(t *testing.T) {
	frame := Frame("    1+!WBA  1AMain Floor\x1eA  2DUpstairs\x1eL001NFront Door\x1eL002XBack Door")
	r := ParseReply(frame)
	require.Equal(t, ReplyStatusPage, r.Kind)
	require.NotNil(t, r.Status)
	assert.False(t, r.Status.Empty())

	require.Len(t, r.Status.Areas, 2)
	assert.Equal(t, AreaStatus{Number: "1", State: "A", Name: "Main Floor"}, r.Status.Areas[0])
	assert.Equal(t, AreaStatus{Number: "2", State: "D", Name: "Upstairs"}, r.Status.Areas[1])

	require.Len(t, r.Status.Zones, 2)
	assert.Equal(t, ZoneStatus{Number: "001", State: "N", Name: "Front Door"}, r.Status.Zones[0])
	assert.Equal(t, ZoneStatus{Number: "002", State: "X", Name: "Back Door"}, r.Status.Zones[1])
}

func TestParseStatusPageEmpty(t *testing.T) {
	r := ParseReply(Frame("    1+!WB-"))
	require.Equal(t, ReplyStatusPage, r.Kind)
	require.NotNil(t, r.Status)
	assert.True(t, r.Status.Empty())

	r = ParseReply(Frame("    1+!WB"))
	require.Equal(t, ReplyStatusPage, r.Kind)
	assert.True(t, r.Status.Empty())
}

func TestParseStatusPageUnknownState(t *testing.T) {
	r := ParseReply(Frame("    1+!WBA  1QMain\x1eL001QOdd"))
	require.Equal(t, ReplyStatusPage, r.Kind)
	require.Len(t, r.Status.Areas, 1)
	assert.Equal(t, StateUnknown, r.Status.Areas[0].State)
	require.Len(t, r.Status.Zones, 1)
	assert.Equal(t, StateUnknown, r.Status.Zones[0].State)
}

func TestParseUserCodePage(t *testing.T) {
	frame := Frame("    1*P=0001ABCDEF\x1e0002GHIJKL\x1e----0003")
	r := ParseReply(frame)
	require.Equal(t, ReplyUserCodePage, r.Kind)
	require.NotNil(t, r.Users)
	assert.Equal(t, []string{"0001ABCDEF", "0002GHIJKL"}, r.Users.Records)
	assert.True(t, r.Users.HasMore)
	assert.Equal(t, "0002", r.Users.LastNumber)
}

func TestParseUserCodePageFinal(t *testing.T) {
	r := ParseReply(Frame("    1*P=0042ABCDEF"))
	require.Equal(t, ReplyUserCodePage, r.Kind)
	assert.Equal(t, []string{"0042ABCDEF"}, r.Users.Records)
	assert.False(t, r.Users.HasMore)
}

func TestParseUserCode(t *testing.T) {
	plain := "0001" + "1234FFFFFFFF" + "5678FF" + "001002003004" + "010126" + "0627" + " JOHN DOE"
	u, ok := ParseUserCode(plain)
	require.True(t, ok)
	assert.Equal(t, "0001", u.Number)
	assert.Equal(t, "1234", u.Code)
	assert.Equal(t, "5678", u.PIN)
	assert.Equal(t, [4]string{"001", "002", "003", "004"}, u.Profiles)
	assert.Equal(t, "010126", u.TempDate)
	assert.Equal(t, "0627", u.ExpDate)
	assert.Equal(t, "JOHN DOE", u.Name)

	_, ok = ParseUserCode("0001 too short")
	assert.False(t, ok)
}

func TestParseProfilePage(t *testing.T) {
	rec := "001" + "11111111" + "00000000" + "001" + "12345678" +
		"0000000000000000" + "060" + " ADMIN"
	r := ParseReply(Frame("    1*U" + rec + "\x1e----002"))
	require.Equal(t, ReplyProfilePage, r.Kind)
	require.NotNil(t, r.Profiles)
	require.Len(t, r.Profiles.Profiles, 1)
	p := r.Profiles.Profiles[0]
	assert.Equal(t, "001", p.Number)
	assert.Equal(t, "11111111", p.AreasMask)
	assert.Equal(t, "00000000", p.AccessMask)
	assert.Equal(t, "001", p.OutputGroup)
	assert.Equal(t, "12345678", p.MenuOptions)
	assert.Equal(t, "060", p.RearmDelay)
	assert.Equal(t, "ADMIN", p.Name)
	assert.True(t, r.Profiles.HasMore)
	assert.Equal(t, "001", r.Profiles.LastNumber)
}

func TestParseProfilePageShortRecord(t *testing.T) {
	// Records without the rearm region fall back to a name at the fixed
	// minimum offset.
	rec := "002" + "10000000" + "00000000" + "000" + "00000000" + "GUESTS"
	r := ParseReply(Frame("    1*U" + rec))
	require.Equal(t, ReplyProfilePage, r.Kind)
	require.Len(t, r.Profiles.Profiles, 1)
	assert.Equal(t, "002", r.Profiles.Profiles[0].Number)
	assert.Equal(t, "GUESTS", r.Profiles.Profiles[0].Name)
	assert.Empty(t, r.Profiles.Profiles[0].RearmDelay)
	assert.False(t, r.Profiles.HasMore)
}
