package dmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemonp/dmp2mqtt/internal/messages"
)

func TestClassifyArmingEvent(t *testing.T) {
	c := NewClassifier(messages.System())

	evt, err := c.Classify(Frame("    1Zq\\t CL\\a 001\"MAIN FLOOR\\u 00021\"JOHN SMITH"))
	require.NoError(t, err)
	assert.Equal(t, "1", evt.Account)
	assert.Equal(t, CategoryArming, evt.Category)
	assert.Equal(t, "CL", evt.TypeCode)
	assert.Equal(t, "Armed", evt.TypeDescription())
	assert.Equal(t, "001", evt.Area)
	assert.Equal(t, "MAIN FLOOR", evt.AreaName)
	assert.Equal(t, "00021", evt.User)
	assert.Equal(t, "JOHN SMITH", evt.UserName)
}

func TestClassifyZoneAlarm(t *testing.T) {
	c := NewClassifier(nil)

	evt, err := c.Classify(Frame("12345Za\\t BU\\z 003\"FRONT DOOR\\a 001\"HOUSE"))
	require.NoError(t, err)
	assert.Equal(t, "12345", evt.Account)
	assert.Equal(t, CategoryZoneAlarm, evt.Category)
	assert.Equal(t, "BU", evt.TypeCode)
	assert.Equal(t, "Burglary", evt.TypeDescription())
	assert.Equal(t, "003", evt.Zone)
	assert.Equal(t, "FRONT DOOR", evt.ZoneName)
	assert.Equal(t, "001", evt.Area)
}

func TestClassifySystemMessage(t *testing.T) {
	c := NewClassifier(messages.System())

	evt, err := c.Classify(Frame("    1Zs\\s 008"))
	require.NoError(t, err)
	assert.Equal(t, CategorySystemMessage, evt.Category)
	assert.Equal(t, "008", evt.SystemCode)
	assert.Equal(t, "AC Power Failure", evt.SystemText)
}

func TestClassifySystemMessageUnknownCode(t *testing.T) {
	c := NewClassifier(messages.System())

	evt, err := c.Classify(Frame("    1Zs\\s 999"))
	require.NoError(t, err)
	assert.Equal(t, "999", evt.SystemCode)
	assert.Equal(t, "", evt.SystemText)
}

func TestClassifyIsTotal(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		name  string
		frame string
	}{
		{"empty", ""},
		{"short", "abc"},
		{"no z prefix", "    1WHAT"},
		{"unknown category letter", "    1Zn\\t XX"},
		{"unknown type code", "    1Za\\t ZZ"},
		{"empty sections", "    1Za\\\\\\"},
		{"binary garbage", "    1Z\x01\x02\x03"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, err := c.Classify(Frame(tt.frame))
			assert.NoError(t, err)
			assert.Equal(t, tt.frame, evt.Raw)
		})
	}
}

func TestClassifyUnknownPreservesRaw(t *testing.T) {
	c := NewClassifier(nil)

	evt, err := c.Classify(Frame("    1Zn\\t XX\\z 007"))
	require.NoError(t, err)
	assert.Equal(t, CategoryUnknown, evt.Category)
	assert.Equal(t, "XX", evt.TypeCode)
	assert.Equal(t, "007", evt.Zone)
	assert.Equal(t, "", evt.TypeDescription())
}

func TestClassifyMalformedNumericField(t *testing.T) {
	c := NewClassifier(nil)

	evt, err := c.Classify(Frame("    1Za\\t BU\\z 0A1\"BAD"))
	var cerr *ClassificationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "zone", cerr.Field)

	// The partially classified event is still returned.
	assert.Equal(t, CategoryZoneAlarm, evt.Category)
	assert.Equal(t, "BU", evt.TypeCode)
	assert.Equal(t, "BAD", evt.ZoneName)
}

func TestClassifyFieldWiderThanWidth(t *testing.T) {
	c := NewClassifier(nil)

	_, err := c.Classify(Frame("    1Za\\t BU\\z 1234"))
	var cerr *ClassificationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "zone", cerr.Field)
}

func TestClassifyAbsentNumberIsNotZero(t *testing.T) {
	c := NewClassifier(nil)

	evt, err := c.Classify(Frame("    1Za\\t BU\\z \"NAMELESS"))
	require.NoError(t, err)
	assert.Equal(t, "", evt.Zone)
	assert.Equal(t, "NAMELESS", evt.ZoneName)
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "Zone Alarm", CategoryZoneAlarm.String())
	assert.Equal(t, "Arming Status", CategoryArming.String())
	assert.NotEmpty(t, CategoryUnknown.String())
}
