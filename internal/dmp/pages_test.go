package dmp

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// servePages answers each incoming command with the scripted reply
// bodies, in order, then keeps draining.
func servePages(panel *testPanel, replies []string) chan []string {
	got := make(chan []string, 1)
	go func() {
		var lines []string
		for _, reply := range replies {
			line, err := panel.read()
			if err != nil {
				got <- lines
				return
			}
			lines = append(lines, line)
			panel.reply(reply)
		}
		got <- lines
		for {
			if _, err := panel.read(); err != nil {
				return
			}
		}
	}()
	return got
}

func TestUserCodesPagination(t *testing.T) {
	client, server := net.Pipe()
	panel := newTestPanel(t, server)
	sess := connectSession(t, testSessionConfig(pipeDialer{client}), client, panel)
	defer sess.Close()

	account := 1
	key := "TESTKEY"
	mkRecord := func(number, name string) string {
		plain := number + "1234FFFFFFFF" + "5678FF" + "001000000000" + "000000" + "0000" + " " + name
		// The wire carries the obfuscated form; XOR is self-inverse.
		return DeobfuscateUserCode(account, plain, key)
	}

	got := servePages(panel, []string{
		"@    1*P=" + mkRecord("0001", "ALICE") + "\x1e" + mkRecord("0002", "BOB") + "\x1e----0002",
		"@    1*P=" + mkRecord("0003", "CAROL"),
	})

	users, err := sess.UserCodes(context.Background())
	require.NoError(t, err)

	lines := <-got
	require.Len(t, lines, 2)
	assert.Equal(t, "@    1?P=0000", lines[0])
	assert.Equal(t, "@    1?P=0003", lines[1])

	require.Len(t, users, 3)
	assert.Equal(t, "0001", users[0].Number)
	assert.Equal(t, "ALICE", users[0].Name)
	assert.Equal(t, "1234", users[0].Code)
	assert.Equal(t, "5678", users[0].PIN)
	assert.Equal(t, "CAROL", users[2].Name)
}

func TestUserCodesPaginationOverrun(t *testing.T) {
	client, server := net.Pipe()
	panel := newTestPanel(t, server)
	cfg := testSessionConfig(pipeDialer{client})
	cfg.MaxPages = 3
	sess := connectSession(t, cfg, client, panel)
	defer func() { panel.drain(); sess.Close() }()

	// The panel never stops claiming more pages.
	go func() {
		for {
			if _, err := panel.read(); err != nil {
				return
			}
			panel.reply("@    1*P=0001AAAA\x1e----0001")
		}
	}()

	_, err := sess.UserCodes(context.Background())
	require.ErrorIs(t, err, ErrPaginationOverrun)
}

func TestUserProfilesPagination(t *testing.T) {
	client, server := net.Pipe()
	panel := newTestPanel(t, server)
	sess := connectSession(t, testSessionConfig(pipeDialer{client}), client, panel)
	defer sess.Close()

	rec1 := "001" + "11111111" + "00000000" + "001" + "00000000" + "ADMIN"
	rec2 := "002" + "10000000" + "00000000" + "000" + "00000000" + "GUESTS"
	got := servePages(panel, []string{
		"@    1*U" + rec1 + "\x1e----001",
		"@    1*U" + rec2,
	})

	profiles, err := sess.UserProfiles(context.Background())
	require.NoError(t, err)

	lines := <-got
	require.Len(t, lines, 2)
	assert.Equal(t, "@    1?U000", lines[0])
	assert.Equal(t, "@    1?U002", lines[1])

	require.Len(t, profiles, 2)
	assert.Equal(t, "ADMIN", profiles[0].Name)
	assert.Equal(t, "GUESTS", profiles[1].Name)
}

func TestStatusPagination(t *testing.T) {
	client, server := net.Pipe()
	panel := newTestPanel(t, server)
	sess := connectSession(t, testSessionConfig(pipeDialer{client}), client, panel)
	defer sess.Close()

	got := servePages(panel, []string{
		"@    1+!WBA  1AMain Floor\x1eL001NFront Door",
		"@    1+!WBL002XBack Door",
		"@    1+!WB-",
	})

	areas, zones, err := sess.Status(context.Background())
	require.NoError(t, err)

	lines := <-got
	require.Len(t, lines, 3)
	assert.Equal(t, "@    1?WB**Y001", lines[0])
	assert.Equal(t, "@    1?WB", lines[1])
	assert.Equal(t, "@    1?WB", lines[2])

	require.Len(t, areas, 1)
	assert.Equal(t, "1", areas[0].Number)
	assert.Equal(t, "A", areas[0].State)

	require.Len(t, zones, 2)
	assert.Equal(t, "001", zones[0].Number)
	assert.Equal(t, "002", zones[1].Number)
}

func TestStatusPaginationOverrun(t *testing.T) {
	client, server := net.Pipe()
	panel := newTestPanel(t, server)
	cfg := testSessionConfig(pipeDialer{client})
	cfg.MaxPages = 2
	sess := connectSession(t, cfg, client, panel)
	defer func() { panel.drain(); sess.Close() }()

	go func() {
		for {
			if _, err := panel.read(); err != nil {
				return
			}
			panel.reply("@    1+!WBL001NStuck Zone")
		}
	}()

	start := time.Now()
	_, _, err := sess.Status(context.Background())
	require.ErrorIs(t, err, ErrPaginationOverrun)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestPaginationStartCursors(t *testing.T) {
	// The initial cursors the paged queries put on the wire.
	for _, tt := range []struct {
		cmd  Command
		want string
	}{
		{Command{Verb: VerbUserCodes, Start: "0000"}, "?P=0000"},
		{Command{Verb: VerbUserProfiles, Start: "000"}, "?U000"},
		{Command{Verb: VerbZoneStatus, Start: "001"}, "?WB**Y001"},
	} {
		body, err := tt.cmd.Encode()
		require.NoError(t, err)
		assert.Equal(t, tt.want, body)
		assert.True(t, strings.HasPrefix(body, "?"), fmt.Sprintf("%s is a query", body))
	}
}
