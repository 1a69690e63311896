package dmp

import (
	"bytes"
	"fmt"
	"strings"
)

// Wire markers shared by commands, replies and realtime pushes.
const (
	STX            = 0x02
	ACK            = 0x06
	CR             = '\r'
	CommandPrefix  = '@'
	RecordSep      = 0x1e // separates records within one reply page
	FieldSep       = '\\' // separates keyed fields within a Z-message
	AccountWidth   = 5
	DefaultPort    = 2011
	DefaultMaxSize = 4096
)

// Frame is one delimited protocol unit, stripped of its STX start
// marker and CR terminator. It is never mutated after decode.
type Frame []byte

func (f Frame) String() string { return string(f) }

// Account returns the 5-character account field leading the frame, or
// an empty string if the frame is too short to carry one.
func (f Frame) Account() string {
	if len(f) < AccountWidth {
		return ""
	}
	return string(f[:AccountWidth])
}

// Body returns everything after the account field.
func (f Frame) Body() string {
	if len(f) <= AccountWidth {
		return ""
	}
	return string(f[AccountWidth:])
}

// Decoder splits a growing byte stream into frames. Bytes are appended
// with Write and complete frames pulled off with Next; an incomplete
// tail stays buffered untouched until more bytes arrive.
type Decoder struct {
	buf []byte
	max int
}

// NewDecoder returns a Decoder bounding unterminated buffers at max
// bytes (DefaultMaxSize if max <= 0).
func NewDecoder(max int) *Decoder {
	if max <= 0 {
		max = DefaultMaxSize
	}
	return &Decoder{max: max}
}

// Write appends raw bytes from the transport.
func (d *Decoder) Write(p []byte) {
	d.buf = append(d.buf, p...)
}

// Next extracts one complete frame. It returns nil with a nil error
// when no complete frame is buffered yet. When the unterminated buffer
// exceeds the bound the buffer is discarded and ErrFrameOversize
// returned; the stream itself stays usable.
func (d *Decoder) Next() (Frame, error) {
	// Leading noise before a start marker carries no frame data.
	if i := bytes.IndexByte(d.buf, STX); i > 0 {
		d.buf = d.buf[i:]
	} else if i < 0 && len(d.buf) > 0 && d.buf[0] != CommandPrefix {
		d.buf = nil
	}

	end := bytes.IndexByte(d.buf, CR)
	if end < 0 {
		if len(d.buf) > d.max {
			d.buf = nil
			return nil, ErrFrameOversize
		}
		return nil, nil
	}

	raw := d.buf[:end]
	d.buf = append([]byte(nil), d.buf[end+1:]...)
	if len(raw) > 0 && raw[0] == STX {
		raw = raw[1:]
	}
	f := make(Frame, len(raw))
	copy(f, raw)
	return f, nil
}

// Buffered reports how many undecoded bytes are pending.
func (d *Decoder) Buffered() int { return len(d.buf) }

// AccountField left-pads an account to the 5-character space-padded
// form used in command frames.
func AccountField(account string) (string, error) {
	account = strings.TrimSpace(account)
	if len(account) > AccountWidth {
		return "", fmt.Errorf("account %q longer than %d characters", account, AccountWidth)
	}
	return fmt.Sprintf("%*s", AccountWidth, account), nil
}

// ackAccount zero-pads an account to the 5-digit form used in
// acknowledgment frames.
func ackAccount(account string) string {
	account = strings.TrimSpace(account)
	if len(account) > AccountWidth {
		account = account[len(account)-AccountWidth:]
	}
	return strings.Repeat("0", AccountWidth-len(account)) + account
}

// EncodeCommand builds an outbound command frame:
// '@' + 5-char account + body + CR.
func EncodeCommand(account, body string) ([]byte, error) {
	acct, err := AccountField(account)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	b.WriteByte(CommandPrefix)
	b.WriteString(acct)
	b.WriteString(body)
	b.WriteByte(CR)
	return b.Bytes(), nil
}

// EncodeAck builds the fixed-shape acknowledgment suppressing
// panel-side retransmission: STX + 5-digit account + ACK + CR.
func EncodeAck(account string) []byte {
	acct := ackAccount(account)
	out := make([]byte, 0, AccountWidth+3)
	out = append(out, STX)
	out = append(out, acct...)
	out = append(out, ACK, CR)
	return out
}
