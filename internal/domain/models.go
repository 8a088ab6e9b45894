package domain

// Domain contains the views of GINK service objects used by the commands.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Text is a JSON scalar kept as text. The service is not consistent about
// quoting identifiers, so numbers and strings both decode into it; null
// decodes to "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case len(b) > 0 && (b[0] == '{' || b[0] == '['):
		return fmt.Errorf("cannot decode %s into text", b)
	default:
		*t = Text(b)
	}
	return nil
}

func (t Text) String() string { return string(t) }

// Timestamp is a unix time in seconds. Like Text it accepts quoted and bare
// numbers; null and "" decode to 0, which means unset.
type Timestamp int64

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*ts = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
		if len(b) == 0 {
			*ts = 0
			return nil
		}
	}

	if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		*ts = Timestamp(n)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("cannot decode %s into a timestamp", b)
	}
	*ts = Timestamp(int64(f))
	return nil
}

// Unix returns the timestamp as seconds.
func (ts Timestamp) Unix() int64 { return int64(ts) }

// Gateway is the entry object of the service. After a token request it also
// carries the token.
type Gateway struct {
	Token       string `json:"token,omitempty"`
	TokenURL    string `json:"token_url,omitempty"`
	TrackersURL string `json:"trackers_url,omitempty"`
	LiveURL     string `json:"live_url,omitempty"`
}

// Tracker is one GPS tracker of the account.
type Tracker struct {
	IMEI          Text      `json:"imei" yaml:"imei"`
	Name          Text      `json:"name" yaml:"name"`
	StartTS       Timestamp `json:"start_ts" yaml:"start_ts"`
	EndTS         Timestamp `json:"end_ts" yaml:"end_ts"`
	DataRetention Text      `json:"data_retention" yaml:"data_retention"`
	Model         Text      `json:"model" yaml:"model"`
}

// TrackerList is the trackers object.
type TrackerList struct {
	Trackers []Tracker `json:"trackers"`
}

// LiveUpdate is one entry of a live snapshot: a tracker that was heard from
// or moved since the previous poll.
type LiveUpdate struct {
	IMEI   Text      `json:"imei"`
	Name   Text      `json:"name"`
	CommTS Timestamp `json:"comm_ts"`
	PosTS  Timestamp `json:"pos_ts"`
	// Raw is the update object as the service sent it.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Key identifies an update across polls.
func (u LiveUpdate) Key() string {
	return fmt.Sprintf("%s:%d:%d", strings.TrimSpace(string(u.IMEI)), u.PosTS, u.CommTS)
}

// LiveSnapshot is the live object: the updates since the last poll, the URL
// to poll next and how long to wait before doing so.
type LiveSnapshot struct {
	LiveURL string       `json:"live_url"`
	Refresh int          `json:"refresh"`
	Updates []LiveUpdate `json:"updates"`
}
