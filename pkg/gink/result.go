package gink

import (
	"encoding/json"
	"errors"
	"sort"
)

// ErrorField names the error indicator carried by failed service objects.
const ErrorField = "_error"

// ErrNoContent is returned by Result.Decode for a successful response without a body.
var ErrNoContent = errors.New("response has no content")

// Result is the outcome of one call, redirects included. On success with a
// JSON body only Value is set, already rewritten so every URL reference is
// absolute. Otherwise Head describes the authoritative response, Body holds
// the raw body when one was read, and Err tells what went wrong (nil for an
// empty 200 or an unfollowed redirect).
type Result struct {
	URL   string
	Head  *Head
	Body  []byte
	Value *Value
	Err   error
}

// OK reports whether the call carries no error indicator.
func (r *Result) OK() bool { return r != nil && r.Err == nil }

// Indicator returns the error indicator, or "" on success.
func (r *Result) Indicator() string {
	if r == nil || r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// HasBody reports whether a raw body was attached.
func (r *Result) HasBody() bool { return r != nil && r.Body != nil }

// Status is the authoritative status code, or 200 for a decoded body.
func (r *Result) Status() int {
	switch {
	case r == nil:
		return 0
	case r.Head != nil:
		return r.Head.Status
	case r.Value != nil:
		return 200
	}
	return 0
}

// Get returns a field of the decoded service object, or nil.
func (r *Result) Get(name string) *Value {
	if r == nil {
		return nil
	}
	return r.Value.Get(name)
}

// Decode copies the decoded service object into dst. It fails with Err when
// the call failed and with ErrNoContent when nothing was decoded.
func (r *Result) Decode(dst any) error {
	if r == nil {
		return ErrNoContent
	}
	if r.Err != nil {
		return r.Err
	}
	if r.Value == nil {
		return ErrNoContent
	}
	return r.Value.Decode(dst)
}

// Object renders the result as the service object callers see: the decoded
// value on success, otherwise the head (status, statusLine, headers) with
// body and _error added when present.
func (r *Result) Object() *Value {
	if r == nil {
		return Null()
	}
	if r.Value != nil && r.Head == nil {
		return r.Value
	}

	obj := Object()
	if r.Head != nil {
		obj.Set("status", Int(int64(r.Head.Status)))
		obj.Set("statusLine", String(r.Head.StatusLine))
		headers := Object()
		names := make([]string, 0, len(r.Head.Header))
		for name := range r.Head.Header {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			headers.Set(name, String(r.Head.Header[name]))
		}
		obj.Set("headers", headers)
	}
	if r.Body != nil {
		obj.Set("body", String(string(r.Body)))
	} else if r.Head != nil {
		obj.Set("body", Null())
	}
	if r.Err != nil {
		obj.Set(ErrorField, String(r.Err.Error()))
	}
	return obj
}

// MarshalJSON encodes Object.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Object())
}
