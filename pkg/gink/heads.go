package gink

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// Head is one HTTP response head block: status line plus headers. Header
// names are lower-cased; a repeated name keeps its last value.
type Head struct {
	Status     int               `json:"status"`
	StatusLine string            `json:"status_line"`
	Header     map[string]string `json:"headers"`
}

// Get returns the value of the named header, case-insensitively.
func (h Head) Get(name string) (string, bool) {
	v, ok := h.Header[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

// ParseHeads reads every head block from a raw header stream. A single round
// trip may produce several blocks (interim 1xx heads before the final one);
// only the last block is authoritative, see LastHead.
//
// A missing or malformed status code is reported as 0. Only read errors from
// r are returned.
func ParseHeads(r io.Reader) ([]Head, error) {
	br := bufio.NewReader(r)
	var (
		heads []Head
		cur   *Head
	)

	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return heads, err
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "" && cur != nil:
			heads = append(heads, *cur)
			cur = nil
		case line == "":
			// blank lines between blocks
		case cur == nil:
			cur = parseStatusLine(line)
		default:
			name, value, ok := strings.Cut(line, ":")
			if !ok {
				break
			}
			cur.Header[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
		}

		if err != nil {
			break
		}
	}

	// stream ended without the terminating blank line
	if cur != nil {
		heads = append(heads, *cur)
	}
	return heads, nil
}

func parseStatusLine(line string) *Head {
	line = strings.TrimSpace(line)
	h := &Head{StatusLine: line, Header: map[string]string{}}
	fields := strings.Fields(line)
	if len(fields) >= 2 {
		if code, err := strconv.Atoi(fields[1]); err == nil {
			h.Status = code
		}
	}
	return h
}

// LastHead returns the authoritative head of a parsed stream, or a zero Head
// with an empty header map when there is none.
func LastHead(heads []Head) Head {
	if len(heads) == 0 {
		return Head{Header: map[string]string{}}
	}
	return heads[len(heads)-1]
}

// ReadBody reads a body stream to completion. Size limits are the transport's
// concern.
func ReadBody(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	return io.ReadAll(r)
}
