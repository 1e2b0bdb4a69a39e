package gemini

import (
	"bytes"
	"net/url"
	"unicode/utf8"
)

const (
	MaxRequestLine = 1024
	// MaxRequestSize is the line budget plus the CRLF terminator.
	MaxRequestSize = MaxRequestLine + 2
)

var terminator = []byte("\r\n")

// ParseRequest validates one request line (terminator included) and returns its URL.
// Rejections are *RequestError values carrying the status to send.
func ParseRequest(data []byte) (*url.URL, error) {
	if len(data) > MaxRequestSize {
		return nil, &RequestError{
			Status: StatusBadRequest,
			Meta:   "Request too large",
			Err:    ErrRequestTooLarge,
		}
	}
	end := bytes.Index(data, terminator)
	if end < 0 {
		return nil, badRequest("missing terminator")
	}
	line := data[:end]
	if !utf8.Valid(line) {
		return nil, badRequest("request line is not utf-8")
	}
	u, err := url.Parse(string(line))
	if err != nil {
		return nil, badRequest(err.Error())
	}
	if u.Scheme == "" {
		return nil, badRequest("missing scheme")
	}
	if u.Scheme != Scheme {
		return nil, &RequestError{
			Status: StatusProxyRequestRefused,
			Meta:   "Proxy Request Refused",
			Err:    ErrProxyRefused,
		}
	}
	return u, nil
}

// requestLine is buf up to, but not including, the first CRLF.
func requestLine(buf []byte) string {
	if end := bytes.Index(buf, terminator); end >= 0 {
		return string(buf[:end])
	}
	return string(buf)
}

// needMore reports whether buf could still become a complete request line.
func needMore(buf []byte) bool {
	return len(buf) <= MaxRequestSize && !bytes.Contains(buf, terminator)
}
