package router

import (
	"strings"

	"github.com/danmuck/gemctl/internal/gemini"
)

const DefaultMeta = "text/gemini"

// Response is one handler result. Zero Status and empty Meta default to
// 20 text/gemini.
type Response struct {
	Status int
	Meta   string
	Body   []byte
}

// Text is a text/gemini success with body s.
func Text(s string) *Response {
	return &Response{Status: gemini.StatusSuccess, Meta: DefaultMeta, Body: []byte(s)}
}

// Lines joins lines with "\n" into a text/gemini success.
func Lines(lines ...string) *Response {
	return Text(strings.Join(lines, "\n"))
}

// Bytes is a success carrying raw content of the given MIME type.
func Bytes(meta string, body []byte) *Response {
	return &Response{Status: gemini.StatusSuccess, Meta: meta, Body: body}
}

// Status is a bodiless response, e.g. a redirect or an input prompt.
func Status(status int, meta string) *Response {
	return &Response{Status: status, Meta: meta}
}

func NotFound() *Response {
	return Status(gemini.StatusNotFound, "Not found")
}

// Failed renders a handler error as "50 <kind>: <message>".
func Failed(err error) *Response {
	return Status(gemini.StatusPermanentFailure, gemini.Diagnostic(err))
}

func (r *Response) normalize() *Response {
	out := *r
	if out.Status == 0 {
		out.Status = gemini.StatusSuccess
	}
	if out.Meta == "" && gemini.CategoryOf(out.Status) == gemini.CategorySuccess {
		out.Meta = DefaultMeta
	}
	return &out
}
