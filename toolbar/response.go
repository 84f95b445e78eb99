package toolbar

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"net/http"
)

// Response describes the response a handler produced, as panels see it.
type Response struct {
	StatusCode  int
	Header      http.Header
	ContentType string
	Size        int
}

// ResponseWrapper buffers a handler's response so the toolbar can inspect
// and rewrite it before anything reaches the client.
type ResponseWrapper struct {
	Code int
	Body *bytes.Buffer

	// Hijacked will be set to true if the original http.ResponseWriter was
	// hijacked successfully.
	Hijacked bool

	header      http.Header
	wroteHeader bool
	writer      http.ResponseWriter
}

// NewResponseWrapper creates a new wrapper. The passed http.ResponseWriter
// is only used if the wrapper needs to be hijacked.
func NewResponseWrapper(w http.ResponseWriter) *ResponseWrapper {
	return &ResponseWrapper{
		Code:   http.StatusOK,
		Body:   new(bytes.Buffer),
		header: http.Header{},
		writer: w,
	}
}

func (w *ResponseWrapper) Header() http.Header {
	return w.header
}

func (w *ResponseWrapper) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.Code = code
}

func (w *ResponseWrapper) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		if w.header.Get("Content-Type") == "" {
			w.header.Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}
	return w.Body.Write(b)
}

// Hijack tries to use the original http.ResponseWriter for hijacking. If
// the original writer doesn't implement http.Hijacker, it returns an error.
func (w *ResponseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.writer.(http.Hijacker); ok {
		c, rw, err := hijacker.Hijack()
		if err == nil {
			w.Hijacked = true
		}
		return c, rw, err
	}

	return nil, nil, errors.New("wrapped ResponseWriter is not a Hijacker")
}

// Response summarizes what was written so far.
func (w *ResponseWrapper) Response() *Response {
	return &Response{
		StatusCode:  w.Code,
		Header:      w.header,
		ContentType: w.header.Get("Content-Type"),
		Size:        w.Body.Len(),
	}
}
