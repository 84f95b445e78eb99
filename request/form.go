package request

import (
	"bytes"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxBodyBytes bounds how much of a form body SnapshotForm buffers.
const DefaultMaxBodyBytes = 10 << 20

// SnapshotForm parses the form body of r without consuming it.
//
// Only POST requests are snapshotted, and only
// application/x-www-form-urlencoded and multipart/form-data bodies
// are read. The body is buffered, parsed from a clone of the request, and
// r.Body is replaced with a reader over the same bytes, so the handler
// sees the body exactly as the client sent it. Uploaded files are
// discarded from the snapshot.
//
// If the body is larger than limit, nothing is recorded and the handler
// receives the buffered prefix followed by the unread remainder.
func SnapshotForm(r *http.Request, limit int64) error {
	s := StateFrom(r)
	if s == nil || r.Method != http.MethodPost || r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil
	}
	if mediaType != "application/x-www-form-urlencoded" && mediaType != "multipart/form-data" {
		return nil
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		r.Body = readCloser{io.MultiReader(bytes.NewReader(buf), r.Body), r.Body}
		return err
	}
	if int64(len(buf)) > limit {
		r.Body = readCloser{io.MultiReader(bytes.NewReader(buf), r.Body), r.Body}
		return nil
	}
	r.Body = readCloser{bytes.NewReader(buf), r.Body}

	clone := r.Clone(r.Context())
	clone.Body = io.NopCloser(bytes.NewReader(buf))
	clone.Form = nil
	clone.PostForm = nil
	clone.MultipartForm = nil

	if mediaType == "multipart/form-data" {
		err = clone.ParseMultipartForm(limit)
		if clone.MultipartForm != nil {
			_ = clone.MultipartForm.RemoveAll()
		}
	} else {
		err = clone.ParseForm()
	}
	if err != nil {
		return err
	}

	s.SetForm(clone.PostForm)
	return nil
}

type readCloser struct {
	io.Reader
	io.Closer
}
