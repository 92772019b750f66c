package translate

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/minios-linux/gptrans/i18n"
)

// RemoteCallError reports a failed completion request. It aborts the whole
// run: chunks are never retried or skipped.
type RemoteCallError struct {
	// Chunk is the 1-based index of the chunk being translated.
	Chunk int
	Err   error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("translating chunk %d: %v", e.Chunk, e.Err)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code reported by the backend, or 0 when the
// request failed before a response arrived.
func (e *RemoteCallError) HTTPStatus() int {
	var sc interface{ HTTPStatus() int }
	if errors.As(e.Err, &sc) {
		return sc.HTTPStatus()
	}
	return 0
}

// Hints returns operator guidance for a failed run. It returns nil for
// errors that did not come from the remote model.
func Hints(err error) []string {
	var rce *RemoteCallError
	if !errors.As(err, &rce) {
		return nil
	}

	oversized := i18n.T("If the status code is 400, the file exceeds the token limit without line breaks.\nPlease split overly long paragraphs as appropriate.")
	noAccess := i18n.T("If the status code is 404, you do not have access to the model.")

	switch rce.HTTPStatus() {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return []string{oversized}
	case http.StatusNotFound, http.StatusForbidden:
		return []string{noAccess}
	default:
		return []string{oversized, noAccess}
	}
}
