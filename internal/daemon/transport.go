package daemon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/docker/docker/api/types"
)

var statePath = regexp.MustCompile(`^(?:/v[0-9.]+)?/containers/([^/]+)/(start|stop)$`)

// stateTransport surfaces the daemon's 304 on start and stop. The client
// treats 304 as success, so the reply is rewritten to a 409 carrying a JSON
// message and goes through the client's usual error path.
type stateTransport struct {
	base http.RoundTripper
}

func (t *stateTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusNotModified || req.Method != http.MethodPost {
		return resp, err
	}
	m := statePath.FindStringSubmatch(req.URL.Path)
	if m == nil {
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	body, err := json.Marshal(types.ErrorResponse{Message: alreadyMessage(m[1], m[2])})
	if err != nil {
		return nil, err
	}

	resp.StatusCode = http.StatusConflict
	resp.Status = fmt.Sprintf("%d %s", http.StatusConflict, http.StatusText(http.StatusConflict))
	resp.Header = resp.Header.Clone()
	if resp.Header == nil {
		resp.Header = http.Header{}
	}
	resp.Header.Set("Content-Type", "application/json")
	resp.Header.Del("Content-Length")
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

func alreadyMessage(ref, action string) string {
	if action == "start" {
		return fmt.Sprintf("container %s is already started", ref)
	}
	return fmt.Sprintf("container %s is already stopped", ref)
}
