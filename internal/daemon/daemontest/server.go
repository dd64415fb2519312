// Package daemontest provides an in-process fake of the container runtime
// daemon's HTTP API, small enough to drive the real docker client in tests.
package daemontest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
)

const APIVersion = "1.43"

const (
	StateRunning = "running"
	StateExited  = "exited"
	StateCreated = "created"
)

type Container struct {
	ID      string            `json:"Id"`
	Names   []string          `json:"Names"`
	Image   string            `json:"Image"`
	State   string            `json:"State"`
	Status  string            `json:"Status"`
	Created int64             `json:"Created"`
	Labels  map[string]string `json:"Labels"`
}

type Info struct {
	ID                string `json:"ID"`
	Name              string `json:"Name"`
	ServerVersion     string `json:"ServerVersion"`
	OperatingSystem   string `json:"OperatingSystem"`
	Containers        int    `json:"Containers"`
	ContainersRunning int    `json:"ContainersRunning"`
	ContainersStopped int    `json:"ContainersStopped"`
}

var (
	versionPrefix = regexp.MustCompile(`^/v[0-9.]+`)
	actionPath    = regexp.MustCompile(`^/containers/([^/]+)/(start|stop|restart)$`)
)

// Server is a stateful fake daemon. Lifecycle calls change the state that
// later list calls report.
type Server struct {
	srv *httptest.Server

	mu         sync.Mutex
	containers []*Container
	calls      []string
	failStatus int
	failMsg    string
}

func NewServer(containers ...Container) *Server {
	s := &Server{}
	for i := range containers {
		c := containers[i]
		if c.Status == "" {
			c.Status = statusFor(c.State)
		}
		s.containers = append(s.containers, &c)
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// ID derives a deterministic 64-character container id from a seed.
func ID(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// Host returns the daemon address in the form the connector expects.
func (s *Server) Host() string {
	return "tcp://" + strings.TrimPrefix(s.srv.URL, "http://")
}

func (s *Server) Close() {
	s.srv.Close()
}

// Calls lists the non-ping requests served, as "METHOD /path" without the
// API version prefix.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// FailWith makes every subsequent non-ping request answer with the given
// status and message. A zero status restores normal behavior.
func (s *Server) FailWith(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
	s.failMsg = message
}

// State returns the current state of the container with the given id.
func (s *Server) State(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.lookup(id); c != nil {
		return c.State
	}
	return ""
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	path := versionPrefix.ReplaceAllString(r.URL.Path, "")

	if path == "/_ping" {
		w.Header().Set("Api-Version", APIVersion)
		w.Header().Set("Ostype", "linux")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write([]byte("OK"))
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, r.Method+" "+path)

	if s.failStatus != 0 {
		writeError(w, s.failStatus, s.failMsg)
		return
	}

	switch {
	case r.Method == http.MethodGet && path == "/info":
		s.writeInfo(w)
	case r.Method == http.MethodGet && path == "/containers/json":
		all := r.URL.Query().Get("all")
		s.writeList(w, all == "1" || all == "true")
	case r.Method == http.MethodPost && actionPath.MatchString(path):
		m := actionPath.FindStringSubmatch(path)
		s.act(w, m[1], m[2])
	default:
		writeError(w, http.StatusNotFound, "page not found")
	}
}

func (s *Server) writeInfo(w http.ResponseWriter) {
	info := Info{
		ID:              "FAKE:DAEMON",
		Name:            "daemontest",
		ServerVersion:   "28.5.1",
		OperatingSystem: "fake",
		Containers:      len(s.containers),
	}
	for _, c := range s.containers {
		if c.State == StateRunning {
			info.ContainersRunning++
		} else {
			info.ContainersStopped++
		}
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) writeList(w http.ResponseWriter, all bool) {
	out := make([]Container, 0, len(s.containers))
	for _, c := range s.containers {
		if !all && c.State != StateRunning {
			continue
		}
		out = append(out, *c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) act(w http.ResponseWriter, ref, action string) {
	c := s.lookup(ref)
	if c == nil {
		writeError(w, http.StatusNotFound, "No such container: "+ref)
		return
	}

	switch action {
	case "start":
		if c.State == StateRunning {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		c.State = StateRunning
	case "stop":
		if c.State != StateRunning {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		c.State = StateExited
	case "restart":
		c.State = StateRunning
	}
	c.Status = statusFor(c.State)
	w.WriteHeader(http.StatusNoContent)
}

// lookup resolves a full id, a name or a unique id prefix, as the daemon does.
func (s *Server) lookup(ref string) *Container {
	var prefixed []*Container
	for _, c := range s.containers {
		if c.ID == ref {
			return c
		}
		for _, name := range c.Names {
			if strings.TrimPrefix(name, "/") == strings.TrimPrefix(ref, "/") {
				return c
			}
		}
		if strings.HasPrefix(c.ID, ref) {
			prefixed = append(prefixed, c)
		}
	}
	if len(prefixed) == 1 {
		return prefixed[0]
	}
	return nil
}

func statusFor(state string) string {
	switch state {
	case StateRunning:
		return "Up Less than a second"
	case StateExited:
		return "Exited (0) Less than a second ago"
	default:
		return "Created"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
