package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/docker/docker/client"
	"github.com/docker/go-connections/sockets"
)

const (
	DefaultHost          = "unix:///var/run/docker.sock"
	DefaultSocketTimeout = 120 * time.Second
	DefaultRemoteTimeout = 5 * time.Second
)

var ErrUnsupportedScheme = errors.New("unsupported daemon address scheme")

type Config struct {
	Host          string        `mapstructure:"host"`
	APIVersion    string        `mapstructure:"api_version"`
	SocketTimeout time.Duration `mapstructure:"socket_timeout"`
	RemoteTimeout time.Duration `mapstructure:"remote_timeout"`
}

// Endpoint is the resolved daemon address. It is computed once at startup
// and never changes afterwards.
type Endpoint struct {
	Host       string
	Scheme     string
	APIVersion string
	Timeout    time.Duration
	Local      bool
}

// ConnectionError is returned when a handle cannot be built for an address.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to daemon at %q: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ResolveEndpoint maps a configured address onto a daemon endpoint. Socket
// addresses (unix://, npipe:// or a bare absolute path) get the socket
// timeout; anything else is a remote HTTP host with the shorter remote timeout.
func ResolveEndpoint(cfg Config) (Endpoint, error) {
	address := strings.TrimSpace(cfg.Host)
	if address == "" {
		address = DefaultHost
	}

	socketTimeout := cfg.SocketTimeout
	if socketTimeout <= 0 {
		socketTimeout = DefaultSocketTimeout
	}
	remoteTimeout := cfg.RemoteTimeout
	if remoteTimeout <= 0 {
		remoteTimeout = DefaultRemoteTimeout
	}

	ep := Endpoint{APIVersion: cfg.APIVersion}

	switch {
	case strings.HasPrefix(address, "/"):
		address = "unix://" + address
		fallthrough
	case strings.HasPrefix(address, "unix://"), strings.HasPrefix(address, "npipe://"):
		_, path, _ := strings.Cut(address, "://")
		if path == "" {
			return Endpoint{}, &ConnectionError{Address: cfg.Host, Err: errors.New("empty socket path")}
		}
		ep.Host = address
		ep.Timeout = socketTimeout
		ep.Local = true
		return ep, nil
	}

	scheme := "http"
	hostPart := address
	if proto, rest, ok := strings.Cut(address, "://"); ok {
		switch proto {
		case "tcp", "http":
		case "https":
			scheme = "https"
		default:
			return Endpoint{}, &ConnectionError{Address: cfg.Host, Err: fmt.Errorf("%w: %s", ErrUnsupportedScheme, proto)}
		}
		hostPart = rest
	}

	u, err := url.Parse("tcp://" + hostPart)
	if err != nil || u.Host == "" {
		return Endpoint{}, &ConnectionError{Address: cfg.Host, Err: errors.New("missing host")}
	}

	ep.Host = "tcp://" + u.Host
	ep.Scheme = scheme
	ep.Timeout = remoteTimeout
	return ep, nil
}

// Handle is the process-wide daemon client. It is built once and shared by
// every request; the embedded client is safe for concurrent use.
type Handle struct {
	*client.Client
	endpoint  Endpoint
	transport *http.Transport
}

// Connect resolves the address and builds the shared handle. A broken
// handle is not re-dialed; callers see the failure on their next call.
func Connect(cfg Config) (*Handle, error) {
	ep, err := ResolveEndpoint(cfg)
	if err != nil {
		return nil, err
	}

	transport, err := newTransport(ep.Host)
	if err != nil {
		return nil, &ConnectionError{Address: ep.Host, Err: err}
	}

	// WithHTTPClient must follow WithHost, and WithTimeout must follow both.
	opts := []client.Opt{
		client.WithHost(ep.Host),
		client.WithHTTPClient(&http.Client{
			Transport:     &stateTransport{base: transport},
			CheckRedirect: client.CheckRedirect,
		}),
		client.WithTimeout(ep.Timeout),
	}
	if ep.Scheme == "https" {
		opts = append(opts, client.WithScheme("https"))
	}
	if ep.APIVersion != "" {
		opts = append(opts, client.WithVersion(ep.APIVersion))
	} else {
		opts = append(opts, client.WithAPIVersionNegotiation())
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, &ConnectionError{Address: ep.Host, Err: err}
	}

	slog.Info("Daemon handle ready",
		"host", ep.Host,
		"local", ep.Local,
		"timeout", ep.Timeout,
		"api_version", ep.APIVersion)

	return &Handle{Client: cli, endpoint: ep, transport: transport}, nil
}

func newTransport(host string) (*http.Transport, error) {
	u, err := client.ParseHostURL(host)
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{
		MaxIdleConns:    6,
		IdleConnTimeout: 30 * time.Second,
	}
	if err := sockets.ConfigureTransport(transport, u.Scheme, u.Host); err != nil {
		return nil, err
	}
	return transport, nil
}

// Close releases idle daemon connections.
func (h *Handle) Close() error {
	h.transport.CloseIdleConnections()
	return h.Client.Close()
}

func (h *Handle) Endpoint() Endpoint {
	return h.endpoint
}

// Probe pings the daemon and returns the API version it reports.
func (h *Handle) Probe(ctx context.Context) (string, error) {
	ping, err := h.Client.Ping(ctx)
	if err != nil {
		return "", err
	}
	return ping.APIVersion, nil
}
