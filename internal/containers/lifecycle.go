package containers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/EternisAI/dockpanel/internal/daemon"
	"github.com/docker/docker/api/types/container"
)

const FullIDLength = 64

var (
	ErrInvalidID = errors.New("invalid container identifier")
	ErrShortID   = fmt.Errorf("%w: hex ids must be the full 64 characters", ErrInvalidID)
)

var (
	hexID   = regexp.MustCompile(`^[0-9a-f]+$`)
	nameRef = regexp.MustCompile(`^/?[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)
)

type Action string

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
)

// Past is the verb used in success messages.
func (a Action) Past() string {
	switch a {
	case ActionStart:
		return "started"
	case ActionStop:
		return "stopped"
	case ActionRestart:
		return "restarted"
	default:
		return string(a)
	}
}

type Starter interface {
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRestart(ctx context.Context, containerID string, options container.StopOptions) error
}

// Controller forwards lifecycle commands to the daemon, one call per
// command and no retries.
type Controller struct {
	client Starter
}

func NewController(client Starter) *Controller {
	return &Controller{client: client}
}

// ValidateID accepts a full 64-character id or a container name. Hex strings
// shorter than a full id are rejected: they are display ids, and the daemon
// would resolve them by prefix.
func ValidateID(ref string) error {
	switch {
	case ref == "":
		return ErrInvalidID
	case hexID.MatchString(ref):
		if len(ref) != FullIDLength {
			return ErrShortID
		}
		return nil
	case nameRef.MatchString(ref):
		return nil
	default:
		return ErrInvalidID
	}
}

func (c *Controller) Start(ctx context.Context, id string) error {
	return c.Do(ctx, ActionStart, id)
}

func (c *Controller) Stop(ctx context.Context, id string) error {
	return c.Do(ctx, ActionStop, id)
}

func (c *Controller) Restart(ctx context.Context, id string) error {
	return c.Do(ctx, ActionRestart, id)
}

// Do validates the id and issues exactly one daemon call for the action.
func (c *Controller) Do(ctx context.Context, action Action, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	var err error
	switch action {
	case ActionStart:
		err = c.client.ContainerStart(ctx, id, container.StartOptions{})
	case ActionStop:
		err = c.client.ContainerStop(ctx, id, container.StopOptions{})
	case ActionRestart:
		err = c.client.ContainerRestart(ctx, id, container.StopOptions{})
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	if err != nil {
		return &daemon.Error{Op: fmt.Sprintf("%s container %s", action, id), Err: err}
	}

	slog.Info("Container lifecycle command sent", "action", action, "container_id", id)
	return nil
}
