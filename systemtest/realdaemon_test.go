package systemtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/EternisAI/dockpanel/internal/containers"
	"github.com/EternisAI/dockpanel/internal/daemon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

// TestRealDaemonRoundTrip drives the catalog and controller against the
// local daemon. It needs a working Docker environment.
func TestRealDaemonRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping real daemon test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:  "alpine:3.20",
			Cmd:    []string{"sleep", "300"},
			Labels: map[string]string{containers.ProjectLabel: "dockpanel-systemtest"},
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	id := ctr.GetContainerID()

	handle, err := daemon.Connect(daemon.Config{Host: os.Getenv("DOCKER_HOST")})
	require.NoError(t, err)
	defer handle.Close()

	catalog := containers.NewCatalog(handle)
	controller := containers.NewController(handle)

	stateOf := func() containers.Record {
		records, err := catalog.List(ctx)
		require.NoError(t, err)
		for _, r := range records {
			if r.ID == id {
				return r
			}
		}
		t.Fatalf("container %s not listed", id)
		return containers.Record{}
	}

	running := stateOf()
	assert.Equal(t, "running", running.State)
	assert.Equal(t, "dockpanel-systemtest", running.Service)
	assert.Equal(t, id[:12], running.ShortID)

	require.NoError(t, controller.Stop(ctx, id))
	assert.Equal(t, "exited", stateOf().State)

	require.NoError(t, controller.Start(ctx, id))
	assert.Equal(t, "running", stateOf().State)

	err = controller.Start(ctx, id)
	require.Error(t, err)
	assert.Equal(t, daemon.KindConflict, daemon.Classify(err))

	err = controller.Restart(ctx, "dockpanel-does-not-exist")
	require.Error(t, err)
	assert.Equal(t, daemon.KindNotFound, daemon.Classify(err))
}
