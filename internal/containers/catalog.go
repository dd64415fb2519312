package containers

import (
	"cmp"
	"context"
	"slices"

	"github.com/EternisAI/dockpanel/internal/daemon"
	"github.com/docker/docker/api/types/container"
)

const (
	// ProjectLabel is set by compose on every container it creates.
	ProjectLabel   = "com.docker.compose.project"
	UnknownService = "Unknown"
	ShortIDLength  = 12
)

// Lister is the part of the daemon client the catalog needs.
type Lister interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

// Record is a container as the daemon reported it, plus derived display
// fields. ID is always the full id.
type Record struct {
	ID      string
	ShortID string
	Names   []string
	Image   string
	State   string
	Status  string
	Created int64
	Service string
}

// Catalog lists containers. It keeps no state between calls.
type Catalog struct {
	client Lister
}

func NewCatalog(client Lister) *Catalog {
	return &Catalog{client: client}
}

// List returns every container, stopped ones included, newest first. Ties on
// creation time are ordered by id.
func (c *Catalog) List(ctx context.Context) ([]Record, error) {
	summaries, err := c.client.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, &daemon.Error{Op: "list containers", Err: err}
	}

	records := make([]Record, 0, len(summaries))
	for _, s := range summaries {
		records = append(records, toRecord(s))
	}

	slices.SortStableFunc(records, func(a, b Record) int {
		if n := cmp.Compare(b.Created, a.Created); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return records, nil
}

func toRecord(s container.Summary) Record {
	names := s.Names
	if names == nil {
		names = []string{}
	}
	return Record{
		ID:      s.ID,
		ShortID: ShortID(s.ID),
		Names:   names,
		Image:   s.Image,
		State:   string(s.State),
		Status:  s.Status,
		Created: s.Created,
		Service: ServiceLabel(s.Labels),
	}
}

// ServiceLabel returns the compose project a container belongs to, or
// UnknownService when it was not started by compose.
func ServiceLabel(labels map[string]string) string {
	if v, ok := labels[ProjectLabel]; ok {
		return v
	}
	return UnknownService
}

// ShortID is the display form of an id. It is never used to address a
// container.
func ShortID(id string) string {
	if len(id) <= ShortIDLength {
		return id
	}
	return id[:ShortIDLength]
}
