// Package scope resolves query scope descriptors to a concrete scope
// kind and carries the request-shaping filter sets attached to them.
package scope

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hargabyte/capreport/internal/platform"
)

// ErrUnresolved is returned when no scope kind matches a descriptor
// and stop-on-error is requested.
var ErrUnresolved = errors.New("scope is not of a valid type")

// Type is the kind of entity set a query runs against.
type Type string

const (
	TypeMarket Type = "market"
	TypeEntity Type = "entity"
	TypeGroup  Type = "group"
	TypeTarget Type = "target"

	// TypeUnresolved is the sentinel for a descriptor no probe matched.
	TypeUnresolved Type = ""
)

// ParseType parses a scope type from configuration text.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeMarket:
		return TypeMarket, nil
	case TypeEntity:
		return TypeEntity, nil
	case TypeGroup:
		return TypeGroup, nil
	case TypeTarget:
		return TypeTarget, nil
	default:
		return TypeUnresolved, fmt.Errorf("unknown scope type %q (expected market, entity, group, or target)", s)
	}
}

// Descriptor is a scope reference as written in a report definition.
// Type may be omitted, in which case it is probed.
type Descriptor struct {
	ID      string         `yaml:"id"`
	Type    string         `yaml:"type,omitempty"`
	Filters map[string]any `yaml:"filters,omitempty"`
}

// Scope is a resolved query target.
type Scope struct {
	UUID string
	Type Type
}

// Prober is the subset of the platform connection used for scope type
// discovery.
type Prober interface {
	GetMarket(ctx context.Context, uuid string) (platform.Record, error)
	GetEntity(ctx context.Context, uuid string) (platform.Record, error)
	GetGroup(ctx context.Context, uuid string) (platform.Record, error)
	GetTarget(ctx context.Context, uuid string) (platform.Record, error)
}

// Resolve determines the scope kind for a descriptor. A declared type
// is taken at face value. Otherwise each kind is probed in the fixed
// order market, entity, group, target, and the first existence check
// that succeeds wins; 4xx validation responses mean "not this kind"
// and move on to the next probe. The probe order matters if the
// platform ever reuses an id across kinds.
//
// When nothing matches the result carries TypeUnresolved; with
// stopOnError set this becomes ErrUnresolved instead.
func Resolve(ctx context.Context, conn Prober, desc Descriptor, stopOnError bool) (Scope, error) {
	s := Scope{UUID: desc.ID}

	if desc.Type != "" {
		t, err := ParseType(desc.Type)
		if err != nil {
			return s, err
		}
		s.Type = t
		return s, nil
	}

	probes := []struct {
		t  Type
		fn func(context.Context, string) (platform.Record, error)
	}{
		{TypeMarket, conn.GetMarket},
		{TypeEntity, conn.GetEntity},
		{TypeGroup, conn.GetGroup},
		{TypeTarget, conn.GetTarget},
	}

	for _, probe := range probes {
		rec, err := probe.fn(ctx, desc.ID)
		if err != nil {
			var serr *platform.StatusError
			if errors.As(err, &serr) && serr.IsClientError() {
				continue
			}
			return s, err
		}
		if rec != nil {
			s.Type = probe.t
			return s, nil
		}
	}

	if stopOnError {
		return s, fmt.Errorf("%w: %s", ErrUnresolved, desc.ID)
	}
	return s, nil
}
