package provider

import (
	"context"
	"errors"

	"github.com/vietdv277/vpcctl/pkg/types"
)

// Common errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrSubnetNotFound = errors.New("subnet not found")
	ErrInvalidRange   = errors.New("invalid address range")
	ErrInvalidName    = errors.New("invalid name")
)

// RecordStore persists VPC records keyed by name
type RecordStore interface {
	// Save overwrites the whole record
	Save(vpc *types.VPC) error

	// Load returns the record or a *NotFoundError
	Load(name string) (*types.VPC, error)

	// List returns the names of all records
	List() ([]string, error)

	// Delete removes a record; a missing record is not an error
	Delete(name string) error

	// Exists reports whether a record is present
	Exists(name string) (bool, error)
}

// Inspector reports live host network resources
type Inspector interface {
	// Namespaces returns the names of live network namespaces
	Namespaces(ctx context.Context) ([]string, error)

	// Bridges returns the names of live bridge links
	Bridges(ctx context.Context) ([]string, error)
}

// Prober checks reachability of an address from the host
type Prober interface {
	Probe(ctx context.Context, address string) error
}
