// Package store persists VPC records as one JSON file per VPC.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vietdv277/vpcctl/pkg/provider"
	"github.com/vietdv277/vpcctl/pkg/types"
)

const recordExt = ".json"

// Store keeps records under a single directory
type Store struct {
	dir string
}

var _ provider.RecordStore = (*Store)(nil)

// New returns a store rooted at dir, creating the directory if needed
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("state directory is not set")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the state directory
func (s *Store) Dir() string {
	return s.dir
}

// path maps a record name to its file. Names that could escape the state
// directory are rejected.
func (s *Store) path(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: VPC name %q is not a valid record name", provider.ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name+recordExt), nil
}

// Save overwrites the record for vpc.Name
func (s *Store) Save(vpc *types.VPC) error {
	if vpc == nil || vpc.Name == "" {
		return errors.New("cannot save a VPC without a name")
	}
	dst, err := s.path(vpc.Name)
	if err != nil {
		return err
	}
	if vpc.Subnets == nil {
		vpc.Subnets = make(map[string]*types.Subnet)
	}

	data, err := json.MarshalIndent(vpc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal VPC %s: %w", vpc.Name, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+vpc.Name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write VPC %s: %w", vpc.Name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write VPC %s: %w", vpc.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write VPC %s: %w", vpc.Name, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write VPC %s: %w", vpc.Name, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to write VPC %s: %w", vpc.Name, err)
	}
	return nil
}

// Load reads the record for name. The bridge is always derived from the name.
func (s *Store) Load(name string) (*types.VPC, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &provider.NotFoundError{Kind: "VPC", Name: name}
		}
		return nil, fmt.Errorf("failed to read VPC %s: %w", name, err)
	}

	var vpc types.VPC
	if err := json.Unmarshal(data, &vpc); err != nil {
		return nil, fmt.Errorf("failed to parse VPC %s: %w", name, err)
	}
	if vpc.Subnets == nil {
		vpc.Subnets = make(map[string]*types.Subnet)
	}
	if vpc.Name == "" {
		vpc.Name = name
	}
	if vpc.Name != name {
		return nil, fmt.Errorf("record %s holds VPC %q", name, vpc.Name)
	}
	vpc.Bridge = types.BridgeName(vpc.Name)
	return &vpc, nil
}

// List returns record names in lexical order
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list state directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || strings.HasPrefix(n, ".") || filepath.Ext(n) != recordExt {
			continue
		}
		names = append(names, strings.TrimSuffix(n, recordExt))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the record for name
func (s *Store) Delete(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete VPC %s: %w", name, err)
	}
	return nil
}

// Exists reports whether a record for name is present
func (s *Store) Exists(name string) (bool, error) {
	p, err := s.path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
