package store

import (
	"go.uber.org/zap"

	"github.com/vietdv277/vpcctl/pkg/provider"
	"github.com/vietdv277/vpcctl/pkg/types"
)

// DryRun reads from an underlying store and discards writes
type DryRun struct {
	provider.RecordStore
	logger *zap.Logger
}

// NewDryRun wraps s so that Save and Delete only log
func NewDryRun(s provider.RecordStore, logger *zap.Logger) *DryRun {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DryRun{RecordStore: s, logger: logger}
}

// Save logs the record that would be written
func (d *DryRun) Save(vpc *types.VPC) error {
	d.logger.Info("dry run: skipping save", zap.String("vpc", vpc.Name))
	return nil
}

// Delete logs the record that would be removed
func (d *DryRun) Delete(name string) error {
	d.logger.Info("dry run: skipping delete", zap.String("vpc", name))
	return nil
}
