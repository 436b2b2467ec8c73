package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vietdv277/vpcctl/internal/config"
	"github.com/vietdv277/vpcctl/internal/executor"
	"github.com/vietdv277/vpcctl/internal/netstate"
	"github.com/vietdv277/vpcctl/internal/reconcile"
	"github.com/vietdv277/vpcctl/internal/store"
	"github.com/vietdv277/vpcctl/internal/vpc"
	"github.com/vietdv277/vpcctl/pkg/provider"
)

func newStore() (provider.RecordStore, error) {
	s, err := store.New(settings.StateDir)
	if err != nil {
		return nil, err
	}
	if settings.DryRun {
		return store.NewDryRun(s, logger.Named("store")), nil
	}
	return s, nil
}

func newExecutor() executor.Executor {
	var runner executor.Runner = executor.ExecRunner{}
	if settings.DryRun {
		runner = executor.DryRunRunner{}
	}
	return executor.New(runner, logger.Named("executor"))
}

func newManager() (*vpc.Manager, error) {
	st, err := newStore()
	if err != nil {
		return nil, err
	}

	opts := []vpc.Option{
		vpc.WithLogger(logger.Named("vpc")),
		vpc.WithNATInterface(settings.NATInterface),
	}
	// ip netns exec resolves the binary inside the namespace, so pass an absolute path
	if self, err := os.Executable(); err == nil {
		opts = append(opts, vpc.WithPayloadBinary(self))
	}
	return vpc.NewManager(newExecutor(), st, opts...), nil
}

func newEngine(probe bool) (*reconcile.Engine, error) {
	st, err := newStore()
	if err != nil {
		return nil, err
	}
	exec := newExecutor()
	inspector, err := netstate.NewInspector(settings.Inspector, exec)
	if err != nil {
		return nil, err
	}

	opts := []reconcile.Option{reconcile.WithLogger(logger.Named("reconcile"))}
	if probe {
		opts = append(opts, reconcile.WithProber(netstate.NewPingProber()))
	}
	return reconcile.NewEngine(exec, st, inspector, opts...), nil
}

// render writes data as JSON or YAML, or calls table for the default format
func render(w io.Writer, data any, table func(io.Writer)) error {
	switch settings.Output {
	case config.OutputJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return enc.Close()
	default:
		table(w)
		return nil
	}
}
