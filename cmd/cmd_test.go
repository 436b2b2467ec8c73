package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietdv277/vpcctl/internal/store"
	"github.com/vietdv277/vpcctl/pkg/types"
)

func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	base := []string{"--config", filepath.Join(dir, "config.yaml"), "--state-dir", dir}
	rootCmd.SetArgs(append(base, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestListEmpty(t *testing.T) {
	out, err := execute(t, t.TempDir(), "--output", "json", "list")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestShowRecord(t *testing.T) {
	dir := t.TempDir()
	st, err := store.New(dir)
	require.NoError(t, err)
	v := types.NewVPC("dev", "10.0.0.0/16")
	v.Subnets["web"] = &types.Subnet{CIDR: "10.0.1.0/24", Type: "public", Namespace: "dev-web", VethHost: "vh1", IP: "10.0.1.1/24"}
	require.NoError(t, st.Save(v))

	out, err := execute(t, dir, "--output", "yaml", "show", "dev")
	require.NoError(t, err)
	assert.Contains(t, out, "name: dev")
	assert.Contains(t, out, "namespace: dev-web")

	out, err = execute(t, dir, "--output", "table", "show", "dev")
	require.NoError(t, err)
	assert.Contains(t, out, "vpc-dev")
	assert.Contains(t, out, "10.0.1.1/24")
}

func TestShowMissingRecord(t *testing.T) {
	_, err := execute(t, t.TempDir(), "--output", "table", "show", "ghost")
	assert.Error(t, err)
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, t.TempDir(), "--output", "table", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestInvalidOutput(t *testing.T) {
	_, err := execute(t, t.TempDir(), "--output", "xml", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, t.TempDir(), "--output", "table", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")
}

func TestConfigPrintsSettings(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, "--output", "table", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "state_dir: "+dir)
	assert.Contains(t, out, "nat_interface: eth0")
}
