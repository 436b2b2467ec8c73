package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietdv277/vpcctl/pkg/provider"
	"github.com/vietdv277/vpcctl/pkg/types"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	return s
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	_, err := New(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newStore(t)

	vpc := types.NewVPC("vpc1", "10.5.0.0/16")
	vpc.Subnets["web"] = &types.Subnet{
		CIDR:      "10.5.1.0/24",
		Type:      types.SubnetPublic,
		Namespace: "vpc1-web",
		VethHost:  "vh0123abcd",
		IP:        "10.5.1.1/24",
	}
	vpc.Subnets["db"] = &types.Subnet{
		CIDR:      "10.5.2.0/24",
		Type:      types.SubnetPrivate,
		Namespace: "vpc1-db",
		VethHost:  "vh4567ef01",
		IP:        "10.5.2.1/24",
	}
	vpc.NATInterface = "eth0"
	vpc.Peers = []string{"vpc2"}

	require.NoError(t, s.Save(vpc))

	loaded, err := s.Load("vpc1")
	require.NoError(t, err)
	assert.Equal(t, vpc, loaded)
}

func TestSaveWritesDocumentedFormat(t *testing.T) {
	s := newStore(t)
	vpc := types.NewVPC("vpc1", "10.5.0.0/16")
	require.NoError(t, s.Save(vpc))

	data, err := os.ReadFile(filepath.Join(s.Dir(), "vpc1.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"vpc1","cidr":"10.5.0.0/16","bridge":"vpc-vpc1","subnets":{}}`, string(data))
}

func TestSaveOverwrites(t *testing.T) {
	s := newStore(t)
	vpc := types.NewVPC("vpc1", "10.5.0.0/16")
	vpc.Subnets["web"] = &types.Subnet{CIDR: "10.5.1.0/24"}
	require.NoError(t, s.Save(vpc))

	require.NoError(t, s.Save(types.NewVPC("vpc1", "10.6.0.0/16")))

	loaded, err := s.Load("vpc1")
	require.NoError(t, err)
	assert.Equal(t, "10.6.0.0/16", loaded.CIDR)
	assert.Empty(t, loaded.Subnets)
}

func TestLoadMissing(t *testing.T) {
	s := newStore(t)

	_, err := s.Load("ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrNotFound)

	var nf *provider.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost", nf.Name)
}

func TestLoadLegacyRecordWithoutOptionalFields(t *testing.T) {
	s := newStore(t)
	legacy := `{"name":"old","cidr":"10.9.0.0/16","bridge":"vpc-old","subnets":{"public":{"cidr":"10.9.1.0/24","type":"public","namespace":"old-public","veth_host":"veth-public","ip":"10.9.1.1/24"}}}`
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "old.json"), []byte(legacy), 0644))

	vpc, err := s.Load("old")
	require.NoError(t, err)
	assert.Equal(t, "veth-public", vpc.Subnets["public"].VethHost)
	assert.Empty(t, vpc.NATInterface)
	assert.Empty(t, vpc.Peers)
}

func TestListAndDelete(t *testing.T) {
	s := newStore(t)

	names, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, n := range []string{"prod", "dev", "test"} {
		require.NoError(t, s.Save(types.NewVPC(n, "10.0.0.0/16")))
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "config.yaml"), []byte("log_level: info\n"), 0644))

	names, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"dev", "prod", "test"}, names)

	require.NoError(t, s.Delete("prod"))
	require.NoError(t, s.Delete("prod"))

	ok, err := s.Exists("prod")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Exists("dev")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Load("prod")
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestRejectsNamesOutsideStateDir(t *testing.T) {
	s := newStore(t)
	outside := filepath.Join(filepath.Dir(s.Dir()), "outside.json")
	require.NoError(t, os.WriteFile(outside, []byte(`{"name":"outside","cidr":"10.0.0.0/16","bridge":"eth0"}`), 0644))

	for _, name := range []string{"../outside", "a/b", ".hidden", "..", ""} {
		_, err := s.Load(name)
		assert.ErrorIs(t, err, provider.ErrInvalidName, name)
		assert.ErrorIs(t, s.Delete(name), provider.ErrInvalidName, name)
		_, err = s.Exists(name)
		assert.ErrorIs(t, err, provider.ErrInvalidName, name)
	}
	assert.ErrorIs(t, s.Save(types.NewVPC("../outside", "10.0.0.0/16")), provider.ErrInvalidName)

	_, err := os.Stat(outside)
	assert.NoError(t, err)
}

func TestLoadDerivesBridgeFromName(t *testing.T) {
	s := newStore(t)
	record := `{"name":"vpc1","cidr":"10.5.0.0/16","bridge":"eth0","subnets":{}}`
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "vpc1.json"), []byte(record), 0644))

	vpc, err := s.Load("vpc1")
	require.NoError(t, err)
	assert.Equal(t, "vpc-vpc1", vpc.Bridge)
}

func TestLoadRejectsMismatchedName(t *testing.T) {
	s := newStore(t)
	record := `{"name":"other","cidr":"10.5.0.0/16","bridge":"vpc-other","subnets":{}}`
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "vpc1.json"), []byte(record), 0644))

	_, err := s.Load("vpc1")
	assert.Error(t, err)
}
