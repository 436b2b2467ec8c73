package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vietdv277/vpcctl/internal/executor"
	"github.com/vietdv277/vpcctl/internal/netstate"
	"github.com/vietdv277/vpcctl/internal/store"
	"github.com/vietdv277/vpcctl/internal/testutil"
	"github.com/vietdv277/vpcctl/internal/vpc"
	"github.com/vietdv277/vpcctl/pkg/provider"
	"github.com/vietdv277/vpcctl/pkg/types"
)

type mockProber struct {
	mock.Mock
}

func (m *mockProber) Probe(ctx context.Context, address string) error {
	return m.Called(address).Error(0)
}

type fixture struct {
	host    *testutil.FakeHost
	store   *store.Store
	manager *vpc.Manager
	exec    executor.Executor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	host := testutil.NewFakeHost()
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	exec := executor.New(host, nil)
	return &fixture{
		host:    host,
		store:   st,
		manager: vpc.NewManager(exec, st),
		exec:    exec,
	}
}

func (f *fixture) engine(opts ...Option) *Engine {
	return NewEngine(f.exec, f.store, netstate.NewExecInspector(f.exec), opts...)
}

func TestDiagnoseOrphaned(t *testing.T) {
	f := newFixture(t)
	f.host.AddNamespace("dev-web")
	f.host.AddBridge("vpc-dev")
	f.host.AddBridge("docker0")

	d, err := f.engine().Diagnose(context.Background(), DiagnoseOptions{})
	require.NoError(t, err)
	assert.True(t, d.Orphaned)
	assert.True(t, d.HasDrift())
	assert.Equal(t, []string{"dev-web"}, d.Namespaces)
	assert.Equal(t, []string{"vpc-dev"}, d.Bridges)
	assert.Empty(t, d.Records)
	assert.ElementsMatch(t, []types.Finding{
		{VPC: "dev", Resource: "dev-web", Kind: types.FindingUnrecordedNamespace},
		{VPC: "dev", Resource: "vpc-dev", Kind: types.FindingUnrecordedBridge},
	}, d.Findings)
}

func TestDiagnoseCleanHost(t *testing.T) {
	f := newFixture(t)
	d, err := f.engine().Diagnose(context.Background(), DiagnoseOptions{})
	require.NoError(t, err)
	assert.False(t, d.Orphaned)
	assert.False(t, d.HasDrift())
}

func TestDiagnoseMissingResources(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Create(ctx, "vpc1", "10.5.0.0/16")
	require.NoError(t, err)
	_, err = f.manager.AddSubnet(ctx, "vpc1", "web", "10.5.1.0/24", "public")
	require.NoError(t, err)
	_, _, _, err = f.host.Run(ctx, []string{"ip", "netns", "del", "vpc1-web"})
	require.NoError(t, err)

	d, err := f.engine().Diagnose(ctx, DiagnoseOptions{})
	require.NoError(t, err)
	assert.False(t, d.Orphaned)
	assert.Equal(t, []string{"vpc1"}, d.Records)
	assert.Equal(t, []types.Finding{
		{VPC: "vpc1", Resource: "vpc1-web", Kind: types.FindingMissingNamespace},
	}, d.Findings)
}

func TestDiagnoseProbe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Create(ctx, "vpc1", "10.5.0.0/16")
	require.NoError(t, err)
	_, err = f.manager.AddSubnet(ctx, "vpc1", "db", "10.5.2.0/24", "private")
	require.NoError(t, err)
	_, err = f.manager.AddSubnet(ctx, "vpc1", "web", "10.5.1.0/24", "public")
	require.NoError(t, err)

	p := new(mockProber)
	p.On("Probe", "10.5.1.1").Return(nil).Once()
	p.On("Probe", "10.5.2.1").Return(errors.New("no reply from 10.5.2.1")).Once()

	d, err := f.engine(WithProber(p)).Diagnose(ctx, DiagnoseOptions{Probe: true})
	require.NoError(t, err)
	assert.Equal(t, []types.ProbeResult{
		{VPC: "vpc1", Subnet: "db", Address: "10.5.2.1", Error: "no reply from 10.5.2.1"},
		{VPC: "vpc1", Subnet: "web", Address: "10.5.1.1", Reachable: true},
	}, d.Probes)
	p.AssertExpectations(t)

	_, err = f.engine().Diagnose(ctx, DiagnoseOptions{Probe: true})
	assert.Error(t, err)
}

func TestCleanupOrphans(t *testing.T) {
	f := newFixture(t)
	for _, ns := range []string{"dev-public", "dev-private1", "prod-web", "other"} {
		f.host.AddNamespace(ns)
	}
	f.host.AddBridge("vpc-dev")
	f.host.AddBridge("br0")

	res, err := f.engine().CleanupOrphans(context.Background(), CleanupOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"dev-private1", "dev-public"}, res.Namespaces)
	assert.Equal(t, []string{"vpc-dev"}, res.Bridges)

	assert.False(t, f.host.HasNamespace("dev-public"))
	assert.False(t, f.host.HasNamespace("dev-private1"))
	assert.True(t, f.host.HasNamespace("prod-web"))
	assert.True(t, f.host.HasNamespace("other"))
	assert.False(t, f.host.HasLink("", "vpc-dev"))
	assert.True(t, f.host.HasLink("", "br0"))
}

func TestCleanupOrphansToleratesFailures(t *testing.T) {
	f := newFixture(t)
	f.host.AddNamespace("dev-public")
	f.host.AddBridge("vpc-dev")
	f.host.FailOn("ip netns del", "Device or resource busy")
	f.host.FailOn("ip link del", "Operation not permitted")

	res, err := f.engine().CleanupOrphans(context.Background(), CleanupOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Namespaces, 1)
	assert.Len(t, res.Bridges, 1)
}

func TestCleanupOrphansSkipRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Create(ctx, "dev", "10.0.0.0/16")
	require.NoError(t, err)
	_, err = f.manager.AddSubnet(ctx, "dev", "public", "10.0.1.0/24", "public")
	require.NoError(t, err)
	f.host.AddNamespace("stale-private")
	f.host.AddBridge("vpc-stale")

	res, err := f.engine().CleanupOrphans(ctx, CleanupOptions{SkipRecorded: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"stale-private"}, res.Namespaces)
	assert.Equal(t, []string{"vpc-stale"}, res.Bridges)
	assert.True(t, f.host.HasNamespace("dev-public"))
	assert.True(t, f.host.HasLink("", "vpc-dev"))
}

func TestRecover(t *testing.T) {
	f := newFixture(t)
	for _, ns := range []string{"dev-public", "dev-private", "lonely", "prod-web-public"} {
		f.host.AddNamespace(ns)
	}

	recovered, err := f.engine().Recover(context.Background(), RecoverOptions{})
	require.NoError(t, err)
	require.Len(t, recovered, 2)

	dev, err := f.store.Load("dev")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/16", dev.CIDR)
	assert.Equal(t, "vpc-dev", dev.Bridge)
	assert.Equal(t, &types.Subnet{
		CIDR: "10.0.1.0/24", Type: types.SubnetPrivate, Namespace: "dev-private",
		VethHost: dev.Subnets["private"].VethHost, IP: "10.0.1.1/24",
	}, dev.Subnets["private"])
	assert.Equal(t, "10.0.2.0/24", dev.Subnets["public"].CIDR)
	assert.Equal(t, types.SubnetPublic, dev.Subnets["public"].Type)

	prod, err := f.store.Load("prod")
	require.NoError(t, err)
	assert.Equal(t, "10.1.0.0/16", prod.CIDR)
	assert.Equal(t, types.SubnetPublic, prod.Subnets["web-public"].Type)

	exists, err := f.store.Exists("lonely")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRecoverWarnsForUnknownNames(t *testing.T) {
	f := newFixture(t)
	f.host.AddNamespace("staging-web")

	core, logs := observer.New(zapcore.WarnLevel)
	recovered, err := f.engine(WithLogger(zap.New(core))).Recover(context.Background(), RecoverOptions{})
	require.NoError(t, err)
	require.Len(t, recovered, 1)

	entries := logs.FilterMessage("recovered addressing is approximate").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "staging", entries[0].ContextMap()["vpc"])

	again, err := newFixture(t).engine().Recover(context.Background(), RecoverOptions{})
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestRecoverIsDeterministic(t *testing.T) {
	run := func() string {
		f := newFixture(t)
		f.host.AddNamespace("staging-web")
		recovered, err := f.engine().Recover(context.Background(), RecoverOptions{})
		require.NoError(t, err)
		require.Len(t, recovered, 1)
		return recovered[0].CIDR
	}
	assert.Equal(t, run(), run())
}

func TestRecoverKeepsExistingRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Create(ctx, "dev", "10.50.0.0/16")
	require.NoError(t, err)
	f.host.AddNamespace("dev-public")

	recovered, err := f.engine().Recover(ctx, RecoverOptions{})
	require.NoError(t, err)
	assert.Empty(t, recovered)
	dev, err := f.store.Load("dev")
	require.NoError(t, err)
	assert.Equal(t, "10.50.0.0/16", dev.CIDR)

	recovered, err = f.engine().Recover(ctx, RecoverOptions{Force: true})
	require.NoError(t, err)
	require.Len(t, recovered, 1)
	dev, err = f.store.Load("dev")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/16", dev.CIDR)
}

func TestFixConnectivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Create(ctx, "vpc1", "10.5.0.0/16")
	require.NoError(t, err)
	_, err = f.manager.AddSubnet(ctx, "vpc1", "web", "10.5.1.0/24", "public")
	require.NoError(t, err)
	_, _, _, err = f.host.Run(ctx, []string{"ip", "netns", "del", "vpc1-web"})
	require.NoError(t, err)

	require.NoError(t, f.engine().FixConnectivity(ctx, "vpc1"))
	assert.True(t, f.host.HasNamespace("vpc1-web"))
	assert.True(t, f.host.HasAddr("vpc1-web", "eth0", "10.5.1.1/24"))
	assert.True(t, f.host.HasRoute("vpc1-web", "default"))
	assert.True(t, f.host.HasRoute("", "10.5.1.0/24"))

	// second run only hits tolerated failures
	require.NoError(t, f.engine().FixConnectivity(ctx, "vpc1"))
}

func TestFixConnectivityUnknownVPC(t *testing.T) {
	f := newFixture(t)
	err := f.engine().FixConnectivity(context.Background(), "ghost")
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestFixConnectivityRejectsInvalidName(t *testing.T) {
	f := newFixture(t)
	err := f.engine().FixConnectivity(context.Background(), "../state")
	assert.ErrorIs(t, err, provider.ErrInvalidName)
	assert.Empty(t, f.host.Calls())
}
