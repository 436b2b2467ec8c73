package ipplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietdv277/vpcctl/pkg/provider"
)

func TestGatewayAddress(t *testing.T) {
	gw, err := GatewayAddress("10.0.0.0/16")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", gw.Addr().String())
	assert.Equal(t, "10.0.0.1/16", gw.String())

	gw, err = GatewayAddress("192.168.4.17/24")
	require.NoError(t, err)
	assert.Equal(t, "192.168.4.1/24", gw.String())
}

func TestSubnetInterfaceAddress(t *testing.T) {
	addr, err := SubnetInterfaceAddress("10.0.1.0/24")
	require.NoError(t, err)
	assert.Equal(t, "10.0.1.1/24", addr)

	addr, err = SubnetInterfaceAddress("10.5.1.0/24")
	require.NoError(t, err)
	assert.Equal(t, "10.5.1.1/24", addr)
}

func TestInvalidRanges(t *testing.T) {
	for _, in := range []string{"", "10.0.0.0", "10.0.0.0/33", "banana", "fd00::/64", "10.0.0.0/31", "10.0.0.1/32"} {
		t.Run(in, func(t *testing.T) {
			_, err := GatewayAddress(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, provider.ErrInvalidRange)

			var rangeErr *provider.InvalidRangeError
			require.ErrorAs(t, err, &rangeErr)
			assert.Equal(t, in, rangeErr.Input)

			_, err = SubnetInterfaceAddress(in)
			assert.ErrorIs(t, err, provider.ErrInvalidRange)
		})
	}
}

func TestPeerNextHop(t *testing.T) {
	hop, err := PeerNextHop("10.1.0.0/16")
	require.NoError(t, err)
	assert.Equal(t, "10.1.0.1", hop.String())

	hop, err = PeerNextHop("172.16.8.0/22")
	require.NoError(t, err)
	assert.Equal(t, "172.16.8.1", hop.String())
}

func TestContains(t *testing.T) {
	ok, err := Contains("10.0.0.0/16", "10.0.3.0/24")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Contains("10.0.0.0/16", "10.1.3.0/24")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Contains("10.0.0.0/24", "10.0.0.0/16")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecoveryRangeKnownNames(t *testing.T) {
	want := map[string]string{
		"dev":  "10.0.0.0/16",
		"prod": "10.1.0.0/16",
		"test": "10.2.0.0/16",
	}
	for name, cidr := range want {
		for i := 0; i < 3; i++ {
			got, exact := RecoveryRange(name)
			assert.Equal(t, cidr, got)
			assert.True(t, exact)
		}
	}
}

func TestRecoveryRangeIsStable(t *testing.T) {
	first, exact := RecoveryRange("staging")
	assert.False(t, exact)
	for i := 0; i < 5; i++ {
		got, _ := RecoveryRange("staging")
		assert.Equal(t, first, got)
	}
	_, err := ParseRange(first)
	assert.NoError(t, err)
}

func TestRecoverySubnet(t *testing.T) {
	got, err := RecoverySubnet("10.2.0.0/16", 1)
	require.NoError(t, err)
	assert.Equal(t, "10.2.1.0/24", got)

	got, err = RecoverySubnet("10.2.0.0/16", 3)
	require.NoError(t, err)
	assert.Equal(t, "10.2.3.0/24", got)

	_, err = RecoverySubnet("10.2.0.0/16", 0)
	assert.ErrorIs(t, err, provider.ErrInvalidRange)
}
