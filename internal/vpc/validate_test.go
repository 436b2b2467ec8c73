package vpc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vietdv277/vpcctl/pkg/provider"
)

func TestValidateVPCName(t *testing.T) {
	for _, name := range []string{"dev", "vpc1", "a_b", "abcdefghijk"} {
		assert.NoError(t, ValidateVPCName(name), name)
	}
	for _, name := range []string{"", "Dev", "a-b", "_a", "abcdefghijkl", "a b"} {
		assert.ErrorIs(t, ValidateVPCName(name), provider.ErrInvalidName, name)
	}
}

func TestValidateSubnetName(t *testing.T) {
	assert.NoError(t, ValidateSubnetName("web-1"))
	assert.ErrorIs(t, ValidateSubnetName("-web"), provider.ErrInvalidName)
	assert.ErrorIs(t, ValidateSubnetName(""), provider.ErrInvalidName)
}

func TestValidateSubnetType(t *testing.T) {
	assert.NoError(t, ValidateSubnetType("public"))
	assert.NoError(t, ValidateSubnetType("private"))
	assert.ErrorIs(t, ValidateSubnetType("dmz"), provider.ErrInvalidName)
}
