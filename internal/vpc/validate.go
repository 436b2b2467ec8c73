package vpc

import (
	"fmt"
	"regexp"

	"github.com/vietdv277/vpcctl/pkg/provider"
	"github.com/vietdv277/vpcctl/pkg/types"
)

// MaxVPCNameLen keeps "vpc-<name>" within the 15 byte interface name limit
const MaxVPCNameLen = 11

// MaxSubnetNameLen bounds subnet names
const MaxSubnetNameLen = 32

var (
	vpcNamePattern    = regexp.MustCompile(`^[a-z0-9][a-z0-9_]*$`)
	subnetNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// ValidateVPCName checks a VPC name against the naming rules.
// Dashes are rejected because recovery splits namespace names on the first one.
func ValidateVPCName(name string) error {
	if len(name) == 0 || len(name) > MaxVPCNameLen || !vpcNamePattern.MatchString(name) {
		return fmt.Errorf("%w: VPC name %q must be 1-%d characters of [a-z0-9_]", provider.ErrInvalidName, name, MaxVPCNameLen)
	}
	return nil
}

// ValidateSubnetName checks a subnet name against the naming rules
func ValidateSubnetName(name string) error {
	if len(name) == 0 || len(name) > MaxSubnetNameLen || !subnetNamePattern.MatchString(name) {
		return fmt.Errorf("%w: subnet name %q must be 1-%d characters of [a-z0-9_-]", provider.ErrInvalidName, name, MaxSubnetNameLen)
	}
	return nil
}

// ValidateSubnetType checks the visibility class
func ValidateSubnetType(kind string) error {
	switch kind {
	case types.SubnetPublic, types.SubnetPrivate:
		return nil
	}
	return fmt.Errorf("%w: subnet type %q must be %s or %s", provider.ErrInvalidName, kind, types.SubnetPublic, types.SubnetPrivate)
}
