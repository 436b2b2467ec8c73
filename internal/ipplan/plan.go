// Package ipplan derives the addresses vpcctl assigns from CIDR blocks.
package ipplan

import (
	"fmt"
	"net/netip"

	"github.com/cespare/xxhash/v2"
	"github.com/vietdv277/vpcctl/pkg/provider"
)

// Conventional ranges used when recovering records for well-known VPC names
var knownRecoveryRanges = map[string]string{
	"dev":  "10.0.0.0/16",
	"prod": "10.1.0.0/16",
	"test": "10.2.0.0/16",
}

// ParseRange parses an IPv4 CIDR. Host bits are allowed and masked off.
func ParseRange(cidr string) (netip.Prefix, error) {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return netip.Prefix{}, &provider.InvalidRangeError{Input: cidr, Reason: "not a CIDR block"}
	}
	if !p.Addr().Is4() {
		return netip.Prefix{}, &provider.InvalidRangeError{Input: cidr, Reason: "only IPv4 ranges are supported"}
	}
	if p.Bits() > 30 {
		return netip.Prefix{}, &provider.InvalidRangeError{Input: cidr, Reason: "range has no room for a gateway and a host"}
	}
	return p.Masked(), nil
}

// firstHost returns network address + 1 with the range's prefix length
func firstHost(cidr string) (netip.Prefix, error) {
	p, err := ParseRange(cidr)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(p.Addr().Next(), p.Bits()), nil
}

// GatewayAddress returns the VPC gateway: the first usable host of the range.
// 10.0.0.0/16 yields 10.0.0.1/16.
func GatewayAddress(cidr string) (netip.Prefix, error) {
	return firstHost(cidr)
}

// SubnetInterfaceAddress returns the subnet interface address in address/prefix form.
// 10.0.1.0/24 yields "10.0.1.1/24".
func SubnetInterfaceAddress(cidr string) (string, error) {
	p, err := firstHost(cidr)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// PeerNextHop returns the address a peered VPC's routes point at: the other
// VPC's gateway. Works for any IPv4 prefix length.
func PeerNextHop(otherCIDR string) (netip.Addr, error) {
	p, err := firstHost(otherCIDR)
	if err != nil {
		return netip.Addr{}, err
	}
	return p.Addr(), nil
}

// Contains reports whether inner lies entirely inside outer
func Contains(outer, inner string) (bool, error) {
	o, err := ParseRange(outer)
	if err != nil {
		return false, err
	}
	i, err := ParseRange(inner)
	if err != nil {
		return false, err
	}
	return o.Bits() <= i.Bits() && o.Contains(i.Addr()), nil
}

// RecoveryRange assigns a /16 to a VPC whose record was lost. Well-known names map
// to fixed ranges; other names get 10.<xxhash mod 254>.0.0/16. The second return
// value is false when the range is a guess.
func RecoveryRange(vpcName string) (string, bool) {
	if cidr, ok := knownRecoveryRanges[vpcName]; ok {
		return cidr, true
	}
	octet := xxhash.Sum64String(vpcName) % 254
	return fmt.Sprintf("10.%d.0.0/16", octet), false
}

// RecoverySubnet returns the index-th synthetic /24 inside a recovered /16.
// Indexes start at 1 so the first subnet never overlaps the gateway address.
func RecoverySubnet(vpcCIDR string, index int) (string, error) {
	p, err := ParseRange(vpcCIDR)
	if err != nil {
		return "", err
	}
	if index < 1 || index > 255 {
		return "", &provider.InvalidRangeError{Input: vpcCIDR, Reason: fmt.Sprintf("no /24 number %d", index)}
	}
	b := p.Addr().As4()
	return fmt.Sprintf("%d.%d.%d.0/24", b[0], b[1], index), nil
}
