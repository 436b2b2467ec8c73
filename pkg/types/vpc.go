package types

import "sort"

// Subnet visibility classes
const (
	SubnetPublic  = "public"
	SubnetPrivate = "private"
)

// BridgePrefix is prepended to a VPC name to form its router bridge name
const BridgePrefix = "vpc-"

// VPC is the persisted record of one virtual private cloud
type VPC struct {
	Name         string             `json:"name" yaml:"name"`
	CIDR         string             `json:"cidr" yaml:"cidr"`
	Bridge       string             `json:"bridge" yaml:"bridge"`
	Subnets      map[string]*Subnet `json:"subnets" yaml:"subnets"`
	NATInterface string             `json:"nat_interface,omitempty" yaml:"nat_interface,omitempty"`
	Peers        []string           `json:"peers,omitempty" yaml:"peers,omitempty"`
}

// Subnet is a namespace attached to its VPC bridge
type Subnet struct {
	CIDR      string `json:"cidr" yaml:"cidr"`
	Type      string `json:"type" yaml:"type"`
	Namespace string `json:"namespace" yaml:"namespace"`
	VethHost  string `json:"veth_host" yaml:"veth_host"`
	IP        string `json:"ip" yaml:"ip"`
}

// NewVPC returns an empty record with the derived bridge name
func NewVPC(name, cidr string) *VPC {
	return &VPC{
		Name:    name,
		CIDR:    cidr,
		Bridge:  BridgeName(name),
		Subnets: make(map[string]*Subnet),
	}
}

// BridgeName derives the router bridge name from a VPC name
func BridgeName(vpcName string) string {
	return BridgePrefix + vpcName
}

// NamespaceName derives the namespace name of a subnet
func NamespaceName(vpcName, subnetName string) string {
	return vpcName + "-" + subnetName
}

// SubnetNames returns subnet names in lexical order
func (v *VPC) SubnetNames() []string {
	names := make([]string, 0, len(v.Subnets))
	for name := range v.Subnets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SubnetByCIDR returns the subnet whose range is exactly cidr
func (v *VPC) SubnetByCIDR(cidr string) (string, *Subnet, bool) {
	for _, name := range v.SubnetNames() {
		if s := v.Subnets[name]; s.CIDR == cidr {
			return name, s, true
		}
	}
	return "", nil, false
}

// HasPeer reports whether other is recorded as a peer
func (v *VPC) HasPeer(other string) bool {
	for _, p := range v.Peers {
		if p == other {
			return true
		}
	}
	return false
}

// AddPeer records other as a peer once
func (v *VPC) AddPeer(other string) {
	if !v.HasPeer(other) {
		v.Peers = append(v.Peers, other)
		sort.Strings(v.Peers)
	}
}

// RemovePeer drops other from the peer list
func (v *VPC) RemovePeer(other string) {
	kept := v.Peers[:0]
	for _, p := range v.Peers {
		if p != other {
			kept = append(kept, p)
		}
	}
	v.Peers = kept
}
