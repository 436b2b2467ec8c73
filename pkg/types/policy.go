package types

// Firewall rule actions
const (
	ActionAllow = "allow"
	ActionDeny  = "deny"
)

// FirewallPolicy selects a subnet by CIDR and lists its ingress rules
type FirewallPolicy struct {
	Subnet  string        `json:"subnet"`
	Ingress []IngressRule `json:"ingress"`
}

// IngressRule is a single port/protocol rule
type IngressRule struct {
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	Action   string `json:"action"`
}
