package types

// Finding kinds reported by diagnose
const (
	FindingMissingNamespace    = "missing-namespace"
	FindingMissingBridge       = "missing-bridge"
	FindingUnrecordedNamespace = "unrecorded-namespace"
	FindingUnrecordedBridge    = "unrecorded-bridge"
)

// Diagnosis compares live host resources with persisted records
type Diagnosis struct {
	Namespaces []string      `json:"namespaces" yaml:"namespaces"`
	Bridges    []string      `json:"bridges" yaml:"bridges"`
	Records    []string      `json:"records" yaml:"records"`
	Orphaned   bool          `json:"orphaned" yaml:"orphaned"`
	Findings   []Finding     `json:"findings,omitempty" yaml:"findings,omitempty"`
	Probes     []ProbeResult `json:"probes,omitempty" yaml:"probes,omitempty"`
}

// Finding is one drift between a record and the host
type Finding struct {
	VPC      string `json:"vpc" yaml:"vpc"`
	Resource string `json:"resource" yaml:"resource"`
	Kind     string `json:"kind" yaml:"kind"`
}

// ProbeResult is the reachability of one subnet interface address
type ProbeResult struct {
	VPC       string `json:"vpc" yaml:"vpc"`
	Subnet    string `json:"subnet" yaml:"subnet"`
	Address   string `json:"address" yaml:"address"`
	Reachable bool   `json:"reachable" yaml:"reachable"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// HasDrift reports whether diagnose found anything to repair
func (d *Diagnosis) HasDrift() bool {
	return d.Orphaned || len(d.Findings) > 0
}
