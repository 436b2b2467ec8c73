package executor

import "strings"

// Code is the classified outcome of a command
type Code int

const (
	CodeOK Code = iota
	CodeExists
	CodeNoDevice
	CodeInvalidGateway
	CodeMissing
	CodeNotInstalled
	CodeFailed
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeExists:
		return "exists"
	case CodeNoDevice:
		return "no-device"
	case CodeInvalidGateway:
		return "invalid-gateway"
	case CodeMissing:
		return "missing"
	case CodeNotInstalled:
		return "not-installed"
	default:
		return "failed"
	}
}

// Benign reports whether the failure means the resource is already in the desired
// state or its endpoint is gone. TolerateExists degrades these to warnings.
func (c Code) Benign() bool {
	switch c {
	case CodeExists, CodeNoDevice, CodeInvalidGateway:
		return true
	}
	return false
}

// Stderr signatures, used only when the tool gives no structured signal.
var signatures = []struct {
	text string
	code Code
}{
	{"File exists", CodeExists},
	{"already exists", CodeExists},
	{"Cannot find device", CodeNoDevice},
	{"No such device", CodeNoDevice},
	{"Nexthop has invalid gateway", CodeInvalidGateway},
	{"Network is unreachable", CodeInvalidGateway},
}

// Classify maps a command's exit status and stderr to a Code.
// Exit codes are checked first; stderr text is the fallback.
func Classify(cmd Command, exitCode int, stderr string) Code {
	if exitCode == 0 {
		return CodeOK
	}
	if exitCode == 127 {
		return CodeNotInstalled
	}
	// iptables -C exits 1 when the rule is absent
	if cmd.Program == "iptables" && cmd.hasArg("-C") && exitCode == 1 {
		return CodeMissing
	}
	for _, sig := range signatures {
		if strings.Contains(stderr, sig.text) {
			return sig.code
		}
	}
	return CodeFailed
}
