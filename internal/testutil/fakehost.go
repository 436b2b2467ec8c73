// Package testutil provides a simulated host for exercising command sequences
// without root privileges.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

const hostNS = ""

var errExit = errors.New("exit status 1")

type link struct {
	name   string
	kind   string
	ns     string
	master string
	up     bool
	peer   string
}

// FakeHost is an executor.Runner that models namespaces, links, addresses,
// routes and iptables chains in memory. Duplicate adds fail with the same
// stderr text iproute2 and iptables print.
type FakeHost struct {
	mu       sync.Mutex
	nsSet    map[string]bool
	links    map[string]*link // key: ns + "/" + name
	addrs    map[string]bool  // key: ns + "/" + dev + "/" + addr
	routes   map[string]bool  // key: ns + "/" + dst
	chains   map[string][]string
	failures map[string]string
	calls    []string
	started  []string
}

// NewFakeHost returns an empty host
func NewFakeHost() *FakeHost {
	return &FakeHost{
		nsSet:    make(map[string]bool),
		links:    make(map[string]*link),
		addrs:    make(map[string]bool),
		routes:   make(map[string]bool),
		chains:   make(map[string][]string),
		failures: make(map[string]string),
	}
}

// FailOn makes every command whose text starts with prefix fail with stderr
func (h *FakeHost) FailOn(prefix, stderr string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures[prefix] = stderr
}

// Calls returns every command run so far
func (h *FakeHost) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

// Started returns every command launched in the background
func (h *FakeHost) Started() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.started...)
}

// ResetCalls clears the call log
func (h *FakeHost) ResetCalls() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = nil
}

// AddNamespace creates a namespace directly
func (h *FakeHost) AddNamespace(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nsSet[name] = true
}

// AddBridge creates a bridge in the host namespace directly
func (h *FakeHost) AddBridge(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.links[hostNS+"/"+name] = &link{name: name, kind: "bridge"}
}

// HasNamespace reports whether name exists
func (h *FakeHost) HasNamespace(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nsSet[name]
}

// HasLink reports whether a link exists in ns ("" is the host namespace)
func (h *FakeHost) HasLink(ns, name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.links[ns+"/"+name]
	return ok
}

// LinkMaster returns the master of a host link
func (h *FakeHost) LinkMaster(name string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if l, ok := h.links[hostNS+"/"+name]; ok {
		return l.master
	}
	return ""
}

// HasAddr reports whether addr is assigned to dev in ns
func (h *FakeHost) HasAddr(ns, dev, addr string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addrs[ns+"/"+dev+"/"+addr]
}

// HasRoute reports whether a route to dst exists in ns
func (h *FakeHost) HasRoute(ns, dst string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.routes[ns+"/"+dst]
}

// Rules returns the rule specs of a chain, e.g. Rules("a-web", "filter", "INPUT")
func (h *FakeHost) Rules(ns, table, chain string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.chains[ns+"/"+table+"/"+chain]...)
}

// Start records a background launch
func (h *FakeHost) Start(argv []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	line := strings.Join(argv, " ")
	h.calls = append(h.calls, line)
	for prefix, stderr := range h.failures {
		if strings.HasPrefix(line, prefix) {
			return errors.New(stderr)
		}
	}
	h.started = append(h.started, line)
	return nil
}

// Run simulates argv
func (h *FakeHost) Run(ctx context.Context, argv []string) ([]byte, []byte, int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	line := strings.Join(argv, " ")
	h.calls = append(h.calls, line)
	for prefix, stderr := range h.failures {
		if strings.HasPrefix(line, prefix) {
			return nil, []byte(stderr), 2, errExit
		}
	}

	ns := hostNS
	if len(argv) > 4 && argv[0] == "ip" && argv[1] == "netns" && argv[2] == "exec" {
		ns = argv[3]
		if !h.nsSet[ns] {
			return fail(fmt.Sprintf("Cannot open network namespace %q: No such file or directory", ns), 1)
		}
		argv = argv[4:]
	}

	switch argv[0] {
	case "ip":
		return h.ip(ns, argv[1:])
	case "iptables":
		return h.iptables(ns, argv[1:])
	case "sysctl":
		return ok("")
	}
	return fail(fmt.Sprintf("exec: %q: executable file not found in $PATH", argv[0]), 127)
}

func ok(stdout string) ([]byte, []byte, int, error) {
	return []byte(stdout), nil, 0, nil
}

func fail(stderr string, code int) ([]byte, []byte, int, error) {
	return nil, []byte(stderr + "\n"), code, errExit
}

func noDevice(name string) ([]byte, []byte, int, error) {
	return fail(fmt.Sprintf("Cannot find device %q", name), 1)
}

func (h *FakeHost) ip(ns string, args []string) ([]byte, []byte, int, error) {
	if len(args) == 0 {
		return fail("usage", 255)
	}
	switch args[0] {
	case "netns":
		return h.netns(args[1:])
	case "-o":
		// ip -o link show type bridge
		return h.listBridges(ns)
	case "link":
		return h.link(ns, args[1:])
	case "addr":
		if len(args) == 5 && args[1] == "add" && args[3] == "dev" {
			if _, ok := h.links[ns+"/"+args[4]]; !ok {
				return noDevice(args[4])
			}
			key := ns + "/" + args[4] + "/" + args[2]
			if h.addrs[key] {
				return fail("RTNETLINK answers: File exists", 2)
			}
			h.addrs[key] = true
			return ok("")
		}
	case "route":
		if len(args) >= 3 && args[1] == "add" {
			key := ns + "/" + args[2]
			if h.routes[key] {
				return fail("RTNETLINK answers: File exists", 2)
			}
			h.routes[key] = true
			return ok("")
		}
		if len(args) >= 3 && args[1] == "del" {
			key := ns + "/" + args[2]
			if !h.routes[key] {
				return fail("RTNETLINK answers: No such process", 2)
			}
			delete(h.routes, key)
			return ok("")
		}
	}
	return fail("Command line is not complete", 255)
}

func (h *FakeHost) netns(args []string) ([]byte, []byte, int, error) {
	switch {
	case len(args) == 1 && args[0] == "list":
		names := make([]string, 0, len(h.nsSet))
		for n := range h.nsSet {
			names = append(names, n)
		}
		sort.Strings(names)
		var sb strings.Builder
		for i, n := range names {
			fmt.Fprintf(&sb, "%s (id: %d)\n", n, i)
		}
		return ok(sb.String())
	case len(args) == 2 && args[0] == "add":
		if h.nsSet[args[1]] {
			return fail(fmt.Sprintf("Cannot create namespace file \"/var/run/netns/%s\": File exists", args[1]), 1)
		}
		h.nsSet[args[1]] = true
		h.links[args[1]+"/lo"] = &link{name: "lo", kind: "loopback", ns: args[1]}
		return ok("")
	case len(args) == 2 && args[0] == "del":
		if !h.nsSet[args[1]] {
			return fail(fmt.Sprintf("Cannot remove namespace file \"/var/run/netns/%s\": No such file or directory", args[1]), 1)
		}
		delete(h.nsSet, args[1])
		for key, l := range h.links {
			if l.ns == args[1] {
				h.removeLink(key)
			}
		}
		return ok("")
	}
	return fail("Command line is not complete", 255)
}

func (h *FakeHost) listBridges(ns string) ([]byte, []byte, int, error) {
	var names []string
	for _, l := range h.links {
		if l.ns == ns && l.kind == "bridge" {
			names = append(names, l.name)
		}
	}
	sort.Strings(names)
	var sb strings.Builder
	for i, n := range names {
		fmt.Fprintf(&sb, "%d: %s: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc noqueue state UP mode DEFAULT group default qlen 1000\\    link/ether 00:00:00:00:00:%02x brd ff:ff:ff:ff:ff:ff\n", i+3, n, i)
	}
	return ok(sb.String())
}

func (h *FakeHost) removeLink(key string) {
	l, found := h.links[key]
	if !found {
		return
	}
	delete(h.links, key)
	if l.peer != "" {
		for k, p := range h.links {
			if p.name == l.peer && p.peer == l.name {
				delete(h.links, k)
			}
		}
	}
}

func (h *FakeHost) link(ns string, args []string) ([]byte, []byte, int, error) {
	if len(args) < 2 {
		return fail("Command line is not complete", 255)
	}
	switch args[0] {
	case "add":
		name := args[1]
		if _, exists := h.links[ns+"/"+name]; exists {
			return fail("RTNETLINK answers: File exists", 2)
		}
		if len(args) == 4 && args[2] == "type" && args[3] == "bridge" {
			h.links[ns+"/"+name] = &link{name: name, kind: "bridge", ns: ns}
			return ok("")
		}
		if len(args) == 7 && args[3] == "veth" && args[4] == "peer" && args[5] == "name" {
			peer := args[6]
			if _, exists := h.links[ns+"/"+peer]; exists {
				return fail("RTNETLINK answers: File exists", 2)
			}
			h.links[ns+"/"+name] = &link{name: name, kind: "veth", ns: ns, peer: peer}
			h.links[ns+"/"+peer] = &link{name: peer, kind: "veth", ns: ns, peer: name}
			return ok("")
		}
	case "del":
		if _, exists := h.links[ns+"/"+args[1]]; !exists {
			return noDevice(args[1])
		}
		h.removeLink(ns + "/" + args[1])
		return ok("")
	case "set":
		key := ns + "/" + args[1]
		l, exists := h.links[key]
		if !exists {
			return noDevice(args[1])
		}
		if len(args) < 3 {
			return fail("Command line is not complete", 255)
		}
		switch args[2] {
		case "up":
			l.up = true
			return ok("")
		case "master":
			if len(args) == 4 {
				if _, exists := h.links[ns+"/"+args[3]]; !exists {
					return noDevice(args[3])
				}
				l.master = args[3]
				return ok("")
			}
		case "netns":
			if len(args) == 4 {
				if !h.nsSet[args[3]] {
					return fail(fmt.Sprintf("Invalid \"netns\" value %q", args[3]), 255)
				}
				delete(h.links, key)
				l.ns = args[3]
				l.master = ""
				h.links[args[3]+"/"+l.name] = l
				return ok("")
			}
		case "name":
			if len(args) == 4 {
				if _, exists := h.links[ns+"/"+args[3]]; exists {
					return fail("RTNETLINK answers: File exists", 2)
				}
				for _, p := range h.links {
					if p.peer == l.name && p.name == l.peer {
						p.peer = args[3]
					}
				}
				delete(h.links, key)
				l.name = args[3]
				h.links[ns+"/"+l.name] = l
				return ok("")
			}
		}
	}
	return fail("Command line is not complete", 255)
}

func (h *FakeHost) iptables(ns string, args []string) ([]byte, []byte, int, error) {
	table := "filter"
	if len(args) >= 2 && args[0] == "-t" {
		table = args[1]
		args = args[2:]
	}
	if len(args) < 2 {
		return fail("iptables: no command specified", 2)
	}
	op, chain, spec := args[0], args[1], strings.Join(args[2:], " ")
	key := ns + "/" + table + "/" + chain

	indexOf := func() int {
		for i, r := range h.chains[key] {
			if r == spec {
				return i
			}
		}
		return -1
	}

	switch op {
	case "-C":
		if indexOf() < 0 {
			return fail("iptables: Bad rule (does a matching rule exist in that chain?).", 1)
		}
		return ok("")
	case "-A":
		h.chains[key] = append(h.chains[key], spec)
		return ok("")
	case "-D":
		i := indexOf()
		if i < 0 {
			return fail("iptables: Bad rule (does a matching rule exist in that chain?).", 1)
		}
		h.chains[key] = append(h.chains[key][:i], h.chains[key][i+1:]...)
		return ok("")
	case "-S":
		var sb strings.Builder
		fmt.Fprintf(&sb, "-P %s ACCEPT\n", chain)
		for _, r := range h.chains[key] {
			fmt.Fprintf(&sb, "-A %s %s\n", chain, r)
		}
		return ok(sb.String())
	}
	return fail(fmt.Sprintf("iptables: unknown option %q", op), 2)
}
