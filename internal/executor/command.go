package executor

import (
	"strconv"
	"strings"
)

// Command is a typed OS command: a program and its argument list.
// Namespace, when set, runs the command inside that network namespace.
type Command struct {
	Program   string
	Args      []string
	Namespace string
}

// Cmd builds a Command
func Cmd(program string, args ...string) Command {
	return Command{Program: program, Args: args}
}

// IP builds an iproute2 command
func IP(args ...string) Command {
	return Cmd("ip", args...)
}

// IPTables builds an iptables command
func IPTables(args ...string) Command {
	return Cmd("iptables", args...)
}

// In returns a copy of c that runs inside the namespace ns
func (c Command) In(ns string) Command {
	c.Namespace = ns
	return c
}

// Argv returns the full argument vector passed to the runner
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+5)
	if c.Namespace != "" {
		argv = append(argv, "ip", "netns", "exec", c.Namespace)
	}
	argv = append(argv, c.Program)
	return append(argv, c.Args...)
}

// String renders the command for logs and error messages
func (c Command) String() string {
	argv := c.Argv()
	parts := make([]string, len(argv))
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = strconv.Quote(a)
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}

// hasArg reports whether flag appears in the argument list
func (c Command) hasArg(flag string) bool {
	for _, a := range c.Args {
		if a == flag {
			return true
		}
	}
	return false
}
