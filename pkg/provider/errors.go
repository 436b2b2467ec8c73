package provider

import "fmt"

// NotFoundError reports a missing VPC, subnet or record
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// SubnetNotFoundError reports a policy or deploy target that matches no subnet
type SubnetNotFoundError struct {
	VPC string
	Ref string
}

func (e *SubnetNotFoundError) Error() string {
	return fmt.Sprintf("subnet %s not found in VPC %s", e.Ref, e.VPC)
}

func (e *SubnetNotFoundError) Unwrap() error { return ErrSubnetNotFound }

// InvalidRangeError reports a malformed or unusable CIDR
type InvalidRangeError struct {
	Input  string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range %q: %s", e.Input, e.Reason)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }
