package wizard

import "errors"

// Validation errors for the interactive wizard.
var (
	errInventoryRequired = errors.New("at least one node is required")
	errNoMaster          = errors.New("at least one master is required")
	errHostnameRequired  = errors.New("hostname is required")
	errHostnameInvalid   = errors.New("hostname must be a DNS name such as rancher.example.com")
	errIPv4Invalid       = errors.New("invalid IPv4 address")
	errCIDRRequired      = errors.New("CIDR is required")
	errCIDRInvalid       = errors.New("invalid CIDR format (expected: x.x.x.x/xx)")
)
