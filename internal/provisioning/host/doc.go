// Package host prepares the node operating system.
//
// The packages stage installs missing prerequisites through
// transactional-update. Because the new snapshot only becomes active after
// a reboot, the stage pauses the run whenever it installed anything.
//
// Prepare performs the one-time setup run before the first bootstrap:
// hostname, /etc/hosts entries for the inventory and the root SSH key used
// to fetch the join token.
package host
