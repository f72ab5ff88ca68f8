// Package netutil provides network helpers for address checks and port waits.
package netutil
