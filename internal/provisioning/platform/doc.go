// Package platform installs the platform releases from the initializer once
// the API server is ready.
package platform
