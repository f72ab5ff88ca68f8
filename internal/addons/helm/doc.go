// Package helm installs the platform charts through the Helm SDK.
//
// It registers chart repositories in the operator's Helm repository file,
// locates and loads charts, and installs releases. Every operation reports
// whether it changed anything so callers can converge on repeated runs:
// a release that already exists is classified as AlreadyInstalled rather
// than treated as a failure.
package helm
