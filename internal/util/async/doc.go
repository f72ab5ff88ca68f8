// Package async runs independent tasks concurrently and collects their
// errors. The status command uses it to query the cluster API and the Helm
// release store at the same time.
package async
