// Package s3 provides a client for S3-compatible object storage.
//
// It is used on the initializer to make sure the bucket configured for K3s
// etcd snapshots exists before K3s starts uploading to it.
package s3
