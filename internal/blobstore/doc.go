// Package blobstore abstracts the object storage holding raw uploads and
// processed renditions. The filesystem backend serves local deployments and
// tests, the S3 backend serves production.
package blobstore
