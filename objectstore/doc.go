// Package objectstore implements cabinet's ObjectStorage interface on top of
// an S3-compatible backend using aws-sdk-go-v2.
//
// The store supports custom endpoints with path-style addressing for MinIO,
// RustFS, Localstack, and similar S3-compatible servers, as well as stock
// Amazon S3. URL pre-signing is done locally by the SDK with the configured
// credentials; presigned upload and download URLs require no server round
// trip to produce.
//
// Error mapping: a GetObject on a missing key is surfaced as
// cabinet.ErrObjectMissing so the consistency layer can distinguish "record
// exists but bytes are gone" from transport failures. DeleteObject is
// idempotent per the S3 protocol; deleting an absent key succeeds.
package objectstore
