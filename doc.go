// Package cabinet implements a hierarchical file manager backed by two
// independently failing stores: an S3-compatible object store for file bytes
// and a relational metadata store for folder hierarchy and file records.
//
// The heart of the package is the consistency layer (Service), which decides
// the ordering of every cross-store mutation. There is no shared transaction
// between the stores, so each operation commits in an order that keeps the
// metadata authoritative: a file record is inserted only after its bytes are
// confirmed stored, and deleted only after its bytes are confirmed deleted.
//
// # Key Components
//
//   - Service: the consistency layer orchestrating folder CRUD, two upload
//     protocols, download resolution, and recursive folder deletion
//   - MetadataRepo: interface for folder/file persistence (PostgreSQL, SQLite)
//   - ObjectStorage: capability interface over the S3-compatible backend
//     (put, get, delete, presign, ensure bucket)
//
// # Upload Protocols
//
// Proxied: the server receives the bytes, writes them to the object store,
// and commits the record only on success.
//
// Presigned (direct): phase 1 issues a time-bounded signed PUT URL for a
// fresh object key; the client transfers bytes directly to the object store
// and phase 2 commits the record. Phase 2 trusts the client's claim; a false
// claim is detected lazily at download time as ErrObjectMissing.
//
// # Residual Inconsistency Windows
//
// Three windows remain open rather than closed with a distributed
// transaction: an orphaned object when a proxied upload's metadata insert
// fails after the bytes landed, a dangling record when a presigned upload is
// confirmed without the transfer having happened, and a stale record when a
// file delete removes the bytes but the metadata delete fails. All three are
// logged prominently where detected.
//
// See the http package for the REST transport, the database packages for
// metadata backends, and the objectstore package for the S3 client.
package cabinet
