// Package http provides the REST transport for the cabinet file manager.
//
// The package is a thin adapter: it maps requests to consistency-layer calls
// and serializes results, with no store logic of its own. Routes live under
// /files:
//
//	POST   /files/folders                 create a folder
//	GET    /files/content                 list a folder's children
//	GET    /files/breadcrumbs             ancestor chain for display
//	DELETE /files/folders/{uuid}          recursive folder delete
//	POST   /files/upload                  server-proxied multipart upload
//	GET    /files/download/{id}           server-proxied download stream
//	POST   /files/presigned/upload-url    phase 1 of direct upload
//	POST   /files/presigned/callback      phase 2, commit metadata
//	GET    /files/presigned/download/{id} presigned download link
//	GET    /files                         list every file
//	DELETE /files/{id}                    delete one file
//
// Errors are returned as JSON bodies with a stable error code and a generic
// message; internal store error text is never exposed to callers. CORS is
// configurable and disabled by default.
package http
