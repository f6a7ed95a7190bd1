// Package server serves a directory of pages with copyright labels
// injected into every HTML response.
//
// Pages are annotated per request from a snapshot of the shared State, so
// the JSON API under /api can change the metadata table and display
// configuration while pages are being served:
//
//	GET    /api/healthz
//	GET    /api/copyright        export the table
//	POST   /api/copyright        import a table (merged, 400 when malformed)
//	GET    /api/copyright/{id}   record shown for an identifier
//	PUT    /api/copyright/{id}   merge a partial record
//	DELETE /api/copyright/{id}
//	GET    /api/config
//	PATCH  /api/config           merge a partial display configuration
//
// When a catalog is attached, API writes are persisted to it.
package server
