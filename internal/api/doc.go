// Package api serves the archived puzzle and game files to the browser viewer.
//
// The router is read-only: it exposes the aggregate puzzle script, the
// per-date puzzle documents, the scraped game list, a health probe, and the
// Prometheus registry. Nothing here triggers a fetch.
package api
