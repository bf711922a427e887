// Package metrics exposes the tracker's Prometheus collectors: HTTP traffic,
// intake outcomes and deferred persistence results. Collectors live on a
// dedicated Registry served by Handler.
package metrics
