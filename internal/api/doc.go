// Package api exposes the tracker over HTTP. It translates requests into
// IntakeService calls and maps service errors to status codes and the
// stable reason phrases clients depend on.
package api
