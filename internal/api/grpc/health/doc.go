// Package health exposes the standard gRPC health checking protocol
// (grpc.health.v1) for the watchdog. There is no custom API surface: the
// watchdog has no remote clients, but fleet monitoring can watch the health
// status flip to NOT_SERVING when a shutdown countdown starts.
package health
