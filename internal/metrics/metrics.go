// Package metrics holds the Prometheus collectors of the service. Nothing is
// registered at init: each binary calls the Register* functions it needs.
package metrics

const namespace = "feedrank"
