// Package prometheus renders bridgeAuth engine metrics in Prometheus text exposition
// format. Counters are named bridgeauth_*_total and the verification latency
// histogram is bridgeauth_verify_latency_seconds. Nothing is registered globally;
// callers mount Handler where they want it.
package prometheus
