/*
Package observability provides monitoring for the facilitation engine.

Metrics exposes Prometheus collectors on a private registry so several engines
can live in one process. Hooks turns metrics and a slog logger into
domain.LifecycleHooks, and Compose fans one event out to many hook sets.
*/
package observability
