/*
Package http exposes a read-mostly inspection API over the facilitation engine.

Routes:

  - GET  /health, /info and, when configured, /metrics.
  - GET  /plan-executions/{id}/nodes lists the node executions of a plan execution.
  - POST /plan-executions/{id}/error-out errors out its active nodes.
  - GET  /nodes/{id} and /nodes/{id}/history return a record and its snapshots.
  - GET  /events streams lifecycle events as Server-Sent Events.
*/
package http
