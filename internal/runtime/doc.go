/*
Package runtime implements the orchestration engine.

The Engine owns the pre-facilitation chain and is the single place where node
outcomes are recorded: checkers report skips and evaluation errors back to it
through the ports.Orchestrator interface, and every write to a node execution
record happens under a per-record lease with an optimistic version check.
*/
package runtime
