/*
Package facilitation implements the pre-facilitation checks that run before a
node executes.

The default chain runs, in order:

  - DepthChecker: vetoes ambiances nested deeper than the allowed limit.
  - SkipConditionChecker: skips the node when its skip condition is true.
  - WhenConditionChecker: skips the node when its when condition is false.

The chain stops at the first veto. Condition checkers report their own
outcomes to the ports.Orchestrator; a veto that carries a Reason is left for
the caller to record.
*/
package facilitation
