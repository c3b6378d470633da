/*
Package lease serializes writes to node execution records.

A Manager hands out one in-process mutex per node execution id, reference
counted so idle entries are reclaimed, and optionally takes a distributed lock
through a ports.DistributedLocker so that replicas sharing a store do not race
on the same record.
*/
package lease
