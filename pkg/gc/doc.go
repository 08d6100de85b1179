/*
Package gc schedules session garbage collection.

A Collector runs Handler.GC on a cron schedule (hourly by default) and, when a
Lottery is configured, opportunistically with a small probability per request.
With a ports.DistributedLocker only one replica sweeps a namespace at a time;
a replica that cannot take the lock skips the run.
*/
package gc
