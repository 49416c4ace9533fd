/*
Package flume provides the shared plumbing that logging appenders use to hand
log events to a downstream event collector, including:

  - `flume.Registry` - shares one reference-counted `Manager` per collector
    target across all of the appenders in a process
  - `flume.Event` - decorates an upstream log record with collector headers
    and an optionally compressed body, without copying the record
  - `flume.ForwardManager` - a concrete `Manager` that serializes enriched
    events with msgpack and delivers them through an external `Sink` client
  - `flume.NATSManager` - a concrete `Manager` that publishes enriched events
    to a NATS subject

The package owns no transport. Connection setup, batching, and reconnect
policy belong to the wrapped collector client, and the appender framework
hosting this package supplies the log records it decorates. The pieces here
are coupled only via the `Manager` and `Record` interfaces, so appenders for
different frameworks can share one collector connection by acquiring the same
manager name from a shared `Registry`.

Examples of efficiency optimizations:

  - shared encoders/buffers for event serialization
  - the manager name is only encoded once per encoder pool, and only copied
    into each `Encoder` in the pool, no matter how many events are sent
  - oversized buffers are dropped rather than pooled, so one unusually large
    event cannot pin memory for the life of the process
*/
package flume
