// Package hotreload feeds a hot.Source from the outside world.
//
// A Reloader fetches a raw payload (a file, a Kafka record, ...), decodes it into T and
// publishes it with Source.Update. Identical payloads are detected by content hash and
// skipped, so a periodic reload of an unchanged file does not bump the version.
//
// Failure policy: a fetch or decode failure never touches the Source. The previous
// value stays in place and the failure is logged and counted in Stats.
//
// Last-known-good: with WithStore, every published payload is persisted; Restore
// republishes it on the next start, before the real origin is reachable.
//
// Concurrency:
//   - Reload is deduplicated with singleflight: concurrent callers share one fetch.
//   - Publishing (from Reload, Restore or ConsumeKafka) is serialized per Reloader.
package hotreload
