// Package edqs implements an in-memory entity data query service.
//
// EDQS keeps a denormalized, per-tenant view of platform entities (devices,
// assets, customers, entity groups and the rest), their latest telemetry and
// attribute values, and their relation graphs. It consumes lifecycle and
// data events from a NATS JetStream stream and answers entity data queries
// against the in-memory state, applying the caller's permissions.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│         NATS JetStream              │  entity, latest value,
//	│       (durable consumer)            │  relation, permission events
//	└──────────────┬──────────────────────┘
//	               ↓ ingest
//	┌─────────────────────────────────────┐
//	│       Tenant repositories           │  entity store, relation
//	│  (one per tenant, shared dict)      │  graphs, latest values
//	└──────────────┬──────────────────────┘
//	               ↓ query
//	┌─────────────────────────────────────┐
//	│        Query pipeline               │  filter resolve, visibility,
//	│  (find / count, sort, paginate)     │  predicates, projection
//	└─────────────────────────────────────┘
//
// # Packages
//
// Core:
//   - entity: entity records, data points, relations, key dictionary
//   - query: filter, predicate, and query wire types
//   - permission: merged user permission evaluation
//   - repo: tenant repositories, filter resolution, query execution
//   - ingest: event decoding and the JetStream consumer
//
// Infrastructure:
//   - config: layered JSON configuration with env overrides
//   - errors: classified error handling
//   - metric: Prometheus metrics and the metrics/health HTTP server
//   - health: per-component health tracking
//   - pkg/cache: LRU caching
//   - pkg/retry: retry with exponential backoff
//   - pkg/timestamp: Unix millisecond time utilities
//   - pkg/worker: generic worker pools
//
// The edqs binary lives in cmd/edqs.
package edqs
