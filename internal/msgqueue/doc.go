// Package msgqueue provides at-least-once message delivery between pipeline
// stages. Messages are leased on receive and redelivered when a consumer dies
// before acknowledging, so every consumer in the pipeline is written to be
// idempotent. The SQLite backend serves local deployments, the SQS backend
// serves production.
package msgqueue
