// Package main hosts the tickertape service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes job submission (onboarding and
//     monitoring), job status/result retrieval, read-only intelligence
//     queries, Prometheus metrics, and a WebSocket progress stream.
//   - Orchestration: internal/service runs each job in its own goroutine,
//     driving the research collaborators through a multi-stage progress
//     tracker. Stage and task events fan out to the log sink, the
//     Prometheus sink, and WebSocket observers.
//   - Research pipeline: internal/research talks to an OpenAI-compatible
//     chat-completions endpoint for company research, structured data
//     extraction, ticker resolution, signal detection, and sales
//     intelligence analysis, and to SEC EDGAR for 8-K filings.
//   - Persistence: internal/store offers a SQLite backend (GORM, default)
//     and a PostgreSQL backend (pgx) behind one interface, tracking SaaS
//     client profiles, enterprise customers, and generated intelligence.
//   - Scheduling & fanout: internal/scheduler sweeps configured clients on
//     a cron schedule; terminal job notifications optionally publish to
//     GCP Pub/Sub.
//
// Quick checklist:
//   - Set TICKERTAPE_OPENAI_API_KEY to enable job submission; without it
//     the server starts in read-only mode and rejects new jobs.
//   - Configure TICKERTAPE_DB_DRIVER (sqlite/postgres) plus
//     TICKERTAPE_DB_PATH or TICKERTAPE_DB_DSN.
//   - Run locally: go run . serve --config config.yaml (or rely solely
//     on env overrides). The process reacts to SIGTERM for graceful
//     drain and shutdown.
package main
