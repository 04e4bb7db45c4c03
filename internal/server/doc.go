package server

// Package server exposes the queue over a local HTTP API plus a WebSocket
// push channel for job updates. It is the presentation boundary: handlers
// translate requests into orchestrator calls and map the typed error
// taxonomy onto HTTP status codes and JSON error payloads.
