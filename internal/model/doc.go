package model

// Package model defines domain data structures used across the app: download
// jobs, status and stage enums, progress records, and queue snapshots.
// Structures are designed for direct JSON binding in the frontend and
// explicit state transitions.
