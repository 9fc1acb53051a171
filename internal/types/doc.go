// Package types provides shared data structures for the previewd service.
//
// This package defines core types used across all components,
// ensuring type safety and consistent data structures.
//
// Core Types:
//   - SiteBundle: Immutable snapshot of a generated site
//   - PageBundle: One page's source and precomputed output
//   - IntentDefinition: Declared handler strategy for a named user action
//   - Entitlements: Feature flags and numeric limits for the active plan
//   - ClientState: Per-session orchestration state
//   - PreviewSession: Session metadata tracked by the session manager
//
// State Management:
//   - Status: Session status enum (loading, initializing, ready, error)
//   - Engine: Preview engine enum (simple, vfs, worker)
//   - Stats: Session manager statistics
package types
