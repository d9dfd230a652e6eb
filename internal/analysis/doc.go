// Package analysis defines the pluggable text-analysis capability that
// turns repository activity into a structured task list, together with the
// shared prompt material, the error taxonomy all backends report through,
// and the parser that recovers task lists from noisy backend output. It
// abstracts the details of the concrete backends (external CLI, hosted
// Gemini API, local Ollama server) behind a single interface so the job
// orchestrator never couples to a specific one.
package analysis
