// Package memory implements the tiered memory core of MindMitra.
//
// Extracted memories are routed by confidence into two tiers:
//   - Global: high-confidence memories (>= 0.6) that persist across
//     sessions. Near-duplicates merge into the existing memory,
//     reinforcing its confidence instead of piling up copies.
//   - Session: mid-confidence memories [0.4, 0.6) scoped to one
//     session. Stored as-is, never deduplicated.
//
// Episodic memories follow their own path: each one is logged verbatim
// for its session and fingerprinted into a pattern tracker. A pattern
// seen at least twice is promoted, once, into a durable semantic
// memory synthesized by the LLM.
//
// Architecture:
//   - Store: persistence for all four surfaces (chromem-go locally,
//     pgvector in production)
//   - Embedder: text-to-vector conversion (ONNX locally, API-based in
//     production)
//   - Classifier: the LLM boundary (extraction, summaries, insights)
//   - TieredRouter / Promoter / Retriever: the routing, promotion, and
//     retrieval logic
//   - Pipeline: wires it together and runs extraction off the chat
//     path via a background queue
//
// The subsystem is deliberately non-fatal: routing, tracking, and
// retrieval absorb and log every failure. A memory outage degrades
// recall; it never breaks a conversation.
package memory
