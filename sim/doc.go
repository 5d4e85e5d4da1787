// Package sim provides the nanoparticle simulation and scoring engine.
//
// # Reading Guide
//
// Start with these files:
//   - tables.go: static lookup tables (charge, absorption, toxicity ceiling, baseline distribution, templates)
//   - nanoparticle.go / treatment.go: records, construction-time validation, treatment status transitions
//   - engine.go: the Engine and the RecordStore interface it consumes
//
// # Computations
//
// The four models are pure functions over a NanoparticleSpec:
//   - Allocate: baseline tissue distribution, targeting boost, dose -> concentration
//   - ComputePK: size-tiered half-life, material absorption, cmax/tmax/auc
//   - AssessToxicity: size and charge penalties clamped to a material ceiling
//   - Optimize: tissue-keyed formulation templates with a systemic fallback
//
// Engine methods resolve records through the store, run the model and, for
// SimulateDelivery, append the resulting samples.
//
// # Stores
//
// RecordStore implementations live in sub-packages:
//   - sim/store/memory: in-process maps
//   - sim/store/sqlite: embedded SQLite (modernc.org/sqlite)
//   - sim/store/postgres: Postgres via pgx
//
// sim/store/storetest holds the contract tests every backend runs.
package sim
