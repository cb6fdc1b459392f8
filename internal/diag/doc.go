// Package diag defines the diagnostic model shared by the library loader,
// recipe sessions and the pipeline.
//
// # Purpose
//
//   - Provide deterministic data structures that capture findings produced
//     while loading type libraries and applying recipe mutations to type
//     models.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//
// # Scope
//
// Package diag does not perform any IO or CLI integration. Colourised
// rendering lives in cmd/typeweave; FormatGoldenDiagnostics provides the
// stable plain-text form used by tests and short output.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//     Families: LIB 1xxx (type libraries), RCP 2xxx (recipes), MDL 3xxx
//     (type model mutations), MAP 4xxx (interface mapping), IO, PRJ, OBS.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary – Location naming the input file and the type or member the
//     finding is about.
//   - Notes – optional secondary locations/messages for additional context.
//
// # Emitting diagnostics
//
// Producers should use a diag.Reporter to decouple emission from storage,
// either through NewReportBuilder (or ReportError/ReportWarning/ReportInfo)
// chained with WithNote before Emit, or by calling Reporter.Report directly.
// diag.BagReporter aggregates diagnostics into a Bag, which supports
// sorting, deduplication and merging.
//
// A failed mutation in a recipe session becomes one diagnostic; the session
// continues with the next mutation.
package diag
