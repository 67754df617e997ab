// Package core provides the row-processing pipeline for loading user records
// from CSV into the users table.
//
// The package has no flag or connection handling of its own. It is given an
// io.Reader for the CSV input, an io.Writer for the per-row report, and a
// [UserWriter] for inserts, so it can be driven by the CLI or by tests without
// modification.
//
// # Pipeline
//
// [Loader.Run] reads the header once and resolves it into a [ColumnMap]. Each
// following record is handed to [Processor.Process], which runs
//
//  1. a structural check of the field count ([ValidateStructure])
//  2. normalization ([Normalize])
//  3. email syntax validation ([ValidateEmail])
//  4. the insert, or only a report line in dry-run mode
//
// and produces exactly one [Result]. Row-level failures never escape
// Process; they are counted in the [RunSummary] and reported. Only a lost
// database connection aborts the run, as a [*FatalRowError].
//
// # Input decoding
//
// The reader is wrapped before parsing: an optional legacy charset decoder,
// then UTF-8 BOM removal, then replacement of invalid UTF-8 bytes. See
// [WrapForStreaming].
//
// # Error Codes
//
// Every skip reason carries a short code for the failed-rows report:
//
//   - ROW001: malformed row (too few fields, or unparseable CSV)
//   - ROW002: invalid email
//   - DB001: duplicate email
//   - DB002: any other insert failure
package core
