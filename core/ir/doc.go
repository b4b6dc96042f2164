// Package ir provides the normalized intermediate representation of a
// multi-version scripture corpus.
//
// The IR is flat rather than hierarchical: every row type carries its full
// address (book code, chapter, verse, version) so records from several
// sources can be concatenated and later loaded into the store without
// re-deriving context.
//
// # Core Types
//
//   - Version: one translation or edition
//   - Book: one canonical book within one version, keyed by (code, version)
//   - Chapter: keyed by (code, chapter, version) with a derived verse count
//   - Verse: keyed by (code, chapter, verse, version), never empty
//   - Footnote: footnote or cross reference attached to a verse address
//
// # Producing a corpus
//
// A parser produces one SourceRecord per version. Records are folded into a
// Corpus with Merge, which keeps versions side by side and applies
// first-write-wins to chapters:
//
//	corpus := ir.NewCorpus()
//	corpus.AddVersion(ir.Version{ID: "KJV", Name: "KJV", FullName: "King James Version"})
//	stats := corpus.Merge(record, "KJV")
//
// Validate checks the uniqueness and referential invariants the store
// enforces, so a bad corpus is rejected before any file is written.
package ir
