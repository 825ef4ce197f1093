// Package core normalizes vendor price lists into the B2B product schema.
//
// This package is the heart of the converter, containing all domain logic
// independent of any transport or storage layer. It is used by the HTTP
// handlers, the command line tool and tests without modification.
//
// # Architecture
//
// The package is organized around a single pipeline, [Converter.Run]:
//
//   - Input decoding: BOM stripping, UTF-8 or Windows-1252 detection and
//     XLSX sniffing ([DecodeInput]).
//   - Header location: the first canonical record, or the record claiming
//     the most targets within the first [DefaultHeaderSearchRows] records.
//   - Schema detection: [Detector] decides whether a header is already B2B.
//   - Column mapping: [Mapper] assigns vendor columns to target fields in
//     tier order (exact, normalized, synonym, stemmed).
//   - Row transformation: [Transformer] builds one [CanonicalRow] per data
//     row, resolving the manufacturer, product type, pricing unit and cut
//     cost.
//
// Preview, Convert, Collect and the [Service] operations differ only in what
// they do with each emitted row.
//
// # Row Warnings
//
// Bad cells never drop a row. A value that cannot be used is defaulted and
// reported as a [RowWarning]; the summary counts every warning and keeps the
// first [MaxWarningDetails]. Only unreadable input, an empty file or a
// cancelled context fail a conversion.
//
// # Idempotence
//
// Converting a converted file yields the same bytes: canonical input is
// passed through, keeping its stated Cut Cost rather than deriving a new one.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB005: Product store errors
//   - VAL001-VAL002: Request validation errors
//   - FILE001-FILE006: File errors (size, format, empty, missing header)
//   - UPL002-UPL005: Capacity, cancellation and timeout
package core
