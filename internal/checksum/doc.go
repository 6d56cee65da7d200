// Package checksum hashes staged CSV payloads.
//
// Two checksums are computed:
//
//   - Raw checksum: SHA-256 of the exact bytes. Sent to S3 as
//     x-amz-checksum-sha256 so the upload is verified server side.
//   - Normalized checksum: SHA-256 after removing a UTF-8 byte order mark,
//     converting CRLF and CR line endings to LF and dropping trailing empty
//     lines. Files exported on different platforms hash the same.
//
// # Example Usage
//
//	calculator := checksum.New()
//	raw := calculator.CalculateRaw(data)
//	normalized := calculator.CalculateNormalized(data)
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
