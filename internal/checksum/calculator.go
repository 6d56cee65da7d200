package checksum

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Calculator computes content checksums.
type Calculator interface {
	// CalculateRaw returns the hex SHA-256 of content.
	CalculateRaw(content []byte) string

	// CalculateNormalized returns the hex SHA-256 of normalized content.
	CalculateNormalized(content []byte) string
}

// SHA256 is a zero-size type; pass it by value.
type SHA256 struct{}

func New() SHA256 {
	return SHA256{}
}

// CalculateRaw computes SHA-256 of raw content.
func (c SHA256) CalculateRaw(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// Base64Raw returns the SHA-256 of content in the base64 form S3 expects.
func (c SHA256) Base64Raw(content []byte) string {
	hash := sha256.Sum256(content)
	return base64.StdEncoding.EncodeToString(hash[:])
}

// CalculateNormalized computes SHA-256 of normalized content.
func (c SHA256) CalculateNormalized(content []byte) string {
	hash := sha256.Sum256(c.normalize(content))
	return hex.EncodeToString(hash[:])
}

func (c SHA256) normalize(content []byte) []byte {
	content = bytes.TrimPrefix(content, utf8BOM)

	out := make([]byte, 0, len(content))
	for i := 0; i < len(content); i++ {
		if content[i] == '\r' {
			out = append(out, '\n')
			if i+1 < len(content) && content[i+1] == '\n' {
				i++
			}
			continue
		}
		out = append(out, content[i])
	}

	return bytes.TrimRight(out, "\n")
}
