package embedding

import "strings"

const (
	// MaxFileBytes is the default eligibility ceiling for a single file.
	MaxFileBytes = 100 * 1024

	// controlCharRatio is the fraction of control characters above which
	// content is treated as binary.
	controlCharRatio = 0.10
)

// Eligible reports whether file content can be embedded: non-empty, at or
// under maxBytes, and not binary. Deterministic and total.
func Eligible(content string, maxBytes int) bool {
	if maxBytes <= 0 {
		maxBytes = MaxFileBytes
	}
	if len(content) == 0 || len(content) > maxBytes {
		return false
	}
	return !IsBinary(content)
}

// IsBinary classifies content as binary when it contains a NUL byte, or when
// control characters (codes < 32 excluding tab/newline/carriage-return)
// exceed 10% of its length.
func IsBinary(content string) bool {
	if len(content) == 0 {
		return false
	}

	control := 0
	for i := 0; i < len(content); i++ {
		c := content[i]
		if c == 0 {
			return true
		}
		if c < 32 && c != '\t' && c != '\n' && c != '\r' {
			control++
		}
	}
	return float64(control)/float64(len(content)) > controlCharRatio
}

// ChunkLines splits content at line boundaries into contiguous chunks no
// larger than maxChunk bytes. A single line longer than maxChunk becomes its
// own chunk rather than being split mid-line. Concatenating the chunks in
// order reproduces the original content.
func ChunkLines(content string, maxChunk int) []string {
	if maxChunk <= 0 || len(content) <= maxChunk {
		return []string{content}
	}

	var chunks []string
	var b strings.Builder

	rest := content
	for len(rest) > 0 {
		line := rest
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			line = rest[:i+1]
			rest = rest[i+1:]
		} else {
			rest = ""
		}

		if b.Len() > 0 && b.Len()+len(line) > maxChunk {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
