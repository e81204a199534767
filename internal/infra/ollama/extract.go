package ollama

import (
	"encoding/json"
	"errors"
)

var (
	// ErrNoObject means the content held no parseable JSON object.
	ErrNoObject = errors.New("no JSON object in reply")
	// ErrAmbiguous means more than one object parsed; picking one would
	// be a guess, so the reply is treated as malformed.
	ErrAmbiguous = errors.New("multiple JSON objects in reply")
	// ErrTooLong bounds the scan against runaway model output.
	ErrTooLong = errors.New("reply too long to scan")
)

const maxScanBytes = 64 * 1024

// ExtractObject locates the single top-level JSON object inside
// possibly prose-wrapped content. Brace matching is string- and
// escape-aware; candidates that fail json.Valid are skipped.
func ExtractObject(content string) (string, error) {
	if len(content) > maxScanBytes {
		return "", ErrTooLong
	}

	var found string
	count := 0

	for i := 0; i < len(content); i++ {
		if content[i] != '{' {
			continue
		}

		end, ok := matchObject(content, i)
		if !ok {
			continue
		}

		candidate := content[i : end+1]
		if json.Valid([]byte(candidate)) {
			count++
			if count > 1 {
				return "", ErrAmbiguous
			}
			found = candidate
		}
		i = end
	}

	if count == 0 {
		return "", ErrNoObject
	}
	return found, nil
}

// matchObject returns the index of the brace closing the object that
// opens at start.
func matchObject(content string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(content); i++ {
		c := content[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}

	return 0, false
}
