// Package keyvalue decodes the argument text of ARG, ENV, and LABEL
// instructions into key/value mappings.
//
// Build files allow several equivalent spellings for the same pair:
// "KEY=value", "KEY value", "KEY = value" (three shell words), quoted
// values with spaces, and backslash-continued multi-pair forms. The
// decoder tokenizes the text with POSIX shell-word splitting and then
// normalizes all of these into one flat key/value stream.
package keyvalue

import (
	"strings"

	"github.com/google/shlex"
)

const equals = "="

// Decode converts raw ENV/LABEL argument text into a key/value mapping.
// An unpaired trailing key maps to the empty string. Repeated keys keep
// the last occurrence. Malformed quoting yields an empty mapping rather
// than an error; a single bad instruction must not fail a whole analysis.
func Decode(raw string) map[string]string {
	toks := tokenize(raw)
	out := make(map[string]string, len(toks)/2)
	for i := 0; i < len(toks); i += 2 {
		if i+1 < len(toks) {
			out[toks[i]] = toks[i+1]
		} else {
			out[toks[i]] = ""
		}
	}
	return out
}

// DecodeOptional converts raw ARG argument text into a key/value mapping
// where a key declared without a default value maps to nil. A trailing
// "=" tokenizes to the bare key, so "KEY=" and "KEY" both map to nil.
func DecodeOptional(raw string) map[string]*string {
	toks := tokenize(raw)
	out := make(map[string]*string, len(toks)/2)
	for i := 0; i < len(toks); i += 2 {
		if i+1 < len(toks) {
			v := toks[i+1]
			out[toks[i]] = &v
		} else {
			out[toks[i]] = nil
		}
	}
	return out
}

// tokenize splits raw argument text into an alternating key/value token
// stream: shell-word splitting, noise removal, then equals-sign
// disambiguation. Returns nil when the text cannot be tokenized.
func tokenize(raw string) []string {
	words, err := shlex.Split(raw)
	if err != nil {
		// Unbalanced quoting. Degrade to an empty mapping instead of
		// failing the instruction.
		return nil
	}

	// The raw text of a continued instruction may repeat the keyword
	// itself, so every such token is dropped, not just a leading one.
	// Escaped line breaks tokenize as bare line-break words; only those
	// are stripped, so a quoted whitespace value survives.
	toks := words[:0]
	for _, w := range words {
		if w != "" && strings.Trim(w, "\r\n") == "" {
			continue
		}
		switch strings.ToLower(w) {
		case "arg", "env", "label":
			continue
		}
		toks = append(toks, w)
	}

	var out []string
	prev := ""
	for _, tok := range toks {
		switch {
		case tok == equals:
			// Bare separator between a key and its value.
		case strings.HasPrefix(tok, equals):
			out = append(out, strings.TrimPrefix(tok, equals))
		case strings.HasSuffix(tok, equals):
			out = append(out, strings.TrimSuffix(tok, equals))
		case strings.HasSuffix(prev, equals) && prev != "":
			// The previous raw token ended with "=" ("KEY = value" or
			// "KEY= value"), so this token is its value verbatim, even
			// if it contains "=" itself.
			out = append(out, tok)
		default:
			if k, v, ok := strings.Cut(tok, equals); ok {
				out = append(out, k, v)
			} else {
				out = append(out, tok)
			}
		}
		prev = tok
	}
	return out
}
