// Package dotenv reads and writes the project's local .env file.
//
// A comment line "# @secret" marks the next variable as secret, as does an
// inline "# @secret" after the value. Rendering never writes secret values.
package dotenv

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/bsmartlabs/supa/internal/envvar"
)

const (
	DefaultFileName = ".env"
	SecretMarker    = "@secret"
)

type File struct {
	// Header is the leading comment block, without the "#" prefix.
	Header    []string
	Variables []envvar.Variable
}

// Map returns key/value pairs, later duplicates winning.
func (f File) Map() map[string]string {
	out := make(map[string]string, len(f.Variables))
	for _, v := range f.Variables {
		out[v.Key] = v.Value
	}
	return out
}

func Parse(data []byte) (File, error) {
	var f File
	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0
	inHeader := true
	pendingSecret := false
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			inHeader = false
			continue
		}
		if strings.HasPrefix(line, "#") {
			comment := commentText(line)
			if comment == SecretMarker {
				pendingSecret = true
				inHeader = false
				continue
			}
			if inHeader {
				f.Header = append(f.Header, comment)
			}
			continue
		}
		inHeader = false
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}

		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			return File{}, fmt.Errorf("line %d: missing '='", lineNum)
		}
		key := strings.TrimSpace(line[:eq])
		if !IsValidKey(key) {
			return File{}, fmt.Errorf("line %d: invalid key %q", lineNum, key)
		}

		val, comment, err := parseValue(strings.TrimSpace(line[eq+1:]))
		if err != nil {
			return File{}, fmt.Errorf("line %d: %w", lineNum, err)
		}
		f.Variables = append(f.Variables, envvar.Variable{
			Key:    key,
			Value:  val,
			Secret: pendingSecret || comment == SecretMarker,
		})
		pendingSecret = false
	}
	if err := sc.Err(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Render writes the header, every non-secret variable in order, and a footer
// naming the secret keys that were left out.
func Render(f File) []byte {
	var b strings.Builder
	for _, h := range f.Header {
		b.WriteString("#")
		if h != "" {
			b.WriteString(" " + h)
		}
		b.WriteByte('\n')
	}
	if len(f.Header) > 0 {
		b.WriteByte('\n')
	}

	plain, secret := envvar.Partition(f.Variables)
	for _, v := range plain {
		b.WriteString(v.Key)
		b.WriteString(`="`)
		b.WriteString(escapeDoubleQuoted(v.Value))
		b.WriteString("\"\n")
	}

	if len(secret) > 0 {
		if len(plain) > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("# Secret variables are not written to this file:\n")
		for _, key := range envvar.Keys(secret) {
			b.WriteString("#   " + key + "\n")
		}
	}
	return []byte(b.String())
}

func commentText(line string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, "#"))
}

// IsValidKey reports whether s is a usable variable name.
func IsValidKey(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case i == 0 && (unicode.IsLetter(r) || r == '_'):
		case i > 0 && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'):
		default:
			return false
		}
	}
	return true
}

// parseValue returns the decoded value and the text of a trailing comment.
func parseValue(raw string) (string, string, error) {
	if raw == "" {
		return "", "", nil
	}
	var (
		val  string
		rest string
		err  error
	)
	switch raw[0] {
	case '"':
		val, rest, err = parseDoubleQuoted(raw)
	case '\'':
		val, rest, err = parseSingleQuoted(raw)
	default:
		val, rest = raw, ""
		if i := strings.Index(raw, " #"); i >= 0 {
			val, rest = raw[:i], raw[i+1:]
		}
		val = strings.TrimSpace(val)
	}
	if err != nil {
		return "", "", err
	}
	rest = strings.TrimSpace(rest)
	if rest != "" && !strings.HasPrefix(rest, "#") {
		return "", "", fmt.Errorf("unexpected text after value: %q", rest)
	}
	return val, commentText(rest), nil
}

func parseSingleQuoted(raw string) (string, string, error) {
	if len(raw) < 2 || raw[0] != '\'' {
		return "", "", errors.New("not single quoted")
	}
	for i := 1; i < len(raw); i++ {
		if raw[i] == '\'' {
			return raw[1:i], raw[i+1:], nil
		}
	}
	return "", "", errors.New("unterminated single-quoted value")
}

func parseDoubleQuoted(raw string) (string, string, error) {
	if len(raw) < 2 || raw[0] != '"' {
		return "", "", errors.New("not double quoted")
	}
	var b strings.Builder
	escaped := false
	for i := 1; i < len(raw); i++ {
		ch := raw[i]
		if escaped {
			switch ch {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			default:
				// Unknown escapes stay literal.
				b.WriteByte('\\')
				b.WriteByte(ch)
			}
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			escaped = true
		case '"':
			return b.String(), raw[i+1:], nil
		default:
			b.WriteByte(ch)
		}
	}
	return "", "", errors.New("unterminated double-quoted value")
}

func escapeDoubleQuoted(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
