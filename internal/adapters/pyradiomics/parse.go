package pyradiomics

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/bft-labs/radbatch/internal/domain"
)

// skipKeys are case-identifying columns the CLI adds to every row.
var skipKeys = map[string]bool{"Image": true, "Mask": true}

// ParseResult decodes the first JSON object of data into a Result, keeping
// the key order of the document.
func ParseResult(data []byte) (domain.Result, error) {
	dec := json.NewDecoder(bytes.NewReader(sanitize(data)))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("expected a JSON object")
	}

	var res domain.Result
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		if skipKeys[key] {
			continue
		}
		v, err := toValue(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		res = append(res, domain.Entry{Name: key, Value: v})
	}
	return res, nil
}

func toValue(raw json.RawMessage) (domain.Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return domain.Text(""), nil
	}
	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return domain.Text(s), nil
	case c == '-' || (c >= '0' && c <= '9'):
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return nil, err
		}
		return domain.Number(f), nil
	case c == 'n':
		return domain.Text(""), nil
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, err
		}
		return domain.Text(buf.String()), nil
	}
}

// sanitize replaces the non-standard NaN and Infinity literals that Python's
// json module emits with null.
func sanitize(data []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(data))
	inString, escaped := false, false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out.WriteByte(c)
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
		if c == '"' {
			inString = true
			out.WriteByte(c)
			continue
		}
		if n := literalLen(data[i:]); n > 0 {
			out.WriteString("null")
			i += n - 1
			continue
		}
		out.WriteByte(c)
	}
	return out.Bytes()
}

func literalLen(b []byte) int {
	for _, lit := range []string{"NaN", "-Infinity", "Infinity"} {
		if bytes.HasPrefix(b, []byte(lit)) {
			return len(lit)
		}
	}
	return 0
}
