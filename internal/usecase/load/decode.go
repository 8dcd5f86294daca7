package load

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode"
)

// record is one raw input entry and its 1-based position in the input.
type record struct {
	pos int
	raw json.RawMessage
}

// decodeRecords reads either a JSON array of objects or newline-delimited JSON.
// A syntax error aborts decoding: the stream cannot be resynchronized.
func decodeRecords(r io.Reader) ([]record, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	dec := json.NewDecoder(br)
	var out []record

	if first == '[' {
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("open array: %w", err)
		}
		for dec.More() {
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("record %d: %w", len(out)+1, err)
			}
			out = append(out, record{pos: len(out) + 1, raw: raw})
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("close array: %w", err)
		}
		return out, nil
	}

	for {
		var raw json.RawMessage
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(out)+1, err)
		}
		out = append(out, record{pos: len(out) + 1, raw: raw})
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err //nolint:wrapcheck // caller wraps
		}
		if !unicode.IsSpace(rune(b[0])) {
			return b[0], nil
		}
		if _, err := br.ReadByte(); err != nil {
			return 0, err //nolint:wrapcheck // caller wraps
		}
	}
}
