package pproc

import (
	"bufio"
	"bytes"
	"io"
	"iter"
)

// SplitRecords is a bufio.SplitFunc that returns blocks of non-blank lines.
// Blank lines, which may contain whitespace, separate records; tokens never
// contain the separator and are never empty.
func SplitRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	// Skip leading blank lines.
	start := 0
	for start < len(data) {
		i := bytes.IndexByte(data[start:], '\n')
		if i < 0 {
			if !atEOF || len(bytes.TrimSpace(data[start:])) > 0 {
				break
			}
			return len(data), nil, nil
		}
		if len(bytes.TrimSpace(data[start:start+i])) > 0 {
			break
		}
		start += i + 1
	}
	// Find the next blank line.
	pos := start
	for pos < len(data) {
		i := bytes.IndexByte(data[pos:], '\n')
		if i < 0 {
			break
		}
		if len(bytes.TrimSpace(data[pos:pos+i])) == 0 {
			return pos + i + 1, trimEOL(data[start:pos]), nil
		}
		pos += i + 1
	}
	if atEOF && start < len(data) {
		return len(data), trimEOL(data[start:]), nil
	}
	return start, nil, nil
}

func trimEOL(b []byte) []byte {
	return bytes.TrimRight(b, "\r\n")
}

// Records returns the records of a stream, split on blank lines.
func Records(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Split(SplitRecords)
		scanner.Buffer(make([]byte, 0, defaultMaxBufferSize), defaultMaxTokenSize)
		for scanner.Scan() {
			if !yield(scanner.Text(), nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", err)
		}
	}
}
