package z3950

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/gbv/daia/exdep"
)

// DefaultMaxRecords limits the records fetched per search.
const DefaultMaxRecords = 100

// prompt ends the output of every yaz-client command.
const prompt = "Z> "

// Target addresses a Z39.50 database, e.g. "z3950.example.org:210/OPAC".
type Target struct {
	Address  string
	User     string
	Password string
	// Syntax is the record syntax, e.g. "pica". Empty uses the default of
	// the target.
	Syntax     string
	MaxRecords int
}

var (
	errConnect = errors.New("z3950: connect failed")
	errSearch  = errors.New("z3950: search failed")

	recordHeader = regexp.MustCompile(`^\[[^\]]*\]Record type: `)
	hitsLine     = regexp.MustCompile(`^Number of hits: (\d+)`)
)

// YazDialer returns a DialFunc for connections driven by the yaz-client
// program, which must be installed. Each dial starts one interactive
// yaz-client process and opens the target once.
func YazDialer(t Target) DialFunc {
	return func(ctx context.Context) (Conn, error) {
		path, err := exdep.YazClient.Path()
		if err != nil {
			return nil, err
		}
		cmd := exec.Command(path)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, err
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, err
		}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("yaz-client: %w", err)
		}
		p := &process{
			in:  stdin,
			out: stdout,
			wait: func() error {
				stdin.Close()
				return cmd.Wait()
			},
			kill: func() { _ = cmd.Process.Kill() },
		}
		return openYaz(ctx, t, p)
	}
}

// process is a running yaz-client seen through its pipes.
type process struct {
	in   io.WriteCloser
	out  io.Reader
	wait func() error
	kill func()
}

// yazConn drives a single yaz-client process. The target stays open
// between searches until Close.
type yazConn struct {
	target Target
	p      *process
	out    *bufio.Reader
}

// openYaz waits for the first prompt, then authenticates, opens the target
// and selects the record syntax.
func openYaz(ctx context.Context, t Target, p *process) (*yazConn, error) {
	c := &yazConn{target: t, p: p, out: bufio.NewReaderSize(p.out, 64*1024)}
	fail := func(err error) (*yazConn, error) {
		p.kill()
		_ = p.wait()
		return nil, err
	}
	if _, err := c.command(ctx, ""); err != nil {
		return fail(err)
	}
	if t.User != "" {
		if _, err := c.command(ctx, fmt.Sprintf("auth %s %s", t.User, t.Password)); err != nil {
			return fail(err)
		}
	}
	out, err := c.command(ctx, "open "+t.Address)
	if err != nil {
		return fail(err)
	}
	if !bytes.Contains(out, []byte("Connecting...OK")) {
		return fail(errConnect)
	}
	if t.Syntax != "" {
		if _, err := c.command(ctx, "format "+t.Syntax); err != nil {
			return fail(err)
		}
	}
	return c, nil
}

// command sends line, unless empty, and returns the output up to the next
// prompt. A cancelled context kills the process.
func (c *yazConn) command(ctx context.Context, line string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		if line != "" {
			if _, err := io.WriteString(c.p.in, line+"\n"); err != nil {
				done <- result{err: fmt.Errorf("yaz-client: %w", err)}
				return
			}
		}
		out, err := readPrompt(c.out)
		done <- result{out, err}
	}()
	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		c.p.kill()
		return nil, ctx.Err()
	}
}

// readPrompt reads up to and excluding the next prompt.
func readPrompt(r *bufio.Reader) ([]byte, error) {
	var buf bytes.Buffer
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return buf.Bytes(), fmt.Errorf("yaz-client: %w", err)
		}
		buf.WriteByte(b)
		if b == ' ' && bytes.HasSuffix(buf.Bytes(), []byte(prompt)) {
			return buf.Bytes()[:buf.Len()-len(prompt)], nil
		}
	}
}

// Search implements Conn.
func (c *yazConn) Search(ctx context.Context, query string) ([]string, error) {
	out, err := c.command(ctx, "find "+query)
	if err != nil {
		return nil, err
	}
	hits, err := parseFind(out)
	if err != nil || hits == 0 {
		return nil, err
	}
	n := c.target.MaxRecords
	if n <= 0 {
		n = DefaultMaxRecords
	}
	out, err = c.command(ctx, fmt.Sprintf("show 1+%d", n))
	if err != nil {
		return nil, err
	}
	return parseRecords(out)
}

// Close implements Conn. It quits yaz-client and waits for it to exit.
func (c *yazConn) Close() error {
	_, _ = io.WriteString(c.p.in, "quit\n")
	return c.p.wait()
}

// parseFind returns the number of hits reported by a find command, or -1
// if the output does not state it.
func parseFind(out []byte) (int, error) {
	hits := -1
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.Contains(line, "Search was a bloomin' failure"):
			return 0, errSearch
		case hitsLine.MatchString(line):
			hits, _ = strconv.Atoi(hitsLine.FindStringSubmatch(line)[1])
		}
	}
	return hits, nil
}

// parseRecords extracts records from the output of a show command. Record
// bytes are returned unchanged.
func parseRecords(out []byte) ([]string, error) {
	var (
		records []string
		current []string
		inside  bool
		scanner = bufio.NewScanner(bytes.NewReader(out))
	)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<24)
	flush := func() {
		if inside {
			records = append(records, strings.Join(current, "\n"))
		}
		current, inside = nil, false
	}
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case recordHeader.MatchString(line):
			flush()
			inside = true
		case strings.HasPrefix(line, "nextResultSetPosition"),
			strings.HasPrefix(line, "Elapsed:"):
			flush()
		case inside:
			current = append(current, line)
		}
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
