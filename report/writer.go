// Package report holds listeners that turn the state reports of a run into
// delimited text, log lines or an in-memory record.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	petri "github.com/jt05610/xschema"
)

type column struct {
	place string
	token string
	label string
}

// columns fixes the column order of a run from its first report. With one
// token type there is a column per place; with several there is one per
// place and token, labeled "place:token".
func columns(r *petri.StateReport) []column {
	seen := make(map[string]bool)
	for _, m := range r.Marking {
		for token := range m.Tokens {
			seen[token] = true
		}
	}
	tokens := make([]string, 0, len(seen))
	for token := range seen {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	ret := make([]column, 0, len(r.Marking)*len(tokens))
	for _, m := range r.Marking {
		if len(tokens) == 1 {
			ret = append(ret, column{place: m.Place, token: tokens[0], label: m.Place})
			continue
		}
		for _, token := range tokens {
			ret = append(ret, column{place: m.Place, token: token, label: m.Place + ":" + token})
		}
	}
	return ret
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func header(cols []column) string {
	fields := make([]string, 0, len(cols)+2)
	fields = append(fields, quote("Round"), quote("Transition"))
	for _, c := range cols {
		fields = append(fields, quote(c.label))
	}
	return strings.Join(fields, ",")
}

func row(cols []column, r *petri.StateReport) string {
	fields := make([]string, 0, len(cols)+2)
	fields = append(fields, strconv.Itoa(r.Round), quote(r.Transition))
	for _, c := range cols {
		fields = append(fields, strconv.Itoa(r.Count(c.place, c.token)))
	}
	return strings.Join(fields, ",")
}

// FiringWriter writes one delimited line per round, preceded by a header line.
// Strings are quoted and counts are not, e.g.
//
//	"Round","Transition","Done","Enabled"
//	0,"",0,1
type FiringWriter struct {
	mu     sync.Mutex
	w      io.Writer
	buf    *bufio.Writer
	closer io.Closer
	cols   []column
}

func NewFiringWriter(w io.Writer) *FiringWriter {
	return &FiringWriter{w: w}
}

// CreateFiringWriter truncates or creates the file at path and writes to it
// through a buffer flushed by Close.
func CreateFiringWriter(path string) (*FiringWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	buf := bufio.NewWriter(f)
	return &FiringWriter{w: buf, buf: buf, closer: f}, nil
}

func (fw *FiringWriter) Report(r *petri.StateReport) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.cols == nil {
		fw.cols = columns(r)
		if _, err := io.WriteString(fw.w, header(fw.cols)+"\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(fw.w, row(fw.cols, r)+"\n")
	return err
}

// Close flushes a file opened by CreateFiringWriter and closes it, or closes
// the writer given to NewFiringWriter if it is a closer.
func (fw *FiringWriter) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.buf != nil {
		if err := fw.buf.Flush(); err != nil {
			_ = fw.closer.Close()
			return err
		}
		return fw.closer.Close()
	}
	if c, ok := fw.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
