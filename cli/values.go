package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jimimvp/CausalProb/matrix"
	"github.com/jimimvp/CausalProb/scm"
)

// rowsJSON is the on-disk and printed form of scm.Values: node → rows.
type rowsJSON map[string][][]float64

func toRows(vs scm.Values) rowsJSON {
	out := make(rowsJSON, len(vs))
	for name, v := range vs {
		out[name] = v.ToRows()
	}

	return out
}

func (r rowsJSON) values() (scm.Values, error) {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(scm.Values, len(r))
	for _, name := range names {
		m, err := matrix.NewFromRows(r[name])
		if err != nil {
			return nil, fmt.Errorf("value of %q: %w", name, err)
		}
		out[name] = m
	}

	return out, nil
}

// readValues reads a rowsJSON document from path ("-" for stdin).
func readValues(path string, stdin io.Reader) (scm.Values, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		// #nosec G304 -- path is an explicit user flag.
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, exitError(exitInvalidInput, "reading values: %v", err)
	}
	var r rowsJSON
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, exitError(exitInvalidInput, "parsing values: %v", err)
	}
	vs, err := r.values()
	if err != nil {
		return nil, exitError(exitInvalidInput, "%v", err)
	}

	return vs, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
