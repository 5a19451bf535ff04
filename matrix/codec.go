package matrix

import (
	"encoding/json"
	"fmt"
)

// denseJSON is the wire shape of a Dense: explicit shape plus row-major data.
type denseJSON struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// MarshalJSON encodes m as {"rows":r,"cols":c,"data":[...]}.
func (m *Dense) MarshalJSON() ([]byte, error) {
	return json.Marshal(denseJSON{Rows: m.r, Cols: m.c, Data: m.data})
}

// UnmarshalJSON decodes the form written by MarshalJSON and validates that
// len(data) == rows*cols.
func (m *Dense) UnmarshalJSON(b []byte) error {
	var w denseJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return matrixErrorf(opUnmarshal, err)
	}
	if w.Rows <= 0 || w.Cols <= 0 {
		return matrixErrorf(opUnmarshal, ErrInvalidDimensions)
	}
	if len(w.Data) != w.Rows*w.Cols {
		return matrixErrorf(opUnmarshal, fmt.Errorf("%w: %d values for %dx%d", ErrDimensionMismatch, len(w.Data), w.Rows, w.Cols))
	}
	m.r, m.c, m.data = w.Rows, w.Cols, w.Data

	return nil
}
