package grid

import (
	"fmt"

	"github.com/james-bowman/sparse"
)

// Incidence is a compressed-row relation between two entity sets, e.g.
// faces → nodes or cells → faces. Data carries a per-entry value (the
// orientation sign for cell-face relations, 1 otherwise).
type Incidence struct {
	Rows, Cols int
	Indptr     []int // length Rows+1
	Indices    []int
	Data       []float64
}

// NewIncidence builds an incidence from per-row column lists. data may be
// nil, in which case every entry is 1.
func NewIncidence(rows, cols int, lists [][]int, data [][]float64) (*Incidence, error) {
	if len(lists) != rows {
		return nil, fmt.Errorf("incidence: %d row lists for %d rows", len(lists), rows)
	}
	m := &Incidence{Rows: rows, Cols: cols, Indptr: make([]int, rows+1)}
	for i, l := range lists {
		m.Indptr[i+1] = m.Indptr[i] + len(l)
	}
	m.Indices = make([]int, 0, m.Indptr[rows])
	m.Data = make([]float64, 0, m.Indptr[rows])
	for i, l := range lists {
		if data != nil && len(data[i]) != len(l) {
			return nil, fmt.Errorf("incidence: row %d has %d values for %d entries", i, len(data[i]), len(l))
		}
		for k, j := range l {
			if j < 0 || j >= cols {
				return nil, fmt.Errorf("incidence: row %d references column %d outside [0,%d)", i, j, cols)
			}
			m.Indices = append(m.Indices, j)
			if data != nil {
				m.Data = append(m.Data, data[i][k])
			} else {
				m.Data = append(m.Data, 1)
			}
		}
	}
	return m, nil
}

// Row returns the column indices and values of row i. The slices alias the
// incidence storage.
func (m *Incidence) Row(i int) ([]int, []float64) {
	lo, hi := m.Indptr[i], m.Indptr[i+1]
	return m.Indices[lo:hi], m.Data[lo:hi]
}

func (m *Incidence) NNZ() int { return len(m.Indices) }

// Transpose returns the column-to-row relation, keeping row order within
// each transposed row.
func (m *Incidence) Transpose() *Incidence {
	t := &Incidence{Rows: m.Cols, Cols: m.Rows, Indptr: make([]int, m.Cols+1)}
	for _, j := range m.Indices {
		t.Indptr[j+1]++
	}
	for j := 0; j < m.Cols; j++ {
		t.Indptr[j+1] += t.Indptr[j]
	}
	t.Indices = make([]int, len(m.Indices))
	t.Data = make([]float64, len(m.Data))
	next := make([]int, m.Cols)
	copy(next, t.Indptr[:m.Cols])
	for i := 0; i < m.Rows; i++ {
		for k := m.Indptr[i]; k < m.Indptr[i+1]; k++ {
			j := m.Indices[k]
			t.Indices[next[j]] = i
			t.Data[next[j]] = m.Data[k]
			next[j]++
		}
	}
	return t
}

// Clone returns a deep copy.
func (m *Incidence) Clone() *Incidence {
	c := &Incidence{Rows: m.Rows, Cols: m.Cols}
	c.Indptr = append([]int(nil), m.Indptr...)
	c.Indices = append([]int(nil), m.Indices...)
	c.Data = append([]float64(nil), m.Data...)
	return c
}

// Lists returns the per-row column lists and values as fresh slices.
func (m *Incidence) Lists() ([][]int, [][]float64) {
	lists := make([][]int, m.Rows)
	data := make([][]float64, m.Rows)
	for i := 0; i < m.Rows; i++ {
		idx, val := m.Row(i)
		lists[i] = append([]int(nil), idx...)
		data[i] = append([]float64(nil), val...)
	}
	return lists, data
}

// CSR converts the incidence to a sparse matrix. Repeated entries in a row
// are summed.
func (m *Incidence) CSR() *sparse.CSR {
	dok := sparse.NewDOK(m.Rows, m.Cols)
	for i := 0; i < m.Rows; i++ {
		idx, val := m.Row(i)
		for k, j := range idx {
			dok.Set(i, j, dok.At(i, j)+val[k])
		}
	}
	return dok.ToCSR()
}
