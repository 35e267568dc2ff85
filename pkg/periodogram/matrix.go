package periodogram

import "math"

// Matrix is a dense row-major time-frequency array. Row i belongs to window i
// and column j to frequency j.
type Matrix struct {
	Rows int
	Cols int
	Data []float64
}

// NewMatrix allocates a zeroed rows x cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// At returns the cell at row r, column c.
func (m *Matrix) At(r, c int) float64 {
	return m.Data[r*m.Cols+c]
}

// Row returns row r as a view into the backing array.
func (m *Matrix) Row(r int) []float64 {
	return m.Data[r*m.Cols : (r+1)*m.Cols : (r+1)*m.Cols]
}

// Empty reports whether the matrix holds no cells.
func (m *Matrix) Empty() bool {
	return m == nil || m.Rows == 0 || m.Cols == 0
}

// Range returns the smallest and largest finite cell values. An empty matrix
// returns (0, 0).
func (m *Matrix) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range m.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// ToRows copies the matrix into a slice of rows.
func (m *Matrix) ToRows() [][]float64 {
	rows := make([][]float64, m.Rows)
	for r := range rows {
		rows[r] = append([]float64(nil), m.Row(r)...)
	}
	return rows
}

// MatrixFromRows builds a matrix from equally sized rows. It returns false if
// the rows are ragged.
func MatrixFromRows(rows [][]float64) (*Matrix, bool) {
	if len(rows) == 0 {
		return NewMatrix(0, 0), true
	}
	m := NewMatrix(len(rows), len(rows[0]))
	for r, row := range rows {
		if len(row) != m.Cols {
			return nil, false
		}
		copy(m.Row(r), row)
	}
	return m, true
}
