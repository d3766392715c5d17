package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_OK(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"200 OK", http.StatusOK, true},
		{"201 Created", http.StatusCreated, true},
		{"204 No Content is not a POS success", http.StatusNoContent, false},
		{"400 Bad Request", http.StatusBadRequest, false},
		{"500 Internal", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Result{StatusCode: tt.status}
			assert.Equal(t, tt.want, r.OK())
		})
	}
}

func TestResult_Int64(t *testing.T) {
	r := &Result{
		StatusCode: http.StatusOK,
		Body: map[string]any{
			"CustomerID": float64(1534), // json.Unmarshal yields float64
			"Notes":      "text",
		},
	}

	id, ok := r.Int64("CustomerID")
	assert.True(t, ok)
	assert.Equal(t, int64(1534), id)

	_, ok = r.Int64("Notes")
	assert.False(t, ok)

	_, ok = r.Int64("Missing")
	assert.False(t, ok)

	var nilResult *Result
	_, ok = nilResult.Int64("CustomerID")
	assert.False(t, ok)
}

func TestResult_Has(t *testing.T) {
	r := &Result{Body: map[string]any{
		"MainAddressID": float64(7),
		"Empty":         nil,
	}}

	assert.True(t, r.Has("MainAddressID"))
	assert.False(t, r.Has("Empty"))
	assert.False(t, r.Has("Missing"))
}

func TestStockChange_TotalStock(t *testing.T) {
	change := StockChange{
		ProductStocks: []SubLocationStock{
			{CurrentStock: 3},
			{CurrentStock: 0},
			{CurrentStock: 9},
		},
	}
	assert.Equal(t, int64(12), change.TotalStock())

	empty := StockChange{}
	assert.Equal(t, int64(0), empty.TotalStock())
}
