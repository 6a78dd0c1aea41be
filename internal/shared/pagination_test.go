package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, DefaultPageSize, 25)

	require.Equal(t, 2, p.Page)
	require.Equal(t, 10, p.PerPage)
	require.Equal(t, 25, p.Total)
	require.Equal(t, 3, p.TotalPages)
	require.Equal(t, 10, p.Offset())
}

func TestNewPaginationDefaults(t *testing.T) {
	p := NewPagination(0, 0, 5)

	require.Equal(t, 1, p.Page)
	require.Equal(t, DefaultPageSize, p.PerPage)
	require.Equal(t, 1, p.TotalPages)
	require.Zero(t, p.Offset())
}

func TestNewPaginationEmpty(t *testing.T) {
	p := NewPagination(1, DefaultPageSize, 0)
	require.Zero(t, p.TotalPages)
}
