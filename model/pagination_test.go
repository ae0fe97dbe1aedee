package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPageValidation(t *testing.T) {
	_, err := NewPage(0, 20)
	assert.Error(t, err)

	_, err = NewPage(1, 0)
	assert.Error(t, err)

	_, err = NewPage(1, 101)
	assert.Error(t, err)

	p, err := NewPage(3, 25)
	require.NoError(t, err)
	assert.Equal(t, 50, p.Offset())
}

func TestTotalPages(t *testing.T) {
	p := Page{Number: 1, Size: 20}

	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(1))
	assert.Equal(t, 1, p.TotalPages(20))
	assert.Equal(t, 2, p.TotalPages(21))
	assert.Equal(t, 5, p.TotalPages(100))
}

func TestNewPaginatedNeverReturnsNilData(t *testing.T) {
	page := Page{Number: 1, Size: 20}
	result := NewPaginated[*Vocal](nil, 0, page)

	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
	assert.Equal(t, 0, result.TotalPages)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 4.99, Round2(4.994))
	assert.Equal(t, 5.0, Round2(4.996))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, -4.99, Round2(-4.994))
	assert.Equal(t, 10.0, Round2(10))
}
