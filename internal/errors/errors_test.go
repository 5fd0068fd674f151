package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderCarriesMetadata(t *testing.T) {
	t.Parallel()

	err := Newf("precache entry %s failed", "/offline").
		Component("offline").
		Category(CategoryNetwork).
		Context("path", "/offline").
		Build()

	var enhanced *EnhancedError
	require.True(t, As(err, &enhanced))
	assert.Equal(t, "offline", enhanced.GetComponent())
	assert.Equal(t, CategoryNetwork, enhanced.GetCategory())

	path, ok := enhanced.GetContext("path")
	require.True(t, ok)
	assert.Equal(t, "/offline", path)
	assert.Equal(t, "precache entry /offline failed", err.Error())
}

func TestUnwrapPreservesSentinel(t *testing.T) {
	t.Parallel()

	sentinel := stderrors.New("store not found")
	err := New(sentinel).Component("offline").Category(CategoryNotFound).Build()

	assert.True(t, Is(err, sentinel))
}

func TestNewNilError(t *testing.T) {
	t.Parallel()

	err := New(nil).Build()
	require.Error(t, err)
	assert.Equal(t, "unknown error", err.Error())
}

func TestDefaultCategory(t *testing.T) {
	t.Parallel()

	var enhanced *EnhancedError
	require.True(t, As(Newf("boom").Build(), &enhanced))
	assert.Equal(t, CategoryGeneric, enhanced.GetCategory())
}
