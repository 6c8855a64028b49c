package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequire(t *testing.T) {
	assert.NoError(t, Require(Static(true)))
	assert.ErrorIs(t, Require(Static(false)), ErrPermissionDenied)
	assert.ErrorIs(t, Require(nil), ErrPermissionDenied)
}
