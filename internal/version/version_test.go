package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion(t *testing.T) {
	assert.Equal(t, Version{Major: 1, Minor: 2, Patch: 3}, parse("v1.2.3"))
	assert.Equal(t, Version{Major: 1, Minor: 2, Patch: 3}, parse("1.2.3-rc1"))
	assert.Equal(t, Version{Major: 1}, parse("v1"))
	assert.Equal(t, Version{}, parse(""))

	assert.Equal(t, "1.2.3", Version{Major: 1, Minor: 2, Patch: 3}.String())
	assert.Equal(t, "1.2.3-abcdef0", Version{Major: 1, Minor: 2, Patch: 3, Commit: "abcdef0"}.String())

	assert.NotEmpty(t, Current().String())
}
