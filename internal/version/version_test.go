package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFullVersion_ldflags(t *testing.T) {
	oldV, oldC := Version, Commit
	t.Cleanup(func() { Version, Commit = oldV, oldC })

	Version, Commit = "v1.2.3", "0123456789abcdef"
	assert.Equal(t, "v1.2.3", GetVersion())
	assert.Equal(t, "v1.2.3 (0123456)", GetFullVersion())

	Commit = "abc"
	assert.Equal(t, "v1.2.3", GetFullVersion())
}
