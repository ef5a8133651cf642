package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstalls_Toggle(t *testing.T) {
	installs := NewInstalls()

	assert.True(t, installs.Toggle("s1", "a1"))
	assert.True(t, installs.Installed("s1", "a1"))

	assert.False(t, installs.Toggle("s1", "a1"), "second toggle uninstalls")
	assert.False(t, installs.Installed("s1", "a1"))
}

func TestInstalls_SessionsAreIsolated(t *testing.T) {
	installs := NewInstalls()

	installs.Toggle("s1", "a1")

	assert.False(t, installs.Installed("s2", "a1"))
}

func TestInstalls_AppIDsSorted(t *testing.T) {
	installs := NewInstalls()

	installs.Toggle("s1", "b")
	installs.Toggle("s1", "a")
	installs.Toggle("s1", "c")

	assert.Equal(t, []string{"a", "b", "c"}, installs.AppIDs("s1"))
}

func TestInstalls_Forget(t *testing.T) {
	installs := NewInstalls()

	installs.Toggle("s1", "a1")
	installs.Forget("s1")

	assert.False(t, installs.Installed("s1", "a1"))
	assert.Empty(t, installs.AppIDs("s1"))
}
