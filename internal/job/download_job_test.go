// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNeitherIDNorQuery(t *testing.T) {
	_, err := New("", "", nil, nil, false, false)
	require.Error(t, err)
}

func TestNewRejectsBothIDAndQuery(t *testing.T) {
	_, err := New("id1", "some query", nil, nil, false, false)
	require.Error(t, err)
}

func TestNewAcceptsIDOnly(t *testing.T) {
	j, err := New("id1", "", nil, nil, false, false)
	require.NoError(t, err)
	assert.Equal(t, "id1", j.Identifier())
}

func TestNewAcceptsQueryOnly(t *testing.T) {
	j, err := New("", "some song", nil, nil, true, false)
	require.NoError(t, err)
	assert.Equal(t, "some song", j.Identifier())
	assert.True(t, j.QueueFirst)
}

func TestIsShutdownSentinel(t *testing.T) {
	j, err := New("", "__shutdown__", nil, nil, false, false)
	require.NoError(t, err)
	assert.True(t, j.IsShutdownSentinel("__shutdown__"))
	assert.False(t, j.IsShutdownSentinel("other"))
}
