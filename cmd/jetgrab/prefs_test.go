package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jetgrab/internal/domain"
)

func TestApplySetting(t *testing.T) {
	p := domain.DefaultPreferences()

	p, err := applySetting(p, "types", "video, images")
	require.NoError(t, err)
	assert.True(t, p.Types[domain.TypeVideo])
	assert.True(t, p.Types[domain.TypeImage])
	assert.False(t, p.Types[domain.TypeAudio])

	p, err = applySetting(p, "types", "all")
	require.NoError(t, err)
	assert.True(t, p.Types[domain.TypeOther])

	p, err = applySetting(p, "max", "25")
	require.NoError(t, err)
	assert.Equal(t, 25, p.MaxResults)

	p, err = applySetting(p, "dedupe", "false")
	require.NoError(t, err)
	assert.False(t, p.Dedupe)

	p, err = applySetting(p, "sort", "domain")
	require.NoError(t, err)
	assert.Equal(t, domain.SortDomain, p.Sort)
}

func TestApplySetting_Invalid(t *testing.T) {
	p := domain.DefaultPreferences()
	for _, kv := range [][2]string{
		{"types", "movies"},
		{"max", "-1"},
		{"dedupe", "maybe"},
		{"sort", "random"},
		{"theme", "blue"},
		{"colour", "x"},
	} {
		_, err := applySetting(p, kv[0], kv[1])
		assert.Error(t, err, kv[0])
	}
}
