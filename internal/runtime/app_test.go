package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxsift/voxsift-core/internal/audio"
	"github.com/voxsift/voxsift-core/internal/pipeline"
)

func testSource(t *testing.T, name string) *audio.Source {
	t.Helper()
	src, err := audio.NewUploaded(name, "audio/wav", []byte("payload"))
	require.NoError(t, err)
	return src
}

func TestAppNewSourceInvalidatesResult(t *testing.T) {
	app := NewApp(nil)

	app.SetSource(testSource(t, "first.wav"))
	app.SetResult(&pipeline.Result{AudioFile: "first.wav"})
	require.NotNil(t, app.Result())

	app.SetSource(testSource(t, "second.wav"))
	assert.Nil(t, app.Result(), "stale result must not survive a new source")
	assert.Equal(t, "second.wav", app.Source().DisplayName)
}

func TestAppResetKeepsWords(t *testing.T) {
	app := NewApp([]string{"小狼"})
	app.SetSource(testSource(t, "a.wav"))
	app.SetResult(&pipeline.Result{})

	app.Reset()

	assert.Nil(t, app.Source())
	assert.Nil(t, app.Result())
	assert.Equal(t, []string{"小狼"}, app.Words().Words())
}

func TestAppWordMutation(t *testing.T) {
	app := NewApp([]string{"小狼"})

	assert.True(t, app.AddWord("开心"))
	assert.False(t, app.AddWord("开心"), "duplicates are rejected")
	assert.False(t, app.AddWord("  "), "blank words are rejected")

	require.NoError(t, app.RemoveWord(0))
	assert.Error(t, app.RemoveWord(5))
	assert.Equal(t, []string{"开心"}, app.Words().Words())
}
