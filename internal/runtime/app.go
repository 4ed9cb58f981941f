package runtime

import (
	"sync"

	"github.com/voxsift/voxsift-core/internal/audio"
	"github.com/voxsift/voxsift-core/internal/pipeline"
	"github.com/voxsift/voxsift-core/internal/words"
)

// App is the single-slot session state: the current audio source, the
// sensitive-word set, and the most recent result. Selecting a new source
// replaces the old one and invalidates the previous result.
type App struct {
	mu     sync.Mutex
	source *audio.Source
	result *pipeline.Result
	words  *words.Set
}

func NewApp(seedWords []string) *App {
	return &App{words: words.NewSet(seedWords...)}
}

// SetSource replaces the current source and clears any stale result.
func (a *App) SetSource(src *audio.Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = src
	a.result = nil
}

func (a *App) Source() *audio.Source {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.source
}

func (a *App) SetResult(res *pipeline.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result = res
}

func (a *App) Result() *pipeline.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Reset clears the source and result. The word set survives a reset.
func (a *App) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = nil
	a.result = nil
}

func (a *App) AddWord(word string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.words.Add(word)
}

func (a *App) RemoveWord(index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.words.RemoveAt(index)
}

// Words returns the live word set. Callers that mutate it concurrently with
// a running session should go through AddWord and RemoveWord instead.
func (a *App) Words() *words.Set {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.words
}
