package editor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mapping-editor/internal/collab"
	"mapping-editor/internal/journal"
	"mapping-editor/internal/mapping/mappingtest"
)

type fakeCollab struct {
	mu         sync.Mutex
	created    []map[string]any
	createErr  error
	fragments  *collab.FieldFragments
	generate   func(ctx context.Context, category string, req collab.GenerateRequest) (string, error)
	genCalls   []collab.GenerateRequest
	saved      []collab.SaveRequest
	saveResult collab.SaveResult
	menus      []string
}

func (c *fakeCollab) FetchMenu(_ context.Context, encodedFilepath, category string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.menus = append(c.menus, category+"|"+encodedFilepath)
	return `<ul class="drop-menu"><li>` + category + `</li></ul>`, nil
}

// CreateField answers with fixture fragments named after the payload.
func (c *fakeCollab) CreateField(_ context.Context, payload map[string]any) (*collab.FieldFragments, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created = append(c.created, payload)
	if c.createErr != nil {
		return nil, c.createErr
	}
	if c.fragments != nil {
		return c.fragments, nil
	}
	name := fmt.Sprint(payload["name"])
	return &collab.FieldFragments{
		RowHTML:     mappingtest.Row(name),
		DetailsHTML: mappingtest.Detail(name, fmt.Sprint(payload["category"])),
	}, nil
}

func (c *fakeCollab) Generate(ctx context.Context, category string, req collab.GenerateRequest) (string, error) {
	c.mu.Lock()
	c.genCalls = append(c.genCalls, req)
	fn := c.generate
	c.mu.Unlock()
	if fn == nil {
		return req.OriginalField + "_" + category + ".csv", nil
	}
	return fn(ctx, category, req)
}

func (c *fakeCollab) Save(_ context.Context, req collab.SaveRequest) collab.SaveResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saved = append(c.saved, req)
	return c.saveResult
}

func (c *fakeCollab) DownloadURL(filename string) string {
	return "/file/remplacement/download/" + filename
}

type fakeTimer struct {
	f       func()
	delay   time.Duration
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeScheduler never fires on its own; tests fire timers explicitly.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{f: f, delay: d}
	s.timers = append(s.timers, t)
	return t
}

// fire runs every timer that was neither stopped nor fired.
func (s *fakeScheduler) fire() {
	s.mu.Lock()
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

// fireAll runs every timer not fired yet, stopped ones included, as if each
// callback had already been queued when it was stopped.
func (s *fakeScheduler) fireAll() {
	s.mu.Lock()
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type memJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (j *memJournal) Record(e journal.Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
}

func (j *memJournal) actions() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, 0, len(j.entries))
	for _, e := range j.entries {
		out = append(out, e.Action+":"+e.Status)
	}
	return out
}

type harness struct {
	ed      *Editor
	collab  *fakeCollab
	clock   *fakeScheduler
	journal *memJournal
}

func newHarness(t *testing.T, pairs ...string) *harness {
	t.Helper()
	h := &harness{
		collab:  &fakeCollab{saveResult: collab.SaveResult{Success: true}},
		clock:   &fakeScheduler{},
		journal: &memJournal{},
	}
	h.ed = New(h.collab, Options{
		ID:              "s1",
		MappingName:     "customers",
		FileID:          "42",
		EncodedFilepath: "ZGF0YS5jc3Y=",
		Scheduler:       h.clock,
		Journal:         h.journal,
	})
	rows, details := mappingtest.Page(pairs...)
	require.NoError(t, h.ed.Load(rows, details))
	t.Cleanup(h.ed.Close)
	return h
}

func pageOf(pairs ...string) (string, string) {
	return mappingtest.Page(pairs...)
}
