package palette

import (
	"errors"
	"sync"
	"testing"

	"github.com/dshills/cmdmgr/internal/command"
	"github.com/dshills/cmdmgr/internal/command/flags"
	"github.com/dshills/cmdmgr/internal/command/handler"
	"github.com/dshills/cmdmgr/internal/dispatcher"
)

const audioLoaded flags.Flags = 1 << 0

type fixture struct {
	reg   *command.Registry
	disp  *dispatcher.Dispatcher
	pal   *Palette
	calls map[string]int
	mu    sync.Mutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		reg:   command.NewRegistry(),
		calls: make(map[string]int),
	}
	count := handler.Func(func(inv *handler.Invocation) error {
		f.mu.Lock()
		f.calls[HistoryKey(inv.Name, inv.Index)]++
		f.mu.Unlock()
		return nil
	})
	loaded := flags.Require(audioLoaded)

	mustNoErr(t, f.reg.BeginMenu("Transport"))
	mustRegister(t, f.reg, command.Spec{Name: "Play", Label: "Play", Key: "Space", Handler: count, Policy: &loaded})
	mustRegister(t, f.reg, command.Spec{Name: "Stop", Label: "Stop", Handler: count, Policy: &loaded})
	mustNoErr(t, f.reg.EndMenu())

	mustNoErr(t, f.reg.BeginMenu("File"))
	mustRegister(t, f.reg, command.Spec{Name: "Open", Label: "Open Project", Key: "Ctrl+O", Handler: count})
	mustNoErr(t, f.reg.BeginSubMenu("Export"))
	mustRegister(t, f.reg, command.Spec{Name: "ExportMp3", Label: "MP3", Handler: count})
	mustNoErr(t, f.reg.EndSubMenu())
	if _, err := f.reg.RegisterMulti(command.MultiSpec{
		Name:    "OpenRecent",
		Count:   2,
		Label:   command.Labels("first.aup", "second.aup"),
		Handler: count,
	}); err != nil {
		t.Fatalf("RegisterMulti: %v", err)
	}
	mustNoErr(t, f.reg.EndMenu())

	f.disp = dispatcher.NewWithDefaults(f.reg)
	f.pal = New(f.disp)
	return f
}

func mustRegister(t *testing.T, reg *command.Registry, s command.Spec) {
	t.Helper()
	if _, err := reg.Register(s); err != nil {
		t.Fatalf("Register(%s): %v", s.Name, err)
	}
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func findEntry(entries []*Entry, name string, index int) *Entry {
	for _, e := range entries {
		if e.Name == name && e.Index == index {
			return e
		}
	}
	return nil
}

func TestHistoryKey(t *testing.T) {
	if got := HistoryKey("Play", 0); got != "Play" {
		t.Errorf("HistoryKey(Play, 0) = %q", got)
	}
	if got := HistoryKey("OpenRecent", 1); got != "OpenRecent#1" {
		t.Errorf("HistoryKey(OpenRecent, 1) = %q", got)
	}
}

func TestHistoryMRU(t *testing.T) {
	h := NewHistory(3)
	h.Add("a")
	h.Add("b")
	h.Add("c")
	h.Add("a")
	h.Add("d")

	recent := h.Recent(0)
	want := []string{"d", "a", "c"}
	if len(recent) != len(want) {
		t.Fatalf("Recent = %v, want %v", recent, want)
	}
	for i := range want {
		if recent[i] != want[i] {
			t.Errorf("Recent[%d] = %q, want %q", i, recent[i], want[i])
		}
	}
	if h.Contains("b") {
		t.Error("b should have been evicted")
	}
	if h.Position("a") != 1 {
		t.Errorf("Position(a) = %d, want 1", h.Position("a"))
	}
	if h.Position("zzz") != -1 {
		t.Error("Position of absent key should be -1")
	}
}

func TestHistoryRemoveRestore(t *testing.T) {
	h := NewHistory(2)
	h.Restore([]string{"x", "y", "x", "z"})
	if h.Len() != 2 || h.Position("x") != 0 || h.Position("y") != 1 {
		t.Fatalf("Restore gave %v", h.Recent(0))
	}
	if !h.Remove("x") || h.Remove("x") {
		t.Error("Remove should succeed once")
	}
	h.Clear()
	if h.Len() != 0 {
		t.Errorf("Len after Clear = %d", h.Len())
	}
}

func TestFilterFuzzyMatch(t *testing.T) {
	tests := []struct {
		query, text string
		match       bool
	}{
		{"play", "Play", true},
		{"op", "Open Project", true},
		{"opj", "Open Project", true},
		{"xyz", "Open Project", false},
		{"stopp", "Stop", false},
	}
	for _, tt := range tests {
		score, _ := fuzzyMatch(tt.query, tt.text)
		if (score > 0) != tt.match {
			t.Errorf("fuzzyMatch(%q, %q) score = %d, want match %v", tt.query, tt.text, score, tt.match)
		}
	}
}

func TestFilterPrefersPrefix(t *testing.T) {
	prefix, _ := fuzzyMatch("st", "Stop")
	inner, _ := fuzzyMatch("st", "Last Track")
	if prefix <= inner {
		t.Errorf("prefix score %d should beat inner score %d", prefix, inner)
	}
}

func TestWordBoundary(t *testing.T) {
	if !isWordBoundary("Open Project", 5) {
		t.Error("P after space should be a boundary")
	}
	if !isWordBoundary("openProject", 4) {
		t.Error("camel case hump should be a boundary")
	}
	if isWordBoundary("project", 3) {
		t.Error("mid-word should not be a boundary")
	}
}

func TestEntries(t *testing.T) {
	f := newFixture(t)
	entries := f.pal.Entries(0)

	if len(entries) != 6 {
		t.Fatalf("len(Entries) = %d, want 6", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Label > entries[i].Label {
			t.Errorf("entries not sorted: %q before %q", entries[i-1].Label, entries[i].Label)
		}
	}

	play := findEntry(entries, "Play", 0)
	if play == nil {
		t.Fatal("Play missing")
	}
	if play.Category != "Transport" || play.Shortcut != "Space" {
		t.Errorf("Play = %+v", play)
	}
	if play.Enabled {
		t.Error("Play should be disabled without audio")
	}

	mp3 := findEntry(entries, "ExportMp3", 0)
	if mp3 == nil || mp3.Label != "Export MP3" {
		t.Errorf("ExportMp3 = %+v, want prefixed label", mp3)
	}
	if findEntry(entries, "OpenRecent", 1) == nil {
		t.Error("second multi member missing")
	}
}

func TestEntriesHideDisabled(t *testing.T) {
	f := newFixture(t)
	f.pal.SetShowDisabled(false)

	if findEntry(f.pal.Entries(0), "Play", 0) != nil {
		t.Error("disabled Play should be hidden")
	}
	if findEntry(f.pal.Entries(audioLoaded), "Play", 0) == nil {
		t.Error("Play should be listed with audio loaded")
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)

	results := f.pal.Search("open", 0, 10)
	if len(results) == 0 {
		t.Fatal("no results for open")
	}
	if results[0].Entry.Name != "Open" {
		t.Errorf("best match = %s, want Open", results[0].Entry.Name)
	}
	if results[0].Field != "label" {
		t.Errorf("Field = %q, want label", results[0].Field)
	}

	byCategory := f.pal.Search("transport", 0, 10)
	if len(byCategory) != 2 {
		t.Errorf("category search found %d, want 2", len(byCategory))
	}

	if got := f.pal.Search("o", 0, 2); len(got) != 2 {
		t.Errorf("limit ignored: %d results", len(got))
	}
}

func TestExecuteRecordsHistory(t *testing.T) {
	f := newFixture(t)
	open, _ := f.reg.FindByName("Open")

	res, err := f.pal.Execute(open.ID, 0)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Outcome != dispatcher.Invoked {
		t.Errorf("Outcome = %v", res.Outcome)
	}
	if f.calls["Open"] != 1 {
		t.Errorf("Open called %d times", f.calls["Open"])
	}
	if f.pal.History().Position("Open") != 0 {
		t.Error("Open should head the history")
	}
}

func TestExecuteDisallowedSkipsHistory(t *testing.T) {
	f := newFixture(t)

	_, err := f.pal.ExecuteName("Play", 0)
	if !errors.Is(err, dispatcher.ErrDisallowed) {
		t.Fatalf("err = %v, want ErrDisallowed", err)
	}
	if f.pal.History().Contains("Play") {
		t.Error("disallowed command recorded in history")
	}
}

func TestHistoryFromOtherSources(t *testing.T) {
	f := newFixture(t)
	rec, _ := f.reg.FindMember("OpenRecent", 1)

	if _, err := f.disp.DispatchID(rec.ID, 0); err != nil {
		t.Fatalf("DispatchID: %v", err)
	}
	if got := f.pal.RecentCommands(1); len(got) != 1 || got[0] != "OpenRecent#1" {
		t.Errorf("RecentCommands = %v", got)
	}
}

func TestSearchEmptyQueryRecentFirst(t *testing.T) {
	f := newFixture(t)
	if _, err := f.pal.ExecuteName("Stop", audioLoaded); err != nil {
		t.Fatal(err)
	}
	if _, err := f.pal.ExecuteName("Open", 0); err != nil {
		t.Fatal(err)
	}

	results := f.pal.Search("", audioLoaded, 0)
	if len(results) < 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Entry.Name != "Open" || results[1].Entry.Name != "Stop" {
		t.Errorf("order = %s, %s; want Open, Stop", results[0].Entry.Name, results[1].Entry.Name)
	}
}

func TestSearchHistoryBoost(t *testing.T) {
	f := newFixture(t)
	before := f.pal.Search("p", audioLoaded, 0)
	var playBefore int
	for _, r := range before {
		if r.Entry.Name == "Play" {
			playBefore = r.Score
		}
	}

	if _, err := f.pal.ExecuteName("Play", audioLoaded); err != nil {
		t.Fatal(err)
	}
	for _, r := range f.pal.Search("p", audioLoaded, 0) {
		if r.Entry.Name == "Play" && r.Score <= playBefore {
			t.Errorf("score %d not boosted above %d", r.Score, playBefore)
		}
	}
}

func TestCategories(t *testing.T) {
	f := newFixture(t)
	cats := f.pal.Categories()
	if len(cats) != 2 {
		t.Fatalf("Categories = %v", cats)
	}

	transport := f.pal.EntriesByCategory("transport", 0)
	if len(transport) != 2 {
		t.Errorf("EntriesByCategory(transport) = %d entries", len(transport))
	}
}

func TestPaletteConcurrency(t *testing.T) {
	f := newFixture(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				f.pal.Search("o", audioLoaded, 5)
				_, _ = f.pal.ExecuteName("Open", 0)
			}
		}()
	}
	wg.Wait()
	if f.calls["Open"] != 400 {
		t.Errorf("Open called %d times, want 400", f.calls["Open"])
	}
}
