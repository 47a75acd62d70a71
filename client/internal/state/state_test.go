package state

import (
	"maps"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroValueIsIdle(t *testing.T) {
	var r AsyncResult[[]int]
	assert.Equal(t, PhaseIdle, r.Phase)
	assert.Nil(t, r.Data)
	assert.Empty(t, r.Error)
}

func TestLoadingKeepsStaleData(t *testing.T) {
	var r AsyncResult[[]int]
	tok := r.Begin()
	require.True(t, r.Succeed(tok, []int{1, 2}))

	r.Begin()
	assert.Equal(t, PhaseLoading, r.Phase)
	assert.Equal(t, []int{1, 2}, r.Data)
}

func TestFailKeepsLastKnownData(t *testing.T) {
	var r AsyncResult[string]
	tok := r.Begin()
	r.Succeed(tok, "cards")

	tok = r.Begin()
	require.True(t, r.Fail(tok, "network down"))
	assert.Equal(t, PhaseError, r.Phase)
	assert.Equal(t, "network down", r.Error)
	assert.Equal(t, "cards", r.Data)

	tok = r.Begin()
	r.Succeed(tok, "fresh")
	assert.Empty(t, r.Error)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	var r AsyncResult[string]
	first := r.Begin()
	second := r.Begin()

	assert.False(t, r.Succeed(first, "old"))
	assert.True(t, r.Succeed(second, "new"))
	assert.False(t, r.Fail(first, "late failure"))
	assert.Equal(t, "new", r.Data)
	assert.Equal(t, PhaseSuccess, r.Phase)
}

func TestResetInvalidatesInFlight(t *testing.T) {
	var r AsyncResult[int]
	tok := r.Begin()
	r.Reset()
	assert.False(t, r.Succeed(tok, 7))
	assert.Equal(t, PhaseIdle, r.Phase)
	assert.Zero(t, r.Data)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(PhaseIdle, PhaseLoading))
	assert.True(t, CanTransition(PhaseLoading, PhaseSuccess))
	assert.True(t, CanTransition(PhaseLoading, PhaseError))
	assert.True(t, CanTransition(PhaseError, PhaseLoading))
	assert.False(t, CanTransition(PhaseIdle, PhaseSuccess))
	assert.False(t, CanTransition(PhaseSuccess, PhaseError))
	assert.False(t, CanTransition(PhaseSuccess, PhaseIdle))
}

func TestUpdateKey(t *testing.T) {
	m := map[int64]AsyncResult[string]{}
	var tok Token
	UpdateKey(m, 3, func(r *AsyncResult[string]) { tok = r.Begin() })
	UpdateKey(m, 3, func(r *AsyncResult[string]) { r.Succeed(tok, "card-3") })
	assert.Equal(t, "card-3", m[3].Data)
	assert.Equal(t, PhaseIdle, m[4].Phase)
}

func TestPagination(t *testing.T) {
	p := NewPagination().WithTotal(45)
	assert.Equal(t, 3, p.Pages)
	p = p.Next().Next().Next()
	assert.Equal(t, 3, p.Page)
	start, end := p.Window()
	assert.Equal(t, 40, start)
	assert.Equal(t, 45, end)

	p = p.WithSize(50)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 1, p.Pages)
	assert.Equal(t, 1, p.Prev().Page)

	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, Page(items, Pagination{Page: 2, Size: 2}))
}

type sample struct {
	Count int
	Tags  map[string]int
}

func cloneSample(s sample) sample {
	s.Tags = maps.Clone(s.Tags)
	return s
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	s := NewStore(sample{Tags: map[string]int{}}, cloneSample)
	s.Update(func(st *sample) { st.Tags["a"] = 1 })

	snap := s.Snapshot()
	snap.Tags["a"] = 99
	assert.Equal(t, 1, s.Snapshot().Tags["a"])
}

func TestStoreSubscribeAndCancel(t *testing.T) {
	s := NewStore(sample{}, nil)
	var seen []int
	cancel := s.Subscribe(func(st sample) { seen = append(seen, st.Count) })

	s.Update(func(st *sample) { st.Count = 1 })
	s.Update(func(st *sample) { st.Count = 2 })
	cancel()
	s.Update(func(st *sample) { st.Count = 3 })

	assert.Equal(t, []int{1, 2}, seen)
}

func TestStoreConcurrentUpdates(t *testing.T) {
	s := NewStore(sample{}, nil)
	var last int
	s.Subscribe(func(st sample) { last = st.Count })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(st *sample) { st.Count++ })
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Snapshot().Count)
	assert.Equal(t, 50, last)
}

type trackState struct {
	List    AsyncResult[[]string]
	Details map[int]AsyncResult[string]
}

func TestTrackAppliesOutcome(t *testing.T) {
	st := NewStore(trackState{Details: map[int]AsyncResult[string]{}}, func(s trackState) trackState {
		s.Details = maps.Clone(s.Details)
		return s
	})
	list := func(s *trackState) *AsyncResult[[]string] { return &s.List }

	ok := Track(st, list, func() ([]string, string, bool) {
		assert.Equal(t, PhaseLoading, st.Snapshot().List.Phase)
		return []string{"a"}, "", true
	})
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, st.Snapshot().List.Data)

	ok = Track(st, list, func() ([]string, string, bool) { return nil, "boom", false })
	assert.False(t, ok)
	snap := st.Snapshot()
	assert.Equal(t, PhaseError, snap.List.Phase)
	assert.Equal(t, "boom", snap.List.Error)
	assert.Equal(t, []string{"a"}, snap.List.Data)

	details := func(s *trackState) map[int]AsyncResult[string] { return s.Details }
	assert.True(t, TrackKey(st, details, 9, func() (string, string, bool) { return "nine", "", true }))
	assert.Equal(t, "nine", st.Snapshot().Details[9].Data)
}

// Una risposta lenta superata da una piu' recente non sovrascrive lo stato.
func TestTrackDiscardsSupersededResponse(t *testing.T) {
	st := NewStore(trackState{}, nil)
	list := func(s *trackState) *AsyncResult[[]string] { return &s.List }

	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})
	done := make(chan struct{})
	go func() {
		Track(st, list, func() ([]string, string, bool) {
			close(slowStarted)
			<-releaseSlow
			return []string{"stale"}, "", true
		})
		close(done)
	}()
	<-slowStarted

	Track(st, list, func() ([]string, string, bool) { return []string{"fresh"}, "", true })
	close(releaseSlow)
	<-done

	assert.Equal(t, []string{"fresh"}, st.Snapshot().List.Data)
	assert.Equal(t, PhaseSuccess, st.Snapshot().List.Phase)
}

type actionState struct {
	Actions map[string]Status
	Action  Status
}

func newActionStore() *Store[actionState] {
	return NewStore(actionState{Actions: map[string]Status{}}, func(s actionState) actionState {
		s.Actions = maps.Clone(s.Actions)
		return s
	})
}

func actionSlots(s *actionState) map[string]Status { return s.Actions }
func lastAction(s *actionState) *Status            { return &s.Action }

// Due azioni concorrenti su chiavi diverse: il fallimento della prima
// resta visibile anche se la seconda parte dopo e finisce prima.
func TestTrackActionKeepsEveryOutcome(t *testing.T) {
	st := newActionStore()

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan bool)
	go func() {
		done <- TrackAction(st, actionSlots, lastAction, "craft:9", func() (string, bool) {
			close(started)
			<-release
			return "insufficient materials", false
		})
	}()
	<-started

	ok := TrackAction(st, actionSlots, lastAction, "craft:10", func() (string, bool) { return "", true })
	require.True(t, ok)
	close(release)
	require.False(t, <-done)

	snap := st.Snapshot()
	assert.Equal(t, PhaseError, snap.Actions["craft:9"].Phase)
	assert.Equal(t, "insufficient materials", snap.Actions["craft:9"].Error)
	assert.Equal(t, PhaseSuccess, snap.Actions["craft:10"].Phase)
	assert.Equal(t, PhaseError, snap.Action.Phase)
	assert.Equal(t, "insufficient materials", snap.Action.Error)
}

func TestRejectKeepsPhase(t *testing.T) {
	st := newActionStore()
	st.Update(func(s *actionState) {
		UpdateKey(s.Actions, "buy:1", func(r *Status) { r.Begin() })
	})

	Reject(st, actionSlots, "buy:1")

	slot := st.Snapshot().Actions["buy:1"]
	assert.Equal(t, PhaseLoading, slot.Phase)
	assert.Equal(t, MsgBusy, slot.Error)
}

func TestSettleIgnoresToken(t *testing.T) {
	var r Status
	r.Begin()
	r.Begin()
	r.Settle(false, "boom")
	assert.Equal(t, PhaseError, r.Phase)
	assert.Equal(t, "boom", r.Error)
	r.Settle(true, "")
	assert.Equal(t, PhaseSuccess, r.Phase)
	assert.Empty(t, r.Error)
}

func TestCloneHelpersDetachSlices(t *testing.T) {
	r := AsyncResult[[]string]{Data: []string{"a"}}
	c := CloneResult(r)
	c.Data[0] = "x"
	assert.Equal(t, "a", r.Data[0])

	m := map[int]AsyncResult[[]string]{1: {Data: []string{"a"}}}
	cm := CloneResults(m)
	cm[1].Data[0] = "x"
	assert.Equal(t, "a", m[1].Data[0])
	assert.Nil(t, CloneResults[int, string](nil))

	h := map[string][]int{"g": {1, 2}}
	ch := CloneSlices(h)
	ch["g"][0] = 9
	assert.Equal(t, 1, h["g"][0])
}
