package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/looplab/fsm"

	"testviewer/internal/domain"
)

// Load phases of a selected run
const (
	PhaseIdle      = "idle"
	PhaseSelected  = "selected"
	PhaseListing   = "listing"
	PhaseListed    = "listed"
	PhaseIngesting = "ingesting"
	PhaseSettled   = "settled"
	PhaseFailed    = "failed"
)

func newPhase(initial string) *fsm.FSM {
	return fsm.NewFSM(
		initial,
		fsm.Events{
			{Name: "list", Src: []string{PhaseSelected}, Dst: PhaseListing},
			{Name: "listed", Src: []string{PhaseListing}, Dst: PhaseListed},
			{Name: "ingest", Src: []string{PhaseSelected, PhaseListed}, Dst: PhaseIngesting},
			{Name: "settle", Src: []string{PhaseSelected, PhaseListed, PhaseIngesting}, Dst: PhaseSettled},
			{Name: "fail", Src: []string{PhaseSelected, PhaseListing, PhaseListed, PhaseIngesting, PhaseSettled}, Dst: PhaseFailed},
		},
		fsm.Callbacks{},
	)
}

// Token identifies the run that was live when a piece of work started.
// Work carrying a token that is no longer current is discarded.
type Token struct {
	generation uint64
	RunID      int64
}

// Batch is the records parsed from one report entry of one artifact
type Batch struct {
	RunID      int64
	ArtifactID int64
	Entry      string
	Records    []domain.TestRecord
}

// Key is the composite identity used to ignore repeated batches
func (b Batch) Key() string {
	return fmt.Sprintf("%d-%d-%s", b.RunID, b.ArtifactID, b.Entry)
}

// State is a copy of the live state handed to the rendering layer
type State struct {
	RunID            int64
	Selected         bool
	Records          []domain.TestRecord
	Coverage         map[string]domain.CoverageTree
	Artifacts        []domain.Artifact
	Phase            string
	ArtifactsLoading bool
	TestsLoading     bool
	Err              error
}

type liveState struct {
	token     Token
	selected  bool
	records   []domain.TestRecord
	coverage  map[string]domain.CoverageTree
	artifacts []domain.Artifact
	merged    map[string]struct{}
	entryOf   map[string]string
	qualified map[string]bool
	pending   int
	phase     *fsm.FSM
	err       error
}

// Session owns the live result set for the selected run
type Session struct {
	mu         sync.Mutex
	merger     Merger
	generation uint64
	state      liveState
	watchers   []chan struct{}
}

// New creates a Session with no run selected. A nil merger selects ResortMerger.
func New(merger Merger) *Session {
	if merger == nil {
		merger = ResortMerger{}
	}
	return &Session{
		merger: merger,
		state:  emptyState(Token{}, PhaseIdle),
	}
}

func emptyState(token Token, phase string) liveState {
	return liveState{
		token:     token,
		phase:     newPhase(phase),
		coverage:  make(map[string]domain.CoverageTree),
		merged:    make(map[string]struct{}),
		entryOf:   make(map[string]string),
		qualified: make(map[string]bool),
	}
}

// Select makes runID the live run, replacing the whole state in one step.
// The returned token must accompany all work done for this selection.
func (s *Session) Select(runID int64) Token {
	s.mu.Lock()
	s.generation++
	token := Token{generation: s.generation, RunID: runID}
	s.state = emptyState(token, PhaseSelected)
	s.state.selected = true
	s.mu.Unlock()

	s.notify()
	return token
}

// IsCurrent reports whether token still belongs to the live run
func (s *Session) IsCurrent(token Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isCurrent(token)
}

func (s *Session) isCurrent(token Token) bool {
	return s.state.selected && token == s.state.token
}

// Append merges a batch into the live set. It returns false when the batch was
// produced for another run or was already merged.
func (s *Session) Append(token Token, batch Batch) bool {
	s.mu.Lock()
	if !s.isCurrent(token) || batch.RunID != s.state.token.RunID {
		s.mu.Unlock()
		return false
	}
	key := batch.Key()
	if _, dup := s.state.merged[key]; dup {
		s.mu.Unlock()
		return false
	}
	s.state.merged[key] = struct{}{}
	records := s.state.claimIDs(batch.Entry, batch.Records)
	s.state.records = s.merger.Merge(s.state.records, records)
	s.mu.Unlock()

	s.notify()
	return true
}

// claimIDs returns copies of records whose ids are unique within the live set.
// When two report entries produce the same id, every record carrying it is
// qualified with its entry name, so the final ids do not depend on arrival order.
func (st *liveState) claimIDs(entry string, records []domain.TestRecord) []domain.TestRecord {
	out := make([]domain.TestRecord, len(records))
	for i, r := range records {
		base := r.ID
		if owner, taken := st.entryOf[base]; taken && !st.qualified[base] && owner != entry {
			st.qualified[base] = true
			delete(st.entryOf, base)
			renamed := st.unique(qualifyID(base, owner))
			for j := range st.records {
				if st.records[j].ID == base {
					st.records[j].ID = renamed
					break
				}
			}
			st.entryOf[renamed] = owner
		}
		if st.qualified[base] {
			r.ID = qualifyID(base, entry)
		}
		r.ID = st.unique(r.ID)
		st.entryOf[r.ID] = entry
		out[i] = r
	}
	return out
}

func (st *liveState) unique(id string) string {
	if _, taken := st.entryOf[id]; !taken {
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s#%d", id, n)
		if _, taken := st.entryOf[candidate]; !taken {
			return candidate
		}
	}
}

func qualifyID(id, entry string) string {
	return id + "@" + entry
}

// AddCoverageTree publishes a coverage tree under its artifact name. Trees without an index are ignored.
func (s *Session) AddCoverageTree(token Token, tree domain.CoverageTree) bool {
	if tree.IndexPath == "" {
		return false
	}
	s.mu.Lock()
	if !s.isCurrent(token) {
		s.mu.Unlock()
		return false
	}
	s.state.coverage[tree.Name] = tree
	s.mu.Unlock()

	s.notify()
	return true
}

// BeginArtifactsFetch marks the artifact list as loading
func (s *Session) BeginArtifactsFetch(token Token) {
	s.update(token, func(st *liveState) {
		st.transition("list")
	})
}

// SetArtifacts records the run's artifact list and ends the list loading phase
func (s *Session) SetArtifacts(token Token, artifacts []domain.Artifact) {
	s.update(token, func(st *liveState) {
		st.artifacts = append([]domain.Artifact(nil), artifacts...)
		st.transition("listed")
	})
}

// ExpectArtifacts sets how many report-bearing artifacts are still to be processed.
// With zero, tests stop loading immediately.
func (s *Session) ExpectArtifacts(token Token, n int) {
	s.update(token, func(st *liveState) {
		st.pending = n
		if n > 0 {
			st.transition("ingest")
		} else {
			st.transition("settle")
		}
	})
}

// ArtifactDone marks one expected artifact as processed, successfully or not
func (s *Session) ArtifactDone(token Token) {
	s.update(token, func(st *liveState) {
		if st.pending > 0 {
			st.pending--
		}
		if st.pending == 0 {
			st.transition("settle")
		}
	})
}

// Fail records a blocking error for the live run and stops all loading indicators
func (s *Session) Fail(token Token, err error) {
	s.update(token, func(st *liveState) {
		st.err = err
		st.pending = 0
		st.transition("fail")
	})
}

// transition fires event when the current phase allows it and ignores it otherwise
func (st *liveState) transition(event string) {
	if st.phase.Can(event) {
		_ = st.phase.Event(context.Background(), event)
	}
}

func (s *Session) update(token Token, fn func(st *liveState)) {
	s.mu.Lock()
	if !s.isCurrent(token) {
		s.mu.Unlock()
		return
	}
	fn(&s.state)
	s.mu.Unlock()

	s.notify()
}

// Snapshot copies the live state for rendering
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	phase := s.state.phase.Current()
	st := State{
		RunID:            s.state.token.RunID,
		Selected:         s.state.selected,
		Records:          append([]domain.TestRecord(nil), s.state.records...),
		Coverage:         make(map[string]domain.CoverageTree, len(s.state.coverage)),
		Artifacts:        append([]domain.Artifact(nil), s.state.artifacts...),
		Phase:            phase,
		ArtifactsLoading: phase == PhaseListing,
		TestsLoading:     phase == PhaseSelected || phase == PhaseListing || phase == PhaseListed || phase == PhaseIngesting,
		Err:              s.state.err,
	}
	for name, tree := range s.state.coverage {
		st.Coverage[name] = tree
	}
	return st
}

// Subscribe returns a channel that receives a signal after state changes.
// Signals are coalesced; a slow reader only misses intermediate ones.
func (s *Session) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Session) notify() {
	s.mu.Lock()
	watchers := s.watchers
	s.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
