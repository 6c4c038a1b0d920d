package game

import (
	"math/rand"
	"testing"
)

// recordingPresentation captures presentation calls
type recordingPresentation struct {
	intros    []introCall
	summaries []summaryCall
	gameOvers []gameOverCall
}

type introCall struct {
	loop   int
	weapon string
}

type summaryCall struct {
	base     int
	timeLeft float64
	total    int
}

type gameOverCall struct {
	final, loops, high int
	isNew              bool
}

func (r *recordingPresentation) LoopIntro(loop int, weaponName string) {
	r.intros = append(r.intros, introCall{loop, weaponName})
}

func (r *recordingPresentation) WinSummary(baseScore int, timeLeft float64, total int) {
	r.summaries = append(r.summaries, summaryCall{baseScore, timeLeft, total})
}

func (r *recordingPresentation) GameOver(finalScore, loopsSurvived, highScore int, isNewRecord bool) {
	r.gameOvers = append(r.gameOvers, gameOverCall{finalScore, loopsSurvived, highScore, isNewRecord})
}

// recordingFeedback captures cues
type recordingFeedback struct {
	cues []Cue
}

func (r *recordingFeedback) Notify(c Cue) {
	r.cues = append(r.cues, c)
}

func (r *recordingFeedback) count(kind CueKind) int {
	n := 0
	for _, c := range r.cues {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// countingSpawner tracks live handles
type countingSpawner struct {
	next Handle
	live map[Handle]string
}

func newCountingSpawner() *countingSpawner {
	return &countingSpawner{live: make(map[Handle]string)}
}

func (s *countingSpawner) Spawn(kind string) Handle {
	s.next++
	s.live[s.next] = kind
	return s.next
}

func (s *countingSpawner) Despawn(h Handle) {
	delete(s.live, h)
}

func (s *countingSpawner) liveOf(kind string) int {
	n := 0
	for _, k := range s.live {
		if k == kind {
			n++
		}
	}
	return n
}

type testRig struct {
	orch    *Orchestrator
	pres    *recordingPresentation
	fb      *recordingFeedback
	prefs   *MemoryPrefs
	spawner *countingSpawner
}

func newTestRig(t *testing.T, seed int64) *testRig {
	t.Helper()
	return newTestRigWithArsenal(t, seed, DefaultArsenal())
}

func newTestRigWithArsenal(t *testing.T, seed int64, arsenal Arsenal) *testRig {
	t.Helper()
	rig := &testRig{
		pres:    &recordingPresentation{},
		fb:      &recordingFeedback{},
		prefs:   NewMemoryPrefs(),
		spawner: newCountingSpawner(),
	}
	rig.orch = NewOrchestrator(DefaultSettings(), Deps{
		Arsenal:      arsenal,
		Spawner:      rig.spawner,
		Presentation: rig.pres,
		Feedback:     rig.fb,
		Prefs:        rig.prefs,
		Rand:         rand.New(rand.NewSource(seed)),
	})
	return rig
}

// tickUntilPlaying runs idle ticks until the intro hands over to Playing
func (r *testRig) tickUntilPlaying(t *testing.T) {
	t.Helper()
	for i := 0; i < 1000 && r.orch.State() != StatePlaying; i++ {
		r.orch.Tick(Input{})
	}
	if r.orch.State() != StatePlaying {
		t.Fatalf("Expected Playing, got %s", r.orch.State())
	}
}

func (r *testRig) ticks(n int, in Input) {
	for i := 0; i < n; i++ {
		r.orch.Tick(in)
	}
}

// winLoop plays a few idle ticks, resolves a win, confirms and waits for the next intro
func (r *testRig) winLoop(t *testing.T) {
	t.Helper()
	r.tickUntilPlaying(t)
	r.ticks(10, Input{})
	r.orch.EndLoop(true)
	if r.orch.State() != StateLoopTransition {
		t.Fatalf("Expected LoopTransition, got %s", r.orch.State())
	}
	r.orch.ConfirmNextLoop()
	for i := 0; i < 1000 && r.orch.State() != StateIntro; i++ {
		r.orch.Tick(Input{})
	}
	if r.orch.State() != StateIntro {
		t.Fatalf("Expected Intro after rewind, got %s", r.orch.State())
	}
}
