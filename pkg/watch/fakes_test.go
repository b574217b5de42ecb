package watch

import (
	"errors"
	"sync"

	"folderwatch/pkg/config"
	"folderwatch/pkg/sampler"
)

// fakeStrategy hands out fakeSubs and lets tests drive their sinks.
type fakeStrategy struct {
	mu   sync.Mutex
	fail map[string]error
	subs []*fakeSub
}

func newFakeStrategy() *fakeStrategy {
	return &fakeStrategy{fail: make(map[string]error)}
}

func (f *fakeStrategy) Name() string { return "fake" }

func (f *fakeStrategy) Subscribe(path string, sink sampler.Sink) (sampler.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[path]; err != nil {
		return nil, err
	}
	s := &fakeSub{path: path, sink: sink, done: make(chan struct{})}
	f.subs = append(f.subs, s)
	return s, nil
}

// active returns the live subscriptions for path.
func (f *fakeStrategy) active(path string) []*fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fakeSub
	for _, s := range f.subs {
		if s.path == path && !s.released() {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeStrategy) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

type fakeSub struct {
	path string
	sink sampler.Sink

	mu   sync.Mutex
	rel  bool
	done chan struct{}
}

func (s *fakeSub) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.rel {
		s.rel = true
		close(s.done)
	}
}

func (s *fakeSub) Done() <-chan struct{} { return s.done }

func (s *fakeSub) released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rel
}

// fire delivers a change unless the subscription was released.
func (s *fakeSub) fire(desc string) {
	if s.released() {
		return
	}
	_ = s.sink.Changed(sampler.Change{Count: 1, Description: desc})
}

func (s *fakeSub) terminate(err error) {
	if s.released() {
		return
	}
	s.sink.Terminated(err)
}

// fakeLauncher records launched commands.
type fakeLauncher struct {
	mu       sync.Mutex
	fail     map[string]bool
	launched []launch
}

type launch struct {
	command string
	env     []string
}

func (l *fakeLauncher) Launch(command string, env ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail[command] {
		return errors.New("exec: not found")
	}
	l.launched = append(l.launched, launch{command: command, env: env})
	return nil
}

func (l *fakeLauncher) commands() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.launched))
	for _, x := range l.launched {
		out = append(out, x.command)
	}
	return out
}

// memSaver keeps the last saved entries.
type memSaver struct {
	saves int
	last  []config.Entry
	err   error
}

func (m *memSaver) Save(entries []config.Entry) error {
	m.saves++
	m.last = entries
	return m.err
}
