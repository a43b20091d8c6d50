package engine

import (
	"context"
	"errors"
	"sync"
)

// fakeSession records calls and answers from canned values.
type fakeSession struct {
	mu sync.Mutex

	navErr    error
	waitable  map[string]bool // selectors that resolve immediately
	html      string
	title     string
	titleErr  error
	evals     []string
	waits     []string
	closed    int
	blockWait bool // unmatched waits block until ctx is done
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	return s.navErr
}

func (s *fakeSession) WaitFor(ctx context.Context, selector string) error {
	s.mu.Lock()
	s.waits = append(s.waits, selector)
	ok := s.waitable[selector]
	s.mu.Unlock()
	if ok {
		return nil
	}
	if s.blockWait {
		<-ctx.Done()
		return ctx.Err()
	}
	return errors.New("not found")
}

func (s *fakeSession) Eval(ctx context.Context, expr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evals = append(s.evals, expr)
	return nil
}

func (s *fakeSession) Title(ctx context.Context) (string, error) { return s.title, s.titleErr }

func (s *fakeSession) HTML(ctx context.Context) (string, error) { return s.html, nil }

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

// fakeDriver launches a fixed session or fails.
type fakeDriver struct {
	session  *fakeSession
	err      error
	badPaths map[string]bool // binaries that fail to start
	launched []string
}

func (d *fakeDriver) Launch(ctx context.Context, binPath string) (Session, error) {
	d.launched = append(d.launched, binPath)
	if d.err != nil {
		return nil, d.err
	}
	if d.badPaths[binPath] {
		return nil, errors.New("fork/exec " + binPath + ": no such file or directory")
	}
	return d.session, nil
}
