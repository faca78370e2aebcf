// Package session holds the process-wide observable snapshot of
// client-visible state: current navigation path, signed-in user, the
// environment catalog, and the contest the user has entered. Views read
// and subscribe; the store is the only writer of its own state, and every
// write goes through a mutator that fetches through the injected API
// client and then publishes.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/penguin-judge/penguin-judge-go/api"
)

// Client is the slice of the API surface the store consumes. *api.Client
// satisfies it; tests substitute a fake.
type Client interface {
	CurrentUser(ctx context.Context) (api.User, error)
	ListEnvironments(ctx context.Context) ([]api.Environment, error)
	GetContest(ctx context.Context, id string) (api.Contest, error)
	ListProblems(ctx context.Context, contestID string) ([]api.Problem, error)
	Logout(ctx context.Context) error
}

// Environments is the environment catalog together with its id lookup
// table, published as one value so no subscriber can observe a list that
// disagrees with the table.
type Environments struct {
	List []api.Environment
	ByID map[int]api.Environment
}

// TryUpdateProblems outcomes that carry no server error.
var (
	// ErrNoContest: no contest is current, nothing to load problems for.
	ErrNoContest = errors.New("session: no current contest")
	// ErrProblemsLoaded: the current contest already has its problems.
	ErrProblemsLoaded = errors.New("session: problems already loaded")
	// ErrStaleContest: the current contest changed while the problem list
	// was in flight; the fetched list was discarded. Try again.
	ErrStaleContest = errors.New("session: contest changed during problem fetch")
)

// Store is the session store. Construct one per process with NewStore and
// share it; all methods are safe for concurrent use. Mutators serialize
// their read-check-publish sections on an internal mutex while network
// calls run outside it, so a slow fetch never blocks reads and a stale
// fetch result is re-validated against current state before it is
// published.
//
// Published pointers are shared snapshots: consumers must not modify the
// values they receive. Mutators publish fresh copies instead of editing
// in place, so a reference captured by one subscriber never changes under
// it.
type Store struct {
	client Client

	mu      sync.Mutex
	path    *Subject[string]
	user    *Subject[*api.User]
	envs    *Subject[Environments]
	contest *Subject[*api.Contest]
}

func NewStore(client Client) *Store {
	return &Store{
		client:  client,
		path:    NewSubject(""),
		user:    NewSubject[*api.User](nil),
		envs:    NewSubject(Environments{}),
		contest: NewSubject[*api.Contest](nil),
	}
}

// Path is the current navigation path channel. The router integration is
// its only writer, via Navigated.
func (s *Store) Path() *Subject[string] { return s.path }

// User is the current user channel; nil means nobody is signed in, or the
// user has not been fetched yet. The two states are indistinguishable on
// purpose, see UpdateCurrentUser.
func (s *Store) User() *Subject[*api.User] { return s.user }

// Environments is the environment catalog channel.
func (s *Store) Environments() *Subject[Environments] { return s.envs }

// Contest is the current contest channel; nil means no contest is
// entered. Problems on the published contest follow the three-state rule
// of api.Contest.
func (s *Store) Contest() *Subject[*api.Contest] { return s.contest }

// Init triggers the initial environment and user fetch. Call once at
// application start.
func (s *Store) Init(ctx context.Context) {
	s.UpdateEnvironments(ctx)
	s.UpdateCurrentUser(ctx)
}

// Navigated publishes a new current path. Pure notification, no fetch.
func (s *Store) Navigated(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path.Publish(path)
}

// UpdateCurrentUser fetches the signed-in user and publishes it. Any
// failure, structured 401 included, leaves the channel untouched: absence
// of a user is the initial value, so a failed background refresh is
// indistinguishable from "not fetched yet". Callers needing a definitive
// logged-out signal must not infer one from this method.
func (s *Store) UpdateCurrentUser(ctx context.Context) {
	u, err := s.client.CurrentUser(ctx)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.Publish(&u)
}

// Logout revokes the session server-side. On success the user channel is
// published absent; on failure the channel is untouched and the API error
// is returned, this being a direct user action rather than a background
// refresh.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.client.Logout(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.Publish(nil)
	return nil
}

// UpdateEnvironments fetches the environment catalog and publishes it
// together with a freshly derived id lookup table. Failures are swallowed
// and the previously published catalog stays authoritative.
func (s *Store) UpdateEnvironments(ctx context.Context) {
	list, err := s.client.ListEnvironments(ctx)
	if err != nil {
		return
	}
	byID := make(map[int]api.Environment, len(list))
	for _, e := range list {
		byID[e.ID] = e
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envs.Publish(Environments{List: list, ByID: byID})
}

// EnterContest makes the contest with the given id current. Entering the
// contest that is already current returns the cached value without a
// network call or a republish. Otherwise the contest is fetched, published
// with problems unloaded, and returned; fetch errors are propagated
// unchanged.
//
// An empty id is a caller bug and panics before any network activity.
func (s *Store) EnterContest(ctx context.Context, id string) (*api.Contest, error) {
	if id == "" {
		panic("session: EnterContest called with empty contest id")
	}

	s.mu.Lock()
	if cur := s.contest.Value(); cur != nil && cur.ID == id {
		s.mu.Unlock()
		return cur, nil
	}
	s.mu.Unlock()

	c, err := s.client.GetContest(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.contest.Publish(&c)
	return &c, nil
}

// LeaveContest clears the current contest, dropping its problem list with
// it. No-op when no contest is current.
func (s *Store) LeaveContest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.contest.Value() != nil {
		s.contest.Publish(nil)
	}
}

// TryUpdateProblems lazily loads the current contest's problem list.
// It returns ErrNoContest when no contest is current and ErrProblemsLoaded
// when the list is already loaded, both without network activity. On a
// successful fetch it publishes a copy of the contest with the problems
// attached, but only if the current contest still has the id that was
// snapshotted before the fetch; when the user has moved to a different
// contest in the meantime the stale list is discarded and ErrStaleContest
// is returned. In-flight fetches are never cancelled, only their results
// re-validated.
func (s *Store) TryUpdateProblems(ctx context.Context) error {
	s.mu.Lock()
	cur := s.contest.Value()
	if cur == nil {
		s.mu.Unlock()
		return ErrNoContest
	}
	if cur.Problems != nil {
		s.mu.Unlock()
		return ErrProblemsLoaded
	}
	id := cur.ID
	s.mu.Unlock()

	problems, err := s.client.ListProblems(ctx, id)
	if err != nil {
		return err
	}
	if problems == nil {
		// Loaded-empty must be distinguishable from unloaded.
		problems = []api.Problem{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur = s.contest.Value()
	if cur == nil || cur.ID != id {
		return ErrStaleContest
	}
	next := *cur
	next.Problems = problems
	s.contest.Publish(&next)
	return nil
}
