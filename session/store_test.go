package session_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penguin-judge/penguin-judge-go/api"
	"github.com/penguin-judge/penguin-judge-go/session"
)

// fakeClient implements session.Client with pluggable behavior and call
// counters so tests can assert exactly how many fetches a mutator issued.
type fakeClient struct {
	currentUserFn  func(ctx context.Context) (api.User, error)
	listEnvsFn     func(ctx context.Context) ([]api.Environment, error)
	getContestFn   func(ctx context.Context, id string) (api.Contest, error)
	listProblemsFn func(ctx context.Context, contestID string) ([]api.Problem, error)
	logoutFn       func(ctx context.Context) error

	currentUserCalls  int
	listEnvsCalls     int
	getContestCalls   int
	listProblemsCalls int
	logoutCalls       int
}

func (f *fakeClient) CurrentUser(ctx context.Context) (api.User, error) {
	f.currentUserCalls++
	if f.currentUserFn == nil {
		return api.User{}, &api.Error{Status: http.StatusUnauthorized}
	}
	return f.currentUserFn(ctx)
}

func (f *fakeClient) ListEnvironments(ctx context.Context) ([]api.Environment, error) {
	f.listEnvsCalls++
	if f.listEnvsFn == nil {
		return nil, errors.New("not stubbed")
	}
	return f.listEnvsFn(ctx)
}

func (f *fakeClient) GetContest(ctx context.Context, id string) (api.Contest, error) {
	f.getContestCalls++
	if f.getContestFn == nil {
		return api.Contest{}, &api.Error{Status: http.StatusNotFound}
	}
	return f.getContestFn(ctx, id)
}

func (f *fakeClient) ListProblems(ctx context.Context, contestID string) ([]api.Problem, error) {
	f.listProblemsCalls++
	if f.listProblemsFn == nil {
		return nil, errors.New("not stubbed")
	}
	return f.listProblemsFn(ctx, contestID)
}

func (f *fakeClient) Logout(ctx context.Context) error {
	f.logoutCalls++
	if f.logoutFn == nil {
		return nil
	}
	return f.logoutFn(ctx)
}

func springCup() api.Contest {
	return api.Contest{
		ID:          "abc123",
		Title:       "Spring Cup",
		Description: "the spring contest",
		StartTime:   time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 4, 1, 14, 0, 0, 0, time.UTC),
	}
}

func TestEnterContestCachesByID(t *testing.T) {
	fake := &fakeClient{
		getContestFn: func(_ context.Context, id string) (api.Contest, error) {
			c := springCup()
			c.ID = id
			return c, nil
		},
	}
	store := session.NewStore(fake)

	published := 0
	store.Contest().Subscribe(func(c *api.Contest) {
		if c != nil {
			published++
		}
	})

	first, err := store.EnterContest(context.Background(), "abc123")
	require.NoError(t, err)
	require.Equal(t, "abc123", first.ID)

	second, err := store.EnterContest(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Same(t, first, second, "second call must resolve with the cached object")
	assert.Equal(t, 1, fake.getContestCalls, "same id must not refetch")
	assert.Equal(t, 1, published, "same id must not republish")
}

func TestEnterContestEmptyIDPanics(t *testing.T) {
	fake := &fakeClient{}
	store := session.NewStore(fake)

	require.Panics(t, func() {
		store.EnterContest(context.Background(), "") //nolint:errcheck
	})
	assert.Zero(t, fake.getContestCalls, "panic must precede any network activity")
}

func TestEnterContestPropagatesFetchError(t *testing.T) {
	fake := &fakeClient{} // unstubbed GetContest answers a structured 404
	store := session.NewStore(fake)

	_, err := store.EnterContest(context.Background(), "missing")
	require.Error(t, err)
	status, ok := api.ErrorStatus(err)
	require.True(t, ok, "server error must stay structured")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Nil(t, store.Contest().Value(), "failed entry must not publish")
}

func TestEnterContestReplacesCurrent(t *testing.T) {
	fake := &fakeClient{
		getContestFn: func(_ context.Context, id string) (api.Contest, error) {
			c := springCup()
			c.ID = id
			return c, nil
		},
	}
	store := session.NewStore(fake)

	_, err := store.EnterContest(context.Background(), "abc123")
	require.NoError(t, err)
	next, err := store.EnterContest(context.Background(), "xyz789")
	require.NoError(t, err)

	assert.Equal(t, 2, fake.getContestCalls)
	assert.Equal(t, "xyz789", store.Contest().Value().ID)
	assert.Nil(t, next.Problems, "entering a contest leaves problems unloaded")
}

func TestTryUpdateProblems(t *testing.T) {
	problems := []api.Problem{{
		ID: "p1", Title: "A + B", TimeLimit: 2, MemoryLimit: 256, Score: 100,
	}}
	fake := &fakeClient{
		getContestFn: func(_ context.Context, id string) (api.Contest, error) {
			return springCup(), nil
		},
		listProblemsFn: func(_ context.Context, contestID string) ([]api.Problem, error) {
			return problems, nil
		},
	}
	store := session.NewStore(fake)

	entered, err := store.EnterContest(context.Background(), "abc123")
	require.NoError(t, err)
	require.Nil(t, entered.Problems)

	republished := 0
	store.Contest().Subscribe(func(c *api.Contest) {
		if c != nil && c.Problems != nil {
			republished++
		}
	})

	require.NoError(t, store.TryUpdateProblems(context.Background()))

	cur := store.Contest().Value()
	require.NotNil(t, cur)
	assert.Equal(t, problems, cur.Problems)
	assert.Equal(t, 1, republished, "problem load must republish exactly once")
	assert.Nil(t, entered.Problems, "the previously published snapshot must not change")

	t.Run("already loaded", func(t *testing.T) {
		err := store.TryUpdateProblems(context.Background())
		assert.ErrorIs(t, err, session.ErrProblemsLoaded)
		assert.Equal(t, 1, fake.listProblemsCalls, "already loaded must not refetch")
	})
}

func TestTryUpdateProblemsNoContest(t *testing.T) {
	fake := &fakeClient{}
	store := session.NewStore(fake)

	err := store.TryUpdateProblems(context.Background())
	assert.ErrorIs(t, err, session.ErrNoContest)
	assert.Zero(t, fake.listProblemsCalls)
}

func TestTryUpdateProblemsEmptyListIsLoaded(t *testing.T) {
	fake := &fakeClient{
		getContestFn: func(_ context.Context, id string) (api.Contest, error) {
			return springCup(), nil
		},
		listProblemsFn: func(_ context.Context, contestID string) ([]api.Problem, error) {
			return nil, nil
		},
	}
	store := session.NewStore(fake)

	_, err := store.EnterContest(context.Background(), "abc123")
	require.NoError(t, err)
	require.NoError(t, store.TryUpdateProblems(context.Background()))

	cur := store.Contest().Value()
	require.NotNil(t, cur.Problems, "an empty list still counts as loaded")
	assert.Empty(t, cur.Problems)
	assert.ErrorIs(t, store.TryUpdateProblems(context.Background()), session.ErrProblemsLoaded)
}

// A problem fetch that outlives its contest must not clobber the contest
// entered in the meantime: start loading problems for A, leave A and
// enter B while the fetch is in flight, then let it resolve.
func TestTryUpdateProblemsDiscardsStaleResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fake := &fakeClient{
		getContestFn: func(_ context.Context, id string) (api.Contest, error) {
			c := springCup()
			c.ID = id
			return c, nil
		},
		listProblemsFn: func(_ context.Context, contestID string) ([]api.Problem, error) {
			if contestID == "contest-a" {
				close(started)
				<-release
			}
			return []api.Problem{{ID: "stale-problem"}}, nil
		},
	}
	store := session.NewStore(fake)

	_, err := store.EnterContest(context.Background(), "contest-a")
	require.NoError(t, err)

	staleResult := make(chan error, 1)
	go func() {
		staleResult <- store.TryUpdateProblems(context.Background())
	}()

	// Switch contests only once A's fetch is in flight.
	<-started
	store.LeaveContest()
	_, err = store.EnterContest(context.Background(), "contest-b")
	require.NoError(t, err)

	close(release)
	assert.ErrorIs(t, <-staleResult, session.ErrStaleContest)

	cur := store.Contest().Value()
	require.NotNil(t, cur)
	assert.Equal(t, "contest-b", cur.ID)
	assert.Nil(t, cur.Problems, "contest B must be unaffected by A's stale fetch")
}

func TestLeaveContest(t *testing.T) {
	fake := &fakeClient{
		getContestFn: func(_ context.Context, id string) (api.Contest, error) {
			return springCup(), nil
		},
	}
	store := session.NewStore(fake)

	notifications := 0
	store.Contest().Subscribe(func(*api.Contest) { notifications++ })
	require.Equal(t, 1, notifications) // initial value on subscribe

	store.LeaveContest()
	assert.Equal(t, 1, notifications, "leaving with no contest is a no-op")

	_, err := store.EnterContest(context.Background(), "abc123")
	require.NoError(t, err)
	store.LeaveContest()
	assert.Nil(t, store.Contest().Value())
	assert.Equal(t, 3, notifications)
}

func TestUpdateEnvironmentsPublishesConsistentLookup(t *testing.T) {
	list := []api.Environment{
		{ID: 1, Name: "C (gcc)"},
		{ID: 2, Name: "Python 3"},
		{ID: 5, Name: "Rust"},
	}
	fake := &fakeClient{
		listEnvsFn: func(context.Context) ([]api.Environment, error) {
			return list, nil
		},
	}
	store := session.NewStore(fake)

	var got session.Environments
	store.Environments().Subscribe(func(e session.Environments) { got = e })
	store.UpdateEnvironments(context.Background())

	require.Equal(t, list, got.List)
	require.Len(t, got.ByID, len(list))
	for _, e := range got.List {
		assert.Equal(t, e, got.ByID[e.ID])
	}
}

func TestUpdateEnvironmentsSwallowsFailure(t *testing.T) {
	fake := &fakeClient{
		listEnvsFn: func(context.Context) ([]api.Environment, error) {
			return nil, errors.New("offline")
		},
	}
	store := session.NewStore(fake)

	store.UpdateEnvironments(context.Background())
	assert.Empty(t, store.Environments().Value().List, "failure must not publish")
}

func TestUpdateCurrentUser(t *testing.T) {
	t.Run("success publishes the user", func(t *testing.T) {
		fake := &fakeClient{
			currentUserFn: func(context.Context) (api.User, error) {
				return api.User{ID: "u1", Name: "penguin", Admin: false}, nil
			},
		}
		store := session.NewStore(fake)

		store.UpdateCurrentUser(context.Background())
		u := store.User().Value()
		require.NotNil(t, u)
		assert.Equal(t, "penguin", u.Name)
	})

	t.Run("401 leaves the channel untouched", func(t *testing.T) {
		fake := &fakeClient{} // unstubbed CurrentUser answers a structured 401
		store := session.NewStore(fake)

		assert.NotPanics(t, func() {
			store.UpdateCurrentUser(context.Background())
		})
		assert.Nil(t, store.User().Value())
		assert.Equal(t, 1, fake.currentUserCalls)
	})
}

func TestLogout(t *testing.T) {
	t.Run("success clears the user", func(t *testing.T) {
		fake := &fakeClient{
			currentUserFn: func(context.Context) (api.User, error) {
				return api.User{ID: "u1", Name: "penguin"}, nil
			},
		}
		store := session.NewStore(fake)
		store.UpdateCurrentUser(context.Background())
		require.NotNil(t, store.User().Value())

		require.NoError(t, store.Logout(context.Background()))
		assert.Nil(t, store.User().Value())
	})

	t.Run("failure keeps the user and surfaces the error", func(t *testing.T) {
		srvErr := &api.Error{Status: http.StatusInternalServerError}
		fake := &fakeClient{
			currentUserFn: func(context.Context) (api.User, error) {
				return api.User{ID: "u1", Name: "penguin"}, nil
			},
			logoutFn: func(context.Context) error { return srvErr },
		}
		store := session.NewStore(fake)
		store.UpdateCurrentUser(context.Background())

		err := store.Logout(context.Background())
		assert.ErrorIs(t, err, srvErr)
		assert.NotNil(t, store.User().Value(), "failed logout must not clear the user")
	})
}

func TestNavigated(t *testing.T) {
	store := session.NewStore(&fakeClient{})

	var paths []string
	store.Path().Subscribe(func(p string) { paths = append(paths, p) })

	store.Navigated("/contests/abc123")
	store.Navigated("/contests/abc123") // identical paths republish too

	assert.Equal(t, []string{"", "/contests/abc123", "/contests/abc123"}, paths)
}

func TestInitFetchesEnvironmentsAndUser(t *testing.T) {
	fake := &fakeClient{
		listEnvsFn: func(context.Context) ([]api.Environment, error) {
			return []api.Environment{{ID: 1, Name: "C (gcc)"}}, nil
		},
		currentUserFn: func(context.Context) (api.User, error) {
			return api.User{ID: "u1", Name: "penguin"}, nil
		},
	}
	store := session.NewStore(fake)

	store.Init(context.Background())

	assert.Equal(t, 1, fake.listEnvsCalls)
	assert.Equal(t, 1, fake.currentUserCalls)
	assert.Len(t, store.Environments().Value().List, 1)
	require.NotNil(t, store.User().Value())
}
