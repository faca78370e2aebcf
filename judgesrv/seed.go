package judgesrv

import (
	"time"

	"github.com/penguin-judge/penguin-judge-go/api"
)

// SeedUser is an account the server accepts logins for. The password is
// bcrypt-hashed at construction time and never stored in the clear.
type SeedUser struct {
	User     api.User
	Password string
}

// Seed is the in-memory dataset the server serves. Contests may carry
// inline problems; the list endpoints strip them per the API contract and
// the problems endpoint serves them.
type Seed struct {
	Users        []SeedUser
	Environments []api.Environment
	Contests     []api.Contest
	Submissions  []api.Submission
}

// DevSeed returns a dataset for local development: two accounts
// (penguin/iceberg and admin/admin), a handful of environments, and one
// contest in each lifecycle phase relative to now.
func DevSeed(now time.Time) Seed {
	return Seed{
		Users: []SeedUser{
			{
				User: api.User{
					ID: "penguin", Name: "Penguin", Admin: false,
					Created: now.Add(-30 * 24 * time.Hour),
				},
				Password: "iceberg",
			},
			{
				User: api.User{
					ID: "admin", Name: "Administrator", Admin: true,
					Created: now.Add(-365 * 24 * time.Hour),
				},
				Password: "admin",
			},
		},
		Environments: []api.Environment{
			{ID: 1, Name: "C (gcc 13)"},
			{ID: 2, Name: "C++17 (gcc 13)"},
			{ID: 3, Name: "Python 3.12"},
			{ID: 4, Name: "Go 1.23"},
		},
		Contests: []api.Contest{
			{
				ID:          "spring-cup",
				Title:       "Spring Cup",
				Description: "The running contest.",
				StartTime:   now.Add(-1 * time.Hour),
				EndTime:     now.Add(3 * time.Hour),
				Problems: []api.Problem{
					{ID: "a", Title: "A + B", Description: "Add two integers.",
						TimeLimit: 2, MemoryLimit: 256, Score: 100},
					{ID: "b", Title: "Iceberg Sort", Description: "Sort the floes.",
						TimeLimit: 4, MemoryLimit: 512, Score: 300},
				},
			},
			{
				ID:          "summer-open",
				Title:       "Summer Open",
				Description: "The scheduled contest.",
				StartTime:   now.Add(30 * 24 * time.Hour),
				EndTime:     now.Add(31 * 24 * time.Hour),
				Problems:    []api.Problem{},
			},
			{
				ID:          "winter-finals",
				Title:       "Winter Finals",
				Description: "The finished contest.",
				StartTime:   now.Add(-60 * 24 * time.Hour),
				EndTime:     now.Add(-59 * 24 * time.Hour),
				Problems: []api.Problem{
					{ID: "z", Title: "Frozen Graph", Description: "Thaw it.",
						TimeLimit: 1, MemoryLimit: 256, Score: 500},
				},
			},
		},
	}
}
