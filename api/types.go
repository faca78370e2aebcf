package api

import "time"

// User is the signed-in account as reported by GET /api/user.
type User struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Admin   bool      `json:"admin"`
	Created time.Time `json:"created"`
}

// Environment describes a judging runtime (compiler or interpreter)
// submissions can target. The id is referenced by Submission.EnvironmentID.
type Environment struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Problem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	TimeLimit   int    `json:"time_limit"`
	MemoryLimit int    `json:"memory_limit"`
	Score       int    `json:"score"`
}

// Contest is a single contest as served by the contests endpoints.
//
// Problems is three-state: nil means the problem list has not been loaded,
// an empty non-nil slice means the contest genuinely has no problems, and
// a populated slice means it has been loaded. List endpoints always leave
// it nil; only ListProblems (or a server that inlines problems on
// GetContest) fills it in.
type Contest struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Problems    []Problem `json:"problems,omitempty"`
}

// Started reports whether the contest has begun at instant t.
func (c Contest) Started(t time.Time) bool {
	return !t.Before(c.StartTime)
}

// Finished reports whether the contest has ended at instant t.
func (c Contest) Finished(t time.Time) bool {
	return !t.Before(c.EndTime)
}

// Running reports whether t falls inside the contest window.
func (c Contest) Running(t time.Time) bool {
	return c.Started(t) && !c.Finished(t)
}

// PartialSubmission is the write-side shape of a submission: everything
// the user supplies, nothing the server assigns.
type PartialSubmission struct {
	ContestID     string `json:"contest_id"`
	ProblemID     string `json:"problem_id"`
	Code          string `json:"code"`
	EnvironmentID int    `json:"environment_id"`
}

// Submission is a judged (or queued) submission record.
type Submission struct {
	ID            int       `json:"id"`
	ContestID     string    `json:"contest_id"`
	ProblemID     string    `json:"problem_id"`
	Code          string    `json:"code"`
	EnvironmentID int       `json:"environment_id"`
	Status        string    `json:"status"`
	Created       time.Time `json:"created"`
	UserID        string    `json:"user_id"`
}

// Token is the login response: a bearer token and its lifetime in seconds.
// The session cookie itself is captured by the client's cookie jar; Token
// is only of interest during the login flow.
type Token struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// ContestStatus filters ListContests by where the contest sits relative
// to the current time.
type ContestStatus string

const (
	ContestRunning   ContestStatus = "running"
	ContestScheduled ContestStatus = "scheduled"
	ContestFinished  ContestStatus = "finished"
)

// ContestFilter narrows ListContests. A nil filter or zero Status lists
// every visible contest.
type ContestFilter struct {
	Status ContestStatus
}
