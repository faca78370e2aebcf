package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/penguin-judge/penguin-judge-go/api"
	"github.com/penguin-judge/penguin-judge-go/session"
)

type view int

const (
	viewHome view = iota
	viewContest
	viewSubmissions
	viewLogin
)

// Store channel notifications, forwarded into the bubbletea loop.
type (
	userChangedMsg    struct{ user *api.User }
	envsChangedMsg    struct{ envs session.Environments }
	contestChangedMsg struct{ contest *api.Contest }
)

// Command results.
type (
	contestsLoadedMsg struct {
		contests []api.Contest
		err      error
	}
	enteredContestMsg    struct{ err error }
	submissionsLoadedMsg struct {
		submissions []api.Submission
		err         error
	}
	loginResultMsg  struct{ err error }
	logoutResultMsg struct{ err error }
)

type model struct {
	ctx    context.Context
	client *api.Client
	store  *session.Store
	events chan tea.Msg

	view   view
	width  int
	height int

	// Latest values from the store channels.
	user    *api.User
	envs    session.Environments
	contest *api.Contest

	contests    []api.Contest
	cursor      int
	submissions []api.Submission
	errText     string

	idInput textinput.Model
	pwInput textinput.Model
}

func newModel(ctx context.Context, client *api.Client, store *session.Store) model {
	idInput := textinput.New()
	idInput.Placeholder = "user id"
	idInput.Focus()
	pwInput := textinput.New()
	pwInput.Placeholder = "password"
	pwInput.EchoMode = textinput.EchoPassword

	m := model{
		ctx:     ctx,
		client:  client,
		store:   store,
		events:  make(chan tea.Msg, 32),
		idInput: idInput,
		pwInput: pwInput,
	}

	// The subscriptions push every store publication into the event
	// channel; Init arms a command that drains it into the update loop.
	store.User().Subscribe(func(u *api.User) {
		m.events <- userChangedMsg{u}
	})
	store.Environments().Subscribe(func(e session.Environments) {
		m.events <- envsChangedMsg{e}
	})
	store.Contest().Subscribe(func(c *api.Contest) {
		m.events <- contestChangedMsg{c}
	})
	return m
}

func waitForEvent(events chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-events }
}

func (m model) Init() tea.Cmd {
	m.store.Navigated("/")
	return tea.Batch(m.loadContests(), waitForEvent(m.events))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case userChangedMsg:
		m.user = msg.user
		return m, waitForEvent(m.events)
	case envsChangedMsg:
		m.envs = msg.envs
		return m, waitForEvent(m.events)
	case contestChangedMsg:
		m.contest = msg.contest
		return m, waitForEvent(m.events)

	case contestsLoadedMsg:
		if msg.err != nil {
			m.errText = describeErr(msg.err)
			return m, nil
		}
		m.errText = ""
		m.contests = msg.contests
		if m.cursor >= len(m.contests) {
			m.cursor = 0
		}
		return m, nil

	case enteredContestMsg:
		if msg.err != nil {
			m.errText = describeErr(msg.err)
			return m, nil
		}
		m.errText = ""
		m.view = viewContest
		return m, nil

	case submissionsLoadedMsg:
		if msg.err != nil {
			m.errText = describeErr(msg.err)
			return m, nil
		}
		m.errText = ""
		m.submissions = msg.submissions
		m.view = viewSubmissions
		return m, nil

	case loginResultMsg:
		if msg.err != nil {
			m.errText = describeErr(msg.err)
			return m, nil
		}
		m.errText = ""
		m.pwInput.SetValue("")
		m.view = viewHome
		m.store.Navigated("/")
		return m, nil

	case logoutResultMsg:
		if msg.err != nil {
			m.errText = describeErr(msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.view {
	case viewLogin:
		return m.handleLoginKey(msg)

	case viewHome:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.contests)-1 {
				m.cursor++
			}
		case "enter":
			if len(m.contests) == 0 {
				return m, nil
			}
			id := m.contests[m.cursor].ID
			m.store.Navigated("/contests/" + id)
			return m, m.enterContest(id)
		case "l":
			m.view = viewLogin
			m.store.Navigated("/login")
			m.idInput.Focus()
			m.pwInput.Blur()
		case "o":
			if m.user != nil {
				return m, m.doLogout()
			}
		case "r":
			return m, m.loadContests()
		}

	case viewContest:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "s":
			if m.contest != nil {
				m.store.Navigated("/contests/" + m.contest.ID + "/submissions")
				return m, m.loadSubmissions(m.contest.ID)
			}
		case "esc", "b":
			m.store.LeaveContest()
			m.store.Navigated("/")
			m.view = viewHome
		}

	case viewSubmissions:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "esc", "b":
			if m.contest != nil {
				m.store.Navigated("/contests/" + m.contest.ID)
			}
			m.view = viewContest
		}
	}
	return m, nil
}

func (m model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = viewHome
		m.store.Navigated("/")
		return m, nil
	case "tab", "shift+tab":
		if m.idInput.Focused() {
			m.idInput.Blur()
			m.pwInput.Focus()
		} else {
			m.pwInput.Blur()
			m.idInput.Focus()
		}
		return m, nil
	case "enter":
		return m, m.doLogin(m.idInput.Value(), m.pwInput.Value())
	}

	var cmd tea.Cmd
	if m.idInput.Focused() {
		m.idInput, cmd = m.idInput.Update(msg)
	} else {
		m.pwInput, cmd = m.pwInput.Update(msg)
	}
	return m, cmd
}

func (m model) loadContests() tea.Cmd {
	return func() tea.Msg {
		contests, err := m.client.ListContests(m.ctx, nil)
		return contestsLoadedMsg{contests: contests, err: err}
	}
}

func (m model) enterContest(id string) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.store.EnterContest(m.ctx, id); err != nil {
			return enteredContestMsg{err: err}
		}
		err := m.store.TryUpdateProblems(m.ctx)
		if errors.Is(err, session.ErrProblemsLoaded) {
			err = nil
		}
		return enteredContestMsg{err: err}
	}
}

// Submissions are never cached by the store; this view fetches and holds
// its own transient list.
func (m model) loadSubmissions(contestID string) tea.Cmd {
	return func() tea.Msg {
		submissions, err := m.client.ListSubmissions(m.ctx, contestID)
		return submissionsLoadedMsg{submissions: submissions, err: err}
	}
}

func (m model) doLogin(id, password string) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.client.Login(m.ctx, id, password); err != nil {
			return loginResultMsg{err: err}
		}
		m.store.UpdateCurrentUser(m.ctx)
		return loginResultMsg{}
	}
}

func (m model) doLogout() tea.Cmd {
	return func() tea.Msg {
		return logoutResultMsg{err: m.store.Logout(m.ctx)}
	}
}

func describeErr(err error) string {
	if status, ok := api.ErrorStatus(err); ok {
		return fmt.Sprintf("server error (%d)", status)
	}
	return "network error: " + err.Error()
}
