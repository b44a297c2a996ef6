package view

import (
	"reflectivejournal/internal/domain"
	"reflectivejournal/internal/reflection"
)

type Screen string

const (
	ScreenLogin        Screen = "login"
	ScreenAuthEmail    Screen = "auth_email"
	ScreenAuthPassword Screen = "auth_password"
	ScreenAuthConfirm  Screen = "auth_confirm"
	ScreenJournal      Screen = "journal"
	ScreenEntryTitle   Screen = "entry_title"
	ScreenEntryContent Screen = "entry_content"
	ScreenEntryMood    Screen = "entry_mood"
	ScreenReflectText  Screen = "reflect_text"
	ScreenReflectTags  Screen = "reflect_tags"
	ScreenReflectStyle Screen = "reflect_style"
	ScreenReflectDone  Screen = "reflect_done"
	ScreenInsights     Screen = "insights"
	ScreenSummaries    Screen = "summaries"
	ScreenImport       Screen = "import"
)

// State is everything one chat shows. Reduce works on copies: slices and
// pointers reachable from a State are replaced, never written through.
type State struct {
	Screen        Screen
	SignUp        bool
	Authenticated bool
	Loading       bool

	Email string
	Token string
	// PendingPassword holds the first sign-up password until it is confirmed.
	PendingPassword string

	Entries    []domain.Entry
	RecentOnly bool
	Draft      domain.NewEntry

	ReflectionText string
	ReflectionTags string
	Reflection     *reflection.Record

	Insight     *domain.PeriodSummary
	Summaries   []domain.PeriodSummary
	Reflections []reflection.Record

	Notice string
	Error  string
}

func Initial() State {
	return State{Screen: ScreenLogin}
}

// Restored is the state of a chat whose user already has a stored session.
func Restored(creds domain.Credentials) State {
	return State{
		Screen:        ScreenJournal,
		Authenticated: true,
		Email:         creds.Email,
		Token:         creds.Token,
	}
}

func (s State) withoutDrafts() State {
	s.PendingPassword = ""
	s.Draft = domain.NewEntry{}
	s.ReflectionText = ""
	s.ReflectionTags = ""
	s.Loading = false

	return s
}
