package view

import (
	"fmt"
	"slices"
	"strings"

	"reflectivejournal/internal/domain"
	"reflectivejournal/internal/journalapi"
	"reflectivejournal/internal/reflection"
)

// Button data besides command names.
const (
	ActionLogin        = "login"
	ActionSignUp       = "signup"
	ActionToggleSignUp = "toggle_signup"
	ActionSkip         = "skip"
	MoodPrefix         = "mood_"
	StylePrefix        = "style_"
)

// User-facing messages.
const (
	ErrLoginFirst     = "Please log in first."
	ErrSessionExpired = "Your session has expired. Please log in again."
	ErrEmptyContent   = "Entry content cannot be empty."
	ErrUnknownMood    = "Unknown mood."
	ErrUnknownCommand = "Unknown command. Use /menu to see what I can do."
	ErrStaleButton    = "This button is no longer active."
	ErrUseButtons     = "Please use the buttons below."
	ErrPartialImport  = "Some feed items could not be imported."
	NoticeLoggedOut   = "You are logged out."
	NoticeEntrySaved  = "Entry saved."

	noticeImportedFmt   = "Imported %d entries."
	noticeLoggedInFmt   = "Logged in as %s."
	noticeRegisteredFmt = "Account created for %s."
)

// Reduce applies one event and returns the next state with the effects to
// run. The given state is left as it was.
func Reduce(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case Command:
		s.Notice, s.Error = "", ""
		return reduceCommand(s, e)
	case Pressed:
		s.Notice, s.Error = "", ""
		return reducePressed(s, e)
	case TextEntered:
		s.Notice, s.Error = "", ""
		return reduceText(s, e)
	default:
		return reduceResult(s, ev)
	}
}

func reduceCommand(s State, c Command) (State, []Effect) {
	switch c.Name {
	case CmdStart:
		if !s.Authenticated {
			return Initial(), nil
		}
		return openJournal(s)
	case CmdMenu, CmdCancel:
		if !s.Authenticated {
			return Initial(), nil
		}
		s = s.withoutDrafts()
		s.Screen = ScreenJournal
		return s, nil
	case CmdLogout:
		n := Initial()
		n.Notice = NoticeLoggedOut
		return n, []Effect{ClearSession{}}
	}

	if !s.Authenticated {
		n := Initial()
		n.Error = ErrLoginFirst
		return n, nil
	}

	switch c.Name {
	case CmdNew:
		s = s.withoutDrafts()
		s.Draft = domain.NewEntry{Mood: domain.DefaultMood}
		s.Screen = ScreenEntryTitle
		return s, nil
	case CmdReflect:
		s = s.withoutDrafts()
		s.Screen = ScreenReflectText
		s.Reflection = nil
		return s, []Effect{LoadReflection{}}
	case CmdEntries:
		return openJournal(s)
	case CmdRecent:
		s, _ = openJournal(s)
		s.RecentOnly = true
		return s, []Effect{FetchEntries{Token: s.Token, Recent: true}}
	case CmdInsights:
		s = s.withoutDrafts()
		s.Screen = ScreenInsights
		s.Insight = nil
		s.Loading = true
		return s, []Effect{BuildInsight{Token: s.Token}}
	case CmdSummaries:
		s = s.withoutDrafts()
		s.Screen = ScreenSummaries
		s.Loading = true
		return s, []Effect{LoadSummaries{}}
	case CmdImport:
		s = s.withoutDrafts()
		s.Screen = ScreenImport
		if args := strings.TrimSpace(c.Args); args != "" {
			s.Loading = true
			return s, []Effect{ImportFeed{Token: s.Token, Text: args}}
		}
		return s, nil
	default:
		s.Error = ErrUnknownCommand
		return s, nil
	}
}

func reducePressed(s State, p Pressed) (State, []Effect) {
	data := strings.TrimSpace(p.Data)

	if isCommand(data) {
		return reduceCommand(s, Command{Name: data})
	}

	switch data {
	case ActionLogin, ActionSignUp:
		if s.Authenticated {
			return openJournal(s)
		}
		return authStart(data == ActionSignUp), nil
	case ActionToggleSignUp:
		if s.Authenticated {
			return openJournal(s)
		}
		return authStart(!s.SignUp), nil
	case ActionSkip:
		switch s.Screen {
		case ScreenEntryTitle:
			s.Draft.Title = ""
			s.Screen = ScreenEntryContent
			return s, nil
		case ScreenReflectTags:
			s.ReflectionTags = ""
			s.Screen = ScreenReflectStyle
			return s, nil
		}
	}

	if raw, ok := strings.CutPrefix(data, MoodPrefix); ok && s.Screen == ScreenEntryMood && s.Authenticated {
		mood, known := domain.ParseMood(raw)
		if !known {
			s.Error = ErrUnknownMood
			return s, nil
		}

		s.Draft.Mood = mood
		s.Loading = true

		return s, []Effect{CreateEntry{Token: s.Token, Entry: s.Draft}}
	}

	if raw, ok := strings.CutPrefix(data, StylePrefix); ok && s.Screen == ScreenReflectStyle && s.Authenticated {
		s.Loading = true

		return s, []Effect{SaveReflection{
			Text:    s.ReflectionText,
			RawTags: s.ReflectionTags,
			Style:   reflection.ParseStyle(raw),
		}}
	}

	s.Error = ErrStaleButton

	return s, nil
}

func reduceText(s State, t TextEntered) (State, []Effect) {
	text := strings.TrimSpace(t.Text)

	switch s.Screen {
	case ScreenAuthEmail:
		if err := journalapi.ValidateEmail(text); err != nil {
			s.Error = err.Error()
			return s, nil
		}
		s.Email = text
		s.Screen = ScreenAuthPassword
		return s, nil

	case ScreenAuthPassword:
		effects := []Effect{DeleteInput{MessageID: t.MessageID}}

		if s.SignUp {
			if err := journalapi.ValidateNewPassword(t.Text); err != nil {
				s.Error = err.Error()
				return s, effects
			}
			s.PendingPassword = t.Text
			s.Screen = ScreenAuthConfirm
			return s, effects
		}

		s.Loading = true
		return s, append(effects, Authenticate{Email: s.Email, Password: t.Text})

	case ScreenAuthConfirm:
		effects := []Effect{DeleteInput{MessageID: t.MessageID}}

		if err := journalapi.ValidatePasswordConfirmation(s.PendingPassword, t.Text); err != nil {
			s.Error = err.Error()
			s.PendingPassword = ""
			s.Screen = ScreenAuthPassword
			return s, effects
		}

		password := s.PendingPassword
		s.PendingPassword = ""
		s.Loading = true
		return s, append(effects, Authenticate{Email: s.Email, Password: password, SignUp: true})

	case ScreenEntryTitle:
		s.Draft.Title = text
		s.Screen = ScreenEntryContent
		return s, nil

	case ScreenEntryContent:
		if text == "" {
			s.Error = ErrEmptyContent
			return s, nil
		}
		s.Draft.Content = text
		s.Screen = ScreenEntryMood
		return s, nil

	case ScreenReflectText:
		s.ReflectionText = t.Text
		s.Screen = ScreenReflectTags
		return s, nil

	case ScreenReflectTags:
		s.ReflectionTags = t.Text
		s.Screen = ScreenReflectStyle
		return s, nil

	case ScreenImport:
		s.Loading = true
		return s, []Effect{ImportFeed{Token: s.Token, Text: text}}

	default:
		s.Error = ErrUseButtons
		return s, nil
	}
}

func reduceResult(s State, ev Event) (State, []Effect) {
	s.Loading = false

	switch e := ev.(type) {
	case Authenticated:
		if s.SignUp {
			s.Notice = fmt.Sprintf(noticeRegisteredFmt, e.Email)
		} else {
			s.Notice = fmt.Sprintf(noticeLoggedInFmt, e.Email)
		}
		s.Error = ""
		s.Authenticated = true
		s.SignUp = false
		s.Email = e.Email
		s.Token = e.Token
		s.Entries = nil

		var effects []Effect
		s, effects = openJournal(s)

		return s, append([]Effect{SaveSession{Credentials: domain.Credentials{
			Email: e.Email,
			Token: e.Token,
		}}}, effects...)

	case AuthFailed:
		s.PendingPassword = ""
		s.Screen = ScreenAuthEmail
		s.Error = e.Message

	case EntriesLoaded:
		s.Entries = e.Entries

	case EntriesFailed:
		s.Error = e.Message

	case EntryCreated:
		entries := make([]domain.Entry, 0, len(s.Entries)+1)
		entries = append(entries, e.Entry)
		s.Entries = append(entries, s.Entries...)
		s.Draft = domain.NewEntry{}
		s.Screen = ScreenJournal
		s.Notice = NoticeEntrySaved

	case EntryFailed:
		s.Error = e.Message

	case ReflectionLoaded:
		s.Reflection = e.Record

	case ReflectionSaved:
		record := e.Record
		s.Reflection = &record
		s.ReflectionText = ""
		s.ReflectionTags = ""
		s.Screen = ScreenReflectDone

	case ReflectionFailed:
		s.Error = e.Message

	case InsightBuilt:
		summary := e.Summary
		s.Insight = &summary

	case InsightFailed:
		s.Error = e.Message

	case SummariesLoaded:
		s.Summaries = e.Summaries
		s.Reflections = e.Reflections

	case SummariesFailed:
		s.Error = e.Message

	case FeedImported:
		s.Notice = fmt.Sprintf(noticeImportedFmt, e.Created)
		if e.Partial {
			s.Error = ErrPartialImport
		}

		return openJournal(s)

	case ImportFailed:
		s.Screen = ScreenImport
		s.Error = e.Message

	case SessionExpired:
		n := Initial()
		n.Error = ErrSessionExpired

		return n, []Effect{ClearSession{}}
	}

	return s, nil
}

func openJournal(s State) (State, []Effect) {
	s = s.withoutDrafts()
	s.Screen = ScreenJournal
	s.RecentOnly = false
	s.Loading = true

	return s, []Effect{FetchEntries{Token: s.Token}}
}

func authStart(signUp bool) State {
	s := Initial()
	s.Screen = ScreenAuthEmail
	s.SignUp = signUp

	return s
}

func isCommand(name string) bool {
	return slices.Contains(Commands(), name)
}
