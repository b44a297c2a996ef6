package view

import (
	"reflectivejournal/internal/domain"
	"reflectivejournal/internal/reflection"
)

// Event is user input or the outcome of an Effect.
type Event interface {
	isEvent()
}

const (
	CmdStart     = "start"
	CmdMenu      = "menu"
	CmdNew       = "new"
	CmdReflect   = "reflect"
	CmdEntries   = "entries"
	CmdRecent    = "recent"
	CmdInsights  = "insights"
	CmdSummaries = "summaries"
	CmdImport    = "import"
	CmdLogout    = "logout"
	CmdCancel    = "cancel"
)

// Commands lists every slash command in menu order.
func Commands() []string {
	return []string{
		CmdStart, CmdMenu, CmdNew, CmdReflect, CmdEntries, CmdRecent,
		CmdInsights, CmdSummaries, CmdImport, CmdLogout, CmdCancel,
	}
}

// Command is a slash command; Args is the text after it.
type Command struct {
	Name string
	Args string
}

// Pressed is an inline button press carrying the button's data.
type Pressed struct {
	Data string
}

// TextEntered is a plain text message. MessageID lets sensitive input be
// deleted afterwards.
type TextEntered struct {
	Text      string
	MessageID int
}

type Authenticated struct {
	Email string
	Token string
}

type AuthFailed struct {
	Message string
}

type EntriesLoaded struct {
	Entries []domain.Entry
}

type EntriesFailed struct {
	Message string
}

type EntryCreated struct {
	Entry domain.Entry
}

type EntryFailed struct {
	Message string
}

// ReflectionLoaded carries today's stored reflection, nil when there is none.
type ReflectionLoaded struct {
	Record *reflection.Record
}

type ReflectionSaved struct {
	Record reflection.Record
}

type ReflectionFailed struct {
	Message string
}

type InsightBuilt struct {
	Summary domain.PeriodSummary
}

type InsightFailed struct {
	Message string
}

type SummariesLoaded struct {
	Summaries   []domain.PeriodSummary
	Reflections []reflection.Record
}

type SummariesFailed struct {
	Message string
}

// FeedImported reports a finished import. Partial is set when some items
// were rejected.
type FeedImported struct {
	Created int
	Partial bool
}

type ImportFailed struct {
	Message string
}

// SessionExpired means the backend no longer accepts the stored token.
type SessionExpired struct{}

func (Command) isEvent()          {}
func (Pressed) isEvent()          {}
func (TextEntered) isEvent()      {}
func (Authenticated) isEvent()    {}
func (AuthFailed) isEvent()       {}
func (EntriesLoaded) isEvent()    {}
func (EntriesFailed) isEvent()    {}
func (EntryCreated) isEvent()     {}
func (EntryFailed) isEvent()      {}
func (ReflectionLoaded) isEvent() {}
func (ReflectionSaved) isEvent()  {}
func (ReflectionFailed) isEvent() {}
func (InsightBuilt) isEvent()     {}
func (InsightFailed) isEvent()    {}
func (SummariesLoaded) isEvent()  {}
func (SummariesFailed) isEvent()  {}
func (FeedImported) isEvent()     {}
func (ImportFailed) isEvent()     {}
func (SessionExpired) isEvent()   {}
