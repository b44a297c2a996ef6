package view

import (
	"reflectivejournal/internal/domain"
	"reflectivejournal/internal/reflection"
)

// Effect is work Reduce asks the caller to do. Most effects answer with an
// Event; SaveSession, ClearSession and DeleteInput do not.
type Effect interface {
	isEffect()
}

type Authenticate struct {
	Email    string
	Password string
	SignUp   bool
}

type SaveSession struct {
	Credentials domain.Credentials
}

type ClearSession struct{}

// FetchEntries loads the journal; Recent limits it to the last seven days.
type FetchEntries struct {
	Token  string
	Recent bool
}

type CreateEntry struct {
	Token string
	Entry domain.NewEntry
}

type LoadReflection struct{}

// SaveReflection stores today's reflection. The caller supplies the date.
type SaveReflection struct {
	Text    string
	RawTags string
	Style   reflection.Style
}

// BuildInsight summarizes the caller's configured number of recent days.
type BuildInsight struct {
	Token string
}

type LoadSummaries struct{}

type ImportFeed struct {
	Token string
	Text  string
}

type DeleteInput struct {
	MessageID int
}

func (Authenticate) isEffect()   {}
func (SaveSession) isEffect()    {}
func (ClearSession) isEffect()   {}
func (FetchEntries) isEffect()   {}
func (CreateEntry) isEffect()    {}
func (LoadReflection) isEffect() {}
func (SaveReflection) isEffect() {}
func (BuildInsight) isEffect()   {}
func (LoadSummaries) isEffect()  {}
func (ImportFeed) isEffect()     {}
func (DeleteInput) isEffect()    {}
