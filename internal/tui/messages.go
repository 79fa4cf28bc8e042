// Package tui provides Bubble Tea models for the interactive lane board.
package tui

import (
	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/store"
)

// ViewSelectedMsg is emitted when the user picks a saved view.
type ViewSelectedMsg struct {
	View domain.SavedView
}

// NewQueryMsg is emitted when the user asks to type a query instead of picking a view.
type NewQueryMsg struct{}

// QuerySubmittedMsg is emitted when the user submits an ad hoc query.
type QuerySubmittedMsg struct {
	JQL string
}

// ErrorMsg is emitted when an error occurs.
type ErrorMsg struct {
	Err error
}

// QuitMsg is emitted when the user requests to quit.
type QuitMsg struct{}

// Messages between the board, the detail view and the app.
type (
	boardLoadedMsg        struct{ result domain.AggregateResult }
	boardErrorMsg         struct{ err error }
	distributionLoadedMsg struct{ aggregate domain.Aggregate }
	viewSavedMsg          struct{ view domain.SavedView }
	exportedMsg           struct{ path string }
	actionErrorMsg        struct{ err error }
	changeViewMsg         struct{}
	openDetailMsg         struct{ card *store.Card }
	closeDetailMsg        struct{}
)
