package capture

import (
	"github.com/otherjamesbrown/netnotes-cli/pkg/lineparse"
	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
)

// PlaceholderName is stored when no name was parsed or typed.
const PlaceholderName = "Someone"

// MinNameConfidence is the parse confidence below which the name is asked for.
const MinNameConfidence = 0.4

// State is a position in the capture workflow.
type State string

const (
	StateIdle            State = "idle"
	StateNameCheck       State = "name_check"
	StateAskName         State = "ask_name"
	StateLocationResolve State = "location_resolve"
	StateConfirmPlace    State = "confirm_place"
	StateAskWhere        State = "ask_where"
	StateCommit          State = "commit"
	StateDone            State = "done"
	StateCancelled       State = "cancelled"
)

// PromptKind identifies the question a session is waiting on.
type PromptKind string

const (
	PromptAskName      PromptKind = "ask_name"
	PromptConfirmPlace PromptKind = "confirm_place"
	PromptAskWhere     PromptKind = "ask_where"
)

// Prompt is a question for the user.
type Prompt struct {
	Kind PromptKind
	// Name is the name the entry will be saved under so far.
	Name string
	// Suggestion is the parsed name for AskName, or the place label for
	// ConfirmPlace.
	Suggestion string
	Candidate  lineparse.Candidate
}

// Result is the outcome of a committed capture. Note is nil when the line
// had no occupation or notes, or when saving the note failed.
type Result struct {
	Person *people.Person
	Note   *people.Note
	IsNew  bool
}

// Step is what a session produces after each transition: either a Prompt to
// answer or a terminal Result.
type Step struct {
	Prompt *Prompt
	Result *Result
}

// Done reports whether the session has finished.
func (s Step) Done() bool { return s.Result != nil }

// Action is the user's answer to a prompt.
type Action int

const (
	ActionSubmit Action = iota
	ActionSkip
	ActionYes
	ActionNo
	ActionCancel
)

func (a Action) String() string {
	switch a {
	case ActionSubmit:
		return "submit"
	case ActionSkip:
		return "skip"
	case ActionYes:
		return "yes"
	case ActionNo:
		return "no"
	case ActionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Reply answers the current prompt.
type Reply struct {
	Action Action
	Text   string
}

func Submit(text string) Reply { return Reply{Action: ActionSubmit, Text: text} }
func Skip() Reply              { return Reply{Action: ActionSkip} }
func Yes() Reply               { return Reply{Action: ActionYes} }
func No() Reply                { return Reply{Action: ActionNo} }
func Cancel() Reply            { return Reply{Action: ActionCancel} }

// pendingEntry is everything gathered before commit.
type pendingEntry struct {
	candidate lineparse.Candidate
	name      string
	label     string
	coords    *people.Coordinates
	typedGeo  bool
}
