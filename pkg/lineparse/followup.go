package lineparse

import (
	"regexp"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var followUpPattern = regexp.MustCompile(`(?i)\b(follow[- ]?up|remind me|reach out|check in|get back to)\b`)

func newDateParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// extractFollowUp looks for a follow-up request and the date expression that
// comes after it. Without a date the follow-up is due fallback after now.
func extractFollowUp(w *when.Parser, line string, now time.Time, fallback time.Duration) FollowUp {
	loc := followUpPattern.FindStringIndex(line)
	if loc == nil {
		return FollowUp{}
	}

	fu := FollowUp{Needed: true}
	tail := line[loc[1]:]
	if r, err := w.Parse(tail, now); err == nil && r != nil && r.Time.After(now) {
		at := r.Time
		fu.At = &at
		fu.Phrase = r.Text
		return fu
	}

	at := now.Add(fallback)
	fu.At = &at
	return fu
}
