package capture

import (
	"context"
	"fmt"
)

// Responder answers prompts. The CLI implements it with terminal forms and
// flag values; tests script it.
type Responder interface {
	Respond(ctx context.Context, p Prompt) (Reply, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, p Prompt) (Reply, error)

func (f ResponderFunc) Respond(ctx context.Context, p Prompt) (Reply, error) {
	return f(ctx, p)
}

// Drive runs a whole session for text, asking r for every prompt. A
// responder error cancels the session. A commit failure is returned as is so
// the caller can decide whether to run the line again.
func Drive(ctx context.Context, c *Capturer, text string, r Responder) (*Result, error) {
	s, step, err := c.Start(ctx, text)
	if err != nil {
		if s != nil && !step.Done() {
			s.Cancel()
		}
		return step.Result, err
	}

	for !step.Done() {
		reply, err := r.Respond(ctx, *step.Prompt)
		if err != nil {
			s.Cancel()
			return nil, fmt.Errorf("answer %s: %w", step.Prompt.Kind, err)
		}
		step, err = s.Reply(ctx, reply)
		if err != nil {
			if !step.Done() {
				s.Cancel()
			}
			return step.Result, err
		}
	}
	return step.Result, nil
}
