package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/netnotes-cli/config"
	"github.com/otherjamesbrown/netnotes-cli/pkg/capture"
	nnerrors "github.com/otherjamesbrown/netnotes-cli/pkg/errors"
)

func TestCaptureCommand(t *testing.T) {
	cmd := NewCaptureCommand(newTestEnv(t).deps)

	assert.Equal(t, "capture [line]", cmd.Use)
	assert.ElementsMatch(t, []string{"add", "c"}, cmd.Aliases)
	for _, name := range []string{"name", "place-yes", "place-no", "where", "skip-where"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "--%s", name)
	}
}

func TestCaptureCommand_PlaceFlagsExclusive(t *testing.T) {
	cmd := NewCaptureCommand(newTestEnv(t).deps)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--place-yes", "--place-no", "Alex"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "place-no")
}

func TestCaptureAnswers(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		answers captureAnswers
		prompt  capture.Prompt
		want    capture.Reply
		wantErr string
	}{
		{
			name:    "name given",
			answers: captureAnswers{name: "Tom"},
			prompt:  capture.Prompt{Kind: capture.PromptAskName},
			want:    capture.Submit("Tom"),
		},
		{
			name:   "name missing skips",
			prompt: capture.Prompt{Kind: capture.PromptAskName},
			want:   capture.Skip(),
		},
		{
			name:    "place accepted",
			answers: captureAnswers{placeYes: true},
			prompt:  capture.Prompt{Kind: capture.PromptConfirmPlace, Suggestion: "Ace Hotel"},
			want:    capture.Yes(),
		},
		{
			name:    "place rejected",
			answers: captureAnswers{placeNo: true},
			prompt:  capture.Prompt{Kind: capture.PromptConfirmPlace, Suggestion: "Ace Hotel"},
			want:    capture.No(),
		},
		{
			name:    "place unanswered",
			prompt:  capture.Prompt{Kind: capture.PromptConfirmPlace, Suggestion: "Ace Hotel"},
			wantErr: "--place-yes",
		},
		{
			name:    "where given",
			answers: captureAnswers{where: "Cafe Flore"},
			prompt:  capture.Prompt{Kind: capture.PromptAskWhere},
			want:    capture.Submit("Cafe Flore"),
		},
		{
			name:    "where skipped",
			answers: captureAnswers{skipWhere: true},
			prompt:  capture.Prompt{Kind: capture.PromptAskWhere},
			want:    capture.Skip(),
		},
		{
			name:    "where unanswered",
			prompt:  capture.Prompt{Kind: capture.PromptAskWhere},
			wantErr: "--skip-where",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.answers.Respond(ctx, tt.prompt)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunCapture_PlaceConfirmedByFlag(t *testing.T) {
	env := newTestEnv(t)
	env.setOutput(config.OutputFormatJSON)
	ctx := context.Background()

	var out bytes.Buffer
	err := runCapture(ctx, env.deps, &out, "named Alex, 29, met at Polo Lounge LA", &captureAnswers{placeYes: true})
	require.NoError(t, err)

	var got CaptureOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.NotNil(t, got.Person)
	assert.True(t, got.IsNew)
	assert.Equal(t, "Alex", got.Person.Name)
	assert.Equal(t, 29, got.Person.Age)
	assert.Equal(t, "Los Angeles", got.Person.City)
	assert.Equal(t, "Polo Lounge LA", got.Person.PlaceLabel)

	saved, err := env.store.FindPersonByName(ctx, "alex")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, got.Person.ID, saved.ID)
}

func TestRunCapture_RepeatUpdatesSamePerson(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	answers := &captureAnswers{placeYes: true}

	require.NoError(t, runCapture(ctx, env.deps, &bytes.Buffer{}, "named Alex, 29, met at Polo Lounge LA", answers))

	var out bytes.Buffer
	require.NoError(t, runCapture(ctx, env.deps, &out, "named Alex, 29, met at Polo Lounge LA", answers))
	assert.Contains(t, out.String(), "Saved Alex")
	assert.Contains(t, out.String(), "(updated)")

	list, err := env.store.ListPeople(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRunCapture_UnansweredPromptSavesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := runCapture(ctx, env.deps, &bytes.Buffer{}, "named Alex, 29, met at Polo Lounge LA", &captureAnswers{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--place-yes")

	list, err := env.store.ListPeople(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRunCapture_PlaceholderNameWithTypedPlace(t *testing.T) {
	env := newTestEnv(t)
	env.setOutput(config.OutputFormatJSON)
	ctx := context.Background()

	var out bytes.Buffer
	err := runCapture(ctx, env.deps, &out, "talked about climbing for an hour", &captureAnswers{where: "Blue Bottle"})
	require.NoError(t, err)

	var got CaptureOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, capture.PlaceholderName, got.Person.Name)
	assert.Equal(t, "Blue Bottle", got.Person.PlaceLabel)
	require.NotNil(t, got.Note)
	assert.Equal(t, "Talked about climbing for an hour", got.Note.Content)
}

func TestRunCapture_EmptyLine(t *testing.T) {
	env := newTestEnv(t)

	err := runCapture(context.Background(), env.deps, &bytes.Buffer{}, "", &captureAnswers{})
	require.Error(t, err)
	assert.ErrorIs(t, err, nnerrors.ErrValidation)
}

func TestJoinNonEmpty(t *testing.T) {
	assert.Equal(t, "Ace Hotel / London", joinNonEmpty(" / ", "Ace Hotel", "", " ", "London"))
	assert.Equal(t, "", joinNonEmpty(" / "))
}
