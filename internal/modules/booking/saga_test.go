package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingStep(name string, log *[]string, fail error, compFail error) sagaStep {
	return sagaStep{
		name: name,
		do: func(context.Context) error {
			*log = append(*log, "do:"+name)
			return fail
		},
		compensate: func(context.Context) error {
			*log = append(*log, "undo:"+name)
			return compFail
		},
	}
}

func TestRunSaga_AllStepsSucceed(t *testing.T) {
	var log []string
	err := runSaga(context.Background(), []sagaStep{
		recordingStep("a", &log, nil, nil),
		recordingStep("b", &log, nil, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"do:a", "do:b"}, log)
}

func TestRunSaga_CompensatesInReverse(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	err := runSaga(context.Background(), []sagaStep{
		recordingStep("a", &log, nil, nil),
		{name: "check", do: func(context.Context) error { log = append(log, "do:check"); return nil }},
		recordingStep("b", &log, nil, nil),
		recordingStep("c", &log, boom, nil),
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"do:a", "do:check", "do:b", "do:c", "undo:b", "undo:a"}, log)
}

func TestRunSaga_CompensationFailure(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	undo := errors.New("undo failed")
	err := runSaga(context.Background(), []sagaStep{
		recordingStep("a", &log, nil, undo),
		recordingStep("b", &log, boom, nil),
	})

	var compErr *CompensationError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, "b", compErr.Step)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, undo)
}
