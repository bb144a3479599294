package scheduler

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type stubJob struct {
	name string
	err  error
	runs int
}

func (j *stubJob) Run() error   { j.runs++; return j.err }
func (j *stubJob) Name() string { return j.name }

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	assert.Error(t, s.AddJob("not a schedule", &stubJob{name: "noop"}))
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.Nop())

	ok := &stubJob{name: "ok"}
	assert.NoError(t, s.RunNow(ok))
	assert.Equal(t, 1, ok.runs)

	boom := errors.New("boom")
	assert.ErrorIs(t, s.RunNow(&stubJob{name: "bad", err: boom}), boom)
}
