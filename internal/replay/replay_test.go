package replay

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"startloft-api/internal/models"
	"startloft-api/internal/store"
)

type fakeSource struct {
	regs        []models.Registration
	titles      map[string]string
	lookups     int
	countErr    error
	gotLimit    int64
	gotTourneys string
}

func (f *fakeSource) CountRegistrations(_ context.Context, tid string) (int64, error) {
	return int64(len(f.regs)), f.countErr
}

func (f *fakeSource) ListRegistrations(_ context.Context, tid string, limit int64) ([]models.Registration, error) {
	f.gotLimit = limit
	f.gotTourneys = tid
	if limit > 0 && int(limit) < len(f.regs) {
		return f.regs[:limit], nil
	}
	return f.regs, nil
}

func (f *fakeSource) FindTournament(_ context.Context, id string) (*models.Tournament, error) {
	f.lookups++
	title, ok := f.titles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &models.Tournament{Title: title}, nil
}

type fakeSink struct {
	titles []string
	failOn string
	off    bool
}

func (s *fakeSink) AppendRegistration(_ context.Context, r models.Registration, title string) (bool, error) {
	if s.off {
		return false, nil
	}
	if r.Fio == s.failOn {
		return false, errors.New("quota exceeded")
	}
	s.titles = append(s.titles, title)
	return true, nil
}

func source() *fakeSource {
	at := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	return &fakeSource{
		titles: map[string]string{"T1": "Cup"},
		regs: []models.Registration{
			{TournamentID: "T1", Fio: "A", Phone: "+77000000001", CreatedAt: at},
			{TournamentID: "T1", Fio: "B", Phone: "+77000000002", CreatedAt: at},
			{TournamentID: "gone", Fio: "C", Phone: "+77000000003", CreatedAt: at},
		},
	}
}

func TestRun_AppendsEveryRecord(t *testing.T) {
	src := source()
	sink := &fakeSink{}

	res, err := Run(context.Background(), src, sink, Options{Delay: -1})
	require.NoError(t, err)
	assert.Equal(t, Result{Total: 3, Processed: 3, Succeeded: 3}, res)
	assert.Equal(t, []string{"Cup", "Cup", UnknownTournament}, sink.titles)
	assert.Equal(t, 2, src.lookups, "titles are cached per tournament")
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	var out bytes.Buffer
	sink := &fakeSink{}

	res, err := Run(context.Background(), source(), sink, Options{DryRun: true, Out: &out})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Succeeded)
	assert.Empty(t, sink.titles)
	assert.Contains(t, out.String(), "[1] A | +77000000001 | Cup | 2026-10-14")
}

func TestRun_Limit(t *testing.T) {
	src := source()
	res, err := Run(context.Background(), src, &fakeSink{}, Options{Limit: 2, Delay: -1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), src.gotLimit)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, int64(3), res.Total)
}

func TestRun_CountsFailures(t *testing.T) {
	var out bytes.Buffer
	res, err := Run(context.Background(), source(), &fakeSink{failOn: "B"}, Options{Delay: -1, Out: &out})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, out.String(), "B → quota exceeded")
}

func TestRun_DisabledSinkCountsAsFailure(t *testing.T) {
	res, err := Run(context.Background(), source(), &fakeSink{off: true}, Options{Delay: -1})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Failed)
}

func TestRun_EmptySource(t *testing.T) {
	res, err := Run(context.Background(), &fakeSource{}, &fakeSink{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestRun_CountError(t *testing.T) {
	src := source()
	src.countErr = errors.New("down")
	_, err := Run(context.Background(), src, &fakeSink{}, Options{})
	assert.ErrorContains(t, err, "count registrations")
}

func TestRun_CancelStopsDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sink := &fakeSink{}
	time.AfterFunc(20*time.Millisecond, cancel)

	res, err := Run(ctx, source(), sink, Options{Delay: time.Minute})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Processed)
	assert.Len(t, sink.titles, 1)
}

func TestRun_ZeroDelayDoesNotPause(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := Run(ctx, source(), &fakeSink{}, Options{Delay: 0})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)
}

func TestRun_SpacesWritesByDelay(t *testing.T) {
	start := time.Now()
	res, err := Run(context.Background(), source(), &fakeSink{}, Options{Delay: 40 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Succeeded)
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}

func TestRun_FiltersByTournament(t *testing.T) {
	src := source()
	_, err := Run(context.Background(), src, &fakeSink{}, Options{TournamentID: "T1", Delay: -1})
	require.NoError(t, err)
	assert.Equal(t, "T1", src.gotTourneys)
}
