package loader_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/reelview/internal/catalog"
	"github.com/vmunix/reelview/internal/loader"
	"github.com/vmunix/reelview/internal/loader/mocks"
	"github.com/vmunix/reelview/internal/movie"
)

// testLogger returns a discard logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitSettled(t *testing.T, l *loader.Loader) movie.ViewState {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	state, err := l.Wait(ctx)
	require.NoError(t, err, "loader did not settle")
	return state
}

func heat() *movie.Record {
	return &movie.Record{
		ID:          "heat",
		Title:       "Heat",
		Description: movie.String("A group of professional bank robbers..."),
		Image:       movie.String("https://img.example/heat.jpg"),
		Rating:      movie.Float(8.3),
		TrailerID:   movie.String("2GfZl4kuVNI"),
	}
}

func TestLoader_InitialStateIsLoading(t *testing.T) {
	ctrl := gomock.NewController(t)
	l := loader.New(mocks.NewMockFetcher(ctrl), loader.WithLogger(testLogger()))
	defer l.Close()

	assert.Equal(t, movie.PhaseLoading, l.State().Phase())
	assert.Empty(t, l.ID())
}

func TestLoader_Loaded(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	want := heat()
	fetcher.EXPECT().GetMovie(gomock.Any(), "heat").Return(want, nil)

	l := loader.New(fetcher, loader.WithLogger(testLogger()))
	defer l.Close()
	l.SetID("heat")

	state := waitSettled(t, l)
	require.Equal(t, movie.PhaseLoaded, state.Phase())
	got, ok := state.Record()
	require.True(t, ok)
	assert.Equal(t, *want, got, "record fields must be unchanged")
	assert.Equal(t, "heat", l.ID())
}

func TestLoader_NotFound(t *testing.T) {
	tests := []struct {
		name string
		rec  *movie.Record
		err  error
	}{
		{"record absent", nil, catalog.ErrNotFound},
		{"malformed response", nil, catalog.ErrMalformed},
		{"bad status", nil, &catalog.StatusError{StatusCode: http.StatusInternalServerError}},
		{"network failure", nil, errors.New("dial tcp: connection refused")},
		{"nil record without error", nil, nil},
		{"record without title", &movie.Record{Description: movie.String("x")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			fetcher := mocks.NewMockFetcher(ctrl)
			fetcher.EXPECT().GetMovie(gomock.Any(), "x").Return(tt.rec, tt.err)

			l := loader.New(fetcher, loader.WithLogger(testLogger()))
			defer l.Close()
			l.SetID("x")

			state := waitSettled(t, l)
			assert.Equal(t, movie.PhaseNotFound, state.Phase())
			_, ok := state.Record()
			assert.False(t, ok)
		})
	}
}

func TestLoader_LoadingWhileOutstanding(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	release := make(chan struct{})
	fetcher.EXPECT().GetMovie(gomock.Any(), "heat").DoAndReturn(
		func(ctx context.Context, id string) (*movie.Record, error) {
			<-release
			return heat(), nil
		})

	l := loader.New(fetcher, loader.WithLogger(testLogger()))
	defer l.Close()
	l.SetID("heat")

	assert.Equal(t, movie.PhaseLoading, l.State().Phase())
	_, ok := l.State().Record()
	assert.False(t, ok, "no record while loading")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	state, err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, movie.PhaseLoading, state.Phase())

	close(release)
	assert.Equal(t, movie.PhaseLoaded, waitSettled(t, l).Phase())
}

func TestLoader_SupersededFetchIsCanceledAndDropped(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)

	release := make(chan struct{})
	firstCtx := make(chan context.Context, 1)
	firstDone := make(chan struct{})
	fetcher.EXPECT().GetMovie(gomock.Any(), "alien").DoAndReturn(
		func(ctx context.Context, id string) (*movie.Record, error) {
			defer close(firstDone)
			firstCtx <- ctx
			<-release
			// Ignore cancellation and answer late
			return &movie.Record{ID: "alien", Title: "Alien"}, nil
		})
	fetcher.EXPECT().GetMovie(gomock.Any(), "heat").Return(heat(), nil)

	l := loader.New(fetcher, loader.WithLogger(testLogger()))
	defer l.Close()

	l.SetID("alien")
	ctxA := <-firstCtx

	l.SetID("heat")
	assert.ErrorIs(t, ctxA.Err(), context.Canceled, "superseded fetch should be canceled")

	state := waitSettled(t, l)
	got, ok := state.Record()
	require.True(t, ok)
	assert.Equal(t, "Heat", got.Title)

	// Let the stale fetch answer; it must not overwrite the current state
	close(release)
	<-firstDone
	time.Sleep(20 * time.Millisecond)

	got, ok = l.State().Record()
	require.True(t, ok)
	assert.Equal(t, "Heat", got.Title)
	assert.Equal(t, "heat", l.ID())
}

func TestLoader_EmptyIDDoesNotFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl) // no expectations: any call fails the test

	l := loader.New(fetcher, loader.WithLogger(testLogger()))
	defer l.Close()
	l.SetID("   ")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	state, err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, movie.PhaseLoading, state.Phase())
}

func TestLoader_SameIDFetchesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().GetMovie(gomock.Any(), "heat").Return(heat(), nil).Times(1)

	l := loader.New(fetcher, loader.WithLogger(testLogger()))
	defer l.Close()
	l.SetID("heat")
	l.SetID("heat")
	waitSettled(t, l)
	l.SetID("heat")

	assert.Equal(t, movie.PhaseLoaded, l.State().Phase())
}

func TestLoader_NewIDResetsToLoading(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	release := make(chan struct{})
	fetcher.EXPECT().GetMovie(gomock.Any(), "heat").Return(heat(), nil)
	fetcher.EXPECT().GetMovie(gomock.Any(), "gone").DoAndReturn(
		func(ctx context.Context, id string) (*movie.Record, error) {
			<-release
			return nil, catalog.ErrNotFound
		})

	l := loader.New(fetcher, loader.WithLogger(testLogger()), loader.WithChanges(8))
	defer l.Close()

	l.SetID("heat")
	assert.Equal(t, movie.PhaseLoaded, waitSettled(t, l).Phase())

	l.SetID("gone")
	assert.Equal(t, movie.PhaseLoading, l.State().Phase())
	close(release)
	assert.Equal(t, movie.PhaseNotFound, waitSettled(t, l).Phase())

	var phases []movie.Phase
	for range 4 {
		select {
		case s := <-l.Changes():
			phases = append(phases, s.Phase())
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for transition")
		}
	}
	assert.Equal(t, []movie.Phase{
		movie.PhaseLoading, movie.PhaseLoaded,
		movie.PhaseLoading, movie.PhaseNotFound,
	}, phases)
}

func TestLoader_CloseCancelsInflightFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	started := make(chan struct{})
	done := make(chan error, 1)
	fetcher.EXPECT().GetMovie(gomock.Any(), "heat").DoAndReturn(
		func(ctx context.Context, id string) (*movie.Record, error) {
			close(started)
			<-ctx.Done()
			done <- ctx.Err()
			return nil, ctx.Err()
		})

	l := loader.New(fetcher, loader.WithLogger(testLogger()), loader.WithChanges(4))
	l.SetID("heat")
	<-started
	l.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("fetch was not canceled")
	}
	assert.Equal(t, movie.PhaseLoading, l.State().Phase())

	// SetID after Close is ignored
	l.SetID("alien")
	assert.Equal(t, "heat", l.ID())
}
