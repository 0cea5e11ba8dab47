package main

import (
	"net/http"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/reelview/internal/movie"
)

func parseRecordFlags(t *testing.T, args ...string) movie.Record {
	t.Helper()
	cmd := &cobra.Command{Use: "add"}
	registerRecordFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return recordFromFlags(cmd)
}

func TestRecordFromFlags(t *testing.T) {
	rec := parseRecordFlags(t, "--id", "tt1", "--title", "Alien")
	assert.Equal(t, "tt1", rec.ID)
	assert.Equal(t, "Alien", rec.Title)
	assert.Nil(t, rec.Description)
	assert.Nil(t, rec.Image)
	assert.Nil(t, rec.Rating)
	assert.Nil(t, rec.TrailerID)

	rec = parseRecordFlags(t, "--id", "tt1", "--title", "Alien",
		"--description", "In space", "--image", "https://img/alien.jpg",
		"--rating", "0", "--trailer", "LjLamj-b0I8")
	require.NotNil(t, rec.Rating)
	assert.Zero(t, *rec.Rating)
	assert.Equal(t, "In space", *rec.Description)
	assert.Equal(t, "https://img/alien.jpg", *rec.Image)
	assert.Equal(t, "LjLamj-b0I8", *rec.TrailerID)
}

func TestAddCmd(t *testing.T) {
	srv := newMockServer(t).
		ExpectPOST().
		ExpectPath("/api/movies").
		Handler(func(w http.ResponseWriter, r *http.Request) {
			var rec movie.Record
			require.NoError(t, decodeBody(r, &rec))
			respondJSON(t, w, http.StatusCreated, MovieResponse{Record: rec})
		}).
		Build()
	withServerURL(t, srv.URL)

	out, err := execute(t, "add", "--id", "tt0078748", "--title", "Alien", "--rating", "8.5")
	require.NoError(t, err)
	assert.Contains(t, out, "Added Alien (tt0078748)")
}

func TestRmCmd(t *testing.T) {
	srv := newMockServer(t).
		ExpectDELETE().
		ExpectPath("/api/movies/tt0078748").
		RespondStatus(http.StatusNoContent).
		Build()
	withServerURL(t, srv.URL)

	out, err := execute(t, "rm", "tt0078748")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed tt0078748")
}

func TestRmCmd_NotFound(t *testing.T) {
	srv := newMockServer(t).RespondError(http.StatusNotFound, "NOT_FOUND", "movie not found").Build()
	withServerURL(t, srv.URL)

	_, err := execute(t, "rm", "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}
