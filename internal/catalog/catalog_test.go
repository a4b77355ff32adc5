package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/unicode/norm"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		name string
		e    Entry
		want string
	}{
		{"iso date", Entry{Title: "Dune", ReleaseDate: "2021-10-01"}, "Dune (2021)"},
		{"rfc3339", Entry{Title: "Arrival", ReleaseDate: "2016-11-10T00:00:00Z"}, "Arrival (2016)"},
		{"empty date", Entry{Title: "Dune", ReleaseDate: ""}, "Dune ()"},
		{"garbage date", Entry{Title: "Dune", ReleaseDate: "soon"}, "Dune ()"},
		{"empty title", Entry{Title: "", ReleaseDate: "1999-03-31"}, " (1999)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Label(&tt.e))
		})
	}
}

func TestEntry_Released(t *testing.T) {
	e := Entry{ReleaseDate: "1984-12-14"}
	got, ok := e.Released()
	assert.True(t, ok)
	assert.Equal(t, 1984, got.Year())
	assert.Equal(t, 1984, e.Year())

	e = Entry{ReleaseDate: "14/12/1984"}
	_, ok = e.Released()
	assert.False(t, ok)
	assert.Zero(t, e.Year())
}

func TestNormalizeQuery(t *testing.T) {
	decomposed := norm.NFD.String("Amélie")
	assert.NotEqual(t, "Amélie", decomposed)

	tests := []struct {
		in   string
		want string
	}{
		{"Dune", "Dune"},
		{"  dune  ", "dune"},
		{"Dune\t Part \nTwo", "Dune Part Two"},
		{decomposed, norm.NFC.String("Amélie")},
		{"   ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeQuery(tt.in), "input %q", tt.in)
	}
}

func TestErrors(t *testing.T) {
	uerr := &UpstreamError{Op: "search", StatusCode: 401, Err: assert.AnError}
	assert.Equal(t, "tmdb search: status 401: "+assert.AnError.Error(), uerr.Error())
	assert.ErrorIs(t, uerr, assert.AnError)

	uerr = &UpstreamError{Op: "similar", Err: assert.AnError}
	assert.Equal(t, "tmdb similar: "+assert.AnError.Error(), uerr.Error())

	perr := &PersistenceError{TMDBID: 42, Err: assert.AnError}
	assert.Contains(t, perr.Error(), "persist movie 42")
	assert.ErrorIs(t, perr, assert.AnError)
}
