package prepare

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movieload/internal/dataset"
	"movieload/internal/ddl"
	"movieload/internal/logger"
)

func fixture() dataset.Set {
	movies := dataset.NewTable(dataset.Movies, "id", "name", "date", "minute", "rating")
	movies.Append(dataset.Record{"id": "1", "name": "Alpha", "date": int64(1999), "minute": "120", "rating": "NaN"})
	movies.Append(dataset.Record{"id": "2", "name": "<NA>", "date": nil, "minute": "long", "rating": "3.9"})

	actors := dataset.NewTable(dataset.Actors, "id", "name", "role")
	actors.Append(dataset.Record{"id": "1", "name": "Ann", "role": "None"})

	releases := dataset.NewTable(dataset.Releases, "id", "country", "date", "type", "rating")
	releases.Append(dataset.Record{"id": "1", "country": "Italy", "date": "1999-10-01", "type": "Theatrical", "rating": "T"})
	releases.Append(dataset.Record{"id": "2", "country": "", "date": "someday", "type": "N/A", "rating": nil})

	awards := dataset.NewTable(dataset.Awards, "film", "year_film", "winner", "id")
	awards.Append(dataset.Record{"film": "Alpha", "year_film": "1999", "winner": "True", "id": int64(1)})
	awards.Append(dataset.Record{"film": "Omega", "year_film": "2001.0", "winner": "False", "id": nil})

	reviews := dataset.NewTable(dataset.Reviews, "movie_title", "review_score", "id")
	reviews.Append(dataset.Record{"movie_title": "Alpha (1999)", "review_score": 8.0, "id": int64(1)})
	reviews.Append(dataset.Record{"movie_title": "Omega", "review_score": math.NaN(), "id": nil})

	return dataset.Set{
		dataset.Movies:   movies,
		dataset.Actors:   actors,
		dataset.Releases: releases,
		dataset.Awards:   awards,
		dataset.Reviews:  reviews,
	}
}

func TestPrepare_RenamesForeignKey(t *testing.T) {
	t.Parallel()

	set := fixture()
	_, err := Prepare(set, ddl.Movies(), logger.Nop())
	require.NoError(t, err)

	for _, name := range set.Names() {
		tbl := set[name]
		if name == dataset.Movies {
			assert.True(t, tbl.HasColumn("id"), "movies keeps id")
			assert.False(t, tbl.HasColumn(ForeignKey))
			continue
		}
		assert.False(t, tbl.HasColumn("id"), "%s still has id", name)
		assert.True(t, tbl.HasColumn(ForeignKey), "%s lacks id_movie", name)
	}
}

func TestPrepare_NullsAndKinds(t *testing.T) {
	t.Parallel()

	set := fixture()
	sum, err := Prepare(set, ddl.Movies(), logger.Nop())
	require.NoError(t, err)

	m := set[dataset.Movies].Records
	assert.Equal(t, int64(1), m[0]["id"])
	assert.Equal(t, 120.0, m[0]["minute"])
	assert.Nil(t, m[0]["rating"])
	assert.Nil(t, m[1]["name"])
	assert.Nil(t, m[1]["minute"], "uncoercible minute")
	assert.Equal(t, 3.9, m[1]["rating"])

	assert.Nil(t, set[dataset.Actors].Records[0]["role"])

	rel := set[dataset.Releases].Records
	assert.Equal(t, time.Date(1999, 10, 1, 0, 0, 0, 0, time.UTC), rel[0]["date"])
	assert.Equal(t, int64(1), rel[0][ForeignKey])
	assert.Nil(t, rel[1]["country"])
	assert.Nil(t, rel[1]["date"])
	assert.Nil(t, rel[1]["type"])

	aw := set[dataset.Awards].Records
	assert.Equal(t, true, aw[0]["winner"])
	assert.Equal(t, false, aw[1]["winner"])
	assert.Equal(t, int64(2001), aw[1]["year_film"])
	assert.Nil(t, aw[1][ForeignKey])

	rv := set[dataset.Reviews].Records
	assert.Equal(t, 8.0, rv[0]["review_score"])
	assert.Nil(t, rv[1]["review_score"])

	mv, ok := sum.Dataset(dataset.Movies)
	require.True(t, ok)
	assert.Equal(t, 1, mv.Nulled)
	rs, _ := sum.Dataset(dataset.Releases)
	assert.Equal(t, 1, rs.Nulled)
	assert.Equal(t, 9, sum.Rows)
	assert.Len(t, sum.Datasets, 5)
}

func TestPrepare_Deterministic(t *testing.T) {
	t.Parallel()

	a, err := Prepare(fixture(), ddl.Movies(), logger.Nop())
	require.NoError(t, err)
	b, err := Prepare(fixture(), ddl.Movies(), logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other := fixture()
	other[dataset.Actors].Records[0]["name"] = "Bob"
	c, err := Prepare(other, ddl.Movies(), logger.Nop())
	require.NoError(t, err)
	ac, _ := a.Dataset(dataset.Actors)
	cc, _ := c.Dataset(dataset.Actors)
	assert.NotEqual(t, ac.Fingerprint, cc.Fingerprint)
}

func TestPrepare_EmptyDataset(t *testing.T) {
	t.Parallel()

	set := fixture()
	set[dataset.Themes] = dataset.NewTable(dataset.Themes, "id", "theme")
	set[dataset.Posters] = dataset.NewTable(dataset.Posters, "id", "link")

	_, err := Prepare(set, ddl.Movies(), logger.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyDataset))
	assert.Contains(t, err.Error(), "posters, themes")
}

func TestPrepare_RenameClash(t *testing.T) {
	t.Parallel()

	actors := dataset.NewTable(dataset.Actors, "id", "id_movie", "name")
	actors.Append(dataset.Record{"id": "1", "id_movie": "1", "name": "Ann"})

	_, err := Prepare(dataset.Set{dataset.Actors: actors}, ddl.Movies(), logger.Nop())
	assert.ErrorContains(t, err, "existing column")
}

func TestIsNull(t *testing.T) {
	t.Parallel()

	for _, v := range []any{nil, "", "  ", "nan", "NaN", "NA", "<NA>", "N/A", "None", "null", "NULL", "NaT", math.NaN()} {
		assert.True(t, IsNull(v), "%#v", v)
	}
	for _, v := range []any{"0", "none of the above", 0.0, int64(0), false} {
		assert.False(t, IsNull(v), "%#v", v)
	}
}

func TestCoercers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fn     coerceFn
		in     any
		want   any
		wantOK bool
	}{
		{"int from string", toInt, "42", int64(42), true},
		{"int from float string", toInt, "42.0", int64(42), true},
		{"int rejects fraction", toInt, "42.5", nil, false},
		{"int from float", toInt, 7.0, int64(7), true},
		{"float from int", toFloat, int64(3), 3.0, true},
		{"float rejects text", toFloat, "abc", nil, false},
		{"bool yes", toBool, "Yes", true, true},
		{"bool zero", toBool, "0", false, true},
		{"bool rejects", toBool, "maybe", nil, false},
		{"date rfc3339", toDate, "2001-02-03T04:05:06Z", time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC), true},
		{"text trims", passThrough, "  x ", "x", true},
		{"text keeps ints", passThrough, int64(5), int64(5), true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tt.fn(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
