package jsonapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Record_SetUnset(t *testing.T) {
	assert := assert.New(t)

	rec := NewRecord("articles")

	assert.False(rec.Has("title"))
	assert.Nil(rec.Get("title"))

	rec.Set("title", "T")
	assert.True(rec.Has("title"))
	assert.Equal("T", rec.Get("title"))

	// set to nil is not the same as unset
	rec.Set("title", nil)
	assert.True(rec.Has("title"))
	assert.Nil(rec.Get("title"))

	rec.Unset("title")
	assert.False(rec.Has("title"))
}

func Test_Record_Properties(t *testing.T) {
	assert := assert.New(t)

	rec := NewRecord("articles")
	rec.Set("title", "T")
	rec.Set("body", "B")
	rec.Set("author", nil)

	assert.Equal([]string{"author", "body", "title"}, rec.Properties())
}

func Test_Record_Identifier(t *testing.T) {
	testCases := []struct {
		name   string
		rec    *Record
		expect ResourceIdentifier
	}{
		{
			name:   "id only",
			rec:    &Record{Type: "people", ID: "9"},
			expect: ResourceIdentifier{Type: "people", ID: "9"},
		},
		{
			name:   "lid only",
			rec:    &Record{Type: "people", LocalID: "local-1"},
			expect: ResourceIdentifier{Type: "people", LocalID: "local-1"},
		},
		{
			name:   "lid is preferred over id",
			rec:    &Record{Type: "people", ID: "9", LocalID: "local-1"},
			expect: ResourceIdentifier{Type: "people", LocalID: "local-1"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual := tc.rec.Identifier()

			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_Record_Related(t *testing.T) {
	assert := assert.New(t)

	author := NewRecord("people")
	rec := NewRecord("articles")
	rec.Set("author", author)
	rec.Set("comments", []*Record{NewRecord("comments")})
	rec.Set("title", "T")

	assert.Same(author, rec.Related("author"))
	assert.Len(rec.RelatedAll("comments"), 1)

	// non-relationship values come back as zero values, not panics
	assert.Nil(rec.Related("title"))
	assert.Nil(rec.RelatedAll("title"))
	assert.Nil(rec.Related("missing"))
}
