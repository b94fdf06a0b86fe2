package jsonapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Relationship_UnmarshalJSON(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectPresent bool
		expectPlural  bool
		expectData    []ResourceIdentifier
	}{
		{
			name:          "links only leaves data not present",
			input:         `{"links": {"related": "/articles/1/comments"}}`,
			expectPresent: false,
		},
		{
			name:          "null data is present and empty",
			input:         `{"data": null}`,
			expectPresent: true,
			expectPlural:  false,
		},
		{
			name:          "empty array is present, plural and empty",
			input:         `{"data": []}`,
			expectPresent: true,
			expectPlural:  true,
			expectData:    []ResourceIdentifier{},
		},
		{
			name:          "single identifier",
			input:         `{"data": {"type": "people", "id": "9"}}`,
			expectPresent: true,
			expectPlural:  false,
			expectData:    []ResourceIdentifier{{Type: "people", ID: "9"}},
		},
		{
			name:          "identifier array",
			input:         `{"data": [{"type": "comments", "id": "5"}, {"type": "comments", "id": "12"}]}`,
			expectPresent: true,
			expectPlural:  true,
			expectData:    []ResourceIdentifier{{Type: "comments", ID: "5"}, {Type: "comments", ID: "12"}},
		},
		{
			name:          "lid identifier",
			input:         `{"data": {"type": "people", "lid": "local-1"}}`,
			expectPresent: true,
			expectData:    []ResourceIdentifier{{Type: "people", LocalID: "local-1"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			var actual Relationship
			err := json.Unmarshal([]byte(tc.input), &actual)

			assert.NoError(err)
			assert.Equal(tc.expectPresent, actual.Present)
			assert.Equal(tc.expectPlural, actual.Plural)
			assert.Equal(tc.expectData, actual.Data)
		})
	}
}

func Test_Relationship_MarshalJSON(t *testing.T) {
	testCases := []struct {
		name   string
		input  Relationship
		expect string
	}{
		{
			name:   "not present omits data entirely",
			input:  Relationship{},
			expect: `{}`,
		},
		{
			name:   "empty to-one is null",
			input:  Relationship{Present: true},
			expect: `{"data":null}`,
		},
		{
			name:   "empty to-many is empty array",
			input:  ToMany(nil),
			expect: `{"data":[]}`,
		},
		{
			name:   "to-one emits a bare object",
			input:  ToOne(ResourceIdentifier{Type: "people", ID: "9"}),
			expect: `{"data":{"type":"people","id":"9"}}`,
		},
		{
			name:   "to-one by lid",
			input:  ToOne(ResourceIdentifier{Type: "people", LocalID: "local-1"}),
			expect: `{"data":{"type":"people","lid":"local-1"}}`,
		},
		{
			name:   "to-many emits an array",
			input:  ToMany([]ResourceIdentifier{{Type: "comments", ID: "5"}}),
			expect: `{"data":[{"type":"comments","id":"5"}]}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := json.Marshal(tc.input)

			assert.NoError(err)
			assert.JSONEq(tc.expect, string(actual))
		})
	}
}

func Test_Document_UnmarshalJSON(t *testing.T) {
	t.Run("single resource data", func(t *testing.T) {
		assert := assert.New(t)

		var doc Document
		err := json.Unmarshal([]byte(`{
			"data": {"type": "articles", "id": "1", "attributes": {"title": "T"}},
			"included": [{"type": "comments", "id": "5", "attributes": {"body": "First!"}}]
		}`), &doc)

		assert.NoError(err)
		assert.True(doc.HasData)
		assert.True(doc.Single)
		assert.Len(doc.Data, 1)
		assert.Equal("T", doc.Data[0].Attributes["title"])
		assert.Len(doc.Included, 1)
	})

	t.Run("array data", func(t *testing.T) {
		assert := assert.New(t)

		var doc Document
		err := json.Unmarshal([]byte(`{"data": [{"type": "articles", "id": "1"}, {"type": "articles", "id": "2"}]}`), &doc)

		assert.NoError(err)
		assert.True(doc.HasData)
		assert.False(doc.Single)
		assert.Len(doc.Data, 2)
	})

	t.Run("null data is single with no resources", func(t *testing.T) {
		assert := assert.New(t)

		var doc Document
		err := json.Unmarshal([]byte(`{"data": null}`), &doc)

		assert.NoError(err)
		assert.True(doc.HasData)
		assert.True(doc.Single)
		assert.Empty(doc.Data)
		assert.Nil(doc.First())
	})

	t.Run("errors document has no data", func(t *testing.T) {
		assert := assert.New(t)

		var doc Document
		err := json.Unmarshal([]byte(`{"errors": [{"status": "404", "title": "Not Found", "detail": "gone"}]}`), &doc)

		assert.NoError(err)
		assert.False(doc.HasData)
		assert.Len(doc.Errors, 1)
		assert.Equal("Not Found: gone", doc.Errors[0].Message())
	})
}

func Test_Document_MarshalJSON(t *testing.T) {
	testCases := []struct {
		name   string
		input  Document
		expect string
	}{
		{
			name:   "single",
			input:  *SingleDocument(Resource{Type: "articles", ID: "1"}),
			expect: `{"data":{"type":"articles","id":"1"}}`,
		},
		{
			name:   "single null",
			input:  Document{HasData: true, Single: true},
			expect: `{"data":null}`,
		},
		{
			name:   "empty collection",
			input:  *CollectionDocument(nil),
			expect: `{"data":[]}`,
		},
		{
			name:   "no data key at all",
			input:  Document{},
			expect: `{}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := json.Marshal(tc.input)

			assert.NoError(err)
			assert.JSONEq(tc.expect, string(actual))
		})
	}
}

func Test_ResourceIdentifier_Key(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("9", ResourceIdentifier{Type: "people", ID: "9"}.Key())
	assert.Equal("local-1", ResourceIdentifier{Type: "people", LocalID: "local-1"}.Key())

	// id wins when both are somehow set
	assert.Equal("9", ResourceIdentifier{Type: "people", ID: "9", LocalID: "local-1"}.Key())
}
