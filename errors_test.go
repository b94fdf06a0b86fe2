package jsonapi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Error_Is(t *testing.T) {
	testCases := []struct {
		name   string
		err    Error
		target error
		expect bool
	}{
		{
			name:   "direct cause",
			err:    NewError("people 9", ErrNotFound),
			target: ErrNotFound,
			expect: true,
		},
		{
			name:   "second cause",
			err:    WrapTransportError(errors.New("boom")),
			target: ErrTransport,
			expect: true,
		},
		{
			name:   "nested Error cause",
			err:    NewError("outer", NewError("inner", ErrUnknownType)),
			target: ErrUnknownType,
			expect: true,
		},
		{
			name:   "unrelated sentinel",
			err:    NewError("people 9", ErrNotFound),
			target: ErrTransport,
			expect: false,
		},
		{
			name:   "no causes",
			err:    NewError("standalone"),
			target: ErrNotFound,
			expect: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual := errors.Is(tc.err, tc.target)

			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_Error_Error(t *testing.T) {
	testCases := []struct {
		name   string
		err    Error
		expect string
	}{
		{
			name:   "message only",
			err:    NewError("something bad"),
			expect: "something bad",
		},
		{
			name:   "message with cause",
			err:    NewError("find articles", ErrNotFound),
			expect: "find articles: " + ErrNotFound.Error(),
		},
		{
			name:   "no message falls back to first cause",
			err:    NewError("", ErrNotFound),
			expect: ErrNotFound.Error(),
		},
		{
			name:   "wrap transport keeps cause message",
			err:    WrapTransportErrorf(errors.New("dial refused"), "GET /articles"),
			expect: "GET /articles: dial refused",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			assert.Equal(tc.expect, tc.err.Error())
		})
	}
}
