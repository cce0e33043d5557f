package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorizationValue(t *testing.T) {
	cases := []struct {
		name    string
		token   string
		want    string
		wantErr bool
	}{
		{name: "empty", token: "", want: ""},
		{name: "blank", token: "   ", want: ""},
		{name: "raw jwt", token: "eyJhbGciOi.eyJzdWIiOi.c2ln", want: "eyJhbGciOi.eyJzdWIiOi.c2ln"},
		{name: "scheme and credential", token: "Bearer abc.def", want: "Bearer abc.def"},
		{name: "trimmed", token: "  Bearer   abc  ", want: "Bearer abc"},
		{name: "three parts", token: "a b c", wantErr: true},
		{name: "bad scheme", token: "Bea(rer abc", wantErr: true},
		{name: "control character", token: "Bearer abc\x00def", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AuthorizationValue(tc.token)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPrepareBodyRejectsForeignParams(t *testing.T) {
	_, _, err := prepareMultipartFile("nope")
	assert.Error(t, err)
	_, _, err = prepareJSONBody(42)
	assert.Error(t, err)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ServiceError, KindOf(errors.New("plain")))
	assert.Equal(t, NotFound, KindOf(newErr(NotFound, "gone", nil)))
	wrapped := errors.Join(errors.New("outer"), newErr(InvalidPassword, "short", nil))
	assert.Equal(t, InvalidPassword, KindOf(wrapped))
	assert.Equal(t, "short", MessageOf(wrapped))
	assert.Empty(t, MessageOf(errors.New("plain")))
}
