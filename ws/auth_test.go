package ws

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		header string
		query  string
		want   bool
	}{
		{name: "no token configured", want: true},
		{name: "bearer", token: "s3", header: "Bearer s3", want: true},
		{name: "token scheme", token: "s3", header: "Token s3", want: true},
		{name: "lowercase scheme", token: "s3", header: "bearer s3", want: true},
		{name: "query", token: "s3", query: "?access_token=s3", want: true},
		{name: "wrong", token: "s3", header: "Bearer nope", want: false},
		{name: "missing", token: "s3", want: false},
		{name: "bare header", token: "s3", header: "s3", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/"+tt.query, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, Authorize(r, tt.token))
		})
	}
}
