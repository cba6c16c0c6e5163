package cdxj_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waczpack/waczpack/pkg/cdxj"
)

func TestToSURT(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "bare host",
			url:  "https://example.com/",
			want: "com,example)/",
		},
		{
			name: "reverses subdomain labels",
			url:  "https://www.example.com/path",
			want: "com,example,www)/path",
		},
		{
			name: "strips default https port",
			url:  "https://example.com:443/a",
			want: "com,example)/a",
		},
		{
			name: "keeps non-default port",
			url:  "https://example.com:8443/a",
			want: "com,example:8443)/a",
		},
		{
			name: "lowercases scheme-insensitive host and path",
			url:  "HTTPS://Example.COM/Path",
			want: "com,example)/path",
		},
		{
			name: "sorts query keys ascending",
			url:  "https://example.com/search?z=1&a=2&m=3",
			want: "com,example)/search?a=2&m=3&z=1",
		},
		{
			name: "percent-decodes the path",
			url:  "https://example.com/a%2Fb",
			want: "com,example)/a/b",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := cdxj.ToSURT(tc.url)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestToSURT_NoHost(t *testing.T) {
	t.Parallel()

	_, err := cdxj.ToSURT("not-a-url")
	assert.Error(t, err)
}
