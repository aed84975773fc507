package httputil_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/fieldvault/internal/httputil"
)

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		url      string
		expected httputil.Page
		errorMsg string
	}{
		{name: "defaults", url: "/", expected: httputil.Page{Offset: 0, Limit: 50}},
		{name: "custom values", url: "/?offset=10&limit=20", expected: httputil.Page{Offset: 10, Limit: 20}},
		{name: "upper limit", url: "/?limit=100", expected: httputil.Page{Offset: 0, Limit: 100}},
		{
			name:     "negative offset",
			url:      "/?offset=-1",
			errorMsg: "invalid offset parameter: must be a non-negative integer",
		},
		{
			name:     "non numeric offset",
			url:      "/?offset=abc",
			errorMsg: "invalid offset parameter: must be a non-negative integer",
		},
		{
			name:     "empty limit",
			url:      "/?limit=",
			errorMsg: "invalid limit parameter: must be between 1 and 100",
		},
		{
			name:     "zero limit",
			url:      "/?limit=0",
			errorMsg: "invalid limit parameter: must be between 1 and 100",
		},
		{
			name:     "limit above maximum",
			url:      "/?limit=101",
			errorMsg: "invalid limit parameter: must be between 1 and 100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, tt.url, nil)

			page, err := httputil.ParsePagination(c)
			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Equal(t, tt.errorMsg, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, page)
		})
	}
}
