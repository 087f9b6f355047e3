package apiclient_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/mss-project-web/admin-dashboard-sub000/pkg/apiclient"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestHandleAPIError_Priority(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server message wins", &apiclient.APIError{StatusCode: 400, Message: "Title is required"}, "Title is required"},
		{"server message wins over 500", &apiclient.APIError{StatusCode: 500, Message: "Upload quota exceeded"}, "Upload quota exceeded"},
		{"400 without message", &apiclient.APIError{StatusCode: 400}, apiclient.MsgInvalidData},
		{"422 without message", &apiclient.APIError{StatusCode: 422}, apiclient.MsgInvalidData},
		{"401", &apiclient.APIError{StatusCode: 401}, apiclient.MsgUnauthorized},
		{"403", &apiclient.APIError{StatusCode: 403}, apiclient.MsgUnauthorized},
		{"404", &apiclient.APIError{StatusCode: 404}, apiclient.MsgNotFound},
		{"500", &apiclient.APIError{StatusCode: 500}, apiclient.MsgServerError},
		{"503", &apiclient.APIError{StatusCode: 503}, apiclient.MsgServerError},
		{"409 falls through", &apiclient.APIError{StatusCode: 409}, apiclient.MsgUnknown},
		{"wrapped api error", fmt.Errorf("load news: %w", &apiclient.APIError{StatusCode: 404}), apiclient.MsgNotFound},
		{"network error", &apiclient.NetworkError{Method: "GET", Path: "/news", Err: &net.OpError{Op: "dial"}}, apiclient.MsgCannotConnect},
		{"arbitrary error", errors.New("boom"), apiclient.MsgUnknown},
		{"context error", context.Canceled, apiclient.MsgUnknown},
		{"nil error", nil, apiclient.MsgUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apiclient.HandleAPIError(tt.err)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got)
		})
	}
}

func TestHandleAPIError_TypedNilIsTotal(t *testing.T) {
	var apiErr *apiclient.APIError
	var netErr *apiclient.NetworkError

	assert.NotPanics(t, func() {
		assert.NotEmpty(t, apiclient.HandleAPIError(apiErr))
		assert.NotEmpty(t, apiclient.HandleAPIError(netErr))
	})
}

func TestHandleAPIErrorIn_Thai(t *testing.T) {
	got := apiclient.HandleAPIErrorIn(&apiclient.APIError{StatusCode: 404}, language.Thai)
	assert.Equal(t, "ไม่พบข้อมูลที่ต้องการ", got)

	// Server text is never translated.
	got = apiclient.HandleAPIErrorIn(&apiclient.APIError{StatusCode: 400, Message: "bad title"}, language.Thai)
	assert.Equal(t, "bad title", got)
}

func TestHandleAPIErrorIn_UnsupportedLanguageFallsBackToEnglish(t *testing.T) {
	got := apiclient.HandleAPIErrorIn(&apiclient.APIError{StatusCode: 500}, language.Japanese)
	assert.Equal(t, apiclient.MsgServerError, got)
}

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, language.Thai, apiclient.ParseLanguage("th"))
	assert.Equal(t, language.Thai, apiclient.ParseLanguage("th-TH"))
	assert.Equal(t, language.English, apiclient.ParseLanguage("en-US"))
	assert.Equal(t, language.English, apiclient.ParseLanguage(""))
	assert.Equal(t, language.English, apiclient.ParseLanguage("not a locale!"))
}
