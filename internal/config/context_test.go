package config

import (
	"context"
	"testing"
)

func TestCorrelationIdContext(t *testing.T) {

	var TestCases = []struct {
		description string
		value       string
	}{
		{
			description: "test set and get id",
			value:       "abc-123456-123456",
		},
	}

	for _, tc := range TestCases {

		ctx := SetContextCorrelationId(context.Background(), tc.value)
		result := GetContextCorrelationId(ctx)

		if result != tc.value {
			t.Error(tc.description)
		}
	}
}

func TestGeneratedCorrelationId(t *testing.T) {

	ctx := SetContextCorrelationId(context.Background(), "")
	if id := GetContextCorrelationId(ctx); id == "" || id == "no-id" {
		t.Errorf("expected a generated id, got %q", id)
	}

	if GetContextTimeCreated(ctx) == -1 {
		t.Error("created time was not set")
	}
}

func TestRequestInfo(t *testing.T) {

	if info := GetContextRequestInfo(context.Background()); info != (RequestInfo{}) {
		t.Errorf("expected empty info, got %+v", info)
	}

	ctx := SetContextRequestInfo(context.Background(), RequestInfo{RemoteAddr: "10.0.0.1", URL: "/about"})
	info := GetContextRequestInfo(ctx)
	if info.RemoteAddr != "10.0.0.1" || info.URL != "/about" {
		t.Errorf("unexpected info %+v", info)
	}
}
