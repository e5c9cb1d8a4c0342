package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestNetworkErrorClassification(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"dial tcp 127.0.0.1:5001: connect: connection refused", "refused"},
		{"dial tcp: lookup relief.invalid: no such host", "resolve"},
		{"context deadline exceeded", "timed out"},
		{"something odd", "Network error"},
	}
	for _, c := range cases {
		fe := NetworkError(stderrors.New(c.in), "http://localhost:5001")
		if !strings.Contains(fe.Message, c.want) {
			t.Errorf("NetworkError(%q).Message=%q want substring %q", c.in, fe.Message, c.want)
		}
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := stderrors.New("database is locked")
	fe := DatabaseError(cause)
	if !stderrors.Is(fe, cause) {
		t.Fatalf("expected errors.Is to find the cause")
	}
	if !strings.Contains(fe.Error(), "How to fix:") {
		t.Fatalf("Error() should include the suggestion: %q", fe.Error())
	}
}

func TestServiceErrorMessage(t *testing.T) {
	fe := ServiceError(400, "region param required", nil)
	if fe.Message != "Relief service returned 400: region param required" {
		t.Fatalf("unexpected message %q", fe.Message)
	}
	if !strings.Contains(fe.Suggestion, "region name") {
		t.Fatalf("unexpected suggestion %q", fe.Suggestion)
	}
}
