package auth

import (
	"errors"
	"testing"

	"github.com/danmuck/gemctl/internal/testutil/testlog"
)

func TestSharedTokenValidate(t *testing.T) {
	tests := []struct {
		name    string
		stored  SharedToken
		input   string
		wantErr error
	}{
		{name: "empty token denied", stored: "", input: "", wantErr: ErrUnauthorized},
		{name: "mismatched token denied", stored: "abc", input: "xyz", wantErr: ErrUnauthorized},
		{name: "matching token accepted", stored: "abc", input: "abc", wantErr: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			testlog.Start(t)
			err := tc.stored.Validate(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCheckParsesBearerHeader(t *testing.T) {
	testlog.Start(t)
	v := SharedToken("s3cret")

	cases := map[string]error{
		"Bearer s3cret":   nil,
		"bearer  s3cret ": nil,
		"Bearer wrong":    ErrUnauthorized,
		"Basic s3cret":    ErrMissingToken,
		"Bearer ":         ErrMissingToken,
		"":                ErrMissingToken,
	}
	for header, want := range cases {
		if err := Check(v, header); !errors.Is(err, want) {
			t.Fatalf("header %q: expected %v, got %v", header, want, err)
		}
	}
}

func TestValidatorFunc(t *testing.T) {
	testlog.Start(t)
	v := ValidatorFunc(func(token string) error {
		if token != "ok" {
			return ErrUnauthorized
		}
		return nil
	})
	if err := Check(v, "Bearer bad"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for bad token, got %v", err)
	}
	if err := Check(v, "Bearer ok"); err != nil {
		t.Fatalf("expected success for ok token, got %v", err)
	}
}
