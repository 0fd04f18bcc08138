package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

var errNotOwner = New(KindAuthorization, "test: not owner")

type typedShortfall struct{}

func (typedShortfall) Error() string { return "short" }
func (typedShortfall) Kind() Kind    { return KindInsufficientResource }

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"sentinel", errNotOwner, KindAuthorization},
		{"wrapped", fmt.Errorf("outer: %w", errNotOwner), KindAuthorization},
		{"typed", fmt.Errorf("x: %w", typedShortfall{}), KindInsufficientResource},
		{"plain", stderrors.New("boom"), KindInternal},
		{"nil", nil, KindInternal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestSentinelIdentity(t *testing.T) {
	wrapped := fmt.Errorf("ctx: %w", errNotOwner)
	if !stderrors.Is(wrapped, errNotOwner) {
		t.Fatalf("wrapped sentinel must match with errors.Is")
	}
	if errNotOwner.Error() != "test: not owner" {
		t.Fatalf("unexpected message %q", errNotOwner.Error())
	}
}
