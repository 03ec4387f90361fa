package mongo

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskdesk/task-system/internal/core/domain"
)

func duplicateKey(index string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: "E11000 duplicate key error collection: tasks.identities index: " + index + " dup key",
	}}}
}

func TestDuplicateKeyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"email index", duplicateKey(indexNormalizedEmail), domain.ErrDuplicateEmail},
		{"username index", duplicateKey(indexNormalizedUsername), domain.ErrDuplicateUsername},
	}
	for _, tc := range cases {
		if got := duplicateKeyError(tc.err); !errors.Is(got, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}

	other := errors.New("socket closed")
	got := duplicateKeyError(other)
	if errors.Is(got, domain.ErrDuplicateEmail) || errors.Is(got, domain.ErrDuplicateUsername) {
		t.Fatalf("non duplicate error mapped to a domain duplicate: %v", got)
	}
	if !errors.Is(got, other) {
		t.Fatalf("expected cause to be wrapped, got %v", got)
	}
}
