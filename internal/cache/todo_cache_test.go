package cache

import (
	"strings"
	"testing"
	"time"

	dom "github.com/birlikkoshan/todo-api/internal/domain"

	"github.com/google/uuid"
)

func TestListKeyIsCanonical(t *testing.T) {
	user := uuid.New()
	a := ListKey(user, 0, dom.TodoQuery{Search: "milk"})
	b := ListKey(user, 0, dom.TodoQuery{Page: 1, Limit: 10, Search: "milk", SortBy: dom.SortByCreatedAt, SortOrder: dom.SortDesc})
	if a != b {
		t.Fatalf("equivalent queries got different keys:\n%s\n%s", a, b)
	}
	if !strings.HasPrefix(a, keyList+user.String()+":") {
		t.Fatalf("key %q not scoped to user", a)
	}
}

func TestListKeyDistinguishesQueries(t *testing.T) {
	user := uuid.New()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	keys := map[string]bool{}
	for _, q := range []dom.TodoQuery{
		{},
		{Page: 2},
		{Limit: 20},
		{Status: dom.StatusPending},
		{StartDate: &day},
		{EndDate: &day},
		{SortBy: dom.SortByTitle},
		{SortOrder: dom.SortAsc},
		{Search: "milk"},
		{Search: " milk"},
		{Search: "Milk"},
	} {
		k := ListKey(user, 0, q)
		if keys[k] {
			t.Fatalf("duplicate key %q for %+v", k, q)
		}
		keys[k] = true
	}
	if ListKey(uuid.New(), 0, dom.TodoQuery{}) == ListKey(user, 0, dom.TodoQuery{}) {
		t.Fatal("different users share a key")
	}
}

func TestListKeyChangesWithGeneration(t *testing.T) {
	user := uuid.New()
	q := dom.TodoQuery{Status: dom.StatusPending}
	before, after := ListKey(user, 3, q), ListKey(user, 4, q)
	if before == after {
		t.Fatalf("generation bump kept key %q", before)
	}
	if !strings.HasPrefix(after, keyList+user.String()+":4:") {
		t.Fatalf("key %q does not carry generation 4", after)
	}
}
