package poll

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

type record struct {
	ID   string
	Time int
	Note string
}

func recordKey(r record) string { return r.ID }

func newestFirst(a, b record) bool { return a.Time > b.Time }

func TestMerge_DedupsAndPrefersFresh(t *testing.T) {
	existing := []record{{ID: "a", Time: 3, Note: "old"}, {ID: "b", Time: 2}}
	fresh := []record{{ID: "a", Time: 3, Note: "new"}, {ID: "c", Time: 5}}

	got := Merge(existing, fresh, recordKey, newestFirst)
	want := []record{{ID: "c", Time: 5}, {ID: "a", Time: 3, Note: "new"}, {ID: "b", Time: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Merge mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_DuplicatesInsideFreshCollapse(t *testing.T) {
	fresh := []record{{ID: "a", Note: "1"}, {ID: "a", Note: "2"}}
	got := Merge(nil, fresh, recordKey, nil)
	if len(got) != 1 || got[0].Note != "2" {
		t.Fatalf("Merge = %#v, want single entry with last note", got)
	}
}

func TestMerge_NilLessKeepsInsertionOrder(t *testing.T) {
	got := Merge([]record{{ID: "b"}}, []record{{ID: "a"}}, recordKey, nil)
	if diff := cmp.Diff([]string{"b", "a"}, Keys(got, recordKey)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_UnionWithoutDuplicates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		gen := rapid.Custom(func(t *rapid.T) record {
			return record{
				ID:   rapid.StringMatching(`[a-e]`).Draw(t, "id"),
				Time: rapid.IntRange(0, 10).Draw(t, "time"),
			}
		})
		existing := rapid.SliceOf(gen).Draw(t, "existing")
		fresh := rapid.SliceOf(gen).Draw(t, "fresh")

		got := Merge(existing, fresh, recordKey, newestFirst)

		union := map[string]struct{}{}
		for _, r := range append(append([]record{}, existing...), fresh...) {
			union[r.ID] = struct{}{}
		}
		if len(got) != len(union) {
			t.Fatalf("len = %d, want %d (union)", len(got), len(union))
		}
		seen := map[string]struct{}{}
		for i, r := range got {
			if _, dup := seen[r.ID]; dup {
				t.Fatalf("duplicate id %q", r.ID)
			}
			seen[r.ID] = struct{}{}
			if i > 0 && newestFirst(r, got[i-1]) {
				t.Fatalf("not sorted at %d: %v before %v", i, got[i-1], r)
			}
		}
	})
}
