package domain

import "testing"

func TestUniqueStrings(t *testing.T) {
	got := UniqueStrings([]string{"b", "a", "b", "", "c", "a"})
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("UniqueStrings() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("UniqueStrings() = %v, want %v", got, want)
		}
	}
	if UniqueStrings(nil) == nil {
		t.Error("UniqueStrings(nil) must return an empty slice")
	}
}
