package version

import "testing"

func TestString(t *testing.T) {
	want := "wallmap " + Version + " (" + GitCommit + ", " + BuildTime + ")"
	if got := String("wallmap"); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
