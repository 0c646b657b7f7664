package orchestrator

import (
	"errors"
	"reflect"
	"testing"

	"github.com/themusiclab/infant-speech-song/textgrid"
)

func TestParseSubclipName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		session string
		index   int
		ok      bool
	}{
		{"WEL24D_12", "WEL24D", 12, true},
		{"S1_2", "S1", 2, true},
		{"with_under_3", "with_under", 3, true},
		{"S1", "", 0, false},
		{"S1_", "", 0, false},
		{"_4", "", 0, false},
		{"S1_0", "", 0, false},
		{"S1_x", "", 0, false},
	}
	for _, tc := range cases {
		s, n, ok := parseSubclipName(tc.in)
		if s != tc.session || n != tc.index || ok != tc.ok {
			t.Fatalf("parseSubclipName(%q)=(%q,%d,%v), want (%q,%d,%v)", tc.in, s, n, ok, tc.session, tc.index, tc.ok)
		}
	}
}

func TestGroupSubclips_NumericOrder(t *testing.T) {
	t.Parallel()

	refs := []SubclipRef{
		{Session: "S1", Index: 2, Path: "S1_2"},
		{Session: "S1", Index: 10, Path: "S1_10"},
		{Session: "S2", Index: 1, Path: "S2_1"},
		{Session: "S1", Index: 1, Path: "S1_1"},
	}
	g := groupSubclips(refs)
	var got []string
	for _, r := range g["S1"] {
		got = append(got, r.Path)
	}
	if want := []string{"S1_1", "S1_2", "S1_10"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("order=%v, want %v", got, want)
	}
	if keys := sortedKeys(g); !reflect.DeepEqual(keys, []string{"S1", "S2"}) {
		t.Fatalf("keys=%v", keys)
	}
	if m := gaps(g["S1"]); !reflect.DeepEqual(m, []int{3, 4, 5, 6, 7, 8, 9}) {
		t.Fatalf("gaps=%v", m)
	}
	if m := gaps(g["S2"]); len(m) != 0 {
		t.Fatalf("gaps=%v, want none", m)
	}
}

func TestCheckOrder(t *testing.T) {
	t.Parallel()

	ok := []textgrid.Interval{{XMin: 0, XMax: 1, Mark: "a"}, {XMin: 1, XMax: 2, Mark: "b"}}
	if err := checkOrder(ok); err != nil {
		t.Fatalf("checkOrder: %v", err)
	}
	bad := []textgrid.Interval{{XMin: 0, XMax: 1.5, Mark: "a"}, {XMin: 1, XMax: 2, Mark: "b"}}
	if err := checkOrder(bad); !errors.Is(err, ErrIntervalOrder) {
		t.Fatalf("err=%v, want ErrIntervalOrder", err)
	}
}

func TestSessionError(t *testing.T) {
	t.Parallel()

	err := error(&SessionError{Session: "S1", Stage: StageConcat, Err: ErrSampleRateMismatch})
	if !errors.Is(err, ErrSampleRateMismatch) {
		t.Fatalf("expected errors.Is to reach the cause")
	}
	var se *SessionError
	if !errors.As(err, &se) || se.Session != "S1" {
		t.Fatalf("errors.As failed: %v", err)
	}
	if err.Error() != "concat S1: "+ErrSampleRateMismatch.Error() {
		t.Fatalf("Error()=%q", err.Error())
	}
}
