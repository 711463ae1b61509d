package domain

import "testing"

func TestClassifyChange(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		current     int
		previous    int
		hasPrevious bool
		wantChange  int
		wantType    ChangeType
	}{
		{name: "improved", current: 3, previous: 9, hasPrevious: true, wantChange: 6, wantType: ChangeUp},
		{name: "declined", current: 9, previous: 3, hasPrevious: true, wantChange: -6, wantType: ChangeDown},
		{name: "stable", current: 3, previous: 3, hasPrevious: true, wantChange: 0, wantType: ChangeStable},
		{name: "no previous", current: 1, previous: 0, hasPrevious: false, wantChange: 0, wantType: ChangeNew},
		{name: "dropped out", current: OutRankSentinel, previous: 5, hasPrevious: true, wantChange: 5 - OutRankSentinel, wantType: ChangeDown},
		{name: "came back", current: 12, previous: OutRankSentinel, hasPrevious: true, wantChange: OutRankSentinel - 12, wantType: ChangeUp},
	}

	for _, tc := range cases {
		change, typ := ClassifyChange(tc.current, tc.previous, tc.hasPrevious)
		if change != tc.wantChange || typ != tc.wantType {
			t.Fatalf("%s: got (%d, %s), want (%d, %s)", tc.name, change, typ, tc.wantChange, tc.wantType)
		}
	}
}

func TestEffectiveRank(t *testing.T) {
	t.Parallel()

	in := RankObservation{Rank: 7}
	if in.EffectiveRank() != 7 {
		t.Fatalf("expected 7, got %d", in.EffectiveRank())
	}

	out := RankObservation{Rank: 7, OutRank: true}
	if out.EffectiveRank() != OutRankSentinel {
		t.Fatalf("expected sentinel for out-rank row, got %d", out.EffectiveRank())
	}
}
