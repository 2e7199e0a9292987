package models

import "testing"

func TestLineupValidatePartial(t *testing.T) {
	testCases := []struct {
		name    string
		players []string
		partial bool
		wantErr bool
	}{
		{"complete lineup", []string{"a", "b", "c", "d", "e"}, false, false},
		{"complete lineup as partial", []string{"a", "b", "c", "d", "e"}, true, true},
		{"one missing slot", []string{"a", "b", MissingSlot, "d", "e"}, true, false},
		{"two missing slots", []string{"a", MissingSlot, MissingSlot, "d", "e"}, true, true},
		{"missing slot in full lineup", []string{"a", "b", MissingSlot, "d", "e"}, false, true},
		{"duplicate player", []string{"a", "a", "c", "d", "e"}, false, true},
		{"wrong size", []string{"a", "b", "c"}, false, true},
		{"empty string counts as missing", []string{"a", "b", "", "d", "e"}, true, false},
	}

	for _, tc := range testCases {
		err := NewLineup(tc.players...).Validate(tc.partial)
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
	}
}

func TestLineupSlotBounds(t *testing.T) {
	testCases := []struct {
		name       string
		players    []string
		wantAfter  string
		wantBefore string
	}{
		{"middle slot", []string{"Allen", "Bryant", MissingSlot, "Fisher", "Gasol"}, "Bryant", "Fisher"},
		{"first slot", []string{MissingSlot, "Bryant", "Duncan", "Fisher", "Gasol"}, "", "Bryant"},
		{"last slot", []string{"Allen", "Bryant", "Duncan", "Fisher", MissingSlot}, "Fisher", ""},
		{"complete lineup", []string{"a", "b", "c", "d", "e"}, "", ""},
	}

	for _, tc := range testCases {
		after, before := NewLineup(tc.players...).SlotBounds()
		if after != tc.wantAfter || before != tc.wantBefore {
			t.Errorf("%s: got (%q, %q), want (%q, %q)", tc.name, after, before, tc.wantAfter, tc.wantBefore)
		}
	}
}

func TestLineupWithFifth(t *testing.T) {
	l := NewLineup("Duncan", "Allen", MissingSlot, "Gasol", "Bryant")
	set := l.WithFifth("Fisher")
	expected := []string{"Allen", "Bryant", "Duncan", "Fisher", "Gasol"}
	if len(set) != len(expected) {
		t.Fatalf("Expected %d players, got %d", len(expected), len(set))
	}
	for i := range expected {
		if set[i] != expected[i] {
			t.Errorf("Position %d: expected %s, got %s", i, expected[i], set[i])
		}
	}
}

func TestGameContextValidate(t *testing.T) {
	valid := GameContext{Season: 2012, StartingMin: 24, HomeTeam: "LAL", AwayTeam: "BOS"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Valid context rejected: %v", err)
	}

	noHome := valid
	noHome.HomeTeam = ""
	if err := noHome.Validate(); err == nil {
		t.Error("Missing home team accepted")
	}

	badMinute := valid
	badMinute.StartingMin = 99
	if err := badMinute.Validate(); err == nil {
		t.Error("Out-of-range starting minute accepted")
	}
}

func TestLowConfidenceRequiresAllThree(t *testing.T) {
	cs := CandidateScore{Degraded: []DegradedSignal{DegradedUnknownPlayer, DegradedUnassignedCluster}}
	if cs.LowConfidence() {
		t.Error("Two degraded signals should not flag low confidence")
	}

	cs.Degraded = append(cs.Degraded, DegradedNoPattern)
	if !cs.LowConfidence() {
		t.Error("All three degraded signals should flag low confidence")
	}
}
