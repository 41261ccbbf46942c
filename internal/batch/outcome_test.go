package batch

import "testing"

func TestShouldGenerate(t *testing.T) {
	cases := []struct {
		name       string
		hasSidecar bool
		overwrite  bool
		want       bool
	}{
		{"no sidecar", false, false, true},
		{"sidecar exists", true, false, false},
		{"sidecar exists with overwrite", true, true, true},
		{"no sidecar with overwrite", false, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldGenerate(tc.hasSidecar, tc.overwrite); got != tc.want {
				t.Fatalf("ShouldGenerate(%v, %v) = %v, want %v", tc.hasSidecar, tc.overwrite, got, tc.want)
			}
		})
	}
}

func TestSummaryCounts(t *testing.T) {
	summary := &Summary{Items: []ItemResult{
		{Outcome: OutcomeSkipped},
		{Outcome: OutcomeSucceeded},
		{Outcome: OutcomeSucceeded},
		{Outcome: OutcomeFailed},
		{Outcome: OutcomeErrored},
	}}
	if summary.Total() != 5 {
		t.Fatalf("expected 5 items, got %d", summary.Total())
	}
	if summary.Count(OutcomeSucceeded) != 2 || summary.Count(OutcomeSkipped) != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
}

func TestScopeLabels(t *testing.T) {
	if All().Label() != "all" || All().IsSingle() {
		t.Fatalf("unexpected all scope: %+v", All())
	}
	single := Single(42)
	if single.Label() != "scene:42" || !single.IsSingle() || single.SceneID() != 42 {
		t.Fatalf("unexpected single scope: %+v", single)
	}
	if single.String() != "scene 42" {
		t.Fatalf("unexpected string: %q", single.String())
	}
}
