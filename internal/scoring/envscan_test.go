package scoring

import (
	"fmt"
	"testing"
)

func envAnswers(value string) map[string]string {
	answers := map[string]string{}
	for i := 1; i <= 60; i++ {
		answers[fmt.Sprintf("ENV%03d: item %d", i, i)] = value
	}
	return answers
}

func TestScanEnvironmentUniform(t *testing.T) {
	scan := ScanEnvironment(envAnswers("5"))
	if scan.Stability != 5 || scan.Velocity != 5 {
		t.Fatalf("uniform 5s gave K=%v r=%v, want 5/5", scan.Stability, scan.Velocity)
	}
	if scan.Title != "Mostly Stable" {
		t.Fatalf("title %q, want Mostly Stable", scan.Title)
	}
	for i, th := range scan.Themes {
		if th.Stability == nil || *th.Stability != 5 {
			t.Fatalf("theme %d stability not averaged", i+1)
		}
	}
}

func TestScanEnvironmentBucketPartition(t *testing.T) {
	// Items 1-2 of each pack of 4 rate stability, items 3-4 velocity.
	answers := map[string]string{}
	for i := 1; i <= 60; i++ {
		v := "9"
		if (i-1)%4 >= 2 {
			v = "1"
		}
		answers[fmt.Sprintf("ENV%03d: item", i)] = v
	}
	scan := ScanEnvironment(answers)
	if scan.Stability != 9 || scan.Velocity != 1 {
		t.Fatalf("partition broken: K=%v r=%v, want 9/1", scan.Stability, scan.Velocity)
	}
	if scan.Title != "Stable & Slow" {
		t.Fatalf("title %q, want Stable & Slow", scan.Title)
	}
	scores := scan.Scores()
	if scores["K"] != 9 || scores["r"] != 1 {
		t.Fatalf("score map %v, want K:9 r:1", scores)
	}
}

func TestScanEnvironmentIncompletePairs(t *testing.T) {
	// Only theme 1 fully answered on the stability side; theme 2 has a
	// single stability item, which must not count.
	answers := map[string]string{
		"ENV001: a": "8",
		"ENV002: b": "6",
		"ENV005: c": "2",
	}
	scan := ScanEnvironment(answers)
	if scan.Stability != 7 {
		t.Fatalf("K=%v, want 7 (average of the one complete pair)", scan.Stability)
	}
	if scan.Themes[1].Stability != nil {
		t.Fatalf("half-answered theme pair must stay unset")
	}
	if scan.Velocity != 0 {
		t.Fatalf("r=%v, want 0 with no velocity answers", scan.Velocity)
	}
}

func TestScanEnvironmentLenientNumbers(t *testing.T) {
	answers := map[string]string{
		"ENV001: a": "7,5",
		"ENV002: b": "8.5",
		"ENV003: c": "not a number",
		"ENV004: d": "3",
	}
	scan := ScanEnvironment(answers)
	if scan.Stability != 8 {
		t.Fatalf("K=%v, want 8", scan.Stability)
	}
	// ENV003 unparsable: the velocity pair is incomplete.
	if scan.Themes[0].Velocity != nil {
		t.Fatalf("velocity pair with an unparsable item must stay unset")
	}
}

func TestEnvScanFlatten(t *testing.T) {
	scan := ScanEnvironment(envAnswers("5"))
	flat := scan.Flatten()
	if flat["score_stability"] != "5" || flat["score_velocity"] != "5" {
		t.Fatalf("flatten scores: %v / %v", flat["score_stability"], flat["score_velocity"])
	}
	if flat["theme_1_name"] == "" || flat["theme_15_name"] == "" {
		t.Fatalf("expected all 15 themes flattened")
	}
	if flat["profile_title"] != scan.Title {
		t.Fatalf("profile_title %q != %q", flat["profile_title"], scan.Title)
	}
}

func TestIsEnvironmentScan(t *testing.T) {
	if !IsEnvironmentScan("r&K_Environnement") {
		t.Fatalf("r&K_Environnement must select the scan scheme")
	}
	if IsEnvironmentScan("MBTI") || IsEnvironmentScan("r&K_Adaptabilite") {
		t.Fatalf("catalog-driven test types must not select the scan scheme")
	}
}
