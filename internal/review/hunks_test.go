package review

import (
	"strings"
	"testing"
)

func TestSplitHunks(t *testing.T) {
	twoHunks := "@@ -1,3 +1,4 @@\n context\n+added one\n@@ -20,3 +21,4 @@ func main() {\n context\n+added two"

	tests := []struct {
		name      string
		patch     string
		wantCount int
	}{
		{"empty patch", "", 0},
		{"single hunk", "@@ -1 +1 @@\n-a\n+b", 1},
		{"two hunks", twoHunks, 2},
		{"no hunk header", "just some text\nwithout a header", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hunks := splitHunks(tt.patch)
			if len(hunks) != tt.wantCount {
				t.Fatalf("splitHunks() returned %d hunks, want %d", len(hunks), tt.wantCount)
			}
		})
	}
}

func TestSplitHunksContents(t *testing.T) {
	patch := "@@ -1,3 +1,4 @@\n+alpha\n@@ -20,3 +21,4 @@ func main() {\n+omega"

	hunks := splitHunks(patch)
	if len(hunks) != 2 {
		t.Fatalf("got %d hunks, want 2", len(hunks))
	}

	if !strings.HasPrefix(hunks[0], "@@ -1,3 +1,4 @@") || !strings.Contains(hunks[0], "+alpha") {
		t.Errorf("first hunk = %q", hunks[0])
	}
	if strings.Contains(hunks[0], "omega") {
		t.Error("first hunk leaked content from the second")
	}
	if !strings.Contains(hunks[1], "+omega") {
		t.Errorf("second hunk = %q", hunks[1])
	}
}

func TestSplitHunksDropsLeadingNoise(t *testing.T) {
	patch := "diff --git a/x b/x\nindex 123..456\n@@ -1 +1 @@\n+real content"

	hunks := splitHunks(patch)
	if len(hunks) != 1 {
		t.Fatalf("got %d hunks, want 1", len(hunks))
	}
	if strings.Contains(hunks[0], "diff --git") {
		t.Errorf("hunk retained leading noise: %q", hunks[0])
	}
}
