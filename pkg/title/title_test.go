package title

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "The Matrix", "matrix"},
		{"accents", "Léon: The Professional", "leon professional"},
		{"roman numerals", "Rocky II", "rocky 2"},
		{"standalone i preserved", "I Robot", "i robot"},
		{"leading roman preserved", "VII Days", "vii days"},
		{"ampersand", "Fast & Furious", "fast and furious"},
		{"apostrophe", "Ocean's Eleven", "oceans eleven"},
		{"dots and dashes", "Spider-Man.Homecoming", "spider man homecoming"},
		{"article after colon", "Alien: The Director's Cut", "alien directors cut"},
		{"whitespace collapse", "  The   Thing  ", "thing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripReleaseTags(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Show.Name.S01E02.1080p.WEB-DL.x264-GROUP", "Show Name S01E02 GROUP"},
		{"[SubsTeam] Series Title 12 (720p HEVC)", "Series Title 12"},
		{"Movie Title 2024 BluRay REMUX", "Movie Title 2024"},
		{"Plain Title", "Plain Title"},
	}
	for _, tt := range tests {
		if got := StripReleaseTags(tt.input); got != tt.want {
			t.Errorf("StripReleaseTags(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"normal-name.mkv", "normal-name.mkv"},
		{"path/../traversal", "path____traversal"},
		{"name..mkv", "name__mkv"},
		{"spaces here.mp4", "spaces_here.mp4"},
		{"...", "untitled"},
		{"", "untitled"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.input); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
