package feed

import "testing"

func TestSelectorMatches(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		title    string
		want     bool
	}{
		{
			name:     "no patterns accepts all",
			patterns: nil,
			title:    "Anything.At.All.1080p",
			want:     true,
		},
		{
			name:     "substring match through release tags",
			patterns: []string{"Show Name"},
			title:    "Show.Name.S02E05.1080p.WEB-DL.x264-GROUP",
			want:     true,
		},
		{
			name:     "article stripped before comparison",
			patterns: []string{"The Expanse"},
			title:    "Expanse.S01E01.720p.HDTV",
			want:     true,
		},
		{
			name:     "unrelated title rejected",
			patterns: []string{"Show Name"},
			title:    "Completely.Different.Series.S01E01.1080p",
			want:     false,
		},
		{
			name:     "second pattern matches",
			patterns: []string{"Nope", "Other Show"},
			title:    "Other.Show.S03E01.WEBRip",
			want:     true,
		},
		{
			name:     "accents and articles normalized",
			patterns: []string{"Léon: The Professional"},
			title:    "Léon:.The.Professional.1994.1080p.BluRay",
			want:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSelector(tt.patterns)
			if got := s.Matches(tt.title); got != tt.want {
				t.Errorf("Matches(%q) with %v = %v, want %v", tt.title, tt.patterns, got, tt.want)
			}
		})
	}
}
