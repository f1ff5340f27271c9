package util

import "testing"

func TestSanitizePostgresText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain utf8",
			input: "see Figure 3",
			want:  "see Figure 3",
		},
		{
			name:  "contains null byte",
			input: "Tab\x00le 4",
			want:  "Table 4",
		},
		{
			name:  "contains invalid utf8",
			input: string([]byte{'a', 0xff, 'b'}),
			want:  "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizePostgresText(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected sanitized value: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already collapsed",
			input: "Figures 5 and 6",
			want:  "Figures 5 and 6",
		},
		{
			name:  "line break inside list",
			input: "References 16\nand 17",
			want:  "References 16 and 17",
		},
		{
			name:  "leading and trailing runs",
			input: "  Eq.  (12) \t ",
			want:  "Eq. (12)",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CollapseWhitespace(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected collapsed value: got %q, want %q", got, tt.want)
			}
		})
	}
}
