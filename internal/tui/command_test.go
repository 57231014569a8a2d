package tui

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"quit", Command{Name: "quit"}},
		{"  Q ", Command{Name: "quit"}},
		{"search  bia ", Command{Name: "search", Args: "bia"}},
		{"chat Ana Souza", Command{Name: "chat", Args: "Ana Souza"}},
		{"feed events", Command{Name: "feed", Args: "events"}},
		{"logout", Command{Name: "signout"}},
		{"", Command{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseCommand(tt.in); got != tt.want {
				t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
