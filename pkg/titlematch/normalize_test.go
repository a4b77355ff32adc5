package titlematch

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"The Matrix", "matrix"},
		{"A Beautiful Mind", "beautiful mind"},
		{"An American Werewolf in London", "american werewolf in london"},
		{"Fast & Furious", "fast and furious"},
		{"Léon: The Professional", "leon professional"},
		{"Spider-Man: No Way Home", "spider man no way home"},
		{"Rocky III", "rocky 3"},
		{"Star Wars: Episode IV - A New Hope", "star wars episode 4 a new hope"},
		{"I, Robot", "i robot"},
		{"American History X", "american history x"},
		{"Amélie", "amelie"},
		{"  Extra   Spaces  ", "extra spaces"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Fold(tt.input)
			if got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
