package identity

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{" Jane.Doe@X.com ", "jane.doe@x.com"},
		{"JANE@HOSPITAL.ORG", "jane@hospital.org"},
		{"", ""},
		{"   ", ""},
		{"nan", ""},
		{"NaN", ""},
		{"jane @x.com", "jane@x.com"},
		{"jane\x00doe@x.com", "janedoe@x.com"},
	}

	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Fatalf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeEmptyNeverMatches(t *testing.T) {
	if Normalize("nan") != Normalize("") {
		t.Fatalf("placeholders should normalize to the empty string")
	}
	if Normalize("nan") != "" {
		t.Fatalf("expected empty string for placeholder")
	}
}
