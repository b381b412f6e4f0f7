package generate

import "testing"

func TestStripFence(t *testing.T) {
	payload := `{"summary": "s", "emails": ["a", "b", "c"]}`
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", payload, payload},
		{"fence with language tag", "```json\n" + payload + "\n```", payload},
		{"fence without language tag", "```\n" + payload + "\n```", payload},
		{"single line fence", "```json" + payload + "```", payload},
		{"surrounding whitespace", "  \n```json\n" + payload + "\n```\n\n", payload},
		{"payload on fence line", "```" + payload + "\n```", payload},
		{"no trailing fence", "```json\n" + payload, payload},
		{"empty reply", "", ""},
	}
	for _, tc := range cases {
		if got := StripFence(tc.in); got != tc.want {
			t.Errorf("%s: want %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestStripFencePreservesInnerBackticks(t *testing.T) {
	payload := `{"summary": "use ` + "`go test`" + ` to verify", "emails": []}`
	in := "```json\n" + payload + "\n```"
	if got := StripFence(in); got != payload {
		t.Fatalf("inner backticks altered:\nwant %q\ngot  %q", payload, got)
	}
}
