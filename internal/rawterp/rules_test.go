package rawterp

import "testing"

func TestApplyDefaultRules(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "double prompt", in: "Some response\n> >", want: "Some response"},
		{name: "double prompt with space", in: "Some response\n> > ", want: "Some response"},
		{name: "single prompt", in: "Some response\n>", want: "Some response"},
		{name: "more marker", in: "A long passage\n) ", want: "A long passage\n[press /enter to continue]"},
		{name: "status line", in: " Kitchen   Score: 5\n. \nYou are in the kitchen.\n>", want: " Kitchen   Score: 5\n=====\nYou are in the kitchen."},
		{name: "prompt mid text", in: "a\n> b", want: "a\n> b"},
		{name: "empty", in: "", want: ""},
	}
	for _, tc := range tests {
		if got := rules.Apply(tc.in); got != tc.want {
			t.Fatalf("%s: Apply(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestApplyStripsOnlyFirstMatchingPrompt(t *testing.T) {
	rules := DefaultRules()
	if got := rules.Apply("text\n>\n> >"); got != "text\n>" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestApplyMoreMarkerOnlyWithoutPrompt(t *testing.T) {
	rules := Rules{
		PromptSuffixes: []string{"\n>"},
		MoreMarkers:    []string{"[MORE]"},
		MoreHint:       "(more)",
	}
	if got := rules.Apply("page[MORE]\n>"); got != "page[MORE]" {
		t.Fatalf("more marker must not be rewritten after a prompt strip, got %q", got)
	}
	if got := rules.Apply("page[MORE]"); got != "page(more)" {
		t.Fatalf("unexpected more rewrite %q", got)
	}
}

func TestMergeOverridesSetFields(t *testing.T) {
	merged := DefaultRules().Merge(Rules{MoreHint: "(more)", PromptSuffixes: []string{"\n$ "}})
	if merged.MoreHint != "(more)" {
		t.Fatalf("expected hint override, got %q", merged.MoreHint)
	}
	if len(merged.PromptSuffixes) != 1 || merged.PromptSuffixes[0] != "\n$ " {
		t.Fatalf("expected suffix override, got %q", merged.PromptSuffixes)
	}
	if merged.StatusSeparator != "\n=====\n" || len(merged.MoreMarkers) != 1 {
		t.Fatalf("expected untouched defaults, got %+v", merged)
	}
}
