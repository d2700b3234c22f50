package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "empty", input: "", expect: ""},
		{name: "strips diacritics and cedilla", input: "Ação", expect: "Acao"},
		{name: "collapses whitespace", input: "  a   b ", expect: "a b"},
		{name: "line endings and tabs", input: "one\r\ntwo\tthree\n\n", expect: "one two three"},
		{name: "upper case cedilla", input: "AÇÚCAR", expect: "ACUCAR"},
		{name: "letters without decomposition", input: "Straße Łódź Ørsted", expect: "Strasse Lodz Orsted"},
		{name: "invalid utf8 dropped", input: "ab\xffc", expect: "abc"},
		{name: "only whitespace", input: " \t\n ", expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"Comunicação e Liderança", "  São   Paulo ", "naïve café"} {
		once := Normalize(input)
		if twice := Normalize(once); twice != once {
			t.Fatalf("normalize not idempotent for %q: %q vs %q", input, once, twice)
		}
	}
}

func TestNormalizeList(t *testing.T) {
	t.Parallel()

	got := NormalizeList([]string{" Gestão ", "", "   ", "Go"})
	if len(got) != 2 || got[0] != "Gestao" || got[1] != "Go" {
		t.Fatalf("unexpected list: %#v", got)
	}
}

func TestWordCountAndTruncate(t *testing.T) {
	t.Parallel()

	if n := WordCount("  one two\nthree  "); n != 3 {
		t.Fatalf("expected 3 words, got %d", n)
	}

	if got := Truncate("ação rápida", 4); got != "ação" {
		t.Fatalf("unexpected truncation: %q", got)
	}

	if got := Truncate("short", 0); got != "short" {
		t.Fatalf("expected disabled cap, got %q", got)
	}
}
