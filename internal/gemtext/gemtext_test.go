package gemtext

import "testing"

func TestLineBuilders(t *testing.T) {
	cases := map[string]string{
		Item("routing"):            "* routing",
		Link("/hello/world", "Go"): "=> /hello/world\tGo",
		Link("/bare", ""):          "=> /bare",
		H1("Hello"):                "# Hello",
		H2("Hello"):                "## Hello",
		H3("Hello"):                "### Hello",
		Quote("words"):             "> words",
		Pre("a\nb", "debug"):       "```debug\na\nb\n```",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("got %q want %q", got, want)
		}
	}
}

func TestDocument(t *testing.T) {
	if got := Document(H1("x"), "", Item("y")); got != "# x\n\n* y" {
		t.Fatalf("unexpected document %q", got)
	}
}
