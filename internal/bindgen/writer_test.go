package bindgen

import "testing"

func TestWriterKeepsArgumentText(t *testing.T) {
	w := NewWriter("\t")
	w.Open("fn f() {")
	w.Line("%s", `printf("100%d%%")`)
	w.Line("let x = 1 % 2;")
	w.Line("")
	w.Close("}")

	want := "fn f() {\n\tprintf(\"100%d%%\")\n\tlet x = 1 % 2;\n\n}\n"
	if got := w.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
