package diag

import "testing"

func TestBagLimitAndCounts(t *testing.T) {
	b := NewBag(2)
	if !b.Add(Diagnostic{File: "a.mq5", Severity: SevError}) {
		t.Fatal("first add rejected")
	}
	if !b.Add(Diagnostic{File: "a.mq5", Severity: SevWarning}) {
		t.Fatal("second add rejected")
	}
	if b.Add(Diagnostic{File: "a.mq5"}) {
		t.Fatal("add past limit accepted")
	}
	errs, warns := b.Counts()
	if errs != 1 || warns != 1 {
		t.Fatalf("Counts = %d, %d", errs, warns)
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Fatal("expected errors and warnings")
	}
}

func TestBagSortDedup(t *testing.T) {
	b := NewBag(0)
	b.AddAll([]Diagnostic{
		{File: "b.mq5", Line: 1, Message: "x", Severity: SevWarning},
		{File: "a.mq5", Line: 4, Column: 2, Message: "y", Severity: SevError, Code: "10"},
		{File: "a.mq5", Line: 4, Column: 2, Message: "y", Severity: SevError, Code: "10"},
		{File: "a.mq5", Line: 1, Message: "z", Severity: SevWarning},
	})
	b.Dedup()
	b.Sort()
	items := b.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items after dedup, got %d", len(items))
	}
	if items[0].Message != "z" || items[1].Message != "y" || items[2].File != "b.mq5" {
		t.Fatalf("unexpected order: %+v", items)
	}
	if groups := b.ByFile(); len(groups["a.mq5"]) != 2 || len(groups["b.mq5"]) != 1 {
		t.Fatalf("unexpected grouping: %+v", groups)
	}
}

func TestDiagnosticRangeIsPointWidth(t *testing.T) {
	d := Diagnostic{Line: 9, Column: 4}
	r := d.Range()
	if r.Start != (Position{9, 4}) || r.End != (Position{9, 5}) {
		t.Fatalf("unexpected range %+v", r)
	}
}

func TestFormatShort(t *testing.T) {
	got := FormatShort([]Diagnostic{
		{File: `C:\Project\Main.mq5`, Line: 9, Column: 4, Message: "unexpected token", Severity: SevError, Code: "123"},
		{File: `C:\Project\Main.mq5`, Line: 19, Message: "obsolete\nfunction ", Severity: SevWarning},
	})
	want := "error 123 C:/Project/Main.mq5:10:5 unexpected token\nwarning - C:/Project/Main.mq5:20:1 obsolete function"
	if got != want {
		t.Fatalf("FormatShort =\n%s\nwant\n%s", got, want)
	}
}
