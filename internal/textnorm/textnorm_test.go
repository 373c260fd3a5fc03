// Package textnorm includes tests for the text folding helpers.
package textnorm

import "testing"

// TestFold covers the width and case transformations the matcher relies on.
func TestFold(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "ascii lower", in: "SEO", want: "seo"},
		{name: "full width latin", in: "ＳＥＯ", want: "seo"},
		{name: "full width digits", in: "１２３", want: "123"},
		{name: "half width katakana", in: "ﾌﾞﾗﾝﾄﾞ", want: "ブランド"},
		{name: "ideographic space", in: "新規　事業", want: "新規 事業"},
		{name: "mixed", in: "ＨＰリニューアル", want: "hpリニューアル"},
		{name: "unchanged kana", in: "ヒアリング", want: "ヒアリング"},
		{name: "empty", in: "", want: ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Fold(tc.in); got != tc.want {
				t.Fatalf("Fold(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

// TestFoldIdempotent verifies folding an already folded string is a
// no-op, which lets callers fold freely without tracking state.
func TestFoldIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"SEO",
		"ＳＥＯ対策のご相談",
		"ﾌﾞﾗﾝﾃﾞｨﾝｸﾞ",
		"新規　事業の企画／ＰＲ",
		"Ｐｒｏｄｕｃｔ✕ＰＲ①",
		"",
	}
	for _, in := range inputs {
		once := Fold(in)
		if twice := Fold(once); twice != once {
			t.Fatalf("Fold not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

// TestContains checks folding applies to both haystack and needle.
func TestContains(t *testing.T) {
	t.Parallel()

	if !Contains("ＳＥＯ対策のご相談", "seo") {
		t.Fatal("expected full-width haystack to match ascii needle")
	}
	if !Contains("seo対策", "ＳＥＯ") {
		t.Fatal("expected ascii haystack to match full-width needle")
	}
	if Contains("広告運用", "ブランディング") {
		t.Fatal("expected no match for absent keyword")
	}
}
