package prompter

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestSequentialPromptsShareInput(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("Dev\ndev@codestack.io\nSecret1!\n"), &out)

	name, err := p.String("Name: ")
	if err != nil || name != "Dev" {
		t.Fatalf("name = %q, %v", name, err)
	}
	email, err := p.String("Email: ")
	if err != nil || email != "dev@codestack.io" {
		t.Fatalf("email = %q, %v", email, err)
	}
	pw, err := p.Password("Password: ")
	if err != nil || pw != "Secret1!" {
		t.Fatalf("password = %q, %v", pw, err)
	}
	if !strings.Contains(out.String(), "Email: ") {
		t.Errorf("labels should be written: %q", out.String())
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
	}

	for _, tt := range tests {
		p := New(strings.NewReader(tt.input), io.Discard)
		got, err := p.Confirm("Delete?")
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSelect(t *testing.T) {
	options := []string{"Inappropriate Language", "Spam or Irrelevant", "Offensive or Harassment"}

	p := New(strings.NewReader("2\n"), io.Discard)
	idx, err := p.Select("Feedback", options)
	if err != nil || idx != 1 {
		t.Errorf("Select = %d, %v", idx, err)
	}

	for _, bad := range []string{"0\n", "4\n", "abc\n"} {
		p := New(strings.NewReader(bad), io.Discard)
		if _, err := p.Select("Feedback", options); err == nil {
			t.Errorf("Select(%q) should fail", bad)
		}
	}
}

func TestMultiline(t *testing.T) {
	p := New(strings.NewReader("line one\nline two\n\nignored\n"), io.Discard)
	got, err := p.Multiline("Description", 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != "line one\nline two" {
		t.Errorf("Multiline = %q", got)
	}
}

func TestMultilineStopsAtEOF(t *testing.T) {
	p := New(strings.NewReader("only line"), io.Discard)
	got, err := p.Multiline("Description", 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != "only line" {
		t.Errorf("Multiline = %q", got)
	}
}

func TestStringEOF(t *testing.T) {
	p := New(strings.NewReader(""), io.Discard)
	if _, err := p.String("Name: "); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}
