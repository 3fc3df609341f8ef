package todod

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestReadOneLine_SkipsBlankAndAcceptsMissingNewline(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\n  \n{\"a\":1}\n\n{\"b\":2}"))

	line, err := ReadOneLine(r)
	if err != nil || string(line) != `{"a":1}` {
		t.Fatalf("line=%q err=%v", line, err)
	}
	line, err = ReadOneLine(r)
	if err != nil || string(line) != `{"b":2}` {
		t.Fatalf("line=%q err=%v", line, err)
	}
	if _, err := ReadOneLine(r); !errors.Is(err, io.EOF) {
		t.Fatalf("err=%v", err)
	}
}

func TestReadOneLine_LongerThanBuffer(t *testing.T) {
	long := strings.Repeat("x", 10000)
	r := bufio.NewReaderSize(strings.NewReader(long+"\n"), 16)
	line, err := ReadOneLine(r)
	if err != nil || len(line) != len(long) {
		t.Fatalf("len=%d err=%v", len(line), err)
	}
}
