package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimePlainDate(t *testing.T) {
	got, ok := ParseTime("2020-03-23")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2020, 3, 23, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestParseDateDefault(t *testing.T) {
	def := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := ParseDateDefault("bad", def); !got.Equal(def) {
		t.Fatalf("expected default on invalid input, got %v", got)
	}
	want := time.Date(2020, 2, 15, 0, 0, 0, 0, time.UTC)
	if got := ParseDateDefault("2020-02-15", def); !got.Equal(want) {
		t.Fatalf("unexpected date %v", got)
	}
}
