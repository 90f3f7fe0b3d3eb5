package logging

import (
	"testing"

	"github.com/tliron/commonlog"
)

func TestLevelFor(t *testing.T) {
	cases := map[string]commonlog.Level{
		"debug":    commonlog.Debug,
		"info":     commonlog.Info,
		"warn":     commonlog.Warning,
		"warning":  commonlog.Warning,
		"error":    commonlog.Error,
		"critical": commonlog.Critical,
		"fatal":    commonlog.Critical,
		"":         commonlog.Info,
		"bogus":    commonlog.Info,
	}
	for input, want := range cases {
		if got := levelFor(input); got != want {
			t.Errorf("levelFor(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewReturnsNonNilLogger(t *testing.T) {
	log := New("classforge/test")
	if log == nil {
		t.Fatal("New returned a nil Logger")
	}
}
