package gplog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLevelMapsSpecSeverities(t *testing.T) {
	defer Logger.SetLevel(logrus.InfoLevel)

	cases := map[string]logrus.Level{
		"verbose": logrus.DebugLevel,
		"notice":  logrus.InfoLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"debug":   logrus.DebugLevel,
	}
	for name, want := range cases {
		if err := SetLevel(name); err != nil {
			t.Fatalf("SetLevel(%q): %v", name, err)
		}
		if Logger.GetLevel() != want {
			t.Errorf("SetLevel(%q): level = %v, want %v", name, Logger.GetLevel(), want)
		}
	}
}

func TestSetLevelRejectsUnknownSeverity(t *testing.T) {
	if err := SetLevel("catastrophic"); err == nil {
		t.Error("SetLevel with an unknown name should error")
	}
}

func TestSetOutputRedirectsLogs(t *testing.T) {
	defer SetOutput(Logger.Out)
	var buf bytes.Buffer
	SetOutput(&buf)
	Logger.SetLevel(logrus.DebugLevel)

	Noticef("placed %d cells", 3)

	if !strings.Contains(buf.String(), "placed 3 cells") {
		t.Errorf("log output = %q, want it to contain the message", buf.String())
	}
}

func TestSetJSONFormatProducesParsableLines(t *testing.T) {
	defer Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(Logger.Out)
	SetJSONFormat()
	Logger.SetLevel(logrus.DebugLevel)

	Warnf("cross-connection budget exceeded on matrix %d", 1)

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("log line is not valid JSON: %v", err)
	}
	if decoded["msg"] != "cross-connection budget exceeded on matrix 1" {
		t.Errorf("decoded msg = %v", decoded["msg"])
	}
}

func TestWithStageTagsEntries(t *testing.T) {
	entry := WithStage("anneal")
	if got := entry.Data["stage"]; got != "anneal" {
		t.Errorf("WithStage entry stage field = %v, want %q", got, "anneal")
	}
}

func TestWithFieldsCarriesAllFields(t *testing.T) {
	entry := WithFields(map[string]interface{}{"part": "SLG46620", "seed": int64(7)})
	if entry.Data["part"] != "SLG46620" || entry.Data["seed"] != int64(7) {
		t.Errorf("WithFields entry data = %v", entry.Data)
	}
}
