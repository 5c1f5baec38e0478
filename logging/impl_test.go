package logging

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

// newBufferLogger returns a Debug+ logger whose only appender writes to the
// returned buffer.
func newBufferLogger(name string) (Logger, *bytes.Buffer) {
	notStdout := &bytes.Buffer{}
	logger := &impl{name, NewAtomicLevelAt(DEBUG), false, []Appender{
		&consoleAppender{zapcore.AddSync(notStdout)},
	}}
	return logger, notStdout
}

// assertLogMatches will fuzzy match log lines. Notably, this checks the time format, but ignores
// the exact time. And it expects a match on the filename, but the exact line number can be wrong.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualTrimmed := strings.TrimSuffix(output, "\n")
	actualParts := strings.Split(actualTrimmed, "\t")
	expectedParts := strings.Split(expected, "\t")
	// Use the length of the first string as a weak verification of checking that the result looks like a date.
	test.That(t, len(actualParts[0]), test.ShouldEqual, len(expectedParts[0]))
	// Log level.
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])
	// Logger name.
	test.That(t, actualParts[2], test.ShouldEqual, expectedParts[2])

	// Filename:line_number.
	actualFilename, actualLineNumber, found := strings.Cut(actualParts[3], ":")
	test.That(t, found, test.ShouldBeTrue)
	expectedFilename, _, found := strings.Cut(expectedParts[3], ":")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)
	// Verify the line number is in fact a number, but no more.
	_, err = strconv.Atoi(actualLineNumber)
	test.That(t, err, test.ShouldBeNil)

	// Log message.
	test.That(t, actualParts[4], test.ShouldEqual, expectedParts[4])

	// Structured logging with the "w" API. E.g: `Debugw` has an extra tab delimited output.
	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	if len(actualParts) == 5 {
		return
	}

	// JSON encoding of maps can be unpredictable because map iteration order can change between
	// runs. Parse the output into maps and assert on map equality.
	expectedMap := make(map[string]any)
	err = json.Unmarshal([]byte(expectedParts[5]), &expectedMap)
	test.That(t, err, test.ShouldBeNil)

	actualMap := make(map[string]any)
	err = json.Unmarshal([]byte(actualParts[5]), &actualMap)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, actualMap, test.ShouldResemble, expectedMap)
}

func TestConsoleOutputFormat(t *testing.T) {
	logger, notStdout := newBufferLogger("fmt")

	logger.Info("plain Info log")
	// Note the use of tabs between the date, level, logger name, file location and log line.
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	INFO	fmt	logging/impl_test.go:67	plain Info log`)

	// Using `Infof` substitutes the tail arguments into the leading template string input.
	logger.Infof("substituted %s log", "infof")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:45:20.764-0400	INFO	fmt	logging/impl_test.go:131	substituted infof log`)

	// Using `Infow` turns the tail arguments into a map for structured logging.
	logger.Infow("structured log", "key", "value")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:19:45.806-0400	INFO	fmt	logging/impl_test.go:132	structured log	{"key":"value"}`)

	// An unpaired trailing key is kept with an explanatory value rather than dropped.
	logger.Infow("unpaired log", "lonelyKey")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:19:45.806-0400	INFO	fmt	logging/impl_test.go:133	unpaired log	{"lonelyKey":"unpaired log key"}`)
}

func TestLevelFiltering(t *testing.T) {
	logger, notStdout := newBufferLogger("levels")
	logger.SetLevel(INFO)
	test.That(t, logger.GetLevel(), test.ShouldEqual, INFO)

	logger.Debug("should be filtered")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.Warn("should pass")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	WARN	levels	logging/impl_test.go:67	should pass`)

	logger.SetLevel(DEBUG)
	logger.Debug("now visible")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	DEBUG	levels	logging/impl_test.go:67	now visible`)
}

func TestSublogger(t *testing.T) {
	logger, notStdout := newBufferLogger("parent")
	sub := logger.Sublogger("child")

	sub.Info("hello from the child")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	INFO	parent.child	logging/impl_test.go:67	hello from the child`)

	// The sublogger level is independent of the parent.
	sub.SetLevel(ERROR)
	sub.Info("filtered")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)
	logger.Info("parent unaffected")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	INFO	parent	logging/impl_test.go:67	parent unaffected`)
}

func TestObservedTestLogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)

	logger.Debugw("observed entry", "points", 3)
	test.That(t, observed.Len(), test.ShouldEqual, 1)
	entry := observed.All()[0]
	test.That(t, entry.Message, test.ShouldEqual, "observed entry")
	test.That(t, entry.ContextMap()["points"], test.ShouldEqual, int64(3))
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		inp      string
		expected Level
	}{
		{"debug", DEBUG},
		{"Info", INFO},
		{"WARN", WARN},
		{"warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.inp)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
	}

	_, err := LevelFromString("trace")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown log level")
}
