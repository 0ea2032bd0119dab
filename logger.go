package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"axview/poll"
)

var (
	errorLogger *log.Logger
	debugLogger *log.Logger
	// silent keeps logError off the screen; set before the window exists.
	silent bool
)

// openLog returns stdout teed into logs/errors/<kind>-<start time>.log. If
// the file cannot be created the log goes to stdout only.
func openLog(kind string) io.Writer {
	dir := filepath.Join(baseDir, "logs", "errors")
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Printf("log directory: %v\n", err)
		return os.Stdout
	}
	name := fmt.Sprintf("%s-%s.log", kind, time.Now().Format("20060102-150405"))
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		fmt.Printf("log file: %v\n", err)
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, f)
}

func setupLogging(debug bool) {
	w := openLog("error")
	errorLogger = log.New(w, "", log.LstdFlags)
	log.SetOutput(w)
	setDebugLogging(debug)
}

func setDebugLogging(enabled bool) {
	if !enabled {
		debugLogger = nil
		return
	}
	debugLogger = log.New(openLog("debug"), "debug ", log.LstdFlags|log.Lmicroseconds)
}

// logError records a problem and, once the window is up, shows it as a
// message too.
func logError(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	if errorLogger != nil {
		errorLogger.Print(msg)
	}
	if !silent {
		addMessage(msg)
	}
}

func logDebug(format string, v ...any) {
	if debugLogger != nil {
		debugLogger.Printf(format, v...)
	}
}

// describeCommit summarizes what a poll changed, e.g.
// "v12 map replaced, units +2 ~5 -1".
func describeCommit(c poll.Commit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "v%d", c.Version)
	if c.MapChanged {
		b.WriteString(" map replaced")
		if len(c.Kinds) > 0 {
			b.WriteByte(',')
		}
	}
	if len(c.Kinds) == 0 {
		if !c.MapChanged {
			b.WriteString(" no categories")
		}
		return b.String()
	}
	names := make([]string, len(c.Kinds))
	for i, k := range c.Kinds {
		names[i] = k.String()
	}
	fmt.Fprintf(&b, " %s +%d ~%d -%d", strings.Join(names, "/"), c.Diff.Added, c.Diff.Updated, c.Diff.Removed)
	return b.String()
}

// logCommit writes a debug line for commits that changed the map or the
// record set. Position-only updates are too frequent to log.
func logCommit(c poll.Commit) {
	if debugLogger == nil || !(c.MapChanged || c.Diff.Changed()) {
		return
	}
	logDebug("commit %s", describeCommit(c))
}
