package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DateLayout is the calendar date format exchanged with the backend and the browser.
const DateLayout = "2006-01-02"

var NowFunc = time.Now // mockable

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Today returns the current calendar date (local midnight).
func Today() time.Time {
	now := NowFunc()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// ParseDate parses a YYYY-MM-DD calendar date in the current location.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, CleanString(s), NowFunc().Location())
}

// Getwd finds the project root, i.e. the closest parent directory holding the go.mod file.
// go-test changes the working directory to the package being tested, so os.Getwd alone is not enough.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
