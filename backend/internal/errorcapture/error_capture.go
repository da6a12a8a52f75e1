/*
 * backend/internal/errorcapture/error_capture.go
 *
 * Routes client-go klog output into the console logger and turns
 * Kubernetes client errors into one-line messages for notifications.
 */

package errorcapture

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"sync"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/klog/v2"
)

// Capture receives klog output, copies it to out, keeps a short tail of it
// and forwards each line to the log sink.
type Capture struct {
	mu        sync.Mutex
	buffer    bytes.Buffer
	lastError string
	out       io.Writer
	sink      func(level string, message string)
}

var (
	globalMu sync.RWMutex
	global   *Capture

	authPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\btokens?\b`),
		regexp.MustCompile(`\bexpired\b`),
		regexp.MustCompile(`\bauthentication\b`),
		regexp.MustCompile(`\bunauthorized\b`),
		regexp.MustCompile(`\bforbidden\b`),
		regexp.MustCompile(`\bpermission\s+denied\b`),
		regexp.MustCompile(`\bx509\b`),
	}
)

// Init redirects klog into a Capture that copies output to out and forwards lines to sink.
// verbosity is the klog -v level.
func Init(verbosity int, out io.Writer, sink func(level string, message string)) *Capture {
	c := &Capture{out: out, sink: sink}

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	_ = klogFlags.Set("logtostderr", "false")
	_ = klogFlags.Set("alsologtostderr", "false")
	_ = klogFlags.Set("v", fmt.Sprint(verbosity))
	klog.SetOutput(c)

	globalMu.Lock()
	global = c
	globalMu.Unlock()
	return c
}

// Write implements io.Writer for klog.
func (c *Capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	c.buffer.Write(p)
	trimBuffer(&c.buffer, 64*1024, 16*1024)
	sink, out := c.sink, c.out
	c.mu.Unlock()

	if out != nil {
		_, _ = out.Write(p)
	}

	forEachTrimmedLine(string(p), func(line string) {
		sev, ok := parseKlogSeverity(line)
		if (!ok || sev == 'E' || sev == 'F') && matchAnyPattern(strings.ToLower(line), authPatterns) {
			c.mu.Lock()
			c.lastError = line
			c.mu.Unlock()
		}
		if sink != nil {
			sink(levelFor(sev, ok), line)
		}
	})
	return len(p), nil
}

// takeLast returns and clears the most recent auth-related line.
func (c *Capture) takeLast() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	last := c.lastError
	c.lastError = ""
	return last
}

// Describe turns err into a single human-readable line suitable for a toast.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var status apierrors.APIStatus
	if errors.As(err, &status) {
		st := status.Status()
		msg := strings.TrimSpace(st.Message)
		if msg == "" {
			msg = strings.ToLower(string(st.Reason))
		}
		if st.Code != 0 {
			msg = fmt.Sprintf("%s (status %d)", msg, st.Code)
		}
		return msg
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return fmt.Sprintf("%s %s: %s", strings.ToUpper(urlErr.Op), urlErr.URL, urlErr.Err.Error())
	}

	return Enhance(err).Error()
}

// Enhance appends the most recent auth-related klog line to err when it adds information.
func Enhance(err error) error {
	if err == nil {
		return nil
	}
	globalMu.RLock()
	c := global
	globalMu.RUnlock()
	if c == nil {
		return err
	}
	extra := c.takeLast()
	orig := err.Error()
	if extra == "" || strings.Contains(orig, extra) {
		return err
	}
	return fmt.Errorf("%w (client log: %s)", err, extra)
}

// parseKlogSeverity extracts klog severity for lines starting with the standard prefix.
func parseKlogSeverity(line string) (byte, bool) {
	if len(line) < 2 {
		return 0, false
	}
	switch line[0] {
	case 'I', 'W', 'E', 'F':
		if line[1] >= '0' && line[1] <= '9' {
			return line[0], true
		}
	}
	return 0, false
}

func levelFor(sev byte, ok bool) string {
	if !ok {
		return "info"
	}
	switch sev {
	case 'E', 'F':
		return "error"
	case 'W':
		return "warn"
	}
	return "info"
}

func matchAnyPattern(lower string, patterns []*regexp.Regexp) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(lower) {
			return true
		}
	}
	return false
}

func forEachTrimmedLine(input string, fn func(string)) {
	for line := range strings.SplitSeq(input, "\n") {
		msg := strings.TrimSpace(line)
		if msg == "" {
			continue
		}
		fn(msg)
	}
}

// trimBuffer reduces buffer growth by keeping only the newest bytes.
func trimBuffer(buf *bytes.Buffer, maxLen, keep int) {
	if buf.Len() <= maxLen {
		return
	}
	data := append([]byte(nil), buf.Bytes()[buf.Len()-keep:]...)
	buf.Reset()
	buf.Write(data)
}
