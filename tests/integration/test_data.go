package integration

import (
	"fmt"
	"strings"
	"time"
)

// TestAccount generates unique credentials using a timestamp.
func TestAccount(suffix string) (email, password string) {
	ts := time.Now().UnixNano()
	email = fmt.Sprintf("test-%d-%s@example.com", ts, suffix)
	password = "TestPassword123!"
	return
}

// ExtractQueryToken pulls the token out of a link like
// ".../confirm?token=abc" embedded in an email body.
func ExtractQueryToken(emailBody string) string {
	idx := strings.Index(emailBody, "token=")
	if idx == -1 {
		return ""
	}
	rest := emailBody[idx+len("token="):]
	if end := strings.IndexAny(rest, `"'&<>`); end != -1 {
		return rest[:end]
	}
	return rest
}
