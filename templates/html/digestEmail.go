package templates

import (
	"fmt"
	"html"
	"time"
)

// Digest is the data shown in the daily summary sent to the administrator
type Digest struct {
	SiteName   string
	Since      time.Time
	NewReports int64
	OpenTotal  int64
	AdminURL   string
}

// DigestSubject is the subject line of the daily summary email
func DigestSubject(d Digest) string {
	return fmt.Sprintf("%s: %d new reports", d.SiteName, d.NewReports)
}

// RenderDigestEmail returns the HTML body of the daily summary email
func RenderDigestEmail(d Digest) string {
	link := ""
	if d.AdminURL != "" {
		safeURL := html.EscapeString(d.AdminURL)
		link = fmt.Sprintf(`<p><a href="%s">Open the admin view</a></p>`, safeURL)
	}
	content := fmt.Sprintf(`<p>Since %s:</p>
      <p><span class="stat">%d</span> new reports</p>
      <p><span class="stat">%d</span> reports still open</p>
      %s`,
		html.EscapeString(d.Since.UTC().Format("Jan 2, 2006 15:04 MST")),
		d.NewReports,
		d.OpenTotal,
		link,
	)
	return renderLayout(d.SiteName, DigestSubject(d), content)
}

// RenderDigestText returns the plain-text alternative of the daily summary email
func RenderDigestText(d Digest) string {
	text := fmt.Sprintf("Since %s: %d new reports, %d reports still open.",
		d.Since.UTC().Format("Jan 2, 2006 15:04 MST"), d.NewReports, d.OpenTotal)
	if d.AdminURL != "" {
		text += "\n" + d.AdminURL
	}
	return text
}
