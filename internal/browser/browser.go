// Package browser opens source-article links in the system browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"

	"factline/internal/timeline"
)

// OpenArticle opens an article's source link. Articles ingested without a
// link (some sources omit one) are reported, not silently ignored.
func OpenArticle(a timeline.Article) error {
	if a.Link == "" {
		return fmt.Errorf("article %q has no source link", a.ID)
	}
	return Open(a.Link)
}

func Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open URL with scheme %q (only http/https allowed)", u.Scheme)
	}

	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", rawURL).Start()
	case "linux":
		return exec.Command("xdg-open", rawURL).Start()
	case "windows":
		// Use rundll32 instead of cmd /c start to avoid shell interpretation
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL).Start()
	default:
		return exec.Command("xdg-open", rawURL).Start()
	}
}
