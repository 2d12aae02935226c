// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import "bytes"

// blockedMarkers are substrings that identify anti-bot interstitial pages.
// A body containing one of these says nothing about whether the requested
// work exists; the source is simply unusable right now.
var blockedMarkers = []string{
	"DDoS-Guard",
	"ddos-guard",
	"Cloudflare",
	"cf-browser-verification",
	"checking your browser",
	"Checking your browser",
	"Just a moment...",
}

// IsBlockedPage reports whether the body looks like an anti-bot
// interstitial rather than a real response.
func IsBlockedPage(body []byte) bool {
	for _, m := range blockedMarkers {
		if bytes.Contains(body, []byte(m)) {
			return true
		}
	}
	return false
}
