package httputil

import "math/rand"

type profile struct {
	userAgent      string
	acceptLanguage string
	secCHUA        string
	platform       string
}

var profiles = []profile{
	{
		userAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		acceptLanguage: "en-US,en;q=0.9",
		secCHUA:        `"Chromium";v="124", "Google Chrome";v="124", "Not-A.Brand";v="99"`,
		platform:       `"Windows"`,
	},
	{
		userAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		acceptLanguage: "en-GB,en;q=0.9",
		secCHUA:        `"Google Chrome";v="123", "Not:A-Brand";v="8", "Chromium";v="123"`,
		platform:       `"macOS"`,
	},
	{
		userAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		acceptLanguage: "en-US,en;q=0.8",
		secCHUA:        `"Chromium";v="124", "Not-A.Brand";v="99"`,
		platform:       `"Linux"`,
	},
	{
		userAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
		acceptLanguage: "en-US,en;q=0.9",
		secCHUA:        `"Chromium";v="124", "Microsoft Edge";v="124", "Not-A.Brand";v="99"`,
		platform:       `"Windows"`,
	},
	{
		// Firefox and Safari don't send client hints.
		userAgent:      "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
		acceptLanguage: "en-US,en;q=0.5",
	},
	{
		userAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4_1) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4.1 Safari/605.1.15",
		acceptLanguage: "en-US,en;q=0.9",
	},
}

// RandomHeaders returns a new browser-like header set picked at random.
// The map is freshly allocated on every call.
func RandomHeaders() map[string]string {
	p := profiles[rand.Intn(len(profiles))]

	h := map[string]string{
		"User-Agent":      p.userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": p.acceptLanguage,
		"Cache-Control":   "no-cache",
		"Pragma":          "no-cache",
	}
	if p.secCHUA != "" {
		h["Sec-CH-UA"] = p.secCHUA
		h["Sec-CH-UA-Mobile"] = "?0"
		h["Sec-CH-UA-Platform"] = p.platform
	}
	return h
}
