package transcript

import (
	"bufio"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"
)

const requestTimeout = 20 * time.Second

// NewHTTPClient builds the HTTP client used against the caption
// endpoints. An empty cookiesFile skips the jar; empty proxy URLs
// leave the environment-driven default proxy selection in place.
func NewHTTPClient(cookiesFile, httpProxy, httpsProxy string) (*http.Client, error) {
	client := &http.Client{Timeout: requestTimeout}

	if httpProxy != "" || httpsProxy != "" {
		transport, err := proxyTransport(httpProxy, httpsProxy)
		if err != nil {
			return nil, err
		}
		client.Transport = transport
	}

	if cookiesFile != "" {
		jar, err := loadCookieJar(cookiesFile)
		if err != nil {
			return nil, err
		}
		client.Jar = jar
	}
	return client, nil
}

func proxyTransport(httpProxy, httpsProxy string) (*http.Transport, error) {
	var httpURL, httpsURL *url.URL
	var err error
	if httpProxy != "" {
		if httpURL, err = url.Parse(httpProxy); err != nil {
			return nil, fmt.Errorf("parse http proxy: %w", err)
		}
	}
	if httpsProxy != "" {
		if httpsURL, err = url.Parse(httpsProxy); err != nil {
			return nil, fmt.Errorf("parse https proxy: %w", err)
		}
	}
	return &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			if req.URL.Scheme == "https" && httpsURL != nil {
				return httpsURL, nil
			}
			if req.URL.Scheme == "http" && httpURL != nil {
				return httpURL, nil
			}
			return nil, nil
		},
	}, nil
}

// loadCookieJar reads a Netscape-format cookie file and installs the
// youtube.com cookies into a jar.
func loadCookieJar(path string) (http.CookieJar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cookies file: %w", err)
	}
	defer f.Close()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	var cookies []*http.Cookie
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// The #HttpOnly_ prefix marks a real cookie line, other
		// hash-prefixed lines are comments.
		line = strings.TrimPrefix(line, "#HttpOnly_")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			continue
		}
		domain := fields[0]
		if !strings.Contains(domain, "youtube.com") {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:   fields[5],
			Value:  fields[6],
			Path:   fields[2],
			Domain: strings.TrimPrefix(domain, "."),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cookies file: %w", err)
	}

	target := &url.URL{Scheme: "https", Host: "www.youtube.com"}
	jar.SetCookies(target, cookies)
	return jar, nil
}
