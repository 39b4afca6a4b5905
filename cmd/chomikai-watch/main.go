// Package main implements chomikai-watch, a terminal client that follows a
// presentation scan stream and prints its progress. Useful for poking at a
// running server without a browser.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"chomikai/internal/loader"
)

// terminalView renders loader updates as single-line terminal output.
type terminalView struct {
	showHTML bool
}

func (v *terminalView) SetProgress(percent, processed, total int) {
	fmt.Printf("\r[%-50s] %3d%% (%d/%d)", strings.Repeat("=", percent/2), percent, processed, total)
}

func (v *terminalView) SetStatus(text string) {
	fmt.Printf("\n%s\n", text)
}

func (v *terminalView) ShowContent(html string) {
	if v.showHTML {
		fmt.Println(html)
		return
	}
	fmt.Printf("Received %d bytes of rendered content\n", len(html))
}

// cookieTransport adds a session cookie to every request
type cookieTransport struct {
	cookie string
	base   http.RoundTripper
}

func (t *cookieTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Cookie", t.cookie)
	return t.base.RoundTrip(req)
}

func main() {
	url := flag.String("url", "http://localhost:8000/presentations", "stream endpoint to follow")
	cookie := flag.String("cookie", "", "session cookie, as sent by a logged-in browser")
	showHTML := flag.Bool("html", false, "print the rendered grid HTML on completion")
	timeout := flag.Duration("timeout", 5*time.Minute, "give up after this long")
	flag.Parse()

	client := http.DefaultClient
	if *cookie != "" {
		client = &http.Client{
			Transport: &cookieTransport{cookie: *cookie, base: http.DefaultTransport},
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	ctrl := loader.NewWithClient(&terminalView{showHTML: *showHTML}, client)
	if err := ctrl.Run(ctx, *url); err != nil {
		fmt.Fprintf(os.Stderr, "\nStream failed: %v\n", err)
		os.Exit(1)
	}
}
