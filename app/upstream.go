package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// userAgent identifies us to Lichess and Chess.com per their API guidelines.
const userAgent = "chess-coach/1.0 (ChessDebrief; +https://chessdebrief.com)"

var httpc = &http.Client{Timeout: 30 * time.Second}

// retryBackoff is the base delay between attempts; tests set it to zero.
var retryBackoff = 250 * time.Millisecond

type httpError struct {
	Status int
	Body   string
}

func (e httpError) Error() string { return fmt.Sprintf("http %d: %s", e.Status, e.Body) }

func getJSON(ctx context.Context, url string, v any) error {
	body, err := get(ctx, url, "application/json")
	if err != nil {
		return err
	}
	defer body.Close()
	return json.NewDecoder(body).Decode(v)
}

func getText(ctx context.Context, url, accept string) (string, error) {
	body, err := get(ctx, url, accept)
	if err != nil {
		return "", err
	}
	defer body.Close()
	b, err := io.ReadAll(body)
	return string(b), err
}

// get performs a GET with up to three attempts on 429 and 5xx responses. The
// caller owns the returned body.
func get(ctx context.Context, url, accept string) (io.ReadCloser, error) {
	var last httpError
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", accept)

		res, err := httpc.Do(req)
		if err != nil {
			return nil, err
		}
		if res.StatusCode == http.StatusOK {
			return res.Body, nil
		}

		var msg struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(res.Body, 4096)).Decode(&msg)
		res.Body.Close()
		if msg.Message == "" {
			msg.Message = msg.Error
		}
		last = httpError{Status: res.StatusCode, Body: msg.Message}

		if res.StatusCode != http.StatusTooManyRequests && res.StatusCode < 500 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt+1)):
		}
	}
	return nil, last
}

func isNotFound(err error) bool {
	herr, ok := err.(httpError)
	return ok && herr.Status == http.StatusNotFound
}
