package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fleet-manager/internal/models"
)

// decodeJSON fills dst from data. Timestamp failures surface as validation
// errors, anything else the decoder rejects is a format error.
func decodeJSON(data []byte, dst any) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return invalidFormat("request body is empty")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return invalidFormat("invalid JSON: %v", err)
	}
	return nil
}

func decodeBody(r *http.Request, dst any) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return invalidFormat("read body: %v", err)
	}
	return decodeJSON(data, dst)
}

// queryLimit reads ?limit=, defaulting to models.DefaultPageLimit. The range
// check belongs to the service.
func queryLimit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return models.DefaultPageLimit, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalidFormat("limit must be an integer, got %q", v)
	}
	return n, nil
}

func queryOffset(r *http.Request) (int, error) {
	v := r.URL.Query().Get("offset")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, invalidFormat("offset must be a non-negative integer, got %q", v)
	}
	return n, nil
}

func queryTime(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := models.ParseTime(v)
	if err != nil {
		return time.Time{}, invalidFormat("%s: %v", name, err)
	}
	return t, nil
}

func queryFloat(r *http.Request, name string) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, invalidFormat("%s must be a number, got %q", name, v)
	}
	return f, nil
}

// queryList splits a comma separated parameter, dropping blanks.
func queryList(r *http.Request, name string) []string {
	var out []string
	for _, part := range strings.Split(r.URL.Query().Get(name), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
