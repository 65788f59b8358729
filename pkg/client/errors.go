package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized is returned for HTTP 401; the session must be discarded.
	ErrUnauthorized = errors.New("Sessao expirada. Faca login novamente.")
	// ErrNoSession is returned when no bearer token is available.
	ErrNoSession = errors.New("no session token; set OSBOARD_TOKEN or write the token file")
	// ErrConflict matches APIError values with status 409.
	ErrConflict = errors.New("conflict")
)

const (
	forbiddenMessage = "Codigo erro 403 - Seu perfil nao tem permissao para essa operacao."
	conflictMessage  = "OS ja alocada em outra equipe."
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrConflict) match 409 answers.
func (e *APIError) Is(target error) bool {
	return target == ErrConflict && e.Status == http.StatusConflict
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	return 0
}

func newAPIError(method, path string, resp *http.Response, fallback string) *APIError {
	e := &APIError{Method: method, Path: path, Status: resp.StatusCode}
	if resp.StatusCode == http.StatusForbidden {
		_, _ = io.Copy(io.Discard, resp.Body)
		e.Message = forbiddenMessage
		return e
	}
	if resp.StatusCode == http.StatusConflict {
		fallback = conflictMessage
	}
	e.Message = messageFromBody(resp.Body)
	if e.Message == "" {
		e.Message = fallback
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("api %s %s: status %d", method, path, resp.StatusCode)
	}
	return e
}

// messageFromBody prefers {"error": "..."} and falls back to the raw text.
func messageFromBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil {
		return ""
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(b))
}
