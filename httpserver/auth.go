package httpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ruteri/balancer-helper-registry/api"
	"github.com/ruteri/balancer-helper-registry/interfaces"
)

type callerKey struct{}

// CallerFromContext returns the authenticated caller stored by Authenticate.
func CallerFromContext(ctx context.Context) (interfaces.ContractAddress, bool) {
	caller, ok := ctx.Value(callerKey{}).(interfaces.ContractAddress)
	return caller, ok
}

// Authenticate recovers the caller address from the request signature and
// stores it in the request context. A nonce is accepted once per caller.
// The body is buffered and restored for the next handler.
//
// Authentication only establishes who the caller is. Whether the caller may
// perform the operation is decided by the registry.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(r, h.maxBodySize)
		if err != nil {
			h.writeError(w, err)
			return
		}

		caller, err := api.RecoverCaller(r, body, h.now())
		if err != nil {
			h.log.Warn("Authentication failed", "err", err, "path", r.URL.Path)
			h.writeError(w, &RequestError{StatusCode: http.StatusUnauthorized, Err: err})
			return
		}

		if err := h.nonces.use(caller, r.Header.Get(api.CallerNonceHeader), h.now()); err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, ErrNonceCacheFull) {
				status = http.StatusServiceUnavailable
			}
			h.log.Warn("Caller nonce rejected", "err", err, "caller", caller, "path", r.URL.Path)
			h.writeError(w, &RequestError{StatusCode: status, Err: err})
			return
		}

		h.log.Debug("Caller authenticated", "caller", caller, "path", r.URL.Path)

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
	})
}

func readBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("failed to read request body: %w", err)}
	}
	if int64(len(body)) > limit {
		return nil, &RequestError{StatusCode: http.StatusRequestEntityTooLarge, Err: errors.New("request body too large")}
	}
	return body, nil
}
