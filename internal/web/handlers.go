package web

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/JonMunkholm/gridroute/internal/route"
)

const formContentType = "application/x-www-form-urlencoded"

// handleExec dispatches GET and POST requests to the action router.
func (s *Server) handleExec(w http.ResponseWriter, r *http.Request) {
	ctx := withRequestMetadata(r)

	req, err := s.buildRequest(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	verb := route.Verb(r.Method)

	if err := s.limiter.Acquire(ctx); err != nil {
		respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	resp, err := s.router.Dispatch(ctx, verb, req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// buildRequest converts r into a route.Request. Query parameters come
// first; for form-encoded POSTs the body's fields are appended after them,
// so a query value wins over a form value of the same name.
func (s *Server) buildRequest(w http.ResponseWriter, r *http.Request) (*route.Request, error) {
	multi := map[string][]string{}
	merge(multi, r.URL.Query())

	req := &route.Request{}

	if r.Method == http.MethodPost && r.Body != nil {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		req.Body = string(body)

		if ct := r.Header.Get("Content-Type"); ct != "" {
			mediaType, _, err := mime.ParseMediaType(ct)
			if err != nil {
				mediaType = ct
			}
			req.ContentType = mediaType
			if mediaType == formContentType {
				form, err := url.ParseQuery(req.Body)
				if err != nil {
					return nil, fmt.Errorf("parse form body: %w", err)
				}
				merge(multi, form)
			}
		}
	}

	req.Params = make(map[string]string, len(multi))
	for k, vs := range multi {
		if len(vs) > 0 {
			req.Params[k] = vs[0]
		}
	}
	if len(multi) > 0 {
		req.Multi = multi
	}
	return req, nil
}

func merge(dst map[string][]string, src url.Values) {
	for k, vs := range src {
		dst[k] = append(dst[k], vs...)
	}
}

type actionsResponse struct {
	Get  []string `json:"get"`
	Post []string `json:"post"`
}

// handleActions lists the registered action names per verb.
func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, actionsResponse{
		Get:  s.router.Actions(route.VerbGet),
		Post: s.router.Actions(route.VerbPost),
	})
}

// handleMenu returns the menu built at startup. Before the on-open hooks
// have run, or with no bootstrap at all, the menu is reported as hidden.
func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	if s.bootstrap != nil {
		if menu, ok := s.bootstrap.Menu(); ok {
			writeJSON(w, http.StatusOK, menu)
			return
		}
	}
	writeJSON(w, http.StatusOK, struct {
		Visible bool `json:"visible"`
	}{})
}

type healthResponse struct {
	Status   string              `json:"status"`
	Dispatch route.LimiterStatus `json:"dispatch"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Dispatch: s.limiter.Status(),
	})
}
