// Package router implements the Request Router (C9, spec §4.8): a single
// ingress that dispatches by content-type and path to RPC framing, query
// framing, static pages, and the submission handler. Grounded on
// go-chi/chi/v5 (promoted from AKJUS-bsc-erigon/go.mod) for path/method
// routing, with spec §4.8's content-type/HTTP-2 sniff implemented as a
// chi middleware-style wrapper in front of the mux so an RPC request never
// reaches chi's route matching at all.
package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/log"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/metrics"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/submit"
)

// Legacy is the set of demo/admin handlers spec §4.8 says are "specified
// only at the level of their HTTP status mapping; they are not core" —
// /get_objects, /set_storage/{n}, /ptb_shared. They are optional; a nil
// Legacy leaves those routes 404ing like "anything else" in the dispatch
// table, which is a valid status mapping for code that mixes indexer and
// example-application concerns spec §9 explicitly disclaims from the core
// design.
type Legacy interface {
	GetObjects(w http.ResponseWriter, r *http.Request)
	SetStorage(w http.ResponseWriter, r *http.Request, n string)
	PTBShared(w http.ResponseWriter, r *http.Request, chain string)
}

// Options configures New.
type Options struct {
	// Submit handles POST /submit (spec §4.7).
	Submit *submit.Handler
	// RPC is the bridge into the RPC surface (spec §4.6 QueryTable, §4.5
	// SubscribeTable): anything the content-type/HTTP-2 sniff recognizes
	// as an RPC call is forwarded here verbatim. Typically
	// *grpc.Server.ServeHTTP.
	RPC http.Handler
	// GraphQL forwards /graphql requests verbatim to the query backend's
	// HTTP framing (spec §4.8: "Path /graphql -> forward to the query
	// backend").
	GraphQL http.Handler
	// Legacy is optional; see the Legacy doc comment above.
	Legacy Legacy
	// Version is reported by /welcome.
	Version string
}

// New builds the single ingress http.Handler spec §4.8 describes. isRPC
// sniffs each request before chi ever sees it, per spec's dispatch order:
// RPC framing takes priority over every path-based route.
func New(opts Options) http.Handler {
	mux := newMux(opts)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if opts.RPC != nil && isRPCRequest(r) {
			opts.RPC.ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// isRPCRequest implements spec §4.8's RPC-framing recognition: "binary
// length-prefixed, HTTP/2, content-type prefix application/grpc or
// explicit gRPC trailer headers, or HTTP/2 with no other content-type".
func isRPCRequest(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/grpc") {
		return true
	}
	if r.Header.Get("Te") == "trailers" {
		return true
	}
	if r.ProtoMajor == 2 && ct == "" {
		return true
	}
	return false
}

func newMux(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/welcome", welcomeHandler(opts.Version))
	r.Get("/playground", playgroundHandler)
	r.Handle("/metrics", metrics.Handler())

	if opts.Submit != nil {
		r.Post("/submit", opts.Submit.ServeHTTP)
	}

	if opts.GraphQL != nil {
		r.Handle("/graphql", opts.GraphQL)
	}

	if opts.Legacy != nil {
		r.Get("/get_objects", opts.Legacy.GetObjects)
		r.Get("/set_storage/{n}", func(w http.ResponseWriter, req *http.Request) {
			opts.Legacy.SetStorage(w, req, chi.URLParam(req, "n"))
		})
		r.Get("/ptb_shared", func(w http.ResponseWriter, req *http.Request) {
			opts.Legacy.PTBShared(w, req, req.URL.Query().Get("chain"))
		})
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		log.WithComponent("router").Debug().Str("path", req.URL.Path).Msg("no route matched")
		http.NotFound(w, req)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

func welcomeHandler(version string) http.HandlerFunc {
	body := []byte(`{"service":"dubhe-indexer","version":"` + version + `"}`)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

func playgroundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("<html><body><h1>dubhe-indexer</h1></body></html>"))
}
