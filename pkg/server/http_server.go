package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/petroflow/petroflow/pkg/application"
)

func NewHTTPServer(app application.Application) *HTTPServer {
	return &HTTPServer{
		controllers: app.Controllers(),
		middlewares: app.Middleware(),
	}
}

type HTTPServer struct {
	controllers []application.Controller
	middlewares []mux.MiddlewareFunc
}

func (s *HTTPServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.middlewares...)
	for _, controller := range s.controllers {
		controller.Register(r)
	}
	return r
}

// Serve runs an already-assembled router, letting the caller attach extra
// handlers before listening.
func (s *HTTPServer) Serve(socketAddress string, router *mux.Router) error {
	return http.ListenAndServe(socketAddress, router)
}
