package httphelp

import "github.com/gorilla/mux"

type HandlerRegistrator interface {
	RegisterRoutesWithRouter(router *mux.Router)
}
