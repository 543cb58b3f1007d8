/*Package nodehttp exposes a device's node tree over HTTP.

One Wrapper binds one device: GET reads a node or lists a branch, POST
writes a node, and a transaction endpoint batches writes the way package
session does.  Values travel in the same single-field JSON bodies the rest
of the lab's services use ({"f64": v}, {"int": v}, ...), chosen by the
node's own type, so a generic dashboard can drive any instrument without
device knowledge.

Routes carry a locker: a measurement script locks the facade during a run
and dashboards get 423 until it unlocks.
*/
package nodehttp

import (
	"encoding/json"
	"errors"
	"go/types"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/nasa-jpl/golabone/nodetree"
	"github.com/nasa-jpl/golabone/server"
	"github.com/nasa-jpl/golabone/server/middleware/locker"
	"github.com/nasa-jpl/golabone/session"
)

// Wrapper binds a device's node tree to an HTTP route tree
type Wrapper struct {
	dev  *session.Device
	lock *locker.Locker
	rt   server.RouteTable
	r    chi.Router
}

// New returns a Wrapper around the device with its routes bound
func New(dev *session.Device) *Wrapper {
	w := &Wrapper{dev: dev, lock: locker.New()}
	w.rt = server.RouteTable{
		"identity":    w.Identity,
		"node/*":      w.GetNode,
		"transaction": w.Transaction,
		"sync":        w.Sync,
	}
	r := chi.NewRouter()
	r.Use(w.lock.Check)
	locker.Inject(r, w.lock)
	r.Get("/identity", w.Identity)
	r.Get("/node/*", w.GetNode)
	r.Post("/node/*", w.SetNode)
	r.Post("/transaction", w.Transaction)
	r.Post("/sync", w.Sync)
	r.Get("/list-of-routes", w.ListRoutes)
	w.r = r
	return w
}

// RT returns the wrapper's route table, implementing server.HTTPer
func (w *Wrapper) RT() server.RouteTable { return w.rt }

// ServeHTTP implements http.Handler
func (w *Wrapper) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	w.r.ServeHTTP(rw, r)
}

// ListRoutes replies with the endpoints the wrapper serves
func (w *Wrapper) ListRoutes(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(w.rt.ListEndpoints())
}

// Locker returns the facade's locker, so a hosting process can lock
// programmatically
func (w *Wrapper) Locker() *locker.Locker { return w.lock }

// Identity replies with the device's identification record
func (w *Wrapper) Identity(rw http.ResponseWriter, r *http.Request) {
	id, err := w.dev.Identity()
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(id)
}

// GetNode reads the node at the wildcard path.  A branch replies with its
// child names; a parameter replies with its value typed by the node.
func (w *Wrapper) GetNode(rw http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	n, err := w.dev.Root().Resolve(rel)
	if err != nil {
		http.Error(rw, err.Error(), httpStatus(err))
		return
	}
	if n.Group != nil {
		kids, err := n.Group.Children()
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		json.NewEncoder(rw).Encode(kids)
		return
	}
	v, err := n.Param.Get()
	if err != nil {
		http.Error(rw, err.Error(), httpStatus(err))
		return
	}
	hp := payloadFor(n.Param.Describe(), v)
	hp.EncodeAndRespond(rw, r)
}

// SetNode writes the node at the wildcard path, decoding the body by the
// node's type
func (w *Wrapper) SetNode(rw http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	n, err := w.dev.Root().Resolve(rel)
	if err != nil {
		http.Error(rw, err.Error(), httpStatus(err))
		return
	}
	if n.Param == nil {
		http.Error(rw, "cannot write a branch", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	var value interface{}
	switch n.Param.Describe().Kind {
	case nodetree.Double:
		f := server.FloatT{}
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		value = f.F64
	case nodetree.Integer, nodetree.Enum:
		i := server.IntT{}
		if err := json.NewDecoder(r.Body).Decode(&i); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		value = i.Int
	case nodetree.String:
		s := server.StrT{}
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		value = s.Str
	default:
		raw := server.RawT{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		value = raw.Value
	}
	if err := n.Param.Set(value); err != nil {
		http.Error(rw, err.Error(), httpStatus(err))
		return
	}
	rw.WriteHeader(http.StatusOK)
}

// txEntry is one write of a batched transaction body
type txEntry struct {
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

// Transaction applies a JSON array of {path, value} writes as one batch
func (w *Wrapper) Transaction(rw http.ResponseWriter, r *http.Request) {
	var entries []txEntry
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	err := w.dev.Transact(func(tx *session.Transaction) error {
		for _, e := range entries {
			if err := tx.Set(e.Path, e.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		http.Error(rw, err.Error(), httpStatus(err))
		return
	}
	rw.WriteHeader(http.StatusOK)
}

// Sync flushes the server-side buffers of the device's session
func (w *Wrapper) Sync(rw http.ResponseWriter, r *http.Request) {
	if err := w.dev.Session().Sync(); err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	rw.WriteHeader(http.StatusOK)
}

func payloadFor(d nodetree.Descriptor, v interface{}) server.HumanPayload {
	switch d.Kind {
	case nodetree.Double:
		if f, ok := v.(float64); ok {
			return server.HumanPayload{T: types.Float64, Float: f}
		}
	case nodetree.Integer, nodetree.Enum:
		if i, ok := v.(int64); ok {
			return server.HumanPayload{T: types.Int64, Int: i}
		}
	case nodetree.String:
		if s, ok := v.(string); ok {
			return server.HumanPayload{T: types.String, String: s}
		}
	}
	return server.HumanPayload{T: types.UntypedNil, Any: v}
}

// httpStatus maps the node tree's error taxonomy onto status codes
func httpStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, nodetree.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, nodetree.ErrValidation),
		errors.Is(err, nodetree.ErrReadOnly),
		errors.Is(err, nodetree.ErrWriteOnly),
		errors.Is(err, nodetree.ErrNotAParameter):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
