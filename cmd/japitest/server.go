package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	jsonapi "github.com/bjornharrtell/json-api"
	"github.com/go-chi/chi/v5"
)

// mockServer serves a small fixed blog dataset in JSON:API wire format. It is
// just enough server to exercise every client operation; it applies no
// filtering or pagination semantics beyond accepting the query string.
type mockServer struct {
	mtx     sync.Mutex
	nextID  int
	people  []jsonapi.Resource
	coms    []jsonapi.Resource
	arts    []jsonapi.Resource
}

func newMockServer() *mockServer {
	srv := &mockServer{nextID: 100}

	srv.people = []jsonapi.Resource{
		{ID: "9", Type: "people", Attributes: map[string]any{"first-name": "Dan", "last-name": "Gebhardt"}},
	}
	srv.coms = []jsonapi.Resource{
		{
			ID: "5", Type: "comments",
			Attributes: map[string]any{"body": "First!"},
			Relationships: map[string]jsonapi.Relationship{
				"author": jsonapi.ToOne(jsonapi.ResourceIdentifier{Type: "people", ID: "9"}),
			},
		},
		{
			ID: "12", Type: "comments",
			Attributes: map[string]any{"body": "I like XML better"},
			Relationships: map[string]jsonapi.Relationship{
				"author": jsonapi.ToOne(jsonapi.ResourceIdentifier{Type: "people", ID: "9"}),
			},
		},
	}
	srv.arts = []jsonapi.Resource{
		{
			ID: "1", Type: "articles",
			Attributes: map[string]any{"title": "JSON:API paints my bikeshed!"},
			Relationships: map[string]jsonapi.Relationship{
				"author": jsonapi.ToOne(jsonapi.ResourceIdentifier{Type: "people", ID: "9"}),
				"comments": jsonapi.ToMany([]jsonapi.ResourceIdentifier{
					{Type: "comments", ID: "5"},
					{Type: "comments", ID: "12"},
				}),
			},
		},
	}

	return srv
}

func (srv *mockServer) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/articles", srv.handleArticles)
	r.Get("/articles/{id}", srv.handleArticle)
	r.Get("/articles/{id}/comments", srv.handleArticleComments)
	r.Get("/articles/{id}/author", srv.handleArticleAuthor)
	r.Post("/articles", srv.handleCreateArticle)
	r.Patch("/articles/{id}", srv.handleUpdateArticle)
	r.Post("/operations", srv.handleOperations)

	return r
}

func writeDocument(w http.ResponseWriter, status int, doc any) {
	w.Header().Set("Content-Type", jsonapi.ContentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(doc)
}

func writeNotFound(w http.ResponseWriter, detail string) {
	writeDocument(w, http.StatusNotFound, jsonapi.Document{
		Errors: []jsonapi.ErrorObject{{Status: "404", Title: "Not Found", Detail: detail}},
	})
}

func (srv *mockServer) findArticle(id string) *jsonapi.Resource {
	for i := range srv.arts {
		if srv.arts[i].ID == id {
			return &srv.arts[i]
		}
	}
	return nil
}

func (srv *mockServer) handleArticles(w http.ResponseWriter, req *http.Request) {
	srv.mtx.Lock()
	defer srv.mtx.Unlock()

	doc := jsonapi.CollectionDocument(srv.arts)
	doc.Included = append(append([]jsonapi.Resource{}, srv.coms...), srv.people...)
	writeDocument(w, http.StatusOK, doc)
}

func (srv *mockServer) handleArticle(w http.ResponseWriter, req *http.Request) {
	srv.mtx.Lock()
	defer srv.mtx.Unlock()

	art := srv.findArticle(chi.URLParam(req, "id"))
	if art == nil {
		writeNotFound(w, "no such article")
		return
	}

	doc := jsonapi.SingleDocument(*art)
	doc.Included = append(append([]jsonapi.Resource{}, srv.coms...), srv.people...)
	writeDocument(w, http.StatusOK, doc)
}

func (srv *mockServer) handleArticleComments(w http.ResponseWriter, req *http.Request) {
	srv.mtx.Lock()
	defer srv.mtx.Unlock()

	if srv.findArticle(chi.URLParam(req, "id")) == nil {
		writeNotFound(w, "no such article")
		return
	}
	writeDocument(w, http.StatusOK, jsonapi.CollectionDocument(srv.coms))
}

func (srv *mockServer) handleArticleAuthor(w http.ResponseWriter, req *http.Request) {
	srv.mtx.Lock()
	defer srv.mtx.Unlock()

	if srv.findArticle(chi.URLParam(req, "id")) == nil {
		writeNotFound(w, "no such article")
		return
	}
	writeDocument(w, http.StatusOK, jsonapi.SingleDocument(srv.people[0]))
}

func (srv *mockServer) handleCreateArticle(w http.ResponseWriter, req *http.Request) {
	srv.mtx.Lock()
	defer srv.mtx.Unlock()

	var doc jsonapi.Document
	if err := json.NewDecoder(req.Body).Decode(&doc); err != nil {
		writeDocument(w, http.StatusBadRequest, jsonapi.Document{
			Errors: []jsonapi.ErrorObject{{Status: "400", Title: "Bad Request", Detail: err.Error()}},
		})
		return
	}
	res := doc.First()
	if res == nil {
		writeDocument(w, http.StatusBadRequest, jsonapi.Document{
			Errors: []jsonapi.ErrorObject{{Status: "400", Title: "Bad Request", Detail: "no data"}},
		})
		return
	}

	created := *res
	if created.ID == "" {
		created.ID = srv.assignID()
	}
	created.LocalID = ""
	srv.arts = append(srv.arts, created)

	writeDocument(w, http.StatusCreated, jsonapi.SingleDocument(created))
}

func (srv *mockServer) handleUpdateArticle(w http.ResponseWriter, req *http.Request) {
	srv.mtx.Lock()
	defer srv.mtx.Unlock()

	art := srv.findArticle(chi.URLParam(req, "id"))
	if art == nil {
		writeNotFound(w, "no such article")
		return
	}

	var doc jsonapi.Document
	if err := json.NewDecoder(req.Body).Decode(&doc); err != nil || doc.First() == nil {
		writeDocument(w, http.StatusBadRequest, jsonapi.Document{
			Errors: []jsonapi.ErrorObject{{Status: "400", Title: "Bad Request", Detail: "bad body"}},
		})
		return
	}

	for key, val := range doc.First().Attributes {
		if art.Attributes == nil {
			art.Attributes = map[string]any{}
		}
		art.Attributes[key] = val
	}

	writeDocument(w, http.StatusOK, jsonapi.SingleDocument(*art))
}

// handleOperations applies an atomic batch. Adds get server-assigned ids;
// lid references inside later operations of the same batch are rewritten to
// the assigned ids, per the atomic operations extension.
func (srv *mockServer) handleOperations(w http.ResponseWriter, req *http.Request) {
	srv.mtx.Lock()
	defer srv.mtx.Unlock()

	var batch jsonapi.AtomicDocument
	if err := json.NewDecoder(req.Body).Decode(&batch); err != nil {
		writeDocument(w, http.StatusBadRequest, jsonapi.Document{
			Errors: []jsonapi.ErrorObject{{Status: "400", Title: "Bad Request", Detail: err.Error()}},
		})
		return
	}

	assigned := map[string]string{} // lid -> server id
	result := jsonapi.AtomicResultDocument{}

	for _, op := range batch.Operations {
		switch op.Op {
		case jsonapi.OpAdd, jsonapi.OpUpdate:
			if op.Data == nil {
				continue
			}
			res := *op.Data
			if res.ID == "" {
				res.ID = srv.assignID()
				if res.LocalID != "" {
					assigned[res.LocalID] = res.ID
				}
				res.LocalID = ""
			}
			for name, rel := range res.Relationships {
				for i, ident := range rel.Data {
					if id, ok := assigned[ident.LocalID]; ident.LocalID != "" && ok {
						rel.Data[i] = jsonapi.ResourceIdentifier{Type: ident.Type, ID: id}
					}
				}
				res.Relationships[name] = rel
			}
			result.Results = append(result.Results, jsonapi.OperationResult{Data: &res})
		case jsonapi.OpRemove:
			result.Results = append(result.Results, jsonapi.OperationResult{})
		}
	}

	writeDocument(w, http.StatusOK, result)
}

func (srv *mockServer) assignID() string {
	id := fmt.Sprintf("%d", srv.nextID)
	srv.nextID++
	return id
}
