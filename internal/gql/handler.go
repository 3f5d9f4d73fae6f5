package gql

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/inventa/inventory-api/internal/pkg/httputil"
	"github.com/inventa/inventory-api/internal/pkg/metrics"
)

// maxRequestBytes caps the size of a GraphQL request body.
const maxRequestBytes = 1 << 20

// Request is a GraphQL over HTTP request body.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Handler serves GraphQL requests.
type Handler struct {
	schema graphql.Schema
}

// NewHandler creates a new GraphQL handler.
func NewHandler(schema graphql.Schema) *Handler {
	return &Handler{schema: schema}
}

// RegisterRoutes registers the GraphQL endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/graphql", h.ServeGraphQL)
	r.Post("/graphql", h.ServeGraphQL)
}

// ServeGraphQL handles GET and POST /graphql.
// Execution errors are reported in the response body with status 200.
func (h *Handler) ServeGraphQL(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		metrics.GraphQLRequests.WithLabelValues("bad_request").Inc()
		respondErrors(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Query == "" {
		metrics.GraphQLRequests.WithLabelValues("bad_request").Inc()
		respondErrors(w, http.StatusBadRequest, "query is required")
		return
	}

	if r.Method == http.MethodGet && isMutation(req.Query, req.OperationName) {
		metrics.GraphQLRequests.WithLabelValues("bad_request").Inc()
		w.Header().Set("Allow", http.MethodPost)
		respondErrors(w, http.StatusMethodNotAllowed, "mutations require POST")
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})

	if result.HasErrors() {
		metrics.GraphQLRequests.WithLabelValues("error").Inc()
	} else {
		metrics.GraphQLRequests.WithLabelValues("success").Inc()
	}

	httputil.JSON(w, http.StatusOK, result)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (Request, error) {
	var req Request

	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if vars := q.Get("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				return req, errors.New("invalid variables")
			}
		}
		return req, nil
	}

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		return req, errors.New("invalid json")
	}
	return req, nil
}

// isMutation reports whether the operation selected by name is a mutation.
// Unparseable documents are left to graphql.Do to report.
func isMutation(query, operationName string) bool {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return false
	}
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if operationName != "" && (op.Name == nil || op.Name.Value != operationName) {
			continue
		}
		if op.Operation == ast.OperationTypeMutation {
			return true
		}
	}
	return false
}

func respondErrors(w http.ResponseWriter, status int, message string) {
	httputil.JSON(w, status, map[string]interface{}{
		"errors": []map[string]string{{"message": message}},
	})
}
