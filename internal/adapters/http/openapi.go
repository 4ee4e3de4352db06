package httpadapter

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
)

//go:embed openapi.yaml
var openAPIDocument []byte

type contractValidator struct {
	doc   *openapi3.T
	route *routers.Route
}

func newContractValidator() (*contractValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}

	pathItem := doc.Paths.Find(askPath)
	if pathItem == nil || pathItem.Post == nil {
		return nil, fmt.Errorf("openapi document has no POST %s operation", askPath)
	}

	return &contractValidator{
		doc: doc,
		route: &routers.Route{
			Spec:      doc,
			Path:      askPath,
			PathItem:  pathItem,
			Method:    http.MethodPost,
			Operation: pathItem.Post,
		},
	}, nil
}

// validateAsk checks the request body against the AskRequest schema. The
// body is left readable for the handler.
func (v *contractValidator) validateAsk(r *http.Request) error {
	if r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", "application/json")
	}
	return openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: map[string]string{},
		Route:      v.route,
		Options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	})
}

// validationDetails trims kin-openapi's error down to the schema reason.
func validationDetails(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		var schemaErr *openapi3.SchemaError
		if errors.As(reqErr.Err, &schemaErr) {
			return schemaErr.Reason
		}
		if reqErr.Reason != "" {
			return reqErr.Reason
		}
		if reqErr.Err != nil {
			return reqErr.Err.Error()
		}
	}
	return err.Error()
}
