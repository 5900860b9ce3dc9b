package watsonwork

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/jsdelfino/watsonwork-weather/common/logger"
)

var ErrGraphQL = errors.New("watson work graphql")

// document is a GraphQL operation checked for syntax when the client is built.
type document struct {
	name  string
	query string
	views []string
}

func parseDocument(name, query string, views ...string) (document, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: name, Input: query})
	if err != nil {
		return document{}, fmt.Errorf("parsing %s: %w", name, err)
	}
	if len(doc.Operations) != 1 || doc.Operations[0].Name != name {
		return document{}, fmt.Errorf("%s: expected a single operation named %s", name, name)
	}
	return document{name: name, query: query, views: views}, nil
}

type graphqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

func (c *Client) do(ctx context.Context, doc document, vars map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: doc.query, OperationName: doc.name, Variables: vars})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", doc.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", doc.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if len(doc.views) > 0 {
		req.Header.Set("x-graphql-view", strings.Join(doc.views, ", "))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrGraphQL, doc.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: reading %s response: %v", ErrGraphQL, doc.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: status %d: %s", ErrGraphQL, doc.name, resp.StatusCode, logger.Truncate(string(raw), 200))
	}

	var gr graphqlResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", ErrGraphQL, doc.name, err)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("%w: %s: %s", ErrGraphQL, doc.name, strings.Join(msgs, "; "))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("%w: decoding %s data: %v", ErrGraphQL, doc.name, err)
	}
	return nil
}
