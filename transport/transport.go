// Package transport provides the HTTP implementation of the jsonapi
// Transport contract: it translates (type, id, options) triples into requests
// against a configured base endpoint and parses response bodies into
// documents.
//
// It performs no retries and no caching; failures and cancellation propagate
// directly to the caller.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	jsonapi "github.com/bjornharrtell/json-api"
	"github.com/bjornharrtell/json-api/config"
	"github.com/bjornharrtell/json-api/logging"
)

// atomicContentType is the content type of atomic operations requests, the
// base media type with the atomic extension applied.
var atomicContentType = fmt.Sprintf("%s;ext=%q", jsonapi.ContentType, jsonapi.AtomicExtension)

// StatusError is the typed failure for a non-success HTTP response. It
// carries the status code and, when the response body parsed as a JSON:API
// error document, that document's errors. Errors returned from Client methods
// wrap a StatusError together with jsonapi.ErrTransport, so both errors.As
// and errors.Is work on them.
type StatusError struct {
	Status int
	Errors []jsonapi.ErrorObject
}

func (e StatusError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Errors[0].Message())
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, http.StatusText(e.Status))
}

// Client is an HTTP transport for JSON:API endpoints. The zero value is not
// usable; call New.
type Client struct {
	http       *http.Client
	base       string
	atomicPath string
	headers    map[string]string
	log        logging.Logger
}

// New creates a Client from the given config. The config's Endpoint is
// required; other values get their defaults filled in.
func New(cfg config.Config) (*Client, error) {
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var logger logging.Logger = logging.NoOpLogger{}
	if cfg.Log.Enabled {
		var err error
		logger, err = cfg.Log.Create()
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
	}

	return &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		base:       strings.TrimRight(cfg.Endpoint, "/"),
		atomicPath: cfg.AtomicPath,
		headers:    cfg.Headers,
		log:        logger,
	}, nil
}

// FetchDocument fetches the collection document for typ when id is empty, or
// the single-resource document for typ/id otherwise.
func (c *Client) FetchDocument(ctx context.Context, typ, id string, opts *jsonapi.Options, params map[string]string) (*jsonapi.Document, error) {
	parts := []string{typ}
	if id != "" {
		parts = append(parts, id)
	}
	return c.getDocument(ctx, parts, opts, params)
}

// FetchHasMany fetches the document of a to-many relationship.
func (c *Client) FetchHasMany(ctx context.Context, typ, id, relationship string, opts *jsonapi.Options, params map[string]string) (*jsonapi.Document, error) {
	return c.getDocument(ctx, []string{typ, id, relationship}, opts, params)
}

// FetchBelongsTo fetches the document of a to-one relationship.
func (c *Client) FetchBelongsTo(ctx context.Context, typ, id, relationship string, opts *jsonapi.Options, params map[string]string) (*jsonapi.Document, error) {
	return c.getDocument(ctx, []string{typ, id, relationship}, opts, params)
}

// Post sends a single resource wrapped in a document. A resource with an id
// is an update and goes out as a PATCH to its resource URL; one without is a
// create and goes out as a POST to its collection URL.
func (c *Client) Post(ctx context.Context, res jsonapi.Resource, opts *jsonapi.Options) (*jsonapi.Document, error) {
	method := http.MethodPost
	parts := []string{res.Type}
	if res.ID != "" {
		method = http.MethodPatch
		parts = append(parts, res.ID)
	}

	body, err := c.request(ctx, method, c.buildURL(parts, opts, nil), jsonapi.SingleDocument(res), jsonapi.ContentType, opts)
	if err != nil {
		return nil, err
	}
	return decodeDocument(body)
}

// PostAtomic sends an atomic operations batch to the configured atomic
// endpoint. A no-content response returns a nil document and a nil error.
func (c *Client) PostAtomic(ctx context.Context, doc jsonapi.AtomicDocument, opts *jsonapi.Options) (*jsonapi.AtomicResultDocument, error) {
	target := c.base + c.atomicPath
	body, err := c.request(ctx, http.MethodPost, target, doc, atomicContentType, opts)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}

	var result jsonapi.AtomicResultDocument
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, jsonapi.NewError("decode atomic result document", err, jsonapi.ErrBadDocument)
	}
	return &result, nil
}

func (c *Client) getDocument(ctx context.Context, parts []string, opts *jsonapi.Options, params map[string]string) (*jsonapi.Document, error) {
	body, err := c.request(ctx, http.MethodGet, c.buildURL(parts, opts, params), nil, jsonapi.ContentType, opts)
	if err != nil {
		return nil, err
	}
	return decodeDocument(body)
}

// buildURL joins the base endpoint with the escaped path parts and appends
// the query string built from opts and params.
func (c *Client) buildURL(parts []string, opts *jsonapi.Options, params map[string]string) string {
	var sb strings.Builder
	sb.WriteString(c.base)
	for _, part := range parts {
		sb.WriteString("/")
		sb.WriteString(url.PathEscape(part))
	}

	query := buildQuery(opts, params)
	if len(query) > 0 {
		sb.WriteString("?")
		sb.WriteString(query.Encode())
	}

	return sb.String()
}

// buildQuery encodes the recognized option fields plus the caller's verbatim
// params as a query string. Filter and params values are passed through
// unmodified; this layer attaches no semantics to them.
func buildQuery(opts *jsonapi.Options, params map[string]string) url.Values {
	q := url.Values{}

	if opts != nil {
		for typ, fields := range opts.Fields {
			q.Set("fields["+typ+"]", strings.Join(fields, ","))
		}
		if opts.Page != nil {
			if opts.Page.Size > 0 {
				q.Set("page[size]", strconv.Itoa(opts.Page.Size))
			}
			if opts.Page.Number > 0 {
				q.Set("page[number]", strconv.Itoa(opts.Page.Number))
			}
		}
		if len(opts.Include) > 0 {
			q.Set("include", strings.Join(opts.Include, ","))
		}
		if opts.Filter != "" {
			q.Set("filter", opts.Filter)
		}
	}

	for key, val := range params {
		q.Set(key, val)
	}

	return q
}

// request performs one round trip and returns the response body. A response
// with no content returns a nil body and a nil error. Any non-2xx status
// returns an error wrapping a StatusError and jsonapi.ErrTransport.
func (c *Client) request(ctx context.Context, method, target string, payload any, contentType string, opts *jsonapi.Options) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", jsonapi.ContentType)
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}
	for name, val := range c.headers {
		req.Header.Set(name, val)
	}
	if opts != nil {
		for name, vals := range opts.Header {
			for _, val := range vals {
				req.Header.Set(name, val)
			}
		}
	}

	c.log.Tracef("%s %s", method, target)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, jsonapi.WrapTransportErrorf(err, "%s %s", method, target)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, jsonapi.WrapTransportErrorf(err, "%s %s: read response", method, target)
	}

	c.log.Debugf("%s %s: HTTP-%d (%d bytes)", method, target, resp.StatusCode, len(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, body)
	}

	if resp.StatusCode == http.StatusNoContent || len(body) == 0 {
		return nil, nil
	}

	return body, nil
}

// statusError builds the typed failure for a non-success response, pulling
// the message from the parsed error document's first error when the body
// holds one.
func statusError(status int, body []byte) error {
	statusErr := StatusError{Status: status}

	var doc jsonapi.Document
	if len(body) > 0 && json.Unmarshal(body, &doc) == nil {
		statusErr.Errors = doc.Errors
	}

	return jsonapi.WrapTransportError(statusErr)
}

func decodeDocument(body []byte) (*jsonapi.Document, error) {
	if len(body) == 0 {
		return &jsonapi.Document{}, nil
	}

	var doc jsonapi.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, jsonapi.NewError("decode response document", err, jsonapi.ErrBadDocument)
	}
	return &doc, nil
}
