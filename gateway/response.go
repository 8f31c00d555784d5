package gateway

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"

	clienterrors "github.com/curnce/curnce-client/internal/errors"
	"github.com/tidwall/gjson"
)

// Kind says how a successful response body was interpreted.
type Kind string

const (
	KindJSON   Kind = "json"
	KindBinary Kind = "binary"
	KindText   Kind = "text"
)

// binaryTypes are document and archive downloads returned as raw bytes.
var binaryTypes = map[string]struct{}{
	"application/pdf":          {},
	"text/csv":                 {},
	"application/csv":          {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
	"application/zip":          {},
	"application/octet-stream": {},
}

// Response is a successful (2xx) backend response. Exactly one of JSON,
// Data or Text is populated, according to Kind.
type Response struct {
	Status      int
	Header      http.Header
	ContentType string
	Kind        Kind

	JSON json.RawMessage
	Data []byte
	Text string
}

func newResponse(status int, header http.Header, body []byte, raw bool) (*Response, error) {
	mediaType := header.Get("Content-Type")
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}
	mediaType = strings.ToLower(mediaType)

	r := &Response{
		Status:      status,
		Header:      header,
		ContentType: mediaType,
	}

	switch {
	case raw || isBinary(mediaType):
		r.Kind = KindBinary
		r.Data = body
	case isJSON(mediaType):
		r.Kind = KindJSON
		if len(strings.TrimSpace(string(body))) == 0 {
			r.JSON = json.RawMessage("null")
			break
		}
		if !json.Valid(body) {
			return nil, fmt.Errorf("decode response: invalid JSON from %s response", mediaType)
		}
		r.JSON = json.RawMessage(body)
	default:
		r.Kind = KindText
		r.Text = string(body)
	}
	return r, nil
}

func isBinary(mediaType string) bool {
	_, ok := binaryTypes[mediaType]
	return ok
}

func isJSON(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// Decode unmarshals a JSON response into v.
func (r *Response) Decode(v any) error {
	if r.Kind != KindJSON {
		return fmt.Errorf("%w: cannot decode %s response as JSON", clienterrors.ErrUnsupported, r.Kind)
	}
	if err := json.Unmarshal(r.JSON, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Value returns the parsed JSON document (maps, slices, float64, ...).
func (r *Response) Value() (any, error) {
	var v any
	if err := r.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Get looks up a field of a JSON response using gjson path syntax.
func (r *Response) Get(path string) gjson.Result {
	if r.Kind != KindJSON {
		return gjson.Result{}
	}
	return gjson.GetBytes(r.JSON, path)
}

// Bytes returns the body whatever its kind.
func (r *Response) Bytes() []byte {
	switch r.Kind {
	case KindJSON:
		return r.JSON
	case KindText:
		return []byte(r.Text)
	default:
		return r.Data
	}
}

// Filename returns the attachment filename suggested by the backend, if any.
// Directory components are stripped so the name is always local.
func (r *Response) Filename() string {
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Disposition"))
	if err != nil {
		return ""
	}
	name := strings.ReplaceAll(params["filename"], `\`, "/")
	name = path.Base(strings.TrimSpace(name))
	switch name {
	case ".", "..", "/", "":
		return ""
	}
	return name
}
