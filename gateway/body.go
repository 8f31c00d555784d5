package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
)

// FormData is a multipart body, used for file uploads. It is sent as-is and
// never JSON encoded.
type FormData struct {
	fields []formField
	files  []formFile
}

type formField struct {
	name  string
	value string
}

type formFile struct {
	field    string
	filename string
	content  []byte
}

func NewFormData() *FormData {
	return &FormData{}
}

// Set adds a plain form field.
func (f *FormData) Set(name, value string) *FormData {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// AddFile adds a file part.
func (f *FormData) AddFile(field, filename string, content []byte) *FormData {
	f.files = append(f.files, formFile{field: field, filename: filename, content: content})
	return f
}

// FileBytes is the combined size of all file parts.
func (f *FormData) FileBytes() int64 {
	var n int64
	for _, file := range f.files {
		n += int64(len(file.content))
	}
	return n
}

func (f *FormData) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range f.fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", field.name, err)
		}
	}
	for _, file := range f.files {
		part, err := w.CreateFormFile(file.field, file.filename)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %s: %w", file.filename, err)
		}
		if _, err := part.Write(file.content); err != nil {
			return nil, "", fmt.Errorf("write form file %s: %w", file.filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// encodedBody is a request body buffered so the same bytes can be resent
// after a refresh.
type encodedBody struct {
	data        []byte
	contentType string
	json        bool
}

// encodeBody turns Options.Body into bytes. Form data, byte slices and
// readers are binary payloads; everything else is a structured value sent
// as JSON.
func encodeBody(body any) (*encodedBody, error) {
	switch b := body.(type) {
	case nil:
		return &encodedBody{}, nil
	case *FormData:
		data, contentType, err := b.encode()
		if err != nil {
			return nil, err
		}
		return &encodedBody{data: data, contentType: contentType}, nil
	case []byte:
		return &encodedBody{data: b}, nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		return &encodedBody{data: data}, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		return &encodedBody{data: data, contentType: "application/json", json: true}, nil
	}
}
