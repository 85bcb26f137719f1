package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxRequestBody caps the request body size for both protobuf and JSON
// payloads. Report notes are the largest field.
const maxRequestBody = 64 << 10

const protobufType = "application/x-protobuf"

func isProtobufType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == protobufType || mt == "application/protobuf"
}

// isProtobuf reports whether the request body is a protobuf payload.
func isProtobuf(r *http.Request) bool {
	return isProtobufType(r.Header.Get("Content-Type"))
}

// wantsProtobuf reports whether the client accepts a protobuf response.
func wantsProtobuf(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		if isProtobufType(strings.TrimSpace(part)) {
			return true
		}
	}
	return false
}

// decodeBody fills dst from a JSON body, or from a google.protobuf.Value
// body carrying the same object. Unknown fields are rejected either way.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return err
	}
	if isProtobuf(r) {
		body, err = readProto(body)
		if err != nil {
			return err
		}
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// readProto turns a protobuf Value payload into its JSON form.
func readProto(body []byte) ([]byte, error) {
	var v structpb.Value
	if err := proto.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode protobuf: %w", err)
	}
	return protojson.Marshal(&v)
}

// toProtoValue converts any JSON-encodable value into a protobuf Value with
// the same shape and field names as the JSON response.
func toProtoValue(v any) (*structpb.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return structpb.NewValue(generic)
}

// writeProto marshals msg and writes it with the given HTTP status.
func writeProto(w http.ResponseWriter, status int, msg proto.Message) {
	data, err := proto.Marshal(msg)
	if err != nil {
		http.Error(w, "proto marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", protobufType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
