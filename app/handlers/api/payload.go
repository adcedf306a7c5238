package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Rakhulsr/go-portal/app/services"
	"github.com/samber/lo"
)

// Detail is one entry of a 422 response. Loc names where the bad value
// came from, e.g. ["body", "payload", "title"].
type Detail struct {
	Type string   `json:"type"`
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
}

type Details []Detail

func (d Details) Error() string {
	return strings.Join(lo.Map(d, func(e Detail, _ int) string {
		return strings.Join(e.Loc, ".") + ": " + e.Msg
	}), "; ")
}

type ValidationBody struct {
	Detail Details `json:"detail"`
}

var (
	bodyLoc = []string{"body", "payload"}
	formLoc = []string{"form"}
)

func at(loc []string, field string) []string {
	return append(append(make([]string, 0, len(loc)+1), loc...), field)
}

func missing(loc []string, field string) Detail {
	return Detail{Type: "missing", Loc: at(loc, field), Msg: "Field required"}
}

func intParsing(loc, field string) Detail {
	return Detail{
		Type: "int_parsing",
		Loc:  []string{loc, field},
		Msg:  "Input should be a valid integer, unable to parse string as an integer",
	}
}

func fromValidation(verrs services.ValidationErrors, loc []string) Details {
	return lo.Map(verrs, func(fe services.FieldError, _ int) Detail {
		return Detail{Type: fe.Type, Loc: at(loc, fe.Field), Msg: fe.Message}
	})
}

// payload is a decoded JSON object kept raw per key, so that an absent
// key can be told apart from an explicit null.
type payload map[string]json.RawMessage

func decodePayload(r *http.Request) (payload, error) {
	var p payload
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&p); err != nil || p == nil {
		return nil, Details{{Type: "json_invalid", Loc: []string{"body", "payload"}, Msg: "JSON object expected"}}
	}
	return p, nil
}

// fieldReader copies present payload keys into their destinations and
// collects the type errors it meets on the way.
type fieldReader struct {
	p    payload
	errs Details
}

func newFieldReader(p payload) *fieldReader {
	return &fieldReader{p: p}
}

func (f *fieldReader) has(key string) bool {
	_, ok := f.p[key]
	return ok
}

// Require records a missing entry for every absent key.
func (f *fieldReader) Require(keys ...string) {
	for _, k := range keys {
		if !f.has(k) {
			f.errs = append(f.errs, missing(bodyLoc, k))
		}
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (f *fieldReader) String(key string, dst *string) {
	raw, ok := f.p[key]
	if !ok {
		return
	}
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		f.errs = append(f.errs, Detail{Type: "string_type", Loc: at(bodyLoc, key), Msg: "Input should be a valid string"})
		return
	}
	*dst = s
}

// OptionalID accepts a positive integer or null.
func (f *fieldReader) OptionalID(key string, dst **uint) {
	raw, ok := f.p[key]
	if !ok {
		return
	}
	if isNull(raw) {
		*dst = nil
		return
	}
	var id uint
	if err := json.Unmarshal(raw, &id); err != nil {
		f.errs = append(f.errs, Detail{Type: "int_type", Loc: at(bodyLoc, key), Msg: "Input should be a valid integer"})
		return
	}
	*dst = &id
}

func (f *fieldReader) Err() error {
	if len(f.errs) == 0 {
		return nil
	}
	return f.errs
}

// formOptionalID reads a multipart id field where "" and "null" mean none.
func formOptionalID(r *http.Request, key string) (*uint, *Detail) {
	raw := strings.TrimSpace(r.PostForm.Get(key))
	if raw == "" || raw == "null" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil {
		d := intParsing("form", key)
		return nil, &d
	}
	v := uint(id)
	return &v, nil
}
