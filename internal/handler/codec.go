package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

const maxBodySize = 1 << 20

// badRequestError marks a body that is not the expected JSON object.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return "malformed request body: " + e.err.Error() }

func (e *badRequestError) Unwrap() error { return e.err }

// validationError marks a well-formed request with unacceptable values.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

// decodeObject reads the request body as a JSON object and calls field for
// every key. Keys the callback does not consume must be skipped by it.
func decodeObject(r *http.Request, field func(d *jx.Decoder, key string) error) error {
	d := jx.Decode(io.LimitReader(r.Body, maxBodySize), 512)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		return field(d, string(key))
	}); err != nil {
		return &badRequestError{err: err}
	}
	return nil
}

// decodeString reads {"<name>": "..."} and requires a non-empty value.
func decodeString(r *http.Request, name string) (string, error) {
	var v string
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if key != name {
			return d.Skip()
		}
		s, err := d.Str()
		v = s
		return err
	})
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", &validationError{msg: name + " required"}
	}
	return v, nil
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	v, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "parse number")
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func encodeMoney(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

func moneyField(e *jx.Encoder, name string, v decimal.Decimal) {
	e.Field(name, func(e *jx.Encoder) { encodeMoney(e, v) })
}

func strField(e *jx.Encoder, name, v string) {
	e.Field(name, func(e *jx.Encoder) { e.Str(v) })
}

func intField(e *jx.Encoder, name string, v int) {
	e.Field(name, func(e *jx.Encoder) { e.Int(v) })
}
