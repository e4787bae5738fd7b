package nodeid

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/vmihailenco/msgpack/v5"
)

// codecVersion leads every encoded array.
const codecVersion uint8 = 1

// maxDecoded bounds the inflated size of a token.
const maxDecoded = 64 << 10

var encoding = base64.RawURLEncoding

// DecodeError reports a token that could not be decoded.
type DecodeError struct {
	Token  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	token := e.Token
	if len(token) > 32 {
		token = token[:32] + "..."
	}
	if e.Err != nil {
		return fmt.Sprintf("nodeid: invalid token %q: %s: %v", token, e.Reason, e.Err)
	}
	return fmt.Sprintf("nodeid: invalid token %q: %s", token, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Encode returns the token for id. Equal non-transient identities always
// produce the same token.
func Encode(id Identity) (string, error) {
	if id == nil {
		return "", errors.New("nodeid: cannot encode a nil identity")
	}
	var packed bytes.Buffer
	enc := msgpack.NewEncoder(&packed)
	parts := id.parts()
	n := 2 + len(parts)
	t, transient := id.(Transient)
	if transient {
		n++
	}
	if err := enc.EncodeArrayLen(n); err != nil {
		return "", fmt.Errorf("nodeid: encode: %w", err)
	}
	if err := enc.EncodeUint8(codecVersion); err != nil {
		return "", fmt.Errorf("nodeid: encode: %w", err)
	}
	if err := enc.EncodeUint8(uint8(id.Kind())); err != nil {
		return "", fmt.Errorf("nodeid: encode: %w", err)
	}
	for _, p := range parts {
		if err := enc.EncodeString(p); err != nil {
			return "", fmt.Errorf("nodeid: encode: %w", err)
		}
	}
	if transient {
		if err := enc.EncodeInt64(t.Created.UnixNano()); err != nil {
			return "", fmt.Errorf("nodeid: encode: %w", err)
		}
	}

	var compressed bytes.Buffer
	w, err := flate.NewWriter(&compressed, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("nodeid: compress: %w", err)
	}
	if _, err := w.Write(packed.Bytes()); err != nil {
		return "", fmt.Errorf("nodeid: compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("nodeid: compress: %w", err)
	}
	return encoding.EncodeToString(compressed.Bytes()), nil
}

// MustEncode is Encode for identities known to be valid.
func MustEncode(id Identity) string {
	token, err := Encode(id)
	if err != nil {
		panic(err)
	}
	return token
}

// Decode parses a token produced by Encode. Every failure is a *DecodeError.
func Decode(token string) (id Identity, err error) {
	defer func() {
		if r := recover(); r != nil {
			id, err = nil, &DecodeError{Token: token, Reason: "corrupt payload", Err: fmt.Errorf("%v", r)}
		}
	}()
	fail := func(reason string, cause error) (Identity, error) {
		return nil, &DecodeError{Token: token, Reason: reason, Err: cause}
	}

	if token == "" {
		return fail("empty token", nil)
	}
	compressed, err := encoding.DecodeString(token)
	if err != nil {
		return fail("not base64", err)
	}
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()
	packed, err := io.ReadAll(io.LimitReader(r, maxDecoded+1))
	if err != nil {
		return fail("not compressed", err)
	}
	if len(packed) > maxDecoded {
		return fail("payload too large", nil)
	}

	br := bytes.NewReader(packed)
	dec := msgpack.NewDecoder(br)
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return fail("not an array", err)
	}
	if n < 2 {
		return fail("short array", nil)
	}
	version, err := dec.DecodeUint8()
	if err != nil {
		return fail("bad version", err)
	}
	if version != codecVersion {
		return fail(fmt.Sprintf("unsupported version %d", version), nil)
	}
	rawKind, err := dec.DecodeUint8()
	if err != nil {
		return fail("bad kind", err)
	}
	kind := Kind(rawKind)
	b, ok := builders[kind]
	if !ok {
		return fail(fmt.Sprintf("unknown kind %d", rawKind), nil)
	}
	want := 2 + b.arity
	if kind == KindTransient {
		want++
	}
	if n != want {
		return fail(fmt.Sprintf("%s expects %d fields, got %d", kind, want, n), nil)
	}

	parts := make([]string, b.arity)
	for i := range parts {
		if parts[i], err = dec.DecodeString(); err != nil {
			return fail("bad field", err)
		}
	}
	id = b.build(parts)
	if kind == KindTransient {
		nanos, err := dec.DecodeInt64()
		if err != nil {
			return fail("bad timestamp", err)
		}
		t := id.(Transient)
		t.Created = time.Unix(0, nanos).UTC()
		id = t
	}
	if br.Len() != 0 {
		return fail("trailing data", nil)
	}
	return id, nil
}
