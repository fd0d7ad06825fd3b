package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope is the host's answer to a single call.
//
// OK is true when the statement ran; Data then holds its payload (an exec
// summary or the query rows). When OK is false, Msg explains why.
type Envelope struct {
	OK   bool            `json:"ok"`
	Msg  string          `json:"msg,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// DecodeEnvelope parses a host response. A trailing NUL is ignored.
//
// The envelope is rejected when it is not a JSON object, when "ok" is
// missing or not a boolean, when a success carries no "data" member, or
// when a failure carries no "msg" string. A "data" of null is a present,
// empty payload.
func DecodeEnvelope(buf []byte) (*Envelope, error) {
	buf = Unframe(buf)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(buf, &fields); err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	if fields == nil {
		return nil, errors.New("envelope: not an object")
	}

	rawOK, ok := fields["ok"]
	if !ok {
		return nil, errors.New(`envelope: missing "ok"`)
	}
	env := &Envelope{}
	if err := json.Unmarshal(rawOK, &env.OK); err != nil || isJSONNull(rawOK) {
		return nil, fmt.Errorf(`envelope: "ok" is not a boolean: %s`, rawOK)
	}

	if env.OK {
		data, ok := fields["data"]
		if !ok {
			return nil, errors.New(`envelope: success without "data"`)
		}
		env.Data = data
		return env, nil
	}

	rawMsg, ok := fields["msg"]
	if !ok || isJSONNull(rawMsg) {
		return nil, errors.New(`envelope: failure without "msg"`)
	}
	if err := json.Unmarshal(rawMsg, &env.Msg); err != nil {
		return nil, fmt.Errorf(`envelope: "msg" is not a string: %w`, err)
	}
	return env, nil
}

// Success builds a framed success envelope around data.
// A nil data is encoded as JSON null.
func Success(data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("envelope data: %w", err)
	}
	return encodeEnvelope(Envelope{OK: true, Data: raw})
}

// Failure builds a framed failure envelope carrying msg.
func Failure(msg string) []byte {
	// Marshalling a bool and a string cannot fail.
	out, _ := encodeEnvelope(Envelope{OK: false, Msg: msg})
	return out
}

func encodeEnvelope(env Envelope) ([]byte, error) {
	wire := struct {
		OK   bool            `json:"ok"`
		Msg  *string         `json:"msg,omitempty"`
		Data json.RawMessage `json:"data,omitempty"`
	}{OK: env.OK, Data: env.Data}
	if !env.OK {
		wire.Msg = &env.Msg
	}
	out, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}
	return Frame(out), nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
