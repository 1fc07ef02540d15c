package ws

import (
	"math/rand"
	"strconv"
	"time"
)

// Frame actions used by the realtime protocol.
const (
	ActionUserOnline = "userOnline"
	ActionUpdate     = "update"
	ActionSysMsg     = "sysmsg"
)

const (
	// userAgent identifies the client class to the cloud.
	userAgent = "app"

	// protocolVersion is the realtime protocol revision.
	protocolVersion = 8

	// nonceLength is the announce nonce size in characters.
	nonceLength = 8

	// ackTimeoutCode is the error code of a synthesized timeout
	// acknowledgement, mirroring the HTTP request-timeout status.
	ackTimeoutCode = 408
)

// onlineAnnounce is the session announcement sent after the socket opens.
// The server sends no direct confirmation; subsequent traffic implies the
// announce was accepted.
type onlineAnnounce struct {
	Action    string `json:"action"`
	APIKey    string `json:"apikey"`
	AppID     string `json:"appid"`
	At        string `json:"at"`
	Nonce     string `json:"nonce"`
	Sequence  string `json:"sequence"`
	TS        int64  `json:"ts"`
	UserAgent string `json:"userAgent"`
	Version   int    `json:"version"`
}

func newOnlineAnnounce(apiKey, appID, accessToken, sequence string) onlineAnnounce {
	return onlineAnnounce{
		Action:    ActionUserOnline,
		APIKey:    apiKey,
		AppID:     appID,
		At:        accessToken,
		Nonce:     randomNonce(nonceLength),
		Sequence:  sequence,
		TS:        time.Now().Unix(),
		UserAgent: userAgent,
		Version:   protocolVersion,
	}
}

// commandEnvelope is a device control request. APIKey addresses the target
// device; SelfAPIKey identifies the commanding account.
type commandEnvelope struct {
	Action     string         `json:"action"`
	APIKey     string         `json:"apikey"`
	DeviceID   string         `json:"deviceid"`
	Params     map[string]any `json:"params"`
	SelfAPIKey string         `json:"selfApikey"`
	Sequence   string         `json:"sequence"`
	UserAgent  string         `json:"userAgent"`
}

// Ack is a decoded command acknowledgement. Error 0 means the device
// accepted the command; any other code is surfaced verbatim.
type Ack struct {
	Error    int            `json:"error"`
	Sequence string         `json:"sequence"`
	Msg      string         `json:"msg,omitempty"`
	Raw      map[string]any `json:"-"`
}

// OK reports whether the command was accepted.
func (a *Ack) OK() bool {
	return a.Error == 0
}

// ackFromReply builds an Ack from a decoded reply frame, keeping the raw
// document for callers that need fields beyond the common three.
func ackFromReply(reply map[string]any) *Ack {
	a := &Ack{Raw: reply}
	if n, ok := reply["error"].(float64); ok {
		a.Error = int(n)
	}
	a.Sequence = sequenceString(reply)
	if s, ok := reply["msg"].(string); ok {
		a.Msg = s
	}
	return a
}

// timeoutAck synthesizes the acknowledgement reported when no reply arrived
// within the command timeout.
func timeoutAck(sequence string) *Ack {
	return &Ack{
		Error:    ackTimeoutCode,
		Sequence: sequence,
		Msg:      "Request Timeout",
		Raw: map[string]any{
			"error":    ackTimeoutCode,
			"sequence": sequence,
			"msg":      "Request Timeout",
		},
	}
}

// sequenceString extracts the sequence field, which some frames carry as a
// string and others as a number.
func sequenceString(msg map[string]any) string {
	switch v := msg["sequence"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

const nonceCharset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// randomNonce generates an alphanumeric nonce of the given length.
func randomNonce(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = nonceCharset[rand.Intn(len(nonceCharset))]
	}
	return string(b)
}
