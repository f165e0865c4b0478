package api_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"pkt.systems/jmap/api"
)

func TestMethodCallWireShape(t *testing.T) {
	req := api.Request{
		Using: []string{api.URNCore},
		MethodCalls: []api.MethodCall{
			{Name: "Core/echo", Arguments: map[string]any{"hello": "world"}, CallID: "single.Core/echo"},
			{Name: "Mailbox/get", CallID: "1.Mailbox/get"},
		},
	}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"using":["urn:ietf:params:jmap:core"],"methodCalls":[["Core/echo",{"hello":"world"},"single.Core/echo"],["Mailbox/get",{},"1.Mailbox/get"]]}`
	if string(body) != want {
		t.Fatalf("unexpected wire form:\n got %s\nwant %s", body, want)
	}
	var back api.Request
	if err := json.Unmarshal(body, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.MethodCalls[0].CallID != "single.Core/echo" || back.MethodCalls[0].Arguments["hello"] != "world" {
		t.Fatalf("unexpected round trip: %+v", back.MethodCalls[0])
	}
}

func TestDecodeResponse(t *testing.T) {
	body := []byte(`{"methodResponses":[["Core/echo",{"hello":true},"single.Core/echo"]],"sessionState":"s1"}`)
	resp, err := api.DecodeResponse(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionState != "s1" || len(resp.MethodResponses) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	got := resp.MethodResponses[0]
	if got.Name != "Core/echo" || got.CallID != "single.Core/echo" || string(got.Arguments) != `{"hello":true}` {
		t.Fatalf("unexpected triple %+v", got)
	}
}

func TestDecodeResponseMalformed(t *testing.T) {
	cases := map[string]string{
		"two elements":    `{"methodResponses":[["Core/echo",{}]],"sessionState":"s"}`,
		"not a list":      `{"methodResponses":{"a":1},"sessionState":"s"}`,
		"numeric name":    `{"methodResponses":[[1,{},"c0"]],"sessionState":"s"}`,
		"missing list":    `{"sessionState":"s"}`,
		"not json object": `[]`,
	}
	for name, body := range cases {
		_, err := api.DecodeResponse([]byte(body))
		var formatErr *api.ResponseFormatError
		if !errors.As(err, &formatErr) {
			t.Fatalf("%s: expected ResponseFormatError, got %v", name, err)
		}
	}
}

const sessionJSON = `{
  "capabilities": {
    "urn:ietf:params:jmap:core": {
      "maxSizeUpload": 50000000,
      "maxConcurrentUpload": 4,
      "maxSizeRequest": 10000000,
      "maxConcurrentRequests": 4,
      "maxCallsInRequest": 16,
      "maxObjectsInGet": 500,
      "maxObjectsInSet": 500,
      "collationAlgorithms": ["i;ascii-numeric", "i;ascii-casemap", "i;octet"]
    },
    "urn:ietf:params:jmap:mail": {}
  },
  "accounts": {"u1138": {"name": "ness@onett.example.net", "isPersonal": true, "isReadOnly": false}},
  "primaryAccounts": {"urn:ietf:params:jmap:mail": "u1138"},
  "username": "ness@onett.example.net",
  "apiUrl": "https://jmap-api.localhost/api",
  "downloadUrl": "https://jmap-api.localhost/download/{accountId}/{blobId}/{name}?type={type}",
  "uploadUrl": "https://jmap-api.localhost/upload/{accountId}/",
  "eventSourceUrl": "https://jmap-api.localhost/events/{types}/{closeafter}/{ping}",
  "state": "test;session;state"
}`

func TestSessionDescriptor(t *testing.T) {
	sess, err := api.DecodeSession([]byte(sessionJSON))
	if err != nil {
		t.Fatalf("decode session: %v", err)
	}
	core, err := sess.Core()
	if err != nil {
		t.Fatalf("core: %v", err)
	}
	if core.MaxCallsInRequest != 16 || len(core.CollationAlgorithms) != 3 {
		t.Fatalf("unexpected core capability %+v", core)
	}
	if got := sess.CapabilityURNs(); strings.Join(got, ",") != api.URNCore+","+api.URNMail {
		t.Fatalf("unexpected urns %v", got)
	}
	account, err := sess.PrimaryAccount()
	if err != nil || account != "u1138" {
		t.Fatalf("primary account = %q, %v", account, err)
	}
	if _, err := sess.PrimaryAccount(api.URNMaskedEmail); !errors.Is(err, api.ErrNoPrimaryAccount) {
		t.Fatalf("expected ErrNoPrimaryAccount, got %v", err)
	}
	if got := sess.EventSourceURLFor(nil, "", 0); got != "https://jmap-api.localhost/events/*/no/0" {
		t.Fatalf("unexpected event source url %q", got)
	}
	if got := sess.EventSourceURLFor([]string{"Email", "Mailbox"}, "state", 30); got != "https://jmap-api.localhost/events/Email,Mailbox/state/30" {
		t.Fatalf("unexpected event source url %q", got)
	}
	if got := sess.DownloadURLFor("u1138", "B1", "text/plain", "a b.txt"); got != "https://jmap-api.localhost/download/u1138/B1/a%20b.txt?type=text%2Fplain" {
		t.Fatalf("unexpected download url %q", got)
	}
	if got := sess.UploadURLFor("u1138"); got != "https://jmap-api.localhost/upload/u1138/" {
		t.Fatalf("unexpected upload url %q", got)
	}
}

func TestArgHoldsValueOrReference(t *testing.T) {
	var absent api.Arg[[]string]
	if absent.IsSet() {
		t.Fatalf("zero arg must be absent")
	}
	v := api.Value([]string{"a"})
	if got, ok := v.Get(); !ok || got[0] != "a" {
		t.Fatalf("expected literal value")
	}
	r := api.ArgRef[[]string](api.Prev("/ids"))
	if _, ok := r.Get(); ok {
		t.Fatalf("reference arg must not report a value")
	}
	if r.Reference().ReferencePath() != "/ids" {
		t.Fatalf("unexpected reference %+v", r.Reference())
	}
}

func TestGenericErrorMessage(t *testing.T) {
	err := &api.Error{ErrorInfo: api.ErrorInfo{Type: "neverSeenBefore"}}
	if err.Error() != "jmap: method error neverSeenBefore" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	var methodErr api.MethodError = &api.InvalidArguments{ErrorInfo: api.ErrorInfo{Type: api.ErrorInvalidArguments, Description: "bad"}}
	if methodErr.ErrorType() != api.ErrorInvalidArguments || methodErr.MethodName() != "error" {
		t.Fatalf("unexpected method error %v", methodErr)
	}
}
