package methods_test

import (
	"encoding/json"
	"reflect"
	"slices"
	"testing"

	"pkt.systems/jmap/api"
	"pkt.systems/jmap/dispatch"
	"pkt.systems/jmap/methods"
	"pkt.systems/jmap/models"
	"pkt.systems/jmap/request"
)

func ptr[T any](v T) *T { return &v }

func TestQueryThenGetChain(t *testing.T) {
	req, err := request.NewBuilder().Build([]request.Method{
		methods.EmailQuery{
			Filter: models.EmailFilterCondition{InMailbox: api.Value("MBX1")},
			Query:  methods.Query{Sort: []models.Comparator{models.Descending("receivedAt")}, Limit: ptr(int64(10))},
		},
		methods.EmailGet{
			Get:            methods.Get{IDs: api.ArgRef[[]string](api.Prev("/ids")), Properties: []string{"subject"}},
			BodyProperties: []string{"partId"},
		},
	}, "u1138")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if want := []string{api.URNCore, api.URNMail}; !reflect.DeepEqual(req.Using, want) {
		t.Fatalf("using = %v, want %v", req.Using, want)
	}
	query := req.MethodCalls[0]
	if query.CallID != "0.Email/query" || query.Arguments["accountId"] != "u1138" {
		t.Fatalf("unexpected query call %#v", query)
	}
	if !reflect.DeepEqual(query.Arguments["filter"], map[string]any{"inMailbox": "MBX1"}) {
		t.Fatalf("unexpected filter %#v", query.Arguments["filter"])
	}
	get := req.MethodCalls[1]
	if _, ok := get.Arguments["ids"]; ok {
		t.Fatalf("referenced ids must not be sent literally")
	}
	want := map[string]any{"name": "Email/query", "path": "/ids", "resultOf": "0.Email/query"}
	if !reflect.DeepEqual(get.Arguments["#ids"], want) {
		t.Fatalf("unexpected #ids %#v", get.Arguments["#ids"])
	}
	if _, err := json.Marshal(req); err != nil {
		t.Fatalf("marshal: %v", err)
	}
}

func TestCapabilitiesPerFamily(t *testing.T) {
	batch, err := request.NewBuilder().Prepare([]request.Method{
		methods.IdentityGet{},
		methods.VacationResponseGet{},
		methods.MaskedEmailGet{},
		methods.CoreEcho{},
	})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	for _, urn := range []string{api.URNCore, api.URNSubmission, api.URNVacationResponse, api.URNMaskedEmail} {
		if !slices.Contains(batch.Using, urn) {
			t.Fatalf("using %v lacks %s", batch.Using, urn)
		}
	}
}

func TestCoreEchoIsNotAccountScoped(t *testing.T) {
	req, err := request.NewBuilder().Build([]request.Method{methods.CoreEcho{Data: map[string]any{"hello": true}}}, "u1138")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	call := req.MethodCalls[0]
	if call.CallID != "single.Core/echo" || !reflect.DeepEqual(call.Arguments, map[string]any{"hello": true}) {
		t.Fatalf("unexpected echo call %#v", call)
	}
}

func TestCustomMethod(t *testing.T) {
	req, err := request.NewBuilder().Build([]request.Method{
		methods.Custom{Name: "Example/ping", Using: []string{"urn:example:ping"}, Data: map[string]any{"n": 1}},
	}, "u1138")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	call := req.MethodCalls[0]
	if call.Name != "Example/ping" || call.Arguments["accountId"] != "u1138" || call.Arguments["n"] != 1 {
		t.Fatalf("unexpected custom call %#v", call)
	}
	if !slices.Contains(req.Using, "urn:example:ping") {
		t.Fatalf("custom capability missing from %v", req.Using)
	}
	explicit, err := codecArgs(methods.Custom{Account: methods.Account{AccountID: "a2"}, Name: "Example/ping"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if explicit["accountId"] != "a2" {
		t.Fatalf("explicit account must win, got %#v", explicit)
	}
}

func codecArgs(m request.Method) (map[string]any, error) {
	req, err := request.NewBuilder().Build([]request.Method{m}, "u1138")
	if err != nil {
		return nil, err
	}
	return req.MethodCalls[0].Arguments, nil
}

func TestSetArguments(t *testing.T) {
	args, err := codecArgs(methods.MailboxSet{
		Set: methods.Set{
			IfInState: api.Value("s1"),
			Update:    map[string]map[string]any{"MBX2": {"name": "Archive"}},
			Destroy:   api.Value([]string{"MBX3"}),
		},
		Create:                map[string]models.Mailbox{"new": {Name: ptr("Receipts")}},
		OnDestroyRemoveEmails: ptr(true),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := map[string]any{
		"accountId":             "u1138",
		"ifInState":             "s1",
		"update":                map[string]any{"MBX2": map[string]any{"name": "Archive"}},
		"destroy":               []any{"MBX3"},
		"create":                map[string]any{"new": map[string]any{"name": "Receipts"}},
		"onDestroyRemoveEmails": true,
	}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("unexpected set arguments:\n got %#v\nwant %#v", args, want)
	}
}

func TestDefaultRegistryDecodesResponses(t *testing.T) {
	body := []byte(`{"methodResponses":[
		["Core/echo",{"hello":true},"c0"],
		["Email/query",{"accountId":"u1138","queryState":"q1","canCalculateChanges":true,"position":0,"ids":["M1","M2"],"total":2},"c1"],
		["Email/get",{"accountId":"u1138","state":"e1","list":[{"id":"M1","subject":"hi"}],"notFound":[]},"c2"],
		["Mailbox/set",{"accountId":"u1138","oldState":null,"newState":"m2","created":{"new":{"id":"MBX9"}},"notDestroyed":{"MBX3":{"type":"mailboxHasEmail"}}},"c3"],
		["error",{"type":"stateMismatch"},"c4"]
	],"sessionState":"s1"}`)
	resp, err := api.DecodeResponse(body)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	results, err := dispatch.Default.Decode(resp.MethodResponses)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	echo := results[0].Response.(*methods.CoreEchoResponse)
	if echo.Data["hello"] != true {
		t.Fatalf("unexpected echo %#v", echo)
	}
	query := results[1].Response.(*methods.EmailQueryResponse)
	if !reflect.DeepEqual(query.IDs, []string{"M1", "M2"}) || query.Total == nil || *query.Total != 2 {
		t.Fatalf("unexpected query response %#v", query)
	}
	get := results[2].Response.(*methods.EmailGetResponse)
	if len(get.List) != 1 || *get.List[0].Subject != "hi" || get.State != "e1" {
		t.Fatalf("unexpected get response %#v", get)
	}
	set := results[3].Response.(*methods.MailboxSetResponse)
	if set.OldState != nil || *set.Created["new"].ID != "MBX9" || set.NotDestroyed["MBX3"].Type != "mailboxHasEmail" {
		t.Fatalf("unexpected set response %#v", set)
	}
	if _, ok := results[4].Response.(*api.StateMismatch); !ok {
		t.Fatalf("expected *api.StateMismatch, got %T", results[4].Response)
	}
}

func TestRegisterCoversEveryResponse(t *testing.T) {
	r := dispatch.NewRegistry()
	methods.Register(r)
	names := r.Names()
	for _, name := range []string{
		"Core/echo", "Mailbox/queryChanges", "Thread/changes", "SearchSnippet/get",
		"Identity/set", "EmailSubmission/query", "VacationResponse/set", "MaskedEmail/get",
	} {
		if !slices.Contains(names, name) {
			t.Fatalf("registry lacks %s", name)
		}
	}
}
