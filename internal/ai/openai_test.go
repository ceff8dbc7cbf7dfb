package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *OpenAIClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewOpenAI(srv.URL, "sk-test", "test-model")
	return srv, client
}

func TestRespond_TextOnly(t *testing.T) {
	var gotBody chatCompletionRequest
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("auth header = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"Olá! Como posso ajudar?"}}]}`))
	})

	reply, err := client.Respond(context.Background(), Request{
		System:   "seja cordial",
		History:  []Message{{Role: "user", Content: "primeira"}, {Role: "assistant", Content: "resposta"}},
		UserText: "oi",
	})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if reply.Text != "Olá! Como posso ajudar?" {
		t.Errorf("text = %q", reply.Text)
	}
	if len(reply.ToolCalls) != 0 {
		t.Errorf("unexpected tool calls: %+v", reply.ToolCalls)
	}

	// system + 2 history + user
	if len(gotBody.Messages) != 4 {
		t.Fatalf("sent %d messages, want 4", len(gotBody.Messages))
	}
	if gotBody.Messages[0].Role != "system" || gotBody.Messages[3].Content != "oi" {
		t.Errorf("message order wrong: %+v", gotBody.Messages)
	}
	if gotBody.Model != "test-model" {
		t.Errorf("model = %q", gotBody.Model)
	}
}

func TestRespond_ToolCalls(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body chatCompletionRequest
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.Tools) != 1 || body.Tools[0].Function.Name != "mostrar_item" {
			t.Errorf("tools = %+v", body.Tools)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"Claro!","tool_calls":[` +
			`{"function":{"name":"mostrar_item","arguments":"{\"nome_item\":\"Aurora\"}"}},` +
			`{"function":{"name":"enviar_menu","arguments":""}}]}}]}`))
	})

	reply, err := client.Respond(context.Background(), Request{
		UserText: "quero ver o aurora",
		Tools: []ToolDef{{
			Name:        "mostrar_item",
			Description: "mostra um item",
			Params:      []Param{{Name: "nome_item", Required: true}},
		}},
	})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if reply.Text != "Claro!" {
		t.Errorf("text = %q", reply.Text)
	}
	if len(reply.ToolCalls) != 2 {
		t.Fatalf("got %d tool calls, want 2", len(reply.ToolCalls))
	}
	if reply.ToolCalls[0].Name != "mostrar_item" || reply.ToolCalls[0].Args["nome_item"] != "Aurora" {
		t.Errorf("first call = %+v", reply.ToolCalls[0])
	}
	if reply.ToolCalls[1].Name != "enviar_menu" || len(reply.ToolCalls[1].Args) != 0 {
		t.Errorf("second call = %+v", reply.ToolCalls[1])
	}
}

func TestRespond_APIError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	})

	_, err := client.Respond(context.Background(), Request{UserText: "oi"})
	if err == nil {
		t.Fatal("expected error on HTTP 429")
	}
}

func TestRespond_EmptyChoices(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	if _, err := client.Respond(context.Background(), Request{UserText: "oi"}); err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestParseArgs(t *testing.T) {
	args := parseArgs(`{"nome":"Aurora","numero":3,"flag":true}`)
	if args["nome"] != "Aurora" || args["numero"] != "3" || args["flag"] != "true" {
		t.Errorf("args = %+v", args)
	}

	if got := parseArgs("not json"); len(got) != 0 {
		t.Errorf("malformed blob should yield empty args, got %+v", got)
	}
	if got := parseArgs(""); len(got) != 0 {
		t.Errorf("empty blob should yield empty args, got %+v", got)
	}
}

func TestToolSchema(t *testing.T) {
	schema := toolSchema(ToolDef{
		Name: "t",
		Params: []Param{
			{Name: "a", Required: true},
			{Name: "b"},
		},
	})
	props := schema["properties"].(map[string]any)
	if len(props) != 2 {
		t.Errorf("properties = %+v", props)
	}
	required, _ := schema["required"].([]string)
	if len(required) != 1 || required[0] != "a" {
		t.Errorf("required = %v", required)
	}
}
