package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/eduqa/internal/model"
)

// envelope はリモートAPIの共通レスポンス形式 {code, message, data}。
type envelope struct {
	Code    int
	Message string
	Data    json.RawMessage
}

// parseEnvelope はbodyがエンベロープ形式であれば解析結果を返す。
// 数値のcodeに加えてdataまたはmessageを持つJSONオブジェクトをエンベロープとみなす。
func parseEnvelope(body []byte) (*envelope, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}
	rawCode, ok := fields["code"]
	if !ok {
		return nil, false
	}
	_, hasData := fields["data"]
	rawMsg, hasMsg := fields["message"]
	if !hasData && !hasMsg {
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(rawCode, &env.Code); err != nil {
		return nil, false
	}
	if hasMsg {
		// messageが文字列以外の場合は空として扱う
		_ = json.Unmarshal(rawMsg, &env.Message)
	}
	env.Data = fields["data"]
	return &env, true
}

// decode はHTTPステータスとボディからoutへの結果、またはエラーを導出する。
func (c *Client) decode(status int, body []byte, out any) error {
	env, isEnvelope := parseEnvelope(body)

	if status >= 400 {
		if isEnvelope {
			return model.NewRemoteRejectedError(env.Message)
		}
		return &model.TransportError{Status: status, Cause: fmt.Errorf("unexpected status %d: %s", status, snippet(body))}
	}

	if isEnvelope {
		if env.Code != 0 {
			return model.NewRemoteRejectedError(env.Message)
		}
		return decodeInto(status, env.Data, out)
	}
	return decodeInto(status, body, out)
}

func decodeInto(status int, data []byte, out any) error {
	if out == nil {
		return nil
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &model.TransportError{Status: status, Cause: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// snippet はログ・エラー用にボディの先頭を返す。
func snippet(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
