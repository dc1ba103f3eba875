// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizer は質問・回答本文のHTMLをサニタイズし、
// 他のユーザーの画面で実行されるスクリプト等を除去する。
// 送信先のAPIサーバーを制限するHTTPクライアントもこのパッケージが提供する。
package security

import (
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer は投稿本文のサニタイズ機能のインターフェースを定義する。
type ContentSanitizer interface {
	// Sanitize は本文HTMLから許可リスト外のタグと属性を除去する。
	// 同一入力に対して常に同一出力を返す。
	Sanitize(rawHTML string) string

	// SanitizeText はタイトルなどプレーンテキスト欄から全てのタグを除去する。
	SanitizeText(raw string) string
}

// contentSanitizer はContentSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに使用できる。
type contentSanitizer struct {
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewContentSanitizer は質問・回答本文向けのサニタイザを生成する。
//   - 許可タグ: p, br, ul, ol, li, blockquote, pre, code, strong, em, a, img
//   - 数式やコードを貼る用途があるため、codeとpreのclass属性（言語指定）を許可する
//   - URLはhttpsスキームのみ許可（aのhref、imgのsrc）
//   - a: target="_blank" と rel="noopener noreferrer" を付与
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre")

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})

	return &contentSanitizer{policy: p, strict: bluemonday.StrictPolicy()}
}

// Sanitize は本文HTMLをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

// SanitizeText はタグを全て除去したテキストを返す。
func (s *contentSanitizer) SanitizeText(raw string) string {
	return s.strict.Sanitize(raw)
}
