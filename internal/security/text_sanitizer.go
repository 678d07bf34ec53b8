// Package security はユーザー入力テキストの無害化を提供する。
//
// 投稿・コメント・名前・自己紹介はプレーンテキストとして保存する。
// bluemondayのStrictPolicyで全てのタグを除去し、StrictPolicyが付けた
// エスケープだけを戻してプレーンテキストに復元する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザー入力テキストのサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// Sanitize はテキストからHTMLタグを除去し、前後の空白を取り除いて返す。
	// script, styleタグは中身ごと除去する。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemonday.Policyはスレッドセーフに使用できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はテキストからHTMLタグを除去する。
// StrictPolicyはテキスト中のエンティティをデコードしてから再エスケープする。
// 入力の&を先にエスケープしておくと、アンエスケープ後に入力どおりの文字列が残る。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	escaped := strings.ReplaceAll(raw, "&", "&amp;")
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(escaped)))
}
