// Package textutil 规范化识别引擎输出的文本
package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize 去除首尾空白、折叠连续空白并做 NFKC 规范化
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	return norm.NFKC.String(s)
}
