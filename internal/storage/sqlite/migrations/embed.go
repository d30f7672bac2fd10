// Package migrations 嵌入 SQLite 状态库的迁移脚本
package migrations

import "embed"

// FS 编译时嵌入的全部迁移脚本
//
//go:embed *.sql
var FS embed.FS
