package embed

import (
	_ "embed"
)

// PersonaBasicJSON 嵌入的画像基础数据（姓名、职业、城市池）
// 编译时从 persona_basic.json 嵌入到二进制文件中
//
//go:embed persona_basic.json
var PersonaBasicJSON []byte
