package mention

import (
	"regexp"
)

// handlePattern 匹配 @用户名。用户名允许字母、数字、下划线和连字符，
// 2到64个字符，与user模块的用户名约束一致。
var handlePattern = regexp.MustCompile(`(^|[^\w@])@([\w-]{2,64})`)

// ParseHandles 从自由文本中解析被@的用户名。
// 同一用户名在一段文本中出现多次只返回一次，顺序按首次出现。
func ParseHandles(text string) []string {
	matches := handlePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	handles := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[2]
		if seen[name] {
			continue
		}
		seen[name] = true
		handles = append(handles, name)
	}
	return handles
}
